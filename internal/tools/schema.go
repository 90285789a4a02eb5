package tools

import (
	"errors"
	"fmt"
	"slices"
)

// Schema is the JSON-Schema subset tools use to describe their input.
// It documents parameters; Dispatch does not enforce it.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Minimum     *float64  `json:"minimum,omitempty"`
	Maximum     *float64  `json:"maximum,omitempty"`
	Default     any       `json:"default,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// Object builds an object schema.
func Object(props map[string]Property, required ...string) Schema {
	return Schema{Type: "object", Properties: props, Required: required}
}

func Bound(v float64) *float64 {
	return &v
}

// Validate reports every violation in params, joined.
func (s Schema) Validate(params map[string]any) error {
	var errs []error

	for _, name := range s.Required {
		if v, ok := params[name]; !ok || v == nil {
			errs = append(errs, fmt.Errorf("missing required parameter %q", name))
		}
	}

	for name, v := range params {
		prop, ok := s.Properties[name]
		if !ok || v == nil {
			continue
		}
		if err := prop.check(v); err != nil {
			errs = append(errs, fmt.Errorf("parameter %q: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

func (p Property) check(v any) error {
	switch p.Type {
	case "string":
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", v)
		}
		if len(p.Enum) > 0 && !slices.Contains(p.Enum, s) {
			return fmt.Errorf("%q is not one of %v", s, p.Enum)
		}
	case "number", "integer":
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("want %s, got %T", p.Type, v)
		}
		if p.Type == "integer" && f != float64(int64(f)) {
			return fmt.Errorf("want integer, got %v", f)
		}
		if p.Minimum != nil && f < *p.Minimum {
			return fmt.Errorf("%v is below minimum %v", f, *p.Minimum)
		}
		if p.Maximum != nil && f > *p.Maximum {
			return fmt.Errorf("%v is above maximum %v", f, *p.Maximum)
		}
	case "boolean":
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("want boolean, got %T", v)
		}
	case "array":
		items, ok := v.([]any)
		if !ok {
			if _, isStrings := v.([]string); isStrings {
				return nil
			}
			return fmt.Errorf("want array, got %T", v)
		}
		if p.Items != nil {
			for i, item := range items {
				if err := p.Items.check(item); err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
			}
		}
	case "object":
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("want object, got %T", v)
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
