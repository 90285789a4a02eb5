package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_Validate(t *testing.T) {
	s := Object(map[string]Property{
		"query":      {Type: "string"},
		"timeframe":  {Type: "string", Enum: []string{"today", "tomorrow", "week"}},
		"count":      {Type: "integer", Minimum: Bound(1), Maximum: Bound(50)},
		"max_price":  {Type: "number"},
		"confirm":    {Type: "boolean"},
		"platforms":  {Type: "array", Items: &Property{Type: "string"}},
		"attributes": {Type: "object"},
	}, "query")

	tests := []struct {
		name    string
		params  map[string]any
		wantErr string
	}{
		{"ok", map[string]any{"query": "laptop", "count": 10, "max_price": 999.5}, ""},
		{"missing required", map[string]any{}, `missing required parameter "query"`},
		{"nil required", map[string]any{"query": nil}, `missing required parameter "query"`},
		{"wrong type", map[string]any{"query": 5}, "want string"},
		{"enum", map[string]any{"query": "x", "timeframe": "month"}, "is not one of"},
		{"integer", map[string]any{"query": "x", "count": 2.5}, "want integer"},
		{"minimum", map[string]any{"query": "x", "count": 0}, "below minimum"},
		{"maximum", map[string]any{"query": "x", "count": 51}, "above maximum"},
		{"boolean", map[string]any{"query": "x", "confirm": "yes"}, "want boolean"},
		{"array items", map[string]any{"query": "x", "platforms": []any{"amazon", 3}}, "item 1"},
		{"string slice", map[string]any{"query": "x", "platforms": []string{"amazon"}}, ""},
		{"object", map[string]any{"query": "x", "attributes": "red"}, "want object"},
		{"unknown keys ignored", map[string]any{"query": "x", "extra": true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.params)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
