package tools

import (
	"fmt"
	"strconv"
)

// Accessors never fail: a missing or mistyped field reads as its zero value.

func (r Result) String(key string) string {
	return asString(r[key])
}

func (r Result) Number(key string) float64 {
	f, _ := toFloat(r[key])
	return f
}

func (r Result) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

func (r Result) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

func (r Result) Object(key string) Result {
	return asResult(r[key])
}

// List accepts both []Result built in Go and []any decoded from JSON.
func (r Result) List(key string) []Result {
	switch items := r[key].(type) {
	case []Result:
		return items
	case []map[string]any:
		out := make([]Result, 0, len(items))
		for _, item := range items {
			out = append(out, Result(item))
		}
		return out
	case []any:
		out := make([]Result, 0, len(items))
		for _, item := range items {
			out = append(out, asResult(item))
		}
		return out
	}
	return nil
}

func asResult(v any) Result {
	switch m := v.(type) {
	case Result:
		return m
	case map[string]any:
		return Result(m)
	}
	return Result{}
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// FormatNumber renders a number the way it should be spoken: 29.99, 1000.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
