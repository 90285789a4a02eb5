package tools

import (
	"strconv"
	"strings"
)

// Parameter helpers tolerate the loose typing of parameters that arrive
// from the router, an AI model or decoded JSON.

func ParamString(params map[string]any, key string) string {
	return strings.TrimSpace(asString(params[key]))
}

func ParamNumber(params map[string]any, key string) (float64, bool) {
	if s, ok := params[key].(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return toFloat(params[key])
}

func ParamInt(params map[string]any, key string, def int) int {
	f, ok := ParamNumber(params, key)
	if !ok {
		return def
	}
	return int(f)
}

func ParamBool(params map[string]any, key string) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func ParamStrings(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}
