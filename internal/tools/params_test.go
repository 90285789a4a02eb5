package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams(t *testing.T) {
	p := map[string]any{
		"query":     "  laptop ",
		"max_price": 1000.0,
		"count":     "5",
		"budget":    "cheap",
		"confirm":   true,
		"flag":      "true",
		"platforms": []any{"amazon", 7, ""},
		"one":       "bol",
	}

	assert.Equal(t, "laptop", ParamString(p, "query"))
	assert.Equal(t, "", ParamString(p, "missing"))

	f, ok := ParamNumber(p, "max_price")
	assert.True(t, ok)
	assert.Equal(t, 1000.0, f)
	_, ok = ParamNumber(p, "budget")
	assert.False(t, ok)

	assert.Equal(t, 5, ParamInt(p, "count", 10))
	assert.Equal(t, 10, ParamInt(p, "missing", 10))

	assert.True(t, ParamBool(p, "confirm"))
	assert.True(t, ParamBool(p, "flag"))
	assert.False(t, ParamBool(p, "missing"))

	assert.Equal(t, []string{"amazon", "7"}, ParamStrings(p, "platforms"))
	assert.Equal(t, []string{"bol"}, ParamStrings(p, "one"))
	assert.Nil(t, ParamStrings(p, "missing"))
}
