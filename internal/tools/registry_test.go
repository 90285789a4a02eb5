package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(ctx context.Context, params map[string]any) (Result, error) {
	return Result{"success": true, "params": params}, nil
}

func TestRegistry_RegisterAndList(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFunc("b_tool", "second", Object(nil), echo))
	require.NoError(t, r.RegisterFunc("a_tool", "first", Object(map[string]Property{
		"query": {Type: "string"},
	}, "query"), echo))

	err := r.RegisterFunc("b_tool", "again", Object(nil), echo)
	assert.ErrorIs(t, err, ErrDuplicateTool)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b_tool", list[0].Name)
	assert.Equal(t, "a_tool", list[1].Name)
	assert.Equal(t, []string{"query"}, list[1].InputSchema.Required)
}

func TestRegistry_DispatchUnknown(t *testing.T) {
	r := NewRegistry()

	res, err := r.Dispatch(context.Background(), "fly_to_moon", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.Equal(t, "Tool 'fly_to_moon' not found", err.Error())
	assert.Equal(t, Result{"success": false, "error": "Tool 'fly_to_moon' not found"}, res)
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()
	calls := 0
	require.NoError(t, r.RegisterFunc("count", "", Object(nil), func(ctx context.Context, params map[string]any) (Result, error) {
		calls++
		return Result{"success": true, "n": params["n"]}, nil
	}))

	res, err := r.Dispatch(context.Background(), "count", map[string]any{"n": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res["n"])
	assert.Equal(t, 1, calls)
}

func TestRegistry_DispatchNilParamsAndResult(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFunc("quiet", "", Object(nil), func(ctx context.Context, params map[string]any) (Result, error) {
		if params == nil {
			return nil, errors.New("params should never be nil")
		}
		return nil, nil
	}))

	res, err := r.Dispatch(context.Background(), "quiet", nil)
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestRegistry_DispatchHandlerError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFunc("broken", "", Object(nil), func(ctx context.Context, params map[string]any) (Result, error) {
		return nil, errors.New("calendar backend offline")
	}))

	_, err := r.Dispatch(context.Background(), "broken", nil)
	assert.EqualError(t, err, "calendar backend offline")
}

func TestRegistry_DispatchRecoversPanic(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFunc("panicky", "", Object(nil), func(ctx context.Context, params map[string]any) (Result, error) {
		var m map[string]int
		m["boom"]++
		return nil, nil
	}))

	_, err := r.Dispatch(context.Background(), "panicky", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestRegistry_DispatchTimeout(t *testing.T) {
	r := NewRegistry()
	release := make(chan struct{})
	defer close(release)

	require.NoError(t, r.RegisterFunc("hang", "", Object(nil), func(ctx context.Context, params map[string]any) (Result, error) {
		<-release
		return Result{"success": true}, nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Dispatch(ctx, "hang", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegistry_DispatchCancelledBeforeCall(t *testing.T) {
	r := NewRegistry()
	called := false
	require.NoError(t, r.RegisterFunc("noop", "", Object(nil), func(ctx context.Context, params map[string]any) (Result, error) {
		called = true
		return nil, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Dispatch(ctx, "noop", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
