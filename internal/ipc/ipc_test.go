package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// unix socket paths are short; t.TempDir() can exceed the limit
	dir, err := os.MkdirTemp("", "vox")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "ctl.sock")
}

func TestRoundTrip(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := StartServer(ctx, path, func(ctx context.Context, req Request) (any, error) {
		switch req.Cmd {
		case CmdCommand:
			return map[string]any{"message": "heard " + req.Text}, nil
		case CmdHistory:
			return []int{req.Limit}, nil
		}
		return nil, errors.New("unknown command " + req.Cmd)
	})
	require.NoError(t, err)

	reqCtx, done := context.WithTimeout(ctx, 2*time.Second)
	defer done()

	reply, err := SendCommand(reqCtx, path, Request{Cmd: CmdCommand, Text: "hello"})
	require.NoError(t, err)
	require.True(t, reply.OK)
	var got map[string]string
	require.NoError(t, json.Unmarshal(reply.Payload, &got))
	assert.Equal(t, "heard hello", got["message"])

	reply, err = SendCommand(reqCtx, path, Request{Cmd: CmdHistory, Limit: 3})
	require.NoError(t, err)
	assert.JSONEq(t, "[3]", string(reply.Payload))

	reply, err = SendCommand(reqCtx, path, Request{Cmd: "dance"})
	require.NoError(t, err)
	assert.False(t, reply.OK)
	assert.Equal(t, "unknown command dance", reply.Error)
}

func TestServerStopsWithContext(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, StartServer(ctx, path, func(context.Context, Request) (any, error) { return nil, nil }))
	cancel()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond)

	_, err := SendCommand(context.Background(), path, Request{Cmd: CmdTools})
	assert.Error(t, err)
}
