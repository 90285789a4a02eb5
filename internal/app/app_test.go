package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxrouter/internal/config"
	"voxrouter/internal/intent"
	"voxrouter/internal/ipc"
	"voxrouter/internal/router"
	"voxrouter/internal/tools"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	sockDir, err := os.MkdirTemp("", "voxapp")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(sockDir) })

	return &config.Config{
		LogLevel:        "info",
		DB:              filepath.Join(dir, "vox.db"),
		Socket:          filepath.Join(sockDir, "ctl.sock"),
		Backend:         config.BackendNone,
		History:         10,
		FallbackTimeout: time.Second,
		DispatchTimeout: 5 * time.Second,
		CameraCommand:   "false",
		CameraDir:       dir,
		CameraWidth:     640,
		CameraHeight:    480,
	}
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	require.NoError(t, cfg.Validate())
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNew_RegistersTools(t *testing.T) {
	a := newApp(t, testConfig(t))

	var names []string
	for _, d := range a.Registry.List() {
		names = append(names, d.Name)
	}
	assert.Subset(t, names, []string{
		"product_search", "price_compare", "add_to_cart", "view_cart", "execute_purchase", "track_order",
		"dutch_vocabulary_search", "dutch_vocabulary_add", "dutch_vocabulary_review",
		"calendar_list_events", "calendar_create_event", "camera_capture",
	})
	assert.NotContains(t, names, "control_device")
}

func TestPipeline(t *testing.T) {
	a := newApp(t, testConfig(t))
	ctx := context.Background()

	_, resp := a.Router.Handle(ctx, "What's the Dutch word for bicycle")
	require.True(t, resp.Success, resp.Message)
	assert.Contains(t, resp.Message, "fiets")

	_, resp = a.Router.Handle(ctx, "Add Sony headphones to my cart")
	require.True(t, resp.Success, resp.Message)
	assert.Contains(t, resp.Message, "to your cart")

	_, resp = a.Router.Handle(ctx, "turn on the lamp")
	assert.False(t, resp.Success)
	assert.Equal(t, "Sorry, I encountered an error: Tool 'control_device' not found", resp.Message)

	assert.Len(t, a.Router.History(0), 2)
}

func TestNew_CustomPatterns(t *testing.T) {
	cfg := testConfig(t)
	cfg.Patterns = filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(cfg.Patterns, []byte("camera:\n  - \"say cheese\"\n"), 0o600))

	a := newApp(t, cfg)
	cmd := a.Router.Parse(context.Background(), "Say cheese")
	assert.Equal(t, intent.Camera, cmd.Intent)
	assert.Equal(t, "camera_capture", cmd.Action)
}

func TestNew_BadPatterns(t *testing.T) {
	cfg := testConfig(t)
	cfg.Patterns = filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(cfg.Patterns, []byte("camera:\n  - \"(unclosed\"\n"), 0o600))

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestHandleControl(t *testing.T) {
	a := newApp(t, testConfig(t))
	ctx := context.Background()

	out, err := a.HandleControl(ctx, ipc.Request{Cmd: ipc.CmdCommand, Text: "view my cart"})
	require.NoError(t, err)
	resp := out.(map[string]any)["response"].(router.CommandResponse)
	assert.True(t, resp.Success)

	out, err = a.HandleControl(ctx, ipc.Request{Cmd: ipc.CmdHistory, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	out, err = a.HandleControl(ctx, ipc.Request{Cmd: ipc.CmdTools})
	require.NoError(t, err)
	assert.NotEmpty(t, out.([]tools.Descriptor))

	_, err = a.HandleControl(ctx, ipc.Request{Cmd: "reboot"})
	assert.Error(t, err)
}

func TestServe_ControlSocket(t *testing.T) {
	cfg := testConfig(t)
	a := newApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	var reply ipc.Reply
	require.Eventually(t, func() bool {
		r, err := ipc.SendCommand(ctx, cfg.Socket, ipc.Request{Cmd: ipc.CmdCommand, Text: "take a photo"})
		reply = r
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	require.True(t, reply.OK, reply.Error)
	var got struct {
		Response router.CommandResponse `json:"response"`
	}
	require.NoError(t, json.Unmarshal(reply.Payload, &got))
	assert.True(t, got.Response.Success)
	assert.Equal(t, "Sorry, I couldn't take a picture.", got.Response.Message)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestNewFallback_GeminiThroughProxy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = config.BackendGemini
	cfg.GeminiKey = "test-key"
	cfg.Proxy = "127.0.0.1:1080"
	require.NoError(t, cfg.Validate())

	a := &App{cfg: cfg}
	t.Cleanup(func() { a.Close() })

	c, err := a.newFallback(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Len(t, a.closers, 1)
}
