package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxrouter/internal/intent"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "GEMINI_API_KEY", "GEMINI_MODEL_NAME",
		"GOOGLE_CALENDAR_CREDENTIALS", "GOOGLE_CALENDAR_TOKEN",
		"CAMERA_COMMAND", "CAMERA_DIR", "CAMERA_WIDTH", "CAMERA_HEIGHT",
	} {
		t.Setenv(k, "")
	}
}

func noEnvFile(t *testing.T) string {
	return "--env=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("vox-daemon", []string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, 100, cfg.History)
	assert.Equal(t, 10*time.Second, cfg.FallbackTimeout)
	assert.Equal(t, 30*time.Second, cfg.DispatchTimeout)
	assert.Equal(t, 30, cfg.FallbackRate)
	assert.Equal(t, "/tmp/vox.sock", cfg.Socket)
	assert.Equal(t, "gpt-5-nano", cfg.OpenAIModel)
	assert.Equal(t, "rpicam-still", cfg.CameraCommand)
	assert.Equal(t, 640, cfg.CameraWidth)
	assert.Equal(t, 480, cfg.CameraHeight)
	assert.False(t, cfg.GoogleCalendar())
}

func TestLoad_Flags(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("vox-daemon", []string{
		noEnvFile(t),
		"-l", "debug",
		"--backend", "none",
		"--http", ":8080",
		"--hub", "ws://localhost:8092",
		"--history", "5",
		"--dispatch-timeout", "2s",
		"-p", "127.0.0.1:8888",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendNone, cfg.Backend)
	assert.Equal(t, ":8080", cfg.HTTP)
	assert.Equal(t, "ws://localhost:8092", cfg.Hub)
	assert.Equal(t, 5, cfg.History)
	assert.Equal(t, 2*time.Second, cfg.DispatchTimeout)
	assert.Equal(t, "127.0.0.1:8888", cfg.Proxy)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("GEMINI_API_KEY")
	os.Unsetenv("CAMERA_WIDTH")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GEMINI_API_KEY=g-key\nCAMERA_WIDTH=1280\n"), 0o600))

	cfg, err := Load("vox-daemon", []string{"--env", path, "--backend", "gemini"})
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.GeminiKey)
	assert.Equal(t, 1280, cfg.CameraWidth)
	assert.Equal(t, "gemini-1.5-flash", cfg.GeminiModel)
}

func TestLoad_MissingKey(t *testing.T) {
	clearEnv(t)

	_, err := Load("vox-daemon", []string{noEnvFile(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY not set")

	_, err = Load("vox-daemon", []string{noEnvFile(t), "--backend", "gemini"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY not set")
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	cases := map[string][]string{
		"log level": {"-l", "loud", "--backend", "none"},
		"backend":   {"--backend", "claude"},
		"history":   {"--backend", "none", "--history", "0"},
		"hub url":   {"--backend", "none", "--hub", "not a url"},
		"timeout":   {"--backend", "none", "--dispatch-timeout", "0s"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load("vox-daemon", append([]string{noEnvFile(t)}, args...))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadCameraSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAMERA_WIDTH", "wide")

	_, err := Load("vox-daemon", []string{noEnvFile(t), "--backend", "none"})
	assert.ErrorContains(t, err, "CAMERA_WIDTH")
}

func TestParsePatterns(t *testing.T) {
	pats, err := ParsePatterns([]byte(`
shopping:
  - "grab (?P<product>.+) for me"
camera:
  - "say cheese"
`))
	require.NoError(t, err)
	assert.Equal(t, []Pattern{
		{Intent: intent.Camera, Pattern: "say cheese"},
		{Intent: intent.Shopping, Pattern: "grab (?P<product>.+) for me"},
	}, pats)

	_, err = ParsePatterns([]byte("weather:\n  - \"is it raining\"\n"))
	assert.ErrorContains(t, err, "unknown intent")

	_, err = ParsePatterns([]byte("shopping: [unclosed"))
	assert.Error(t, err)
}

func TestLoadPatterns_Missing(t *testing.T) {
	_, err := LoadPatterns(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
