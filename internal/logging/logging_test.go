package logging

import (
	"bytes"
	log "log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	lvl, err := Level("WARN")
	require.NoError(t, err)
	assert.Equal(t, log.LevelWarn, lvl)

	_, err = Level("loud")
	assert.Error(t, err)
}

func TestNew_StdoutOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(&buf, Options{Level: "info"})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("Parsed command", "intent", "product_search")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Parsed command")
	assert.Contains(t, out, "product_search")
}

func TestNew_File(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "vox.log")

	logger, closer, err := New(&buf, Options{Level: "debug", File: path})
	require.NoError(t, err)

	logger.Debug("Raw model output", "content", "{}")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Raw model output")
	assert.NotContains(t, string(data), "\x1b[")
	assert.Contains(t, buf.String(), "Raw model output")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(&bytes.Buffer{}, Options{Level: "verbose"})
	assert.Error(t, err)
}
