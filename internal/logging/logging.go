// Package logging installs the process-wide slog handler.
package logging

import (
	"fmt"
	"io"
	log "log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

var levelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

type Options struct {
	Level string
	// File enables a rotated log file next to stdout.
	File string
}

// Level resolves a level name; unknown names are an error.
func Level(name string) (log.Level, error) {
	lvl, ok := levelMap[strings.ToLower(name)]
	if !ok {
		return log.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}

// New builds a logger writing to stdout and, when opts.File is set, to a
// rotated file. The returned closer releases the file.
func New(stdout io.Writer, opts Options) (*log.Logger, io.Closer, error) {
	lvl, err := Level(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	if opts.File == "" {
		return log.New(tint.NewHandler(stdout, &tint.Options{Level: lvl})), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		LocalTime:  true,
		Compress:   true,
		MaxSize:    100,
		MaxAge:     7,
		MaxBackups: 3,
	}

	// escape codes would end up in the file
	h := tint.NewHandler(io.MultiWriter(stdout, file), &tint.Options{Level: lvl, NoColor: true})
	return log.New(h), file, nil
}

// Setup installs New's logger as the slog default.
func Setup(opts Options) (io.Closer, error) {
	logger, closer, err := New(os.Stdout, opts)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
