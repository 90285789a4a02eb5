package assistant

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Camera interface {
	// Capture stores one still image and returns its path.
	Capture(ctx context.Context) (string, error)
}

// CommandCamera shells out to a still-capture tool such as rpicam-still.
type CommandCamera struct {
	Command string
	Dir     string
	Width   int
	Height  int

	now func() time.Time
}

func NewCommandCamera(command, dir string, width, height int) *CommandCamera {
	return &CommandCamera{Command: command, Dir: dir, Width: width, Height: height, now: time.Now}
}

func (c *CommandCamera) Capture(ctx context.Context) (string, error) {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create capture dir: %w", err)
	}

	path := filepath.Join(c.Dir, "capture-"+c.now().Format("20060102-150405")+".jpg")

	cmd := exec.CommandContext(ctx, c.Command,
		"--nopreview",
		"-t", "1",
		"--width", strconv.Itoa(c.Width),
		"--height", strconv.Itoa(c.Height),
		"-o", path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", c.Command, err, msg)
		}
		return "", fmt.Errorf("%s: %w", c.Command, err)
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%s produced no image: %w", c.Command, err)
	}
	return path, nil
}
