// Package tts voices router replies through the espeak-ng command.
package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type Espeak struct {
	Command string
	Voice   string
	Speed   int
}

func NewEspeak(voice string) *Espeak {
	return &Espeak{Command: "espeak-ng", Voice: voice, Speed: 160}
}

func (e *Espeak) args(text string) []string {
	args := []string{}
	if e.Voice != "" {
		args = append(args, "-v", e.Voice)
	}
	if e.Speed > 0 {
		args = append(args, "-s", strconv.Itoa(e.Speed))
	}
	return append(args, "--", text)
}

// Speak blocks until playback ends. Empty text is a no-op.
func (e *Espeak) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Command, e.args(text)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", e.Command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
