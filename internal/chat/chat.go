// Package chat adapts language-model providers to a single prompt-in,
// text-out collaborator used by the fallback classifier.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single Send when the backend was built without one.
const DefaultTimeout = 10 * time.Second

// ErrUnavailable is matched by every error a backend returns.
var ErrUnavailable = errors.New("chat collaborator unavailable")

type Chat interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// Func lets a plain function act as a Chat.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Send(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Error is the uniform failure type for transport, auth, timeout and
// malformed-reply problems.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

func wrap(backend, op string, err error) error {
	return &Error{Backend: backend, Op: op, Err: err}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
