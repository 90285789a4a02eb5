package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"voxrouter/internal/chat"
	"voxrouter/internal/intent"
)

// ErrNoFallback marks every reason the AI stage produced nothing usable.
var ErrNoFallback = errors.New("no fallback available")

type Result struct {
	Intent     intent.Intent `json:"intent"`
	Confidence float64       `json:"confidence"`
	Entities   Entities      `json:"entities"`
	Action     string        `json:"action"`
}

const promptTemplate = `Parse this voice command and extract the intent and entities.

Command: %q

Available intents:
- shopping: Finding/buying products, price checking, cart management
- home_automation: Controlling smart home devices, lights, temperature
- dutch_learning: Language learning, vocabulary, pronunciation
- camera: Taking photos, identifying objects
- system_control: System status, time, weather
- information: Calendar, schedule and general questions
- unknown: Anything that fits none of the above

Respond with ONLY a JSON object, no markdown:
{
    "intent": "shopping",
    "confidence": 0.9,
    "entities": {
        "product": "keyboard",
        "price_limit": 50
    },
    "action": "search_product"
}`

// Fallback asks a chat collaborator to classify text the matcher was unsure about.
type Fallback struct {
	chat    chat.Chat
	limiter *rate.Limiter
}

type FallbackOption func(*Fallback)

// WithRateLimit caps collaborator calls per minute. Calls over budget
// report ErrNoFallback instead of waiting.
func WithRateLimit(perMinute int) FallbackOption {
	return func(f *Fallback) {
		if perMinute <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
}

func NewFallback(c chat.Chat, opts ...FallbackOption) *Fallback {
	f := &Fallback{chat: c}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func Prompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// Classify never returns a partial result: any failure is wrapped in ErrNoFallback.
func (f *Fallback) Classify(ctx context.Context, text string) (Result, error) {
	if f.chat == nil {
		return Result{}, fmt.Errorf("%w: no chat backend", ErrNoFallback)
	}
	if f.limiter != nil && !f.limiter.Allow() {
		return Result{}, fmt.Errorf("%w: rate limited", ErrNoFallback)
	}

	content, err := f.chat.Send(ctx, Prompt(text))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNoFallback, err)
	}

	log.Debug("Fallback reply", "data", content)

	res, err := decode(content)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNoFallback, err)
	}
	return res, nil
}

type wireResult struct {
	Intent     string         `json:"intent"`
	Confidence *float64       `json:"confidence"`
	Entities   map[string]any `json:"entities"`
	Action     string         `json:"action"`
}

func decode(content string) (Result, error) {
	raw := stripFences(content)
	if raw == "" {
		return Result{}, errors.New("empty reply")
	}

	var w wireResult
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return Result{}, fmt.Errorf("unmarshal reply: %w (raw: %s)", err, raw)
	}

	i, err := intent.Parse(w.Intent)
	if err != nil {
		return Result{}, err
	}
	if w.Confidence == nil {
		return Result{}, errors.New("reply has no confidence")
	}
	if *w.Confidence < 0 || *w.Confidence > 1 {
		return Result{}, fmt.Errorf("confidence %v out of range", *w.Confidence)
	}

	entities := Entities{}
	for k, v := range w.Entities {
		if v != nil {
			entities[k] = v
		}
	}

	return Result{
		Intent:     i,
		Confidence: *w.Confidence,
		Entities:   entities,
		Action:     w.Action,
	}, nil
}

// stripFences drops a ```json fence some models wrap their output in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
