// Package router turns recognised speech into tool calls and tool results
// back into sentences.
package router

import (
	"context"
	"errors"
	log "log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"voxrouter/internal/intent"
	"voxrouter/internal/nlu"
	"voxrouter/internal/tools"
)

const (
	// FallbackThreshold is the matcher confidence below which the AI stage runs.
	FallbackThreshold   = 0.7
	DefaultHistoryLimit = 100

	RephraseMessage = "I'm not sure how to handle that command. Can you rephrase?"
	NoInputMessage  = "I didn't catch that. Could you repeat?"
	errorPrefix     = "Sorry, I encountered an error: "
)

type Classifier interface {
	Classify(ctx context.Context, text string) (nlu.Result, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, name string, params map[string]any) (tools.Result, error)
}

// Router owns the pattern table, a bounded history and the conversation
// context. Parse and Execute are safe for concurrent use.
type Router struct {
	matcher         *nlu.Matcher
	fallback        Classifier
	dispatcher      Dispatcher
	dispatchTimeout time.Duration
	now             func() time.Time

	mu      sync.Mutex
	history *history
	context map[string]any
}

type Option func(*Router)

func WithFallback(c Classifier) Option {
	return func(r *Router) { r.fallback = c }
}

func WithMatcher(m *nlu.Matcher) Option {
	return func(r *Router) { r.matcher = m }
}

func WithHistoryLimit(n int) Option {
	return func(r *Router) { r.history = newHistory(n) }
}

// WithDispatchTimeout bounds each tool call made by Execute. Zero leaves
// the caller's context as the only bound.
func WithDispatchTimeout(d time.Duration) Option {
	return func(r *Router) { r.dispatchTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

func New(d Dispatcher, opts ...Option) *Router {
	r := &Router{
		matcher:    nlu.NewDefaultMatcher(),
		dispatcher: d,
		now:        time.Now,
		history:    newHistory(DefaultHistoryLimit),
		context:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// Normalize trims, lower-cases and collapses whitespace. Typographic
// apostrophes from transcribers become ASCII so patterns like "what's" match.
func Normalize(text string) string {
	s := norm.NFKC.String(text)
	s = apostrophes.Replace(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

type ParseOptions struct {
	DisableAI bool
}

func (r *Router) Parse(ctx context.Context, text string) VoiceCommand {
	return r.ParseWith(ctx, text, ParseOptions{})
}

// ParseWith classifies text and maps it to an agent. It touches neither
// history nor context.
func (r *Router) ParseWith(ctx context.Context, text string, opts ParseOptions) VoiceCommand {
	text = Normalize(text)

	i, entities, confidence := r.matcher.Match(text)

	if confidence < FallbackThreshold && text != "" && !opts.DisableAI && r.fallback != nil {
		res, err := r.fallback.Classify(ctx, text)
		switch {
		case err != nil:
			log.Warn("AI fallback unavailable", "err", err)
		case res.Confidence > confidence:
			i, entities, confidence = res.Intent, res.Entities, res.Confidence
			if entities == nil {
				entities = nlu.Entities{}
			}
		}
	}

	cmd := VoiceCommand{
		RawText:    text,
		Intent:     i,
		Confidence: confidence,
		Entities:   entities,
	}
	mapToAgent(&cmd)

	log.Info("Parsed command", "intent", cmd.Intent, "confidence", cmd.Confidence, "agent", cmd.Agent, "action", cmd.Action)
	return cmd
}

// Execute dispatches the command and never fails: every error becomes a
// spoken CommandResponse. Only successful dispatches enter history.
func (r *Router) Execute(ctx context.Context, cmd VoiceCommand) CommandResponse {
	if cmd.Agent == "" {
		return CommandResponse{Success: false, Message: RephraseMessage, Speak: true}
	}

	if r.dispatcher == nil {
		return CommandResponse{Success: false, Message: errorPrefix + "no tool dispatcher configured", Speak: true}
	}

	if r.dispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.dispatchTimeout)
		defer cancel()
	}

	params := cmd.Parameters
	if params == nil {
		params = map[string]any{}
	}

	log.Info("Executing", "agent", cmd.Agent, "action", cmd.Action, "params", params)

	result, err := r.dispatcher.Dispatch(ctx, cmd.Action, params)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, tools.ErrToolNotFound) {
			log.Warn("Command execution error", "action", cmd.Action, "err", err)
		} else {
			log.Error("Command execution error", "action", cmd.Action, "err", err)
		}
		return CommandResponse{Success: false, Message: errorPrefix + err.Error(), Speak: true}
	}

	msg := formatResponse(cmd, result)

	r.mu.Lock()
	r.history.add(HistoryEntry{RawText: cmd.RawText, Intent: cmd.Intent, Result: result, At: r.now()})
	r.mu.Unlock()

	return CommandResponse{Success: true, Message: msg, Data: result, Speak: true}
}

// Handle runs the whole pipeline for one utterance.
func (r *Router) Handle(ctx context.Context, text string) (VoiceCommand, CommandResponse) {
	return r.HandleWith(ctx, text, ParseOptions{})
}

func (r *Router) HandleWith(ctx context.Context, text string, opts ParseOptions) (VoiceCommand, CommandResponse) {
	if Normalize(text) == "" {
		return VoiceCommand{Intent: intent.Unknown, Entities: nlu.Entities{}},
			CommandResponse{Success: false, Message: NoInputMessage, Speak: true}
	}

	cmd := r.ParseWith(ctx, text, opts)
	return cmd, r.Execute(ctx, cmd)
}

func (r *Router) AddCustomPattern(i intent.Intent, pattern string) error {
	if err := r.matcher.Add(i, pattern); err != nil {
		return err
	}
	log.Info("Added custom pattern", "intent", i)
	return nil
}

// History returns up to limit recent entries, oldest first; limit <= 0 returns all.
func (r *Router) History(limit int) []HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.last(limit)
}

func (r *Router) SetContext(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.context[key] = value
}

func (r *Router) Context(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.context[key]
	return v, ok
}

func (r *Router) ContextSnapshot() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.context)
}

func (r *Router) ClearContext() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.context = make(map[string]any)
}
