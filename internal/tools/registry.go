// Package tools holds the name-keyed registry the router dispatches actions to.
package tools

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrDuplicateTool = errors.New("tool already registered")
)

// Result is the structured payload a tool returns. Handlers report
// domain failures as {"success": false, "error": ...} rather than errors.
type Result map[string]any

// Tool is the capability every registered action implements.
type Tool interface {
	Name() string
	Description() string
	Schema() Schema
	Execute(ctx context.Context, params map[string]any) (Result, error)
}

type HandlerFunc func(ctx context.Context, params map[string]any) (Result, error)

type funcTool struct {
	name        string
	description string
	schema      Schema
	handler     HandlerFunc
}

// New wraps a handler function as a Tool.
func New(name, description string, schema Schema, handler HandlerFunc) Tool {
	return &funcTool{name: name, description: description, schema: schema, handler: handler}
}

func (t *funcTool) Name() string        { return t.name }
func (t *funcTool) Description() string { return t.description }
func (t *funcTool) Schema() Schema      { return t.schema }

func (t *funcTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	return t.handler(ctx, params)
}

type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"input_schema"`
}

// NotFoundError's text is user facing; the router speaks it verbatim.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Tool '%s' not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrToolNotFound
}

type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}

	r.tools[name] = tool
	r.order = append(r.order, name)
	log.Debug("Registered tool", "name", name)
	return nil
}

func (r *Registry) RegisterFunc(name, description string, schema Schema, handler HandlerFunc) error {
	return r.Register(New(name, description, schema, handler))
}

// RegisterAll stops at the first failure.
func (r *Registry) RegisterAll(tools ...Tool) error {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// List returns descriptors in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, Descriptor{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		})
	}
	return out
}

type outcome struct {
	res Result
	err error
}

// Dispatch invokes the named tool at most once. An unknown name yields
// both a structured failure and a *NotFoundError. The call returns when
// ctx is done even if the handler ignores ctx; its late result is dropped.
func (r *Registry) Dispatch(ctx context.Context, name string, params map[string]any) (Result, error) {
	tool, ok := r.Get(name)
	if !ok {
		err := &NotFoundError{Name: name}
		return Result{"success": false, "error": err.Error()}, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if params == nil {
		params = map[string]any{}
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.Error("Tool panicked", "tool", name, "panic", p)
				done <- outcome{err: fmt.Errorf("tool %s panicked: %v", name, p)}
			}
		}()
		res, err := tool.Execute(ctx, params)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		if out.res == nil {
			out.res = Result{}
		}
		return out.res, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("tool %s: %w", name, ctx.Err())
	}
}
