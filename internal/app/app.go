// Package app assembles the router, its tools and its transports from a
// Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"

	"voxrouter/internal/chat"
	"voxrouter/internal/config"
	"voxrouter/internal/nlu"
	"voxrouter/internal/proxy"
	"voxrouter/internal/router"
	"voxrouter/internal/store"
	"voxrouter/internal/tools"
	"voxrouter/internal/tools/assistant"
	"voxrouter/internal/tools/dutch"
	"voxrouter/internal/tools/ecommerce"
	"voxrouter/internal/tools/home"
	"voxrouter/pkg/protocol"
)

const hubReconnect = 5

type App struct {
	cfg *config.Config

	DB       *store.DB
	Registry *tools.Registry
	Router   *router.Router

	hub     *protocol.Protocol
	closers []io.Closer
}

// New opens the database, registers every tool and builds the router.
// The hub connection, when configured, is established here and served
// by Serve.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg, Registry: tools.NewRegistry()}

	db, err := store.Open(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, db)
	log.Debug("Opened store", "path", cfg.DB)

	if err := a.registerTools(ctx); err != nil {
		a.Close()
		return nil, err
	}

	fallback, err := a.newFallback(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []router.Option{
		router.WithHistoryLimit(cfg.History),
		router.WithDispatchTimeout(cfg.DispatchTimeout),
	}
	if fallback != nil {
		opts = append(opts, router.WithFallback(fallback))
	}
	a.Router = router.New(a.Registry, opts...)

	if cfg.Patterns != "" {
		pats, err := config.LoadPatterns(cfg.Patterns)
		if err != nil {
			a.Close()
			return nil, err
		}
		for _, p := range pats {
			if err := a.Router.AddCustomPattern(p.Intent, p.Pattern); err != nil {
				a.Close()
				return nil, fmt.Errorf("pattern %q: %w", p.Pattern, err)
			}
		}
	}

	log.Info("Router ready", "tools", len(a.Registry.List()), "fallback", fallback != nil)
	return a, nil
}

func (a *App) registerTools(ctx context.Context) error {
	cfg := a.cfg

	catalog := ecommerce.DefaultCatalog()
	if cfg.Catalog != "" {
		c, err := ecommerce.LoadCatalog(cfg.Catalog)
		if err != nil {
			return err
		}
		catalog = c
	}

	var cal assistant.Calendar = assistant.NewLocalCalendar(a.DB)
	if cfg.GoogleCalendar() {
		g, err := assistant.NewGoogleCalendar(ctx, cfg.CalendarCredentials, cfg.CalendarToken)
		if err != nil {
			return err
		}
		cal = g
		log.Info("Using Google Calendar")
	}
	camera := assistant.NewCommandCamera(cfg.CameraCommand, cfg.CameraDir, cfg.CameraWidth, cfg.CameraHeight)

	groups := [][]tools.Tool{
		ecommerce.New(catalog, a.DB).Tools(),
		dutch.New(a.DB).Tools(),
		assistant.New(cal, assistant.WithCamera(camera)).Tools(),
	}

	if cfg.Hub != "" {
		hub, err := protocol.NewProtocol(ctx, protocol.PtclConfig{
			Shard:   "vox",
			Url:     cfg.Hub,
			Reconn:  hubReconnect,
			Timeout: cfg.DispatchTimeout,
			EmitOut: func(m *protocol.Message) { log.Info("Hub event", "msg", m.String()) },
		})
		if err != nil {
			return fmt.Errorf("connect hub: %w", err)
		}
		a.hub = hub
		a.closers = append(a.closers, hub)
		groups = append(groups, home.New(hub).Tools())
	}

	for _, g := range groups {
		if err := a.Registry.RegisterAll(g...); err != nil {
			return err
		}
	}
	return nil
}

// newFallback returns nil when the backend is disabled.
func (a *App) newFallback(ctx context.Context) (router.Classifier, error) {
	cfg := a.cfg
	var c chat.Chat
	switch cfg.Backend {
	case config.BackendNone:
		return nil, nil

	case config.BackendOpenAI:
		httpClient, err := proxy.NewSocksClient(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		c = chat.NewOpenAI(chat.OpenAIConfig{
			APIKey:     cfg.OpenAIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			HTTPClient: httpClient,
			Timeout:    cfg.FallbackTimeout,
		})

	case config.BackendGemini:
		httpClient, err := proxy.NewSocksClient(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		g, err := chat.NewGemini(ctx, chat.GeminiConfig{
			APIKey:     cfg.GeminiKey,
			Model:      cfg.GeminiModel,
			HTTPClient: httpClient,
			Timeout:    cfg.FallbackTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g)
		c = g

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	log.Debug("Loaded fallback backend", "backend", cfg.Backend)
	return nlu.NewFallback(c, nlu.WithRateLimit(cfg.FallbackRate)), nil
}

// Close releases everything New opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
