package app

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"voxrouter/internal/bus"
	"voxrouter/internal/httpapi"
	"voxrouter/internal/ipc"
)

const (
	shutdownTimeout = 5 * time.Second
	busReconnect    = 5 * time.Second
)

// Serve runs every configured transport until ctx is done or one of
// them fails.
func (a *App) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if err := ipc.StartServer(ctx, a.cfg.Socket, a.HandleControl); err != nil {
		return fmt.Errorf("ipc server: %w", err)
	}

	if a.hub != nil {
		g.Go(func() error {
			a.hub.Run(ctx)
			return nil
		})
	}

	if a.cfg.HTTP != "" {
		app := httpapi.New(a.Router, a.Registry, a.cfg.DispatchTimeout+a.cfg.FallbackTimeout).App()
		g.Go(func() error {
			log.Info("HTTP listening", "addr", a.cfg.HTTP)
			return app.Listen(a.cfg.HTTP)
		})
		g.Go(func() error {
			<-ctx.Done()
			return app.ShutdownWithTimeout(shutdownTimeout)
		})
	}

	if a.cfg.Bus != "" {
		g.Go(func() error {
			return bus.Run(ctx, a.cfg.Bus, a.Router, busReconnect)
		})
	}

	log.Info("Boot up - successful")
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// HandleControl answers vox-ctl requests.
func (a *App) HandleControl(ctx context.Context, req ipc.Request) (any, error) {
	switch req.Cmd {
	case ipc.CmdCommand:
		cmd, resp := a.Router.Handle(ctx, req.Text)
		return map[string]any{"command": cmd, "response": resp}, nil
	case ipc.CmdTools:
		return a.Registry.List(), nil
	case ipc.CmdHistory:
		return a.Router.History(req.Limit), nil
	case ipc.CmdContext:
		return a.Router.ContextSnapshot(), nil
	case ipc.CmdClearContext:
		a.Router.ClearContext()
		return map[string]any{}, nil
	default:
		log.Warn("Unknown command", "cmd", req.Cmd)
		return nil, fmt.Errorf("unknown command %q", req.Cmd)
	}
}
