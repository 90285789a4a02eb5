// Command vox serves the router as the vox shard of the Monolith bus.
package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"

	"voxrouter/internal/app"
	"voxrouter/internal/bus"
	"voxrouter/internal/config"
	"voxrouter/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the exit code so deferred closes happen before exit.
func run(args []string) int {
	cfg, err := config.Load("vox", args)
	if errors.Is(err, cli.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if cfg.Bus == "" {
		cfg.Bus = os.Getenv("BUS_URL")
	}
	if cfg.Bus == "" {
		cfg.Bus = "ws://localhost:8092/ws"
	}

	closer, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer closer.Close()

	log.Info("Starting Vox shard", "bus", cfg.Bus)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error("Failed to boot", "err", err)
		return 1
	}
	defer a.Close()

	if err := bus.Run(ctx, cfg.Bus, a.Router, 5*time.Second); err != nil {
		log.Error("Bus failed", "err", err)
		return 1
	}
	return 0
}
