package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/spf13/pflag"

	"voxrouter/internal/app"
	"voxrouter/internal/config"
	"voxrouter/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the exit code so deferred closes happen before exit.
func run(args []string) int {
	cfg, err := config.Load("vox-daemon", args)
	if errors.Is(err, cli.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	closer, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer closer.Close()

	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error("Failed to boot", "err", err)
		return 1
	}
	defer a.Close()

	if err := a.Serve(ctx); err != nil {
		log.Error("Serve failed", "err", err)
		return 1
	}
	log.Info("Shutting down")
	return 0
}
