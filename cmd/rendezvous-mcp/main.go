package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/rendezvous/internal/app"
	mcpinternal "github.com/felixgeelhaar/rendezvous/internal/mcp"
	"github.com/felixgeelhaar/rendezvous/pkg/config"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
)

func main() {
	logger := observability.NewLogger(observability.DefaultLogConfig())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cfg.AppVersion))

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	cliApp := mcpinternal.NewCLIApp(container)

	if err := mcpinternal.Serve(ctx, cfg, cliApp, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
