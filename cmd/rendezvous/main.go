package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/rendezvous/adapter/cli"
	"github.com/felixgeelhaar/rendezvous/adapter/cli/api"
	"github.com/felixgeelhaar/rendezvous/adapter/cli/mail"
	"github.com/felixgeelhaar/rendezvous/adapter/cli/mcp"
	"github.com/felixgeelhaar/rendezvous/adapter/cli/meeting"
	"github.com/felixgeelhaar/rendezvous/internal/app"
	mcpinternal "github.com/felixgeelhaar/rendezvous/internal/mcp"
	"github.com/felixgeelhaar/rendezvous/pkg/config"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
)

func main() {
	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The container is built after flag parsing so --env-file applies.
	cli.SetBootstrap(func(ctx context.Context) (*cli.App, func(), error) {
		cfg, err := config.Load(cli.EnvFile())
		if err != nil {
			return nil, nil, err
		}

		logCfg := observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cfg.AppVersion)
		if cli.Verbose() {
			logCfg.Level = observability.LogLevelDebug
		}
		logger := observability.NewLogger(logCfg)
		cli.SetLogger(logger)

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return mcpinternal.NewCLIApp(container), container.Close, nil
	})

	// Register commands
	cli.AddCommand(meeting.Cmd)
	cli.AddCommand(mail.Cmd)
	cli.AddCommand(mcp.Cmd)
	cli.AddCommand(api.Cmd)

	// Execute CLI
	cli.Execute(ctx)
}
