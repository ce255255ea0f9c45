package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/felixgeelhaar/rendezvous/adapter/cli"
	"github.com/felixgeelhaar/rendezvous/internal/app"
	mcpinternal "github.com/felixgeelhaar/rendezvous/internal/mcp"
	"github.com/felixgeelhaar/rendezvous/pkg/config"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Start the MCP server",
	Annotations: map[string]string{cli.SkipBootstrap: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(cli.EnvFile())
		if err != nil {
			return err
		}

		logger := newServerLogger(cmd.OutOrStdout(), cfg)

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		cliApp := mcpinternal.NewCLIApp(container)
		err = mcpinternal.Serve(ctx, cfg, cliApp, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func newServerLogger(out io.Writer, cfg *config.Config) *slog.Logger {
	logCfg := observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cfg.AppVersion)
	logCfg.Output = out
	return observability.NewLogger(logCfg)
}
