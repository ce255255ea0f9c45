package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	httpapi "github.com/felixgeelhaar/rendezvous/adapter/api"
	"github.com/felixgeelhaar/rendezvous/adapter/cli"
	"github.com/felixgeelhaar/rendezvous/internal/app"
	"github.com/felixgeelhaar/rendezvous/pkg/config"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// Cmd is the HTTP API command group.
var Cmd = &cobra.Command{
	Use:   "api",
	Short: "Serve negotiations over HTTP",
}

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Start the HTTP API server",
	Annotations: map[string]string{cli.SkipBootstrap: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(cli.EnvFile())
		if err != nil {
			return err
		}
		logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cfg.AppVersion))

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		var history httpapi.DeliveryHistory
		if container.Journal != nil {
			history = container.Journal
		}

		serverCfg := httpapi.DefaultServerConfig()
		serverCfg.Addr = cfg.APIAddr
		handler := httpapi.NewNegotiationHandler(container.NegotiateHandler, container.FinalizeHandler, history)
		server := httpapi.NewServer(serverCfg, handler, container.Health, logger)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	Cmd.AddCommand(serveCmd)
}
