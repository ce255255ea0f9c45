package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
)

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("cli.health").
		Description("Check connectivity of the delivery journal, Redis and RabbitMQ").
		Handler(func(ctx context.Context, input struct{}) (*observability.OverallHealth, error) {
			if app == nil {
				return nil, errors.New("app not initialized")
			}
			if app.Health == nil {
				return &observability.OverallHealth{Status: observability.HealthStatusHealthy}, nil
			}
			health := app.Health.GetOverallHealth(ctx)
			return &health, nil
		})

	return nil
}
