package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
)

const inputFormat = `{
  "participants": [
    {
      "email": "ada@example.com",
      "name": "Ada Lovelace",
      "timezone": "Europe/London",
      "slots": [
        {"start": "2025-07-07 09:00", "end": "2025-07-07 11:00"},
        {"start": "2025-07-08T14:00:00+01:00", "end": "2025-07-08T15:30:00+01:00"}
      ]
    }
  ]
}`

// RegisterResources registers MCP resources that describe the negotiation service.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("rendezvous://input-format").
		Name("Availability Input Format").
		Description("Example payload for negotiation.negotiate").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return &mcp.ResourceContent{
				URI:      uri,
				MimeType: "application/json",
				Text:     inputFormat,
			}, nil
		})

	srv.Resource("rendezvous://health").
		Name("Health").
		Description("Connectivity of the configured collaborators").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			health := observability.OverallHealth{Status: observability.HealthStatusHealthy}
			if app != nil && app.Health != nil {
				health = app.Health.GetOverallHealth(ctx)
			}

			data, err := json.MarshalIndent(health, "", "  ")
			if err != nil {
				return nil, err
			}

			return &mcp.ResourceContent{
				URI:      uri,
				MimeType: "application/json",
				Text:     string(data),
			}, nil
		})

	return nil
}
