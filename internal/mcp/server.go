package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/felixgeelhaar/rendezvous/adapter/cli"
	mcplocal "github.com/felixgeelhaar/rendezvous/adapter/mcp"
	"github.com/felixgeelhaar/rendezvous/pkg/config"
	"github.com/samber/lo"
)

// Serve exposes the negotiation tools over streamable HTTP on cfg.MCPAddr
// until ctx is canceled.
func Serve(ctx context.Context, cfg *config.Config, cliApp *cli.App, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cliApp == nil {
		return errors.New("CLI app is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := newServer(cfg.AppVersion, cliApp, logger)
	if err != nil {
		return err
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr, "authenticated", cfg.MCPAuthToken != "")
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil,
		mcpgo.WithMiddleware(middlewareStack(cfg.MCPAuthToken, logger)...))
}

// newServer registers tools, resources and prompts. Only a tool
// registration failure is fatal; the rest are conveniences for clients.
func newServer(version string, cliApp *cli.App, logger *slog.Logger) (*mcpgo.Server, error) {
	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    "rendezvous-mcp",
		Version: version,
		Capabilities: mcpgo.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})

	deps := mcplocal.ToolDependencies{App: cliApp}
	if err := mcplocal.RegisterCLITools(srv, deps); err != nil {
		return nil, err
	}
	if err := mcplocal.RegisterResources(srv, deps); err != nil {
		logger.Warn("mcp resources unavailable", "error", err)
	}
	if err := mcplocal.RegisterPrompts(srv, deps); err != nil {
		logger.Warn("mcp prompts unavailable", "error", err)
	}
	return srv, nil
}

// middlewareStack puts bearer auth in front of the default stack when a
// token is configured.
func middlewareStack(token string, logger *slog.Logger) []middleware.Middleware {
	log := slogFields{logger}
	stack := middleware.DefaultStack(log)
	if token == "" {
		logger.Warn("MCP_AUTH_TOKEN not set; mcp requests are unauthenticated")
		return stack
	}

	auth := middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{
		token: {ID: "rendezvous-client", Name: "rendezvous-client"},
	}))
	return append([]middleware.Middleware{middleware.Auth(auth, middleware.WithAuthLogger(log))}, stack...)
}

// slogFields adapts slog to the middleware logger interface.
type slogFields struct {
	*slog.Logger
}

func (l slogFields) Debug(msg string, fields ...middleware.Field) { l.Logger.Debug(msg, fieldsToArgs(fields)...) }
func (l slogFields) Info(msg string, fields ...middleware.Field)  { l.Logger.Info(msg, fieldsToArgs(fields)...) }
func (l slogFields) Warn(msg string, fields ...middleware.Field)  { l.Logger.Warn(msg, fieldsToArgs(fields)...) }
func (l slogFields) Error(msg string, fields ...middleware.Field) { l.Logger.Error(msg, fieldsToArgs(fields)...) }

func fieldsToArgs(fields []middleware.Field) []any {
	return lo.FlatMap(fields, func(f middleware.Field, _ int) []any {
		return []any{f.Key, f.Value}
	})
}
