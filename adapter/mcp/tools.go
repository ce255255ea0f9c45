package mcp

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/rendezvous/adapter/cli"
)

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App *cli.App
}

type toolGroup struct {
	name     string
	register func(*mcp.Server, ToolDependencies) error
}

var toolGroups = []toolGroup{
	{"core", registerCoreTools},
	{"negotiation", registerNegotiationTools},
}

// RegisterCLITools registers the tools that mirror the meeting commands.
func RegisterCLITools(srv *mcp.Server, deps ToolDependencies) error {
	switch {
	case srv == nil:
		return errors.New("server is required")
	case deps.App == nil:
		return errors.New("app is required")
	}

	for _, g := range toolGroups {
		if err := g.register(srv, deps); err != nil {
			return fmt.Errorf("register %s tools: %w", g.name, err)
		}
	}
	return nil
}
