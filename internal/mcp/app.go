package mcp

import (
	"github.com/felixgeelhaar/rendezvous/adapter/cli"
	"github.com/felixgeelhaar/rendezvous/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	cliApp := cli.NewApp(container.NegotiateHandler, container.FinalizeHandler)
	cliApp.SetHealth(container.Health)

	if container.Journal != nil {
		cliApp.SetHistory(container.Journal)
	}
	cliApp.SetMailConsumer(container.NewMailConsumer)

	return cliApp
}
