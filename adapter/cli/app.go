package cli

import (
	"context"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/commands"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"github.com/google/uuid"
)

// DeliveryHistory reads back journaled delivery attempts.
type DeliveryHistory interface {
	History(ctx context.Context, negotiationID uuid.UUID) ([]services.DeliveryRecord, error)
}

// MailConsumerFactory connects the queue consumer that runs the mail worker.
type MailConsumerFactory func(ctx context.Context) (eventbus.Consumer, error)

// App holds the CLI application dependencies.
type App struct {
	NegotiateHandler *commands.NegotiateHandler
	FinalizeHandler  *commands.FinalizeHandler

	Health       *observability.HealthRegistry
	History      DeliveryHistory
	MailConsumer MailConsumerFactory
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(negotiateHandler *commands.NegotiateHandler, finalizeHandler *commands.FinalizeHandler) *App {
	return &App{
		NegotiateHandler: negotiateHandler,
		FinalizeHandler:  finalizeHandler,
	}
}

// SetHealth updates the health registry.
func (a *App) SetHealth(registry *observability.HealthRegistry) {
	a.Health = registry
}

// SetHistory updates the delivery history reader.
func (a *App) SetHistory(history DeliveryHistory) {
	a.History = history
}

// SetMailConsumer updates the mail consumer factory.
func (a *App) SetMailConsumer(factory MailConsumerFactory) {
	a.MailConsumer = factory
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
