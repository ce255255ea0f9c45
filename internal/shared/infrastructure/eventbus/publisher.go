package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/rendezvous/internal/shared/domain"
)

// Publisher defines the interface for publishing envelopes to a message broker.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}

// PublishEnvelope marshals and publishes an envelope under its routing key.
func PublishEnvelope(ctx context.Context, p Publisher, envelope *Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return p.Publish(ctx, envelope.RoutingKey, payload)
}

// PublishEvent wraps a domain event in an envelope and publishes it.
func PublishEvent(ctx context.Context, p Publisher, event domain.DomainEvent) error {
	envelope, err := NewEnvelope(event)
	if err != nil {
		return fmt.Errorf("failed to build envelope: %w", err)
	}
	return PublishEnvelope(ctx, p, envelope)
}
