package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/shared/domain"
	"github.com/google/uuid"
)

// EventConsumer handles specific routing keys.
type EventConsumer interface {
	// EventTypes returns the routing keys this consumer handles,
	// e.g. ["negotiation.confirmed", "mail.send"]. "*" matches every key.
	EventTypes() []string

	// Handle processes the envelope.
	Handle(ctx context.Context, envelope *Envelope) error
}

// Envelope is the wire form of everything that travels over the bus.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
}

// EventMetadata contains optional tracing information.
type EventMetadata struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}

// NewEnvelope wraps a domain event. The event itself becomes the payload.
func NewEnvelope(event domain.DomainEvent) (*Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	envelope := &Envelope{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	}
	if md := event.Metadata(); md.CorrelationID != uuid.Nil {
		envelope.Metadata.CorrelationID = md.CorrelationID.String()
	}
	if md := event.Metadata(); md.CausationID != uuid.Nil {
		envelope.Metadata.CausationID = md.CausationID.String()
	}
	return envelope, nil
}

// Decode unmarshals the payload into v.
func (e *Envelope) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Consumer defines the interface for consuming envelopes from a message broker.
type Consumer interface {
	// Start begins consuming messages. This is a blocking call.
	Start(ctx context.Context) error

	// RegisterConsumer registers an event consumer.
	RegisterConsumer(consumer EventConsumer)

	// Close closes the consumer connection.
	Close() error
}
