// Package domain is the kernel shared by bounded contexts: the event shape
// every context publishes on the bus.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact a context publishes after a state change.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() uuid.UUID
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata ties an event to the caller action that caused it.
type EventMetadata struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	CausationID   uuid.UUID `json:"causation_id"`
}

// Stampable events accept metadata after construction.
type Stampable interface {
	Stamp(metadata EventMetadata)
}

// BaseEvent carries the identity half of DomainEvent. Embed it by value and
// publish a pointer so Stamp reaches the embedded copy.
type BaseEvent struct {
	id            uuid.UUID
	aggregateType string
	aggregateID   uuid.UUID
	routingKey    string
	at            time.Time
	metadata      EventMetadata
}

// NewBaseEvent identifies a new event. A zero at means now.
func NewBaseEvent(aggregateType string, aggregateID uuid.UUID, routingKey string, at time.Time) BaseEvent {
	if at.IsZero() {
		at = time.Now()
	}
	return BaseEvent{
		id:            uuid.New(),
		aggregateType: aggregateType,
		aggregateID:   aggregateID,
		routingKey:    routingKey,
		at:            at.UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID      { return e.id }
func (e BaseEvent) AggregateType() string   { return e.aggregateType }
func (e BaseEvent) AggregateID() uuid.UUID  { return e.aggregateID }
func (e BaseEvent) RoutingKey() string      { return e.routingKey }
func (e BaseEvent) OccurredAt() time.Time   { return e.at }
func (e BaseEvent) Metadata() EventMetadata { return e.metadata }

func (e *BaseEvent) Stamp(metadata EventMetadata) { e.metadata = metadata }
