package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/rendezvous/internal/shared/domain"
	"github.com/google/uuid"
)

const aggregateType = "Negotiation"

// Routing keys for negotiation outcome events.
const (
	RoutingKeyConfirmed            = "negotiation.confirmed"
	RoutingKeyAwaitingConfirmation = "negotiation.awaiting_confirmation"
	RoutingKeyRescheduleRequested  = "negotiation.reschedule_requested"
)

// OutcomeEvent is emitted once per negotiation pass.
// It carries participant identifiers and chosen slots, never availability windows.
type OutcomeEvent struct {
	sharedDomain.BaseEvent
	NegotiationID uuid.UUID       `json:"negotiation_id"`
	Status        Status          `json:"status"`
	Slot          *CandidateSlot  `json:"slot,omitempty"`
	FallbackSlots []CandidateSlot `json:"fallback_slots,omitempty"`
	Participants  []string        `json:"participants"`
}

// NewOutcomeEvent creates the event matching an outcome's status.
func NewOutcomeEvent(o *Outcome) *OutcomeEvent {
	return &OutcomeEvent{
		BaseEvent:     sharedDomain.NewBaseEvent(aggregateType, o.NegotiationID, routingKeyFor(o.Status), time.Time{}),
		NegotiationID: o.NegotiationID,
		Status:        o.Status,
		Slot:          o.Slot,
		FallbackSlots: o.FallbackSlots,
		Participants:  o.ParticipantIDs(),
	}
}

func routingKeyFor(s Status) string {
	switch s {
	case StatusConfirmed:
		return RoutingKeyConfirmed
	case StatusAwaitingConfirmation:
		return RoutingKeyAwaitingConfirmation
	default:
		return RoutingKeyRescheduleRequested
	}
}
