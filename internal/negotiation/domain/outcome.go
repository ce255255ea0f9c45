package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Status tags which variant a NegotiationOutcome holds.
type Status string

const (
	StatusConfirmed            Status = "confirmed"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusRescheduleRequested  Status = "reschedule_requested"
)

// SelectionSource records how the proposed slot was chosen.
type SelectionSource string

const (
	SelectionRanked      SelectionSource = "ranked"
	SelectionFallback    SelectionSource = "fallback"
	SelectionPreselected SelectionSource = "preselected"
)

// Warning describes an external-service failure that was absorbed by a fallback.
type Warning struct {
	Service  string `json:"service"`
	Message  string `json:"message"`
	Fallback string `json:"fallback,omitempty"`
}

// WarningFromError builds a warning from a collaborator error.
func WarningFromError(service, fallback string, err error) Warning {
	return Warning{Service: service, Message: err.Error(), Fallback: fallback}
}

func (w Warning) String() string {
	if w.Fallback != "" {
		return fmt.Sprintf("%s: %s (fallback: %s)", w.Service, w.Message, w.Fallback)
	}
	return fmt.Sprintf("%s: %s", w.Service, w.Message)
}

// Outcome is the result of one pass through the negotiation state machine.
//
// Slot is set for StatusConfirmed and StatusAwaitingConfirmation.
// FallbackSlots is set (possibly empty) for StatusRescheduleRequested.
type Outcome struct {
	NegotiationID   uuid.UUID
	Status          Status
	Slot            *CandidateSlot
	FallbackSlots   []CandidateSlot
	Participants    []Participant
	Candidates      []CandidateSlot
	SelectionSource SelectionSource
	Warnings        []Warning
}

// NewConfirmed creates a confirmed outcome.
func NewConfirmed(id uuid.UUID, slot CandidateSlot, participants []Participant) *Outcome {
	s := slot
	return &Outcome{NegotiationID: id, Status: StatusConfirmed, Slot: &s, Participants: participants}
}

// NewAwaitingConfirmation creates an outcome that needs an explicit finalize step.
func NewAwaitingConfirmation(id uuid.UUID, slot CandidateSlot, participants []Participant) *Outcome {
	s := slot
	return &Outcome{NegotiationID: id, Status: StatusAwaitingConfirmation, Slot: &s, Participants: participants}
}

// NewRescheduleRequested creates a reschedule outcome with at most MaxFallbackSlots alternatives.
func NewRescheduleRequested(id uuid.UUID, fallbacks []CandidateSlot, participants []Participant) *Outcome {
	if len(fallbacks) > MaxFallbackSlots {
		fallbacks = fallbacks[:MaxFallbackSlots]
	}
	copied := make([]CandidateSlot, len(fallbacks))
	copy(copied, fallbacks)
	return &Outcome{NegotiationID: id, Status: StatusRescheduleRequested, FallbackSlots: copied, Participants: participants}
}

// IsTerminal reports whether the status ends a negotiation pass.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusAwaitingConfirmation, StatusRescheduleRequested:
		return true
	default:
		return false
	}
}

// AddWarning appends an absorbed failure to the outcome.
func (o *Outcome) AddWarning(w Warning) {
	o.Warnings = append(o.Warnings, w)
}

// ParticipantIDs returns the participant identifiers in input order.
func (o *Outcome) ParticipantIDs() []string {
	ids := make([]string, 0, len(o.Participants))
	for _, p := range o.Participants {
		ids = append(ids, p.ID())
	}
	return ids
}
