package domain_test

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRescheduleRequested_CapsFallbacks(t *testing.T) {
	fallbacks := []domain.CandidateSlot{
		slot(9, 0, 10, 0), slot(10, 0, 11, 0), slot(11, 0, 12, 0), slot(12, 0, 13, 0),
	}

	o := domain.NewRescheduleRequested(uuid.New(), fallbacks, nil)

	assert.Equal(t, domain.StatusRescheduleRequested, o.Status)
	assert.Nil(t, o.Slot)
	assert.Len(t, o.FallbackSlots, domain.MaxFallbackSlots)

	fallbacks[0] = slot(20, 0, 21, 0)
	assert.True(t, o.FallbackSlots[0].Equal(slot(9, 0, 10, 0)))
}

func TestNewConfirmed_CopiesSlot(t *testing.T) {
	s := slot(9, 0, 10, 0)
	participants := []domain.Participant{participant("a@example.com"), participant("b@example.com")}

	o := domain.NewConfirmed(uuid.New(), s, participants)
	s.Start = utc(8, 0)

	require.NotNil(t, o.Slot)
	assert.True(t, o.Slot.Start.Equal(utc(9, 0)))
	assert.True(t, o.Status.IsTerminal())
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, o.ParticipantIDs())
}

func TestOutcome_AddWarning(t *testing.T) {
	o := domain.NewAwaitingConfirmation(uuid.New(), slot(9, 0, 10, 0), nil)

	o.AddWarning(domain.WarningFromError("ranking", "first candidate", errors.New("timeout")))

	require.Len(t, o.Warnings, 1)
	assert.Equal(t, "ranking: timeout (fallback: first candidate)", o.Warnings[0].String())
}

func TestNewOutcomeEvent(t *testing.T) {
	id := uuid.New()
	o := domain.NewRescheduleRequested(id, []domain.CandidateSlot{slot(9, 0, 10, 0)}, []domain.Participant{
		participant("a@example.com", window(9, 0, 10, 0)),
	})

	event := domain.NewOutcomeEvent(o)

	assert.Equal(t, id, event.AggregateID())
	assert.Equal(t, "Negotiation", event.AggregateType())
	assert.Equal(t, domain.RoutingKeyRescheduleRequested, event.RoutingKey())
	assert.Equal(t, []string{"a@example.com"}, event.Participants)
	assert.Len(t, event.FallbackSlots, 1)
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection refused")
	svc := domain.NewServiceError("notifier", "send", cause)

	assert.ErrorIs(t, svc, domain.ErrExternalServiceUnavailable)
	assert.ErrorIs(t, svc, cause)
	assert.Equal(t, "notifier: send: connection refused", svc.Error())

	insufficient := &domain.InsufficientParticipantsError{Got: 1, Required: 2}
	assert.ErrorIs(t, insufficient, domain.ErrInsufficientParticipants)
	assert.Contains(t, insufficient.Error(), "got 1")
}
