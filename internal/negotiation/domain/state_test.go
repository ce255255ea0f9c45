package domain_test

import (
	"testing"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_ForwardPaths(t *testing.T) {
	tests := []struct {
		name string
		path []domain.State
	}{
		{"confirmed", []domain.State{domain.StateIntersecting, domain.StateSelecting, domain.StateConfirmed}},
		{"awaiting", []domain.State{domain.StateIntersecting, domain.StateSelecting, domain.StateAwaitingConfirmation}},
		{"reschedule", []domain.State{domain.StateIntersecting, domain.StateRescheduleRequested}},
		{"preselected", []domain.State{domain.StateConfirmed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := domain.NewMachine()
			for _, next := range tt.path {
				require.NoError(t, m.Transition(next))
			}
			assert.True(t, m.Current().IsTerminal())
			assert.Equal(t, append([]domain.State{domain.StateCollecting}, tt.path...), m.History())

			_, ok := domain.StatusFor(m.Current())
			assert.True(t, ok)
		})
	}
}

func TestMachine_RejectsBackwardsAndSkips(t *testing.T) {
	m := domain.NewMachine()
	require.NoError(t, m.Transition(domain.StateIntersecting))

	assert.ErrorIs(t, m.Transition(domain.StateCollecting), domain.ErrInvalidTransition)
	assert.ErrorIs(t, m.Transition(domain.StateConfirmed), domain.ErrInvalidTransition)
	assert.Equal(t, domain.StateIntersecting, m.Current())
}

func TestMachine_TerminalStatesHaveNoExit(t *testing.T) {
	for _, s := range []domain.State{domain.StateConfirmed, domain.StateAwaitingConfirmation, domain.StateRescheduleRequested} {
		assert.True(t, s.IsTerminal(), s)
		assert.False(t, s.CanTransitionTo(domain.StateCollecting))
	}
	assert.False(t, domain.StateSelecting.IsTerminal())
}

func TestStatusFor(t *testing.T) {
	status, ok := domain.StatusFor(domain.StateRescheduleRequested)
	assert.True(t, ok)
	assert.Equal(t, domain.StatusRescheduleRequested, status)

	_, ok = domain.StatusFor(domain.StateSelecting)
	assert.False(t, ok)
}
