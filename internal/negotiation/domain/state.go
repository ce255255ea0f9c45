package domain

import "fmt"

// State is a step of the negotiation state machine.
type State string

const (
	StateCollecting           State = "collecting"
	StateIntersecting         State = "intersecting"
	StateSelecting            State = "selecting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateConfirmed            State = "confirmed"
	StateRescheduleRequested  State = "reschedule_requested"
)

var transitions = map[State][]State{
	StateCollecting:   {StateIntersecting, StateConfirmed},
	StateIntersecting: {StateSelecting, StateRescheduleRequested},
	StateSelecting:    {StateAwaitingConfirmation, StateConfirmed},
}

// CanTransitionTo reports whether the machine may move from s to next.
// Collecting may jump straight to Confirmed when a slot is pre-selected.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Machine tracks a single forward pass; no state is ever revisited.
type Machine struct {
	current State
	history []State
}

// NewMachine starts a machine in Collecting.
func NewMachine() *Machine {
	return &Machine{current: StateCollecting, history: []State{StateCollecting}}
}

// Current returns the current state.
func (m *Machine) Current() State {
	return m.current
}

// History returns the states visited so far.
func (m *Machine) History() []State {
	out := make([]State, len(m.history))
	copy(out, m.history)
	return out
}

// Transition moves the machine forward.
func (m *Machine) Transition(next State) error {
	if !m.current.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, next)
	}
	m.current = next
	m.history = append(m.history, next)
	return nil
}

// StatusFor maps a terminal state to the outcome status.
func StatusFor(s State) (Status, bool) {
	switch s {
	case StateConfirmed:
		return StatusConfirmed, true
	case StateAwaitingConfirmation:
		return StatusAwaitingConfirmation, true
	case StateRescheduleRequested:
		return StatusRescheduleRequested, true
	default:
		return "", false
	}
}
