package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the negotiation error taxonomy.
var (
	// ErrMalformedInput is returned when a participant's timestamps or timezone cannot be normalized.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInsufficientParticipants is returned when fewer than two participants take part.
	ErrInsufficientParticipants = errors.New("insufficient participants")

	// ErrExternalServiceUnavailable marks failures of ranking, link, message or notify collaborators.
	ErrExternalServiceUnavailable = errors.New("external service unavailable")

	// ErrInvalidTimeRange is returned when a window does not satisfy start < end.
	ErrInvalidTimeRange = errors.New("end time must be after start time")

	// ErrUnknownTimezone is returned when a timezone identifier cannot be resolved.
	ErrUnknownTimezone = errors.New("unknown timezone")

	// ErrUnparseableTimestamp is returned when a timestamp matches no accepted layout.
	ErrUnparseableTimestamp = errors.New("unparseable timestamp")

	// ErrDuplicateParticipant is returned when two participants share an identifier.
	ErrDuplicateParticipant = errors.New("duplicate participant")

	// ErrNoCandidates is returned when slot selection is attempted on an empty candidate list.
	ErrNoCandidates = errors.New("no candidate slots")

	// ErrInvalidTransition is returned when the negotiation state machine is driven backwards.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// MalformedInputError identifies the participant and field that failed normalization.
type MalformedInputError struct {
	// ParticipantID is the identifier of the offending participant.
	ParticipantID string

	// Field names the offending input, e.g. "timezone" or "windows[1].end".
	Field string

	// Value is the raw value that was rejected.
	Value string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *MalformedInputError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("participant %q: %s %q: %v", e.ParticipantID, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("participant %q: %s: %v", e.ParticipantID, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Is reports ErrMalformedInput as a match for every MalformedInputError.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// NewMalformedInputError creates a new malformed input error.
func NewMalformedInputError(participantID, field, value string, err error) *MalformedInputError {
	return &MalformedInputError{
		ParticipantID: participantID,
		Field:         field,
		Value:         value,
		Err:           err,
	}
}

// InsufficientParticipantsError reports how many participants were supplied.
type InsufficientParticipantsError struct {
	Got      int
	Required int
}

// Error implements the error interface.
func (e *InsufficientParticipantsError) Error() string {
	return fmt.Sprintf("%v: got %d, need at least %d", ErrInsufficientParticipants, e.Got, e.Required)
}

// Is reports ErrInsufficientParticipants as a match.
func (e *InsufficientParticipantsError) Is(target error) bool {
	return target == ErrInsufficientParticipants
}

// ServiceError wraps a failure of an external collaborator.
type ServiceError struct {
	// Service is the collaborator name, e.g. "ranking" or "notifier".
	Service string

	// Operation is the call that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is reports ErrExternalServiceUnavailable as a match.
func (e *ServiceError) Is(target error) bool {
	return target == ErrExternalServiceUnavailable
}

// NewServiceError creates a new external service error.
func NewServiceError(service, operation string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Err:       err,
	}
}
