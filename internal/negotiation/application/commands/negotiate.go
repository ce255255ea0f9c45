package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
)

// NegotiateCommand contains the data needed to negotiate a meeting slot.
type NegotiateCommand struct {
	Participants        []domain.ParticipantInput
	RequireConfirmation bool

	// ExcludeMalformed drops participants whose input cannot be normalized
	// instead of failing the whole request.
	ExcludeMalformed bool

	// Notify dispatches confirmation or reschedule messages after negotiating.
	Notify        bool
	MeetingLink   string `validate:"omitempty,url"`
	CustomMessage string
}

// NegotiateResult contains the result of a negotiation.
type NegotiateResult struct {
	Outcome  *domain.Outcome
	Excluded []ExcludedParticipant
	Delivery *services.DeliveryReport
}

// NegotiateHandler handles the NegotiateCommand.
type NegotiateHandler struct {
	normalizer      *domain.Normalizer
	coordinator     *services.Coordinator
	dispatcher      *services.Dispatcher
	defaultTimezone string
	logger          *slog.Logger
}

// NewNegotiateHandler creates a new NegotiateHandler. dispatcher may be nil.
func NewNegotiateHandler(coordinator *services.Coordinator, dispatcher *services.Dispatcher, defaultTimezone string, logger *slog.Logger) *NegotiateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &NegotiateHandler{
		normalizer:      domain.NewNormalizer(),
		coordinator:     coordinator,
		dispatcher:      dispatcher,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// Handle executes the NegotiateCommand.
func (h *NegotiateHandler) Handle(ctx context.Context, cmd NegotiateCommand) (*NegotiateResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("invalid negotiate command: %w", err)
	}

	inputs := withDefaultTimezone(cmd.Participants, h.defaultTimezone)
	participants, excluded, err := normalizeAll(h.normalizer, inputs, cmd.ExcludeMalformed)
	if err != nil {
		return nil, err
	}
	for _, e := range excluded {
		h.logger.WarnContext(ctx, "participant excluded", "participant", e.ID, "reason", e.Reason)
	}

	outcome, err := h.coordinator.Negotiate(ctx, participants, cmd.RequireConfirmation)
	if err != nil {
		return nil, err
	}
	for _, w := range exclusionWarnings(excluded) {
		outcome.AddWarning(w)
	}

	result := &NegotiateResult{Outcome: outcome, Excluded: excluded}
	if !cmd.Notify || h.dispatcher == nil {
		return result, nil
	}

	report, err := h.dispatcher.Dispatch(ctx, services.DispatchRequest{
		Outcome:       outcome,
		MeetingLink:   cmd.MeetingLink,
		CustomMessage: cmd.CustomMessage,
	})
	if err != nil {
		return result, fmt.Errorf("failed to dispatch notifications: %w", err)
	}
	result.Delivery = report
	return result, nil
}
