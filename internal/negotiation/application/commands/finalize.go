package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
)

// SlotInput is a slot chosen by the caller. Values without an offset are
// read in Timezone, or UTC when that is empty.
type SlotInput struct {
	Start    string `json:"start" validate:"required"`
	End      string `json:"end" validate:"required"`
	Timezone string `json:"timezone,omitempty"`
}

// FinalizeCommand confirms a slot proposed by an earlier negotiation.
type FinalizeCommand struct {
	Slot          SlotInput
	Participants  []domain.ParticipantInput
	Notify        bool
	MeetingLink   string `validate:"omitempty,url"`
	CustomMessage string
}

// FinalizeResult contains the confirmed outcome and its delivery report.
type FinalizeResult struct {
	Outcome  *domain.Outcome
	Delivery *services.DeliveryReport
}

// FinalizeHandler handles the FinalizeCommand.
type FinalizeHandler struct {
	normalizer      *domain.Normalizer
	coordinator     *services.Coordinator
	dispatcher      *services.Dispatcher
	defaultTimezone string
	logger          *slog.Logger
}

// NewFinalizeHandler creates a new FinalizeHandler. dispatcher may be nil.
func NewFinalizeHandler(coordinator *services.Coordinator, dispatcher *services.Dispatcher, defaultTimezone string, logger *slog.Logger) *FinalizeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &FinalizeHandler{
		normalizer:      domain.NewNormalizer(),
		coordinator:     coordinator,
		dispatcher:      dispatcher,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// Handle executes the FinalizeCommand.
func (h *FinalizeHandler) Handle(ctx context.Context, cmd FinalizeCommand) (*FinalizeResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("invalid finalize command: %w", err)
	}

	slot, err := parseSlot(cmd.Slot)
	if err != nil {
		return nil, err
	}

	inputs := withDefaultTimezone(cmd.Participants, h.defaultTimezone)
	participants, _, err := normalizeAll(h.normalizer, inputs, false)
	if err != nil {
		return nil, err
	}

	outcome, err := h.coordinator.Finalize(ctx, slot, participants)
	if err != nil {
		return nil, err
	}

	result := &FinalizeResult{Outcome: outcome}
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

func parseSlot(in SlotInput) (domain.CandidateSlot, error) {
	loc := time.UTC
	if in.Timezone != "" {
		l, err := domain.LoadLocation(in.Timezone)
		if err != nil {
			return domain.CandidateSlot{}, domain.NewMalformedInputError("", "slot.timezone", in.Timezone, err)
		}
		loc = l
	}

	start, err := domain.ParseInstant(in.Start, loc)
	if err != nil {
		return domain.CandidateSlot{}, domain.NewMalformedInputError("", "slot.start", in.Start, err)
	}
	end, err := domain.ParseInstant(in.End, loc)
	if err != nil {
		return domain.CandidateSlot{}, domain.NewMalformedInputError("", "slot.end", in.End, err)
	}
	slot, err := domain.NewCandidateSlot(start, end)
	if err != nil {
		return domain.CandidateSlot{}, domain.NewMalformedInputError("", "slot", in.Start+" - "+in.End, err)
	}
	return slot, nil
}
