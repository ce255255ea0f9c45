package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/commands"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/dto"
)

type negotiateInput struct {
	Participants        []participantInput `json:"participants" jsonschema:"required"`
	RequireConfirmation bool               `json:"require_confirmation,omitempty"`
	ExcludeMalformed    bool               `json:"exclude_malformed,omitempty"`
	Notify              bool               `json:"notify,omitempty"`
	MeetingLink         string             `json:"meeting_link,omitempty"`
	CustomMessage       string             `json:"custom_message,omitempty"`
}

type finalizeInput struct {
	Start         string             `json:"start" jsonschema:"required"`
	End           string             `json:"end" jsonschema:"required"`
	Timezone      string             `json:"timezone,omitempty"`
	Participants  []participantInput `json:"participants" jsonschema:"required"`
	Notify        bool               `json:"notify,omitempty"`
	MeetingLink   string             `json:"meeting_link,omitempty"`
	CustomMessage string             `json:"custom_message,omitempty"`
}

type historyInput struct {
	NegotiationID string `json:"negotiation_id" jsonschema:"required"`
}

func registerNegotiationTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("negotiation.negotiate").
		Description("Find a slot every participant can attend. Slots are wall-clock times in each participant's timezone unless they carry an offset.").
		Handler(func(ctx context.Context, input negotiateInput) (*dto.OutcomeDTO, error) {
			if app == nil || app.NegotiateHandler == nil {
				return nil, errors.New("negotiation is not configured")
			}
			participants, err := toParticipantInputs(input.Participants)
			if err != nil {
				return nil, err
			}

			result, err := app.NegotiateHandler.Handle(ctx, commands.NegotiateCommand{
				Participants:        participants,
				RequireConfirmation: input.RequireConfirmation,
				ExcludeMalformed:    input.ExcludeMalformed,
				Notify:              input.Notify,
				MeetingLink:         input.MeetingLink,
				CustomMessage:       input.CustomMessage,
			})
			if err != nil {
				return nil, err
			}
			view := dto.NewOutcomeDTO(result.Outcome, result.Excluded, result.Delivery)
			return &view, nil
		})

	srv.Tool("negotiation.finalize").
		Description("Confirm a slot proposed by negotiation.negotiate with require_confirmation").
		Handler(func(ctx context.Context, input finalizeInput) (*dto.OutcomeDTO, error) {
			if app == nil || app.FinalizeHandler == nil {
				return nil, errors.New("negotiation is not configured")
			}
			participants, err := toParticipantInputs(input.Participants)
			if err != nil {
				return nil, err
			}

			result, err := app.FinalizeHandler.Handle(ctx, commands.FinalizeCommand{
				Slot:          commands.SlotInput{Start: input.Start, End: input.End, Timezone: input.Timezone},
				Participants:  participants,
				Notify:        input.Notify,
				MeetingLink:   input.MeetingLink,
				CustomMessage: input.CustomMessage,
			})
			if err != nil {
				return nil, err
			}
			view := dto.NewOutcomeDTO(result.Outcome, nil, result.Delivery)
			return &view, nil
		})

	srv.Tool("negotiation.history").
		Description("List journaled delivery attempts for a negotiation").
		Handler(func(ctx context.Context, input historyInput) ([]dto.DeliveryDTO, error) {
			if app == nil || app.History == nil {
				return nil, errors.New("delivery journal is disabled")
			}
			id, err := parseUUID(input.NegotiationID)
			if err != nil {
				return nil, err
			}
			records, err := app.History.History(ctx, id)
			if err != nil {
				return nil, err
			}
			return dto.NewDeliveryDTOs(records), nil
		})

	return nil
}
