package mcp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type windowInput struct {
	Start string `json:"start" jsonschema:"required"`
	End   string `json:"end" jsonschema:"required"`
}

type participantInput struct {
	Email    string        `json:"email" jsonschema:"required"`
	Name     string        `json:"name,omitempty"`
	Timezone string        `json:"timezone,omitempty"`
	Slots    []windowInput `json:"slots,omitempty"`
}

func toParticipantInputs(in []participantInput) ([]domain.ParticipantInput, error) {
	if len(in) == 0 {
		return nil, errors.New("participants are required")
	}
	return lo.Map(in, func(p participantInput, _ int) domain.ParticipantInput {
		return domain.ParticipantInput{
			ID:          strings.TrimSpace(p.Email),
			DisplayName: p.Name,
			Timezone:    p.Timezone,
			Windows: lo.Map(p.Slots, func(w windowInput, _ int) domain.RawWindow {
				return domain.RawWindow{Start: w.Start, End: w.End}
			}),
		}
	}), nil
}

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}
