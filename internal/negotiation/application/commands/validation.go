package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

// ExcludedParticipant is a participant dropped because its input was malformed.
type ExcludedParticipant struct {
	ID     string `json:"email"`
	Reason string `json:"reason"`
}

// validateParticipant checks struct tags before any timestamp is parsed.
func validateParticipant(in domain.ParticipantInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewMalformedInputError(in.ID, "participant", "", err)
	}
	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "ParticipantInput.")
	return domain.NewMalformedInputError(in.ID, strings.ToLower(field), fmt.Sprint(fe.Value()),
		fmt.Errorf("failed %q validation", fe.Tag()))
}

// withDefaultTimezone fills in the timezone of participants that gave none.
func withDefaultTimezone(inputs []domain.ParticipantInput, tz string) []domain.ParticipantInput {
	return lo.Map(inputs, func(in domain.ParticipantInput, _ int) domain.ParticipantInput {
		if strings.TrimSpace(in.Timezone) == "" {
			in.Timezone = tz
		}
		in.ID = strings.TrimSpace(in.ID)
		return in
	})
}

// normalizeAll validates and normalizes every participant. With exclude set,
// malformed participants are dropped and reported instead of aborting.
func normalizeAll(n *domain.Normalizer, inputs []domain.ParticipantInput, exclude bool) ([]domain.Participant, []ExcludedParticipant, error) {
	participants := make([]domain.Participant, 0, len(inputs))
	excluded := make([]ExcludedParticipant, 0)

	for _, in := range inputs {
		p, err := normalizeOne(n, in)
		if err != nil {
			if !exclude {
				return nil, nil, err
			}
			excluded = append(excluded, ExcludedParticipant{ID: in.ID, Reason: err.Error()})
			continue
		}
		participants = append(participants, p)
	}
	return participants, excluded, nil
}

func normalizeOne(n *domain.Normalizer, in domain.ParticipantInput) (domain.Participant, error) {
	if err := validateParticipant(in); err != nil {
		return domain.Participant{}, err
	}
	return n.NormalizeParticipant(in)
}

func exclusionWarnings(excluded []ExcludedParticipant) []domain.Warning {
	return lo.Map(excluded, func(e ExcludedParticipant, _ int) domain.Warning {
		return domain.Warning{Service: "input", Message: e.Reason, Fallback: "participant excluded"}
	})
}
