// Package dto holds the transport shapes shared by the CLI and MCP adapters.
package dto

import (
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/commands"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/samber/lo"
)

const localLayout = "2006-01-02 15:04 MST"

// SlotDTO is a slot in UTC plus a display string.
type SlotDTO struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Display string    `json:"display"`
}

// AttendeeDTO is a participant and, when a slot was chosen, its local start.
type AttendeeDTO struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Timezone  string `json:"timezone"`
	LocalTime string `json:"local_time,omitempty"`
}

// DeliveryDTO is one notification attempt.
type DeliveryDTO struct {
	Recipient string `json:"recipient"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// OutcomeDTO is the serializable view of a negotiation result.
type OutcomeDTO struct {
	NegotiationID   string                         `json:"negotiation_id"`
	Status          string                         `json:"status"`
	SelectionSource string                         `json:"selection_source,omitempty"`
	Slot            *SlotDTO                       `json:"slot,omitempty"`
	FallbackSlots   []SlotDTO                      `json:"fallback_slots,omitempty"`
	CandidateCount  int                            `json:"candidate_count"`
	Participants    []AttendeeDTO                  `json:"participants"`
	Excluded        []commands.ExcludedParticipant `json:"excluded,omitempty"`
	Warnings        []domain.Warning               `json:"warnings,omitempty"`
	MeetingLink     string                         `json:"meeting_link,omitempty"`
	Deliveries      []DeliveryDTO                  `json:"deliveries,omitempty"`
}

// NewSlotDTO converts a slot.
func NewSlotDTO(s domain.CandidateSlot) SlotDTO {
	return SlotDTO{Start: s.Start.UTC(), End: s.End.UTC(), Display: services.FormatSlotUTC(s)}
}

// NewOutcomeDTO converts an outcome with its optional exclusions and delivery report.
func NewOutcomeDTO(o *domain.Outcome, excluded []commands.ExcludedParticipant, report *services.DeliveryReport) OutcomeDTO {
	out := OutcomeDTO{
		NegotiationID:   o.NegotiationID.String(),
		Status:          string(o.Status),
		SelectionSource: string(o.SelectionSource),
		FallbackSlots:   lo.Map(o.FallbackSlots, func(s domain.CandidateSlot, _ int) SlotDTO { return NewSlotDTO(s) }),
		CandidateCount:  len(o.Candidates),
		Excluded:        excluded,
		Warnings:        o.Warnings,
	}
	if o.Slot != nil {
		slot := NewSlotDTO(*o.Slot)
		out.Slot = &slot
	}

	out.Participants = lo.Map(o.Participants, func(p domain.Participant, _ int) AttendeeDTO {
		a := AttendeeDTO{Email: p.ID(), Name: p.DisplayName(), Timezone: p.Timezone()}
		if o.Slot != nil {
			if loc, err := domain.LoadLocation(p.Timezone()); err == nil {
				a.LocalTime = o.Slot.Start.In(loc).Format(localLayout)
			}
		}
		return a
	})

	if report != nil {
		out.MeetingLink = report.MeetingLink
		out.Warnings = append(out.Warnings, report.Warnings...)
		out.Deliveries = lo.Map(report.Results, func(r services.DeliveryResult, _ int) DeliveryDTO {
			d := DeliveryDTO{Recipient: r.Recipient, Kind: string(r.Kind), Status: string(r.Status)}
			if r.Err != nil {
				d.Error = r.Err.Error()
			}
			return d
		})
	}
	return out
}

// NewDeliveryDTOs converts journaled records.
func NewDeliveryDTOs(records []services.DeliveryRecord) []DeliveryDTO {
	return lo.Map(records, func(r services.DeliveryRecord, _ int) DeliveryDTO {
		return DeliveryDTO{Recipient: r.Recipient, Kind: string(r.Kind), Status: string(r.Status), Error: r.Error}
	})
}
