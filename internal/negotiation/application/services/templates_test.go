package services_test

import (
	"testing"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate_Confirmation(t *testing.T) {
	slot := mkSlot(9, 0, 9, 30)
	body := services.RenderTemplate(services.MessageRequest{
		Kind:        services.MessageConfirmation,
		Recipient:   domain.NewParticipant("sam@example.com", "Sam", "America/New_York", nil),
		Slot:        &slot,
		MeetingLink: "https://zoom.us/j/1",
		SenderName:  "Scheduler",
	})

	assert.Contains(t, body, "Dear Sam,\n\nI hope you're doing well.")
	assert.Contains(t, body, "📅 Date: 2025-07-07")
	assert.Contains(t, body, "- UTC: 09:00 AM to 09:30 AM")
	assert.Contains(t, body, "- IST (India): 02:30 PM to 03:00 PM")
	assert.Contains(t, body, "- Your Time (America/New_York): 05:00 AM to 05:30 AM")
	assert.Contains(t, body, "🔗 Meeting Link: https://zoom.us/j/1")
	assert.Contains(t, body, "Best regards,\nScheduler")
}

func TestRenderTemplate_UnknownZoneFallsBackToUTC(t *testing.T) {
	slot := mkSlot(9, 0, 9, 30)
	body := services.RenderTemplate(services.MessageRequest{
		Kind:      services.MessageConfirmation,
		Recipient: domain.NewParticipant("x@example.com", "X", "", nil),
		Slot:      &slot,
	})

	assert.Contains(t, body, "- Your Time (UTC): 09:00 AM to 09:30 AM")
}

func TestRenderTemplate_RescheduleWithoutFallbacks(t *testing.T) {
	body := services.RenderTemplate(services.MessageRequest{
		Kind:       services.MessageReschedule,
		Recipient:  mkParticipant("a@example.com"),
		SenderName: "Scheduler",
	})

	assert.Equal(t, "Dear A,\n\nUnfortunately, no mutual meeting slot was found.\n\n"+
		"Kindly review your availability and suggest alternate time slots.\n\nRegards,\nScheduler\n", body)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Meeting Confirmation – Scheduled by Ana", services.Subject(services.MessageConfirmation, "Ana"))
	assert.Equal(t, "Meeting Reschedule Request – From Ana", services.Subject(services.MessageReschedule, "Ana"))
}

func TestFormatSlotUTC(t *testing.T) {
	assert.Equal(t, "2025-07-07 10:00 to 11:30 UTC", services.FormatSlotUTC(mkSlot(10, 0, 11, 30)))
}
