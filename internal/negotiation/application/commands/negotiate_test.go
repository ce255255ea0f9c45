package commands_test

import (
	"context"
	"sync"
	"testing"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/commands"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []services.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg services.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func newHandlers(notifier services.Notifier) (*commands.NegotiateHandler, *commands.FinalizeHandler) {
	coordinator := services.NewCoordinator(nil, domain.StrictFallback{}, nil, nil)
	var dispatcher *services.Dispatcher
	if notifier != nil {
		dispatcher = services.NewDispatcher(services.DefaultDispatcherConfig(), services.DispatcherDeps{Notifier: notifier}, nil)
	}
	return commands.NewNegotiateHandler(coordinator, dispatcher, "UTC", nil),
		commands.NewFinalizeHandler(coordinator, dispatcher, "UTC", nil)
}

func input(email, tz string, windows ...domain.RawWindow) domain.ParticipantInput {
	return domain.ParticipantInput{ID: email, Timezone: tz, Windows: windows}
}

func raw(start, end string) domain.RawWindow {
	return domain.RawWindow{Start: start, End: end}
}

func TestNegotiateHandler_ConfirmsAcrossTimezones(t *testing.T) {
	handler, _ := newHandlers(nil)

	result, err := handler.Handle(context.Background(), commands.NegotiateCommand{
		Participants: []domain.ParticipantInput{
			input("priya@example.com", "Asia/Kolkata", raw("2025-07-07 09:00", "2025-07-07 10:00")),
			input("sam@example.com", "", raw("2025-07-07 03:00", "2025-07-07 05:00")),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, result.Outcome.Status)
	assert.Equal(t, "2025-07-07T03:30:00Z", result.Outcome.Slot.Start.Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, "UTC", result.Outcome.Participants[1].Timezone())
	assert.Empty(t, result.Excluded)
	assert.Nil(t, result.Delivery)
}

func TestNegotiateHandler_MalformedInputAborts(t *testing.T) {
	handler, _ := newHandlers(nil)

	_, err := handler.Handle(context.Background(), commands.NegotiateCommand{
		Participants: []domain.ParticipantInput{
			input("a@example.com", "UTC", raw("2025-07-07 09:00", "2025-07-07 10:00")),
			input("b@example.com", "UTC", raw("2025-07-07 09:00", "tomorrow")),
			input("c@example.com", "UTC", raw("2025-07-07 09:00", "2025-07-07 10:00")),
		},
	})

	var malformed *domain.MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "b@example.com", malformed.ParticipantID)
	assert.Equal(t, "windows[0].end", malformed.Field)
}

func TestNegotiateHandler_ExcludeMalformed(t *testing.T) {
	handler, _ := newHandlers(nil)

	result, err := handler.Handle(context.Background(), commands.NegotiateCommand{
		ExcludeMalformed: true,
		Participants: []domain.ParticipantInput{
			input("a@example.com", "UTC", raw("2025-07-07 09:00", "2025-07-07 10:00")),
			input("b@example.com", "Atlantis/Nowhere", raw("2025-07-07 09:00", "2025-07-07 10:00")),
			input("c@example.com", "UTC", raw("2025-07-07 09:30", "2025-07-07 11:00")),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, result.Outcome.Status)
	assert.Equal(t, []string{"a@example.com", "c@example.com"}, result.Outcome.ParticipantIDs())
	require.Len(t, result.Excluded, 1)
	assert.Equal(t, "b@example.com", result.Excluded[0].ID)
	require.Len(t, result.Outcome.Warnings, 1)
	assert.Equal(t, "participant excluded", result.Outcome.Warnings[0].Fallback)
}

func TestNegotiateHandler_ExclusionCanLeaveTooFewParticipants(t *testing.T) {
	handler, _ := newHandlers(nil)

	_, err := handler.Handle(context.Background(), commands.NegotiateCommand{
		ExcludeMalformed: true,
		Participants: []domain.ParticipantInput{
			input("a@example.com", "UTC", raw("2025-07-07 09:00", "2025-07-07 10:00")),
			input("not-an-email", "UTC", raw("2025-07-07 09:00", "2025-07-07 10:00")),
		},
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientParticipants)
}

func TestNegotiateHandler_ValidationNamesField(t *testing.T) {
	handler, _ := newHandlers(nil)

	_, err := handler.Handle(context.Background(), commands.NegotiateCommand{
		Participants: []domain.ParticipantInput{
			input("a@example.com", "UTC", raw("", "2025-07-07 10:00")),
			input("b@example.com", "UTC", raw("2025-07-07 09:00", "2025-07-07 10:00")),
		},
	})

	var malformed *domain.MalformedInputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "windows[0].start", malformed.Field)
}

func TestNegotiateHandler_RejectsInvalidMeetingLink(t *testing.T) {
	handler, _ := newHandlers(nil)

	_, err := handler.Handle(context.Background(), commands.NegotiateCommand{
		MeetingLink: "not a url",
		Participants: []domain.ParticipantInput{
			input("a@example.com", "UTC"),
			input("b@example.com", "UTC"),
		},
	})

	assert.Error(t, err)
}

func TestNegotiateHandler_NotifiesParticipants(t *testing.T) {
	notifier := &recordingNotifier{}
	handler, _ := newHandlers(notifier)

	result, err := handler.Handle(context.Background(), commands.NegotiateCommand{
		Notify:      true,
		MeetingLink: "https://meet.example.com/abc",
		Participants: []domain.ParticipantInput{
			input("a@example.com", "UTC", raw("2025-07-07 09:00", "2025-07-07 10:00")),
			input("b@example.com", "UTC", raw("2025-07-07 14:00", "2025-07-07 15:00")),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusRescheduleRequested, result.Outcome.Status)
	require.NotNil(t, result.Delivery)
	assert.Len(t, result.Delivery.Results, 2)
	assert.Len(t, notifier.sent, 2)
	assert.Equal(t, services.MessageReschedule, notifier.sent[0].Kind)
}
