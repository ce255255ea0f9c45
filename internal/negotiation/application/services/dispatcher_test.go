package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/resilience"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu   sync.Mutex
	fail map[string]error
	sent []services.Message
}

func (n *fakeNotifier) Send(_ context.Context, msg services.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fail[msg.To]; err != nil {
		return err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) byRecipient() map[string]services.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]services.Message, len(n.sent))
	for _, m := range n.sent {
		out[m.To] = m
	}
	return out
}

type mockLinks struct {
	mock.Mock
}

func (m *mockLinks) Create(ctx context.Context, slot domain.CandidateSlot) (string, error) {
	args := m.Called(ctx, slot)
	return args.String(0), args.Error(1)
}

type composerFunc func(ctx context.Context, req services.MessageRequest) (string, error)

func (f composerFunc) Compose(ctx context.Context, req services.MessageRequest) (string, error) {
	return f(ctx, req)
}

type stubInvites struct {
	err error
}

func (s stubInvites) Encode(slot domain.CandidateSlot, link string) (*services.Attachment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.Attachment{Filename: "meeting.ics", ContentType: "text/calendar", Data: []byte(link)}, nil
}

type memoryJournal struct {
	mu      sync.Mutex
	records []services.DeliveryRecord
}

func (j *memoryJournal) Record(_ context.Context, rec services.DeliveryRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

type calendarFunc func(ctx context.Context, slot domain.CandidateSlot, link string, attendees []domain.Participant) error

func (f calendarFunc) Publish(ctx context.Context, slot domain.CandidateSlot, link string, attendees []domain.Participant) error {
	return f(ctx, slot, link, attendees)
}

func confirmedOutcome() *domain.Outcome {
	participants := []domain.Participant{
		domain.NewParticipant("priya@example.com", "Priya", "Asia/Kolkata", nil),
		domain.NewParticipant("sam@example.com", "Sam", "America/New_York", nil),
		domain.NewParticipant("lee@example.com", "Lee", "UTC", nil),
	}
	return domain.NewConfirmed(fixedID, mkSlot(14, 0, 14, 30), participants)
}

func newDispatcher(deps services.DispatcherDeps) *services.Dispatcher {
	cfg := services.DefaultDispatcherConfig()
	cfg.SenderName = "Scheduler"
	cfg.DefaultMeetingURL = "https://meet.example.com/default"
	return services.NewDispatcher(cfg, deps, nil)
}

func TestDispatcher_RequiresNotifier(t *testing.T) {
	_, err := newDispatcher(services.DispatcherDeps{}).Dispatch(context.Background(), services.DispatchRequest{Outcome: confirmedOutcome()})

	assert.ErrorIs(t, err, services.ErrNoNotifier)
}

func TestDispatcher_ConfirmationToEveryParticipant(t *testing.T) {
	notifier := &fakeNotifier{}
	links := new(mockLinks)
	links.On("Create", mock.Anything, mkSlot(14, 0, 14, 30)).Return("https://zoom.us/j/123", nil).Once()
	journal := &memoryJournal{}

	report, err := newDispatcher(services.DispatcherDeps{
		Links:    links,
		Invites:  stubInvites{},
		Notifier: notifier,
		Journal:  journal,
	}).Dispatch(context.Background(), services.DispatchRequest{Outcome: confirmedOutcome()})

	require.NoError(t, err)
	assert.Equal(t, "https://zoom.us/j/123", report.MeetingLink)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.Failed())
	require.Len(t, report.Results, 3)

	sent := notifier.byRecipient()
	require.Len(t, sent, 3)
	priya := sent["priya@example.com"]
	assert.Equal(t, "Meeting Confirmation – Scheduled by Scheduler", priya.Subject)
	assert.Contains(t, priya.Body, "Dear Priya,")
	assert.Contains(t, priya.Body, "https://zoom.us/j/123")
	assert.Contains(t, priya.Body, "Your Time (Asia/Kolkata): 07:30 PM to 08:00 PM")
	require.NotNil(t, priya.Attachment)
	assert.Equal(t, "meeting.ics", priya.Attachment.Filename)

	assert.Len(t, journal.records, 3)
	links.AssertExpectations(t)
}

func TestDispatcher_OneFailedRecipientDoesNotStopOthers(t *testing.T) {
	notifier := &fakeNotifier{fail: map[string]error{"sam@example.com": errors.New("mailbox full")}}
	metrics := observability.NewInMemoryMetrics()
	journal := &memoryJournal{}

	report, err := newDispatcher(services.DispatcherDeps{
		Notifier: notifier,
		Journal:  journal,
		Metrics:  metrics,
	}).Dispatch(context.Background(), services.DispatchRequest{Outcome: confirmedOutcome()})

	require.NoError(t, err)
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "sam@example.com", failed[0].Recipient)
	assert.ErrorIs(t, failed[0].Err, domain.ErrExternalServiceUnavailable)
	assert.Len(t, notifier.byRecipient(), 2)
	assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricNotificationsSent))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricNotificationsFail))

	statuses := map[string]services.DeliveryStatus{}
	for _, rec := range journal.records {
		statuses[rec.Recipient] = rec.Status
	}
	assert.Equal(t, services.DeliveryFailed, statuses["sam@example.com"])
	assert.Equal(t, services.DeliverySent, statuses["lee@example.com"])
}

func TestDispatcher_GuardedDispatchAttemptsEveryRecipient(t *testing.T) {
	ids := []string{"bad1@example.com", "bad2@example.com", "bad3@example.com", "good1@example.com", "good2@example.com"}
	participants := make([]domain.Participant, 0, len(ids))
	fail := map[string]error{}
	for _, id := range ids {
		participants = append(participants, domain.NewParticipant(id, "", "UTC", nil))
		if strings.HasPrefix(id, "bad") {
			fail[id] = errors.New("mailbox unavailable")
		}
	}
	notifier := &fakeNotifier{fail: fail}

	cfg := services.DefaultDispatcherConfig()
	cfg.Concurrency = 1
	d := services.NewDispatcher(cfg, services.DispatcherDeps{
		Notifier: notifier,
		Guard:    resilience.NewGuard(resilience.DefaultConfig(), nil),
	}, nil)

	for round := 0; round < 2; round++ {
		report, err := d.Dispatch(context.Background(), services.DispatchRequest{
			Outcome:     domain.NewConfirmed(fixedID, mkSlot(14, 0, 14, 30), participants),
			MeetingLink: "https://meet.example.com/x",
		})

		require.NoError(t, err)
		failed := report.Failed()
		require.Len(t, failed, 3, "round %d", round)
		for _, f := range failed {
			assert.True(t, strings.HasPrefix(f.Recipient, "bad"), f.Recipient)
			assert.NotErrorIs(t, f.Err, resilience.ErrCircuitOpen)
		}
	}
	assert.Len(t, notifier.byRecipient(), 2)
	assert.Len(t, notifier.sent, 4, "good recipients are reached in every round")
}

func TestDispatcher_LinkFailureUsesDefault(t *testing.T) {
	notifier := &fakeNotifier{}
	links := new(mockLinks)
	links.On("Create", mock.Anything, mock.Anything).Return("", errors.New("zoom 401"))

	report, err := newDispatcher(services.DispatcherDeps{
		Links:    links,
		Notifier: notifier,
	}).Dispatch(context.Background(), services.DispatchRequest{Outcome: confirmedOutcome()})

	require.NoError(t, err)
	assert.Equal(t, "https://meet.example.com/default", report.MeetingLink)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, services.MeetingLinkService, report.Warnings[0].Service)
	for _, msg := range notifier.byRecipient() {
		assert.Contains(t, msg.Body, "https://meet.example.com/default")
	}
}

func TestDispatcher_CustomLinkSkipsProvisioning(t *testing.T) {
	links := new(mockLinks)

	report, err := newDispatcher(services.DispatcherDeps{
		Links:    links,
		Notifier: &fakeNotifier{},
	}).Dispatch(context.Background(), services.DispatchRequest{
		Outcome:     confirmedOutcome(),
		MeetingLink: "https://meet.example.com/custom",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://meet.example.com/custom", report.MeetingLink)
	links.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDispatcher_ComposerFailureFallsBackToTemplate(t *testing.T) {
	notifier := &fakeNotifier{}
	composer := composerFunc(func(_ context.Context, req services.MessageRequest) (string, error) {
		if req.Recipient.ID() == "lee@example.com" {
			return "", errors.New("rate limited")
		}
		return "Hi " + req.Recipient.DisplayName() + ", see you at " + req.MeetingLink, nil
	})

	report, err := newDispatcher(services.DispatcherDeps{
		Composer: composer,
		Notifier: notifier,
	}).Dispatch(context.Background(), services.DispatchRequest{Outcome: confirmedOutcome()})

	require.NoError(t, err)
	sent := notifier.byRecipient()
	assert.True(t, strings.HasPrefix(sent["sam@example.com"].Body, "Hi Sam"))
	assert.Contains(t, sent["lee@example.com"].Body, "We've successfully scheduled a meeting")
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, services.ComposerService, report.Warnings[0].Service)
	assert.Equal(t, "template", report.Warnings[0].Fallback)
}

func TestDispatcher_CustomMessageOverridesComposer(t *testing.T) {
	notifier := &fakeNotifier{}
	composer := composerFunc(func(context.Context, services.MessageRequest) (string, error) {
		t.Fatal("composer must not run for custom messages")
		return "", nil
	})

	_, err := newDispatcher(services.DispatcherDeps{
		Composer: composer,
		Notifier: notifier,
	}).Dispatch(context.Background(), services.DispatchRequest{
		Outcome:       confirmedOutcome(),
		MeetingLink:   "https://meet.example.com/x",
		CustomMessage: "Bring the roadmap.",
	})

	require.NoError(t, err)
	assert.Equal(t, "Dear Lee,\n\nBring the roadmap.\n\n🔗 Meeting Link: https://meet.example.com/x",
		notifier.byRecipient()["lee@example.com"].Body)
}

func TestDispatcher_InviteAndCalendarFailuresAreWarnings(t *testing.T) {
	notifier := &fakeNotifier{}
	calendar := calendarFunc(func(context.Context, domain.CandidateSlot, string, []domain.Participant) error {
		return errors.New("403 forbidden")
	})

	report, err := newDispatcher(services.DispatcherDeps{
		Invites:  stubInvites{err: errors.New("encode failed")},
		Calendar: calendar,
		Notifier: notifier,
	}).Dispatch(context.Background(), services.DispatchRequest{Outcome: confirmedOutcome()})

	require.NoError(t, err)
	assert.Empty(t, report.Failed())
	require.Len(t, report.Warnings, 2)
	assert.Equal(t, services.InviteService, report.Warnings[0].Service)
	assert.Equal(t, services.CalendarService, report.Warnings[1].Service)
	for _, msg := range notifier.byRecipient() {
		assert.Nil(t, msg.Attachment)
	}
}

func TestDispatcher_RescheduleListsFallbacks(t *testing.T) {
	notifier := &fakeNotifier{}
	outcome := domain.NewRescheduleRequested(fixedID, []domain.CandidateSlot{mkSlot(10, 0, 11, 0)}, []domain.Participant{
		mkParticipant("a@example.com"),
		mkParticipant("b@example.com"),
	})
	links := new(mockLinks)

	report, err := newDispatcher(services.DispatcherDeps{
		Links:    links,
		Invites:  stubInvites{},
		Notifier: notifier,
	}).Dispatch(context.Background(), services.DispatchRequest{Outcome: outcome})

	require.NoError(t, err)
	assert.Empty(t, report.MeetingLink)
	sent := notifier.byRecipient()
	require.Len(t, sent, 2)
	msg := sent["a@example.com"]
	assert.Equal(t, services.MessageReschedule, msg.Kind)
	assert.Equal(t, "Meeting Reschedule Request – From Scheduler", msg.Subject)
	assert.Contains(t, msg.Body, "Unfortunately, no mutual meeting slot was found.")
	assert.Contains(t, msg.Body, "2025-07-07 10:00 to 11:00 UTC")
	assert.Nil(t, msg.Attachment)
	links.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDispatcher_AwaitingConfirmationSendsNothing(t *testing.T) {
	notifier := &fakeNotifier{}
	outcome := domain.NewAwaitingConfirmation(fixedID, mkSlot(10, 0, 11, 0), []domain.Participant{
		mkParticipant("a@example.com"),
		mkParticipant("b@example.com"),
	})

	report, err := newDispatcher(services.DispatcherDeps{Notifier: notifier}).
		Dispatch(context.Background(), services.DispatchRequest{Outcome: outcome})

	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Empty(t, notifier.byRecipient())
}
