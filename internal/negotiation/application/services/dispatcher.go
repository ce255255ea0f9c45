package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/resilience"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// Collaborator names used for breakers and warnings.
const (
	ComposerService    = "composer"
	MeetingLinkService = "meeting_link"
	InviteService      = "invite"
	NotifierService    = "notifier"
	CalendarService    = "calendar"
	JournalService     = "journal"
)

// ErrNoNotifier is returned when a dispatcher has nothing to send through.
var ErrNoNotifier = errors.New("no notifier configured")

// DispatcherConfig configures the dispatcher.
type DispatcherConfig struct {
	SenderName        string
	DefaultMeetingURL string
	Concurrency       int
	ComposeTimeout    time.Duration
	LinkTimeout       time.Duration
	NotifyTimeout     time.Duration
}

// DefaultDispatcherConfig returns a sensible default configuration.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		SenderName:        "Rendezvous",
		DefaultMeetingURL: "https://zoom.us/",
		Concurrency:       4,
		ComposeTimeout:    15 * time.Second,
		LinkTimeout:       10 * time.Second,
		NotifyTimeout:     20 * time.Second,
	}
}

// DispatcherDeps holds the dispatcher's collaborators. Only Notifier is required.
type DispatcherDeps struct {
	Composer MessageComposer
	Links    MeetingLinkProvisioner
	Invites  CalendarInviteEncoder
	Notifier Notifier
	Calendar CalendarPublisher
	Journal  DeliveryJournal
	Guard    *resilience.Guard
	Metrics  observability.Metrics
}

// DispatchRequest asks for the notifications of one outcome.
type DispatchRequest struct {
	Outcome *domain.Outcome

	// MeetingLink overrides link provisioning when set.
	MeetingLink string

	// CustomMessage replaces the composed confirmation body when set.
	CustomMessage string
}

// DeliveryResult is the fate of one recipient's message.
type DeliveryResult struct {
	Recipient string
	Kind      MessageKind
	Status    DeliveryStatus
	Err       error
}

// DeliveryReport summarizes a dispatch once every attempt has finished.
type DeliveryReport struct {
	MeetingLink string
	Messages    []Message
	Results     []DeliveryResult
	Warnings    []domain.Warning
}

// Failed returns the results that were not delivered.
func (r *DeliveryReport) Failed() []DeliveryResult {
	failed := make([]DeliveryResult, 0)
	for _, res := range r.Results {
		if res.Status == DeliveryFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Dispatcher turns an outcome into per-participant notifications.
// One recipient's failure never affects the others.
type Dispatcher struct {
	config DispatcherConfig
	deps   DispatcherDeps
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(config DispatcherConfig, deps DispatcherDeps, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.DefaultMeetingURL == "" {
		config.DefaultMeetingURL = DefaultDispatcherConfig().DefaultMeetingURL
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics{}
	}
	return &Dispatcher{config: config, deps: deps, logger: logger}
}

// Dispatch sends the messages for a confirmed or reschedule outcome.
// Outcomes awaiting confirmation produce an empty report.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*DeliveryReport, error) {
	if req.Outcome == nil {
		return nil, errors.New("outcome is required")
	}
	if d.deps.Notifier == nil {
		return nil, ErrNoNotifier
	}

	outcome := req.Outcome
	ctx = observability.WithNegotiationID(ctx, outcome.NegotiationID)
	report := &DeliveryReport{}
	warnings := newWarningSet()

	var attachment *Attachment
	switch outcome.Status {
	case domain.StatusAwaitingConfirmation:
		return report, nil
	case domain.StatusConfirmed:
		if outcome.Slot == nil {
			return nil, errors.New("confirmed outcome has no slot")
		}
		report.MeetingLink = d.meetingLink(ctx, *outcome.Slot, req.MeetingLink, warnings)
		attachment = d.invite(ctx, *outcome.Slot, report.MeetingLink, warnings)
		d.publishCalendar(ctx, outcome, report.MeetingLink, warnings)
	}

	kind := MessageConfirmation
	if outcome.Status == domain.StatusRescheduleRequested {
		kind = MessageReschedule
	}

	report.Messages = make([]Message, len(outcome.Participants))
	report.Results = make([]DeliveryResult, len(outcome.Participants))

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(d.config.Concurrency)
	for i, p := range outcome.Participants {
		g.Go(func() error {
			msg := Message{
				NegotiationID: outcome.NegotiationID,
				Kind:          kind,
				To:            p.ID(),
				ToName:        p.DisplayName(),
				Subject:       Subject(kind, d.config.SenderName),
				Body:          d.body(gctx, kind, p, outcome, report.MeetingLink, req.CustomMessage, warnings),
				Attachment:    attachment,
			}
			report.Messages[i] = msg
			report.Results[i] = d.send(gctx, msg)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range report.Results {
		d.record(ctx, outcome, res)
	}
	report.Warnings = warnings.list()

	d.logger.InfoContext(ctx, "notifications dispatched",
		"kind", string(kind),
		"recipients", len(report.Results),
		"failed", len(report.Failed()),
	)
	return report, nil
}

func (d *Dispatcher) meetingLink(ctx context.Context, slot domain.CandidateSlot, custom string, warnings *warningSet) string {
	if link := strings.TrimSpace(custom); link != "" {
		return link
	}
	if d.deps.Links == nil {
		return d.config.DefaultMeetingURL
	}

	link, err := resilience.Do(d.deps.Guard, MeetingLinkService, func() (string, error) {
		callCtx, cancel := withTimeout(ctx, d.config.LinkTimeout)
		defer cancel()
		return d.deps.Links.Create(callCtx, slot)
	})
	if err == nil && strings.TrimSpace(link) == "" {
		err = errors.New("empty meeting link")
	}
	if err != nil {
		d.logger.WarnContext(ctx, "meeting link provisioning failed, using default", "error", err)
		warnings.add(domain.WarningFromError(MeetingLinkService, d.config.DefaultMeetingURL, domain.NewServiceError(MeetingLinkService, "create", err)))
		d.deps.Metrics.Counter(observability.MetricLinkFallbacks, 1)
		return d.config.DefaultMeetingURL
	}
	return link
}

func (d *Dispatcher) invite(ctx context.Context, slot domain.CandidateSlot, link string, warnings *warningSet) *Attachment {
	if d.deps.Invites == nil {
		return nil
	}
	attachment, err := d.deps.Invites.Encode(slot, link)
	if err != nil {
		d.logger.WarnContext(ctx, "calendar invite encoding failed, sending without attachment", "error", err)
		warnings.add(domain.WarningFromError(InviteService, "no attachment", domain.NewServiceError(InviteService, "encode", err)))
		return nil
	}
	return attachment
}

func (d *Dispatcher) publishCalendar(ctx context.Context, outcome *domain.Outcome, link string, warnings *warningSet) {
	if d.deps.Calendar == nil {
		return
	}
	_, err := resilience.Do(d.deps.Guard, CalendarService, func() (struct{}, error) {
		return struct{}{}, d.deps.Calendar.Publish(ctx, *outcome.Slot, link, outcome.Participants)
	})
	if err != nil {
		d.logger.WarnContext(ctx, "calendar publish failed", "error", err)
		warnings.add(domain.WarningFromError(CalendarService, "", domain.NewServiceError(CalendarService, "publish", err)))
	}
}

func (d *Dispatcher) body(ctx context.Context, kind MessageKind, p domain.Participant, outcome *domain.Outcome, link, custom string, warnings *warningSet) string {
	if kind == MessageConfirmation && strings.TrimSpace(custom) != "" {
		return CustomMessageBody(p.DisplayName(), custom, link)
	}

	req := MessageRequest{
		Kind:          kind,
		Recipient:     p,
		Slot:          outcome.Slot,
		FallbackSlots: outcome.FallbackSlots,
		MeetingLink:   link,
		SenderName:    d.config.SenderName,
	}
	if d.deps.Composer == nil {
		return RenderTemplate(req)
	}

	text, err := resilience.Do(d.deps.Guard, ComposerService, func() (string, error) {
		callCtx, cancel := withTimeout(ctx, d.config.ComposeTimeout)
		defer cancel()
		return d.deps.Composer.Compose(callCtx, req)
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty message")
	}
	if err != nil {
		d.logger.WarnContext(ctx, "message composing failed, using template",
			"participant", p.ID(),
			"error", err,
		)
		warnings.add(domain.WarningFromError(ComposerService, "template", domain.NewServiceError(ComposerService, "compose", err)))
		return RenderTemplate(req)
	}
	return text
}

func (d *Dispatcher) send(ctx context.Context, msg Message) DeliveryResult {
	result := DeliveryResult{Recipient: msg.To, Kind: msg.Kind, Status: DeliverySent}

	// Unguarded: every recipient gets an attempt.
	callCtx, cancel := withTimeout(ctx, d.config.NotifyTimeout)
	err := d.deps.Notifier.Send(callCtx, msg)
	cancel()
	if err != nil {
		result.Status = DeliveryFailed
		result.Err = domain.NewServiceError(NotifierService, "send", err)
		d.deps.Metrics.Counter(observability.MetricNotificationsFail, 1)
		d.logger.WarnContext(ctx, "notification failed",
			"participant", msg.To,
			"error", err,
		)
		return result
	}

	d.deps.Metrics.Counter(observability.MetricNotificationsSent, 1)
	return result
}

func (d *Dispatcher) record(ctx context.Context, outcome *domain.Outcome, res DeliveryResult) {
	if d.deps.Journal == nil {
		return
	}
	rec := DeliveryRecord{
		NegotiationID: outcome.NegotiationID,
		Recipient:     res.Recipient,
		Kind:          res.Kind,
		Status:        res.Status,
		AttemptedAt:   time.Now().UTC(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if err := d.deps.Journal.Record(ctx, rec); err != nil {
		d.logger.WarnContext(ctx, "failed to journal delivery",
			"participant", res.Recipient,
			"error", err,
		)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// warningSet collects warnings from concurrent senders without duplicates.
type warningSet struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	items []domain.Warning
}

func newWarningSet() *warningSet {
	return &warningSet{seen: make(map[string]struct{})}
}

func (s *warningSet) add(w domain.Warning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := w.String()
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, w)
}

func (s *warningSet) list() []domain.Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Warning, len(s.items))
	copy(out, s.items)
	return out
}
