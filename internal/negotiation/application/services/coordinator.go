package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	sharedApp "github.com/felixgeelhaar/rendezvous/internal/shared/application"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
	"github.com/google/uuid"
)

// EventBusService is the warning name used when publishing fails.
const EventBusService = "eventbus"

// MinParticipants is the smallest negotiation the coordinator accepts.
const MinParticipants = 2

// Coordinator drives one negotiation pass through the state machine.
// It holds no per-request state and is safe for concurrent use.
type Coordinator struct {
	selector  *SlotSelector
	fallback  domain.FallbackSearch
	publisher eventbus.Publisher
	newID     func() uuid.UUID
	metrics   observability.Metrics
	logger    *slog.Logger
}

// NewCoordinator creates a coordinator. A nil fallback search yields empty
// reschedule proposals; a nil publisher disables outcome events.
func NewCoordinator(selector *SlotSelector, fallback domain.FallbackSearch, publisher eventbus.Publisher, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if selector == nil {
		selector = NewSlotSelector(nil, nil, 0, logger)
	}
	return &Coordinator{
		selector:  selector,
		fallback:  fallback,
		publisher: publisher,
		newID:     uuid.New,
		metrics:   observability.NoopMetrics{},
		logger:    logger,
	}
}

// WithIDGenerator replaces the negotiation ID source.
func (c *Coordinator) WithIDGenerator(fn func() uuid.UUID) *Coordinator {
	if fn != nil {
		c.newID = fn
	}
	return c
}

// WithMetrics sets the metrics sink.
func (c *Coordinator) WithMetrics(m observability.Metrics) *Coordinator {
	if m != nil {
		c.metrics = m
	}
	return c
}

// Negotiate runs Collecting → Intersecting → Selecting → terminal.
// The only errors are caller errors about the participant list.
func (c *Coordinator) Negotiate(ctx context.Context, participants []domain.Participant, requireConfirmation bool) (*domain.Outcome, error) {
	timer := observability.StartTimer(c.metrics, "negotiate")
	outcome, err := c.negotiate(ctx, participants, requireConfirmation)
	timer.Stop(err)
	return outcome, err
}

func (c *Coordinator) negotiate(ctx context.Context, participants []domain.Participant, requireConfirmation bool) (*domain.Outcome, error) {
	machine := domain.NewMachine()
	if err := validateParticipants(participants); err != nil {
		return nil, err
	}

	id := c.newID()
	ctx = observability.WithNegotiationID(ctx, id)
	if err := machine.Transition(domain.StateIntersecting); err != nil {
		return nil, err
	}
	candidates, err := domain.IntersectParticipants(participants)
	if err != nil {
		return nil, err
	}
	c.metrics.Histogram(observability.MetricCandidateSlots, float64(len(candidates)))

	var outcome *domain.Outcome
	if len(candidates) == 0 {
		if err := machine.Transition(domain.StateRescheduleRequested); err != nil {
			return nil, err
		}
		fallbacks := domain.TopFallbacks(c.fallback, participants)
		outcome = domain.NewRescheduleRequested(id, fallbacks, participants)
		c.logger.InfoContext(ctx, "no common slot, requesting reschedule",
			"participants", len(participants),
			"fallback_slots", len(fallbacks),
		)
	} else {
		if err := machine.Transition(domain.StateSelecting); err != nil {
			return nil, err
		}
		selection, warning, err := c.selector.Select(ctx, candidates)
		if err != nil {
			return nil, err
		}

		next := domain.StateConfirmed
		if requireConfirmation {
			next = domain.StateAwaitingConfirmation
		}
		if err := machine.Transition(next); err != nil {
			return nil, err
		}

		if requireConfirmation {
			outcome = domain.NewAwaitingConfirmation(id, selection.Slot, participants)
		} else {
			outcome = domain.NewConfirmed(id, selection.Slot, participants)
		}
		outcome.SelectionSource = selection.Source
		if warning != nil {
			outcome.AddWarning(*warning)
		}
		c.logger.InfoContext(ctx, "slot selected",
			"participants", len(participants),
			"candidates", len(candidates),
			"start", selection.Slot.Start,
			"end", selection.Slot.End,
			"source", string(selection.Source),
		)
	}
	outcome.Candidates = candidates

	if err := c.finish(ctx, machine, outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

// Finalize confirms a previously proposed slot without re-running
// intersection or selection.
func (c *Coordinator) Finalize(ctx context.Context, slot domain.CandidateSlot, participants []domain.Participant) (*domain.Outcome, error) {
	if !slot.IsValid() {
		return nil, domain.ErrInvalidTimeRange
	}
	if err := validateParticipants(participants); err != nil {
		return nil, err
	}

	machine := domain.NewMachine()
	if err := machine.Transition(domain.StateConfirmed); err != nil {
		return nil, err
	}

	id := c.newID()
	ctx = observability.WithNegotiationID(ctx, id)

	outcome := domain.NewConfirmed(id, slot, participants)
	outcome.SelectionSource = domain.SelectionPreselected
	outcome.Candidates = []domain.CandidateSlot{slot}

	c.logger.InfoContext(ctx, "slot finalized",
		"participants", len(participants),
		"start", slot.Start,
		"end", slot.End,
	)
	if err := c.finish(ctx, machine, outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

// finish checks that the machine's terminal state agrees with the outcome,
// then records and publishes it.
func (c *Coordinator) finish(ctx context.Context, machine *domain.Machine, outcome *domain.Outcome) error {
	status, ok := domain.StatusFor(machine.Current())
	if !ok || status != outcome.Status {
		return fmt.Errorf("%w: machine ended in %s, outcome is %s", domain.ErrInvalidTransition, machine.Current(), outcome.Status)
	}
	c.logger.DebugContext(ctx, "negotiation finished", "path", machine.History(), "status", string(status))

	c.metrics.Counter(observability.MetricNegotiations, 1, observability.T(observability.StatusKey, string(outcome.Status)))
	if c.publisher == nil {
		return nil
	}

	event := domain.NewOutcomeEvent(outcome)
	sharedApp.Stamp(ctx, event)
	if err := eventbus.PublishEvent(ctx, c.publisher, event); err != nil {
		c.logger.WarnContext(ctx, "failed to publish outcome event", "error", err)
		outcome.AddWarning(domain.WarningFromError(EventBusService, "", domain.NewServiceError(EventBusService, "publish", err)))
		return nil
	}
	c.metrics.Counter(observability.MetricEventsPublished, 1)
	return nil
}

func validateParticipants(participants []domain.Participant) error {
	if len(participants) < MinParticipants {
		return &domain.InsufficientParticipantsError{Got: len(participants), Required: MinParticipants}
	}
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		key := domain.IdentityKey(p.ID())
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateParticipant, p.ID())
		}
		seen[key] = struct{}{}
	}
	return nil
}
