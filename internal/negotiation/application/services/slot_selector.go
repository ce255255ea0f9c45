package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/resilience"
	"github.com/felixgeelhaar/rendezvous/pkg/observability"
)

// RankingService is the breaker and warning name for the ranker.
const RankingService = "ranking"

// DefaultRankingTimeout bounds a single ranking attempt.
const DefaultRankingTimeout = 10 * time.Second

var errIndexOutOfRange = errors.New("index out of range")

// Selection is the slot the selector settled on.
type Selection struct {
	Slot   domain.CandidateSlot
	Index  int
	Source domain.SelectionSource
}

// SlotSelector chooses one candidate, consulting an optional ranker.
// The ranker gets exactly one bounded attempt; any failure selects the
// first candidate in enumeration order.
type SlotSelector struct {
	ranker  SlotRankingService
	guard   *resilience.Guard
	timeout time.Duration
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewSlotSelector creates a selector. ranker and guard may be nil.
func NewSlotSelector(ranker SlotRankingService, guard *resilience.Guard, timeout time.Duration, logger *slog.Logger) *SlotSelector {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultRankingTimeout
	}
	return &SlotSelector{
		ranker:  ranker,
		guard:   guard,
		timeout: timeout,
		metrics: observability.NoopMetrics{},
		logger:  logger,
	}
}

// WithMetrics sets the metrics sink.
func (s *SlotSelector) WithMetrics(m observability.Metrics) *SlotSelector {
	if m != nil {
		s.metrics = m
	}
	return s
}

// Select returns exactly one element of candidates. A non-nil warning means
// the ranker was bypassed.
func (s *SlotSelector) Select(ctx context.Context, candidates []domain.CandidateSlot) (Selection, *domain.Warning, error) {
	if len(candidates) == 0 {
		return Selection{}, nil, domain.ErrNoCandidates
	}

	first := Selection{Slot: candidates[0], Index: 1, Source: domain.SelectionFallback}
	if s.ranker == nil {
		return first, nil, nil
	}

	index, err := resilience.Do(s.guard, RankingService, func() (int, error) {
		return s.rankOnce(ctx, candidates)
	})
	if err == nil && (index < 1 || index > len(candidates)) {
		err = fmt.Errorf("%w: %d not in [1,%d]", errIndexOutOfRange, index, len(candidates))
	}
	if err != nil {
		w := domain.WarningFromError(RankingService, "first candidate", domain.NewServiceError(RankingService, "rank", err))
		s.logger.WarnContext(ctx, "slot ranking declined, using first candidate",
			"candidates", len(candidates),
			"error", err,
		)
		s.metrics.Counter(observability.MetricRankingFallbacks, 1)
		return first, &w, nil
	}

	return Selection{Slot: candidates[index-1], Index: index, Source: domain.SelectionRanked}, nil, nil
}

// rankOnce runs the ranker in its own goroutine so that a ranker ignoring
// its context still cannot hold the caller past the timeout.
func (s *SlotSelector) rankOnce(ctx context.Context, candidates []domain.CandidateSlot) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snapshot := make([]domain.CandidateSlot, len(candidates))
	copy(snapshot, candidates)

	type result struct {
		index int
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("ranker panicked: %v", r)}
			}
		}()
		index, err := s.ranker.Rank(ctx, snapshot)
		done <- result{index: index, err: err}
	}()

	select {
	case r := <-done:
		return r.index, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
