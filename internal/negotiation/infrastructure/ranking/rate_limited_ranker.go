package ranking

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a ranking call is refused by the limiter.
var ErrRateLimited = errors.New("ranking rate limit exceeded")

// RateLimitedRanker caps how often the wrapped ranker is called. Callers over
// the limit are refused immediately so the selector can fall back.
type RateLimitedRanker struct {
	next    services.SlotRankingService
	limiter *rate.Limiter
}

// NewRateLimitedRanker allows perMinute calls with a burst of one.
func NewRateLimitedRanker(next services.SlotRankingService, perMinute int) *RateLimitedRanker {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &RateLimitedRanker{next: next, limiter: rate.NewLimiter(limit, 1)}
}

// Rank implements services.SlotRankingService.
func (r *RateLimitedRanker) Rank(ctx context.Context, candidates []domain.CandidateSlot) (int, error) {
	if !r.limiter.Allow() {
		return 0, ErrRateLimited
	}
	return r.next.Rank(ctx, candidates)
}
