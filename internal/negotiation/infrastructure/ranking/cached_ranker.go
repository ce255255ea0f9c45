package ranking

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long a ranking stays cached.
const DefaultCacheTTL = time.Hour

const cacheKeyPrefix = "rendezvous:ranking:"

// Cache is the subset of the Redis client the cached ranker needs.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedRanker remembers rankings of identical candidate lists in Redis.
// Only slot instants enter the key; no participant data is stored.
// Cache failures are logged and fall through to the wrapped ranker.
type CachedRanker struct {
	next   services.SlotRankingService
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRanker wraps next with a Redis cache.
func NewCachedRanker(next services.SlotRankingService, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedRanker {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRanker{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Rank implements services.SlotRankingService.
func (r *CachedRanker) Rank(ctx context.Context, candidates []domain.CandidateSlot) (int, error) {
	key := CacheKey(candidates)

	cached, err := r.cache.Get(ctx, key).Result()
	switch {
	case err == nil:
		if index, convErr := strconv.Atoi(cached); convErr == nil && index >= 1 && index <= len(candidates) {
			return index, nil
		}
	case !errors.Is(err, redis.Nil):
		r.logger.WarnContext(ctx, "ranking cache read failed", "error", err)
	}

	index, err := r.next.Rank(ctx, candidates)
	if err != nil {
		return 0, err
	}
	if index >= 1 && index <= len(candidates) {
		if err := r.cache.Set(ctx, key, strconv.Itoa(index), r.ttl).Err(); err != nil {
			r.logger.WarnContext(ctx, "ranking cache write failed", "error", err)
		}
	}
	return index, nil
}

// CacheKey derives the cache key of a candidate list.
func CacheKey(candidates []domain.CandidateSlot) string {
	h := sha256.New()
	for _, c := range candidates {
		h.Write([]byte(c.Start.UTC().Format(time.RFC3339)))
		h.Write([]byte{'/'})
		h.Write([]byte(c.End.UTC().Format(time.RFC3339)))
		h.Write([]byte{';'})
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
