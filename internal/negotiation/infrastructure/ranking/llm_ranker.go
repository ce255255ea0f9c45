package ranking

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/llm"
)

// LLMRanker asks a language model to pick the best candidate.
type LLMRanker struct {
	generator llm.Generator
	logger    *slog.Logger
}

// NewLLMRanker creates a ranker over a generator.
func NewLLMRanker(generator llm.Generator, logger *slog.Logger) *LLMRanker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMRanker{generator: generator, logger: logger}
}

// Rank implements services.SlotRankingService.
func (r *LLMRanker) Rank(ctx context.Context, candidates []domain.CandidateSlot) (int, error) {
	reply, err := r.generator.Generate(ctx, Prompt(candidates))
	if err != nil {
		return 0, err
	}
	index, err := ParseIndex(reply)
	if err != nil {
		return 0, err
	}
	r.logger.DebugContext(ctx, "model ranked slots",
		"provider", r.generator.Name(),
		"candidates", len(candidates),
		"index", index,
	)
	return index, nil
}

// FirstRanker always picks the first candidate.
type FirstRanker struct{}

// Rank implements services.SlotRankingService.
func (FirstRanker) Rank(_ context.Context, candidates []domain.CandidateSlot) (int, error) {
	if len(candidates) == 0 {
		return 0, domain.ErrNoCandidates
	}
	return 1, nil
}
