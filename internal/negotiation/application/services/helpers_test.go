package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/eventbus"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, time.July, 7, hour, minute, 0, 0, time.UTC)
}

func mkSlot(sh, sm, eh, em int) domain.CandidateSlot {
	return domain.CandidateSlot{Start: at(sh, sm), End: at(eh, em)}
}

func mkWindow(sh, sm, eh, em int) domain.TimeWindow {
	return domain.TimeWindow{Start: at(sh, sm), End: at(eh, em)}
}

func mkParticipant(id string, windows ...domain.TimeWindow) domain.Participant {
	return domain.NewParticipant(id, "", "UTC", windows)
}

// rankerFunc adapts a function to SlotRankingService.
type rankerFunc func(ctx context.Context, candidates []domain.CandidateSlot) (int, error)

func (f rankerFunc) Rank(ctx context.Context, candidates []domain.CandidateSlot) (int, error) {
	return f(ctx, candidates)
}

// recordingPublisher captures everything published to it.
type recordingPublisher struct {
	mu        sync.Mutex
	err       error
	envelopes []*eventbus.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	var env eventbus.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = append(p.envelopes, &env)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []*eventbus.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventbus.Envelope(nil), p.envelopes...)
}
