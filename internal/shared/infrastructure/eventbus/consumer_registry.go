package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Wildcard subscribes a consumer to every routing key.
const Wildcard = "*"

// ConsumerRegistry routes envelopes to the consumers subscribed to their key.
type ConsumerRegistry struct {
	mu     sync.RWMutex
	byKey  map[string][]EventConsumer
	logger *slog.Logger
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{byKey: map[string][]EventConsumer{}, logger: logger}
}

// Register subscribes consumer to each of its routing keys.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		r.byKey[key] = append(r.byKey[key], consumer)
	}
}

// RoutingKeys lists every key with a subscriber.
func (r *ConsumerRegistry) RoutingKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	return keys
}

// Dispatch hands envelope to exact subscribers, then wildcard ones. Every
// consumer runs; their errors are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, envelope *Envelope) error {
	r.mu.RLock()
	matched := append([]EventConsumer(nil), r.byKey[envelope.RoutingKey]...)
	if envelope.RoutingKey != Wildcard {
		matched = append(matched, r.byKey[Wildcard]...)
	}
	r.mu.RUnlock()

	if len(matched) == 0 {
		r.logger.DebugContext(ctx, "no consumers", "routing_key", envelope.RoutingKey)
		return nil
	}

	var errs []error
	for _, consumer := range matched {
		if err := consumer.Handle(ctx, envelope); err != nil {
			r.logger.ErrorContext(ctx, "consumer failed",
				"routing_key", envelope.RoutingKey,
				"event_id", envelope.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
