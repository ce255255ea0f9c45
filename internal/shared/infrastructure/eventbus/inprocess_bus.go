package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// InProcessBus delivers envelopes synchronously to registered consumers.
// It is the publisher used when no broker URL is configured.
type InProcessBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewInProcessBus creates a new in-process bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// RegisterConsumer registers an event consumer.
func (b *InProcessBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes the envelope and dispatches it. Consumer failures are
// logged and never surface to the publisher.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	envelope := &Envelope{}
	if err := json.Unmarshal(payload, envelope); err != nil {
		b.logger.Error("failed to unmarshal envelope",
			"routing_key", routingKey,
			"error", err,
		)
		return nil
	}
	if envelope.RoutingKey == "" {
		envelope.RoutingKey = routingKey
	}

	start := time.Now()
	if err := b.registry.Dispatch(ctx, envelope); err != nil {
		b.logger.Error("envelope dispatch failed",
			"routing_key", routingKey,
			"event_id", envelope.EventID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil
	}

	b.logger.Debug("envelope dispatched",
		"routing_key", routingKey,
		"event_id", envelope.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Close is a no-op.
func (b *InProcessBus) Close() error {
	return nil
}

// Registry returns the underlying consumer registry.
func (b *InProcessBus) Registry() *ConsumerRegistry {
	return b.registry
}

// LogConsumer writes every envelope it receives to a logger.
type LogConsumer struct {
	logger *slog.Logger
}

// NewLogConsumer creates a consumer that logs all routing keys.
func NewLogConsumer(logger *slog.Logger) *LogConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogConsumer{logger: logger}
}

// EventTypes implements EventConsumer.
func (c *LogConsumer) EventTypes() []string {
	return []string{Wildcard}
}

// Handle implements EventConsumer.
func (c *LogConsumer) Handle(_ context.Context, envelope *Envelope) error {
	c.logger.Info("event",
		"routing_key", envelope.RoutingKey,
		"aggregate_id", envelope.AggregateID,
		"event_id", envelope.EventID,
	)
	return nil
}
