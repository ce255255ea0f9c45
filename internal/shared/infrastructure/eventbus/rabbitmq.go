package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchange is the topic exchange for negotiation events and mail jobs.
	DefaultExchange = "rendezvous.events"
	// DefaultQueue is the durable queue the mail worker drains.
	DefaultQueue = "rendezvous.mail"
)

// RabbitMQConfig locates the broker and the exchange both sides use.
type RabbitMQConfig struct {
	URL      string
	Exchange string
	Logger   *slog.Logger
}

func (c RabbitMQConfig) withDefaults() RabbitMQConfig {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
	return c
}

// link is a connection with one channel and a declared topic exchange.
type link struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func dial(cfg RabbitMQConfig) (*link, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	// durable, not auto-deleted, not internal, wait for confirmation
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	return &link{conn: conn, channel: ch, exchange: cfg.Exchange}, nil
}

// Ping reports whether the underlying connection is still open.
func (l *link) Ping(context.Context) error {
	if l.conn.IsClosed() {
		return errors.New("connection closed")
	}
	return nil
}

func (l *link) close() error {
	return errors.Join(l.channel.Close(), l.conn.Close())
}

// RabbitMQPublisher publishes persistent JSON messages to the exchange.
type RabbitMQPublisher struct {
	*link
	mu     sync.Mutex
	logger *slog.Logger
}

// NewRabbitMQPublisher dials the broker and declares the exchange.
func NewRabbitMQPublisher(cfg RabbitMQConfig) (*RabbitMQPublisher, error) {
	cfg = cfg.withDefaults()
	l, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Info("rabbitmq publisher connected", "exchange", cfg.Exchange)
	return &RabbitMQPublisher{link: l, logger: cfg.Logger}, nil
}

// Publish sends payload under routingKey. Channels are not safe for
// concurrent publishing, so calls are serialized.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	p.logger.DebugContext(ctx, "message published", "routing_key", routingKey, "bytes", len(payload))
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.close()
}

// RabbitMQConsumer drains one durable queue bound to the exchange.
type RabbitMQConsumer struct {
	*link
	queue    string
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewRabbitMQConsumer dials the broker and declares the exchange and queue.
// An empty queue name uses DefaultQueue.
func NewRabbitMQConsumer(cfg RabbitMQConfig, queue string) (*RabbitMQConsumer, error) {
	cfg = cfg.withDefaults()
	if queue == "" {
		queue = DefaultQueue
	}

	l, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	// durable, not auto-deleted, not exclusive
	if _, err := l.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = l.close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	cfg.Logger.Info("rabbitmq consumer connected", "queue", queue, "exchange", cfg.Exchange)
	return &RabbitMQConsumer{
		link:     l,
		queue:    queue,
		registry: NewConsumerRegistry(cfg.Logger),
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}, nil
}

// RegisterConsumer binds the consumer's routing keys to the queue.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		binding := key
		if key == Wildcard {
			binding = "#"
		}
		if err := c.channel.QueueBind(c.queue, binding, c.exchange, false, nil); err != nil {
			c.logger.Error("failed to bind queue", "queue", c.queue, "routing_key", binding, "error", err)
		}
	}
}

// Start consumes one message at a time until ctx is canceled or Close is
// called.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.queue, err)
	}
	c.logger.Info("consuming", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed by broker")
			}
			c.settle(d, c.handle(ctx, d))
		}
	}
}

func (c *RabbitMQConsumer) handle(ctx context.Context, d amqp.Delivery) error {
	var envelope Envelope
	if err := json.Unmarshal(d.Body, &envelope); err != nil {
		return fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if envelope.RoutingKey == "" {
		envelope.RoutingKey = d.RoutingKey
	}
	return c.registry.Dispatch(ctx, &envelope)
}

// ErrUndecodable marks a delivery that can never be handled. Consumers wrap
// it for payloads they cannot decode so the delivery is dropped, not retried.
var ErrUndecodable = errors.New("undecodable envelope")

// Settlement is what happens to a delivery after handling.
type Settlement int

const (
	SettleAck Settlement = iota
	SettleRequeue
	SettleDrop
)

// Settle decides a delivery's fate. A failure is retried once through the
// queue; a second failure, or a body that cannot be decoded, is dropped.
func Settle(redelivered bool, err error) Settlement {
	switch {
	case err == nil:
		return SettleAck
	case errors.Is(err, ErrUndecodable), redelivered:
		return SettleDrop
	default:
		return SettleRequeue
	}
}

func (c *RabbitMQConsumer) settle(d amqp.Delivery, err error) {
	var ackErr error
	switch Settle(d.Redelivered, err) {
	case SettleAck:
		ackErr = d.Ack(false)
	case SettleRequeue:
		c.logger.Warn("delivery failed, requeueing", "routing_key", d.RoutingKey, "error", err)
		ackErr = d.Nack(false, true)
	case SettleDrop:
		c.logger.Error("delivery failed, dropping", "routing_key", d.RoutingKey, "redelivered", d.Redelivered, "error", err)
		ackErr = d.Nack(false, false)
	}
	if ackErr != nil {
		c.logger.Error("failed to settle delivery", "routing_key", d.RoutingKey, "error", ackErr)
	}
}

// Close stops Start and closes the connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return nil
	default:
		close(c.done)
	}
	c.running = false
	return c.close()
}
