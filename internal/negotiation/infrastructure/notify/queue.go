package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Routing and aggregate names for queued mail.
const (
	RoutingKeyMailSend = "mail.send"
	mailAggregateType  = "Mail"
)

// QueueNotifier hands messages to the bus instead of sending them. A
// MailWorker on the other side performs the delivery.
type QueueNotifier struct {
	publisher eventbus.Publisher
	now       func() time.Time
}

// NewQueueNotifier creates a notifier that enqueues mail jobs.
func NewQueueNotifier(publisher eventbus.Publisher) *QueueNotifier {
	return &QueueNotifier{
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Send enqueues msg. Success means the broker accepted the job.
func (n *QueueNotifier) Send(ctx context.Context, msg services.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode mail job: %w", err)
	}

	envelope := &eventbus.Envelope{
		EventID:       uuid.New(),
		AggregateID:   msg.NegotiationID,
		AggregateType: mailAggregateType,
		RoutingKey:    RoutingKeyMailSend,
		OccurredAt:    n.now(),
		Payload:       payload,
	}
	if err := eventbus.PublishEnvelope(ctx, n.publisher, envelope); err != nil {
		return fmt.Errorf("failed to enqueue mail for %s: %w", msg.To, err)
	}
	return nil
}
