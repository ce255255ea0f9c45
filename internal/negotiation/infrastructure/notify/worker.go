package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/eventbus"
)

// MailWorker consumes queued mail jobs and delivers them.
type MailWorker struct {
	sender services.Notifier
	logger *slog.Logger
}

// NewMailWorker creates a worker that sends through sender.
func NewMailWorker(sender services.Notifier, logger *slog.Logger) *MailWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailWorker{sender: sender, logger: logger}
}

// EventTypes implements eventbus.EventConsumer.
func (w *MailWorker) EventTypes() []string {
	return []string{RoutingKeyMailSend}
}

// Handle decodes and sends one job. A send error leaves the job on the queue
// for redelivery; a payload that cannot be decoded is dropped.
func (w *MailWorker) Handle(ctx context.Context, envelope *eventbus.Envelope) error {
	var msg services.Message
	if err := envelope.Decode(&msg); err != nil {
		return fmt.Errorf("%w: mail job %s: %v", eventbus.ErrUndecodable, envelope.EventID, err)
	}
	if msg.To == "" {
		w.logger.Warn("dropping mail job without recipient", "event_id", envelope.EventID)
		return nil
	}

	if err := w.sender.Send(ctx, msg); err != nil {
		w.logger.Error("mail delivery failed",
			"event_id", envelope.EventID,
			"negotiation_id", msg.NegotiationID,
			"to", msg.To,
			"error", err,
		)
		return err
	}
	w.logger.Info("mail job delivered",
		"event_id", envelope.EventID,
		"negotiation_id", msg.NegotiationID,
		"kind", msg.Kind,
	)
	return nil
}
