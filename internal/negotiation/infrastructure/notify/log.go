package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
)

// LogNotifier prints messages instead of sending them. It backs dry runs and
// deployments without mail credentials.
type LogNotifier struct {
	out    io.Writer
	logger *slog.Logger
	mu     sync.Mutex
}

// NewLogNotifier creates a notifier that writes full messages to out when it
// is non-nil and always logs a summary line.
func NewLogNotifier(out io.Writer, logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{out: out, logger: logger}
}

// Send never fails unless the writer does.
func (n *LogNotifier) Send(_ context.Context, msg services.Message) error {
	n.logger.Info("mail not sent (log notifier)",
		"negotiation_id", msg.NegotiationID,
		"to", msg.To,
		"kind", msg.Kind,
		"attachment", msg.Attachment != nil,
	)
	if n.out == nil {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.out, "To: %s\nSubject: %s\n\n%s\n----\n", msg.To, msg.Subject, msg.Body)
	return err
}
