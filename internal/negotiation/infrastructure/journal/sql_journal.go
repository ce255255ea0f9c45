package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// Fixed width so that text comparison orders by time.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLJournal records delivery attempts in the delivery_journal table.
// Only recipients and outcomes are stored; never availability.
type SQLJournal struct {
	conn database.Connection
}

// NewSQLJournal creates a journal on an open, migrated connection.
func NewSQLJournal(conn database.Connection) *SQLJournal {
	return &SQLJournal{conn: conn}
}

// Record appends one delivery attempt.
func (j *SQLJournal) Record(ctx context.Context, rec services.DeliveryRecord) error {
	attempted := rec.AttemptedAt
	if attempted.IsZero() {
		attempted = time.Now()
	}

	query := j.rebind(`INSERT INTO delivery_journal
		(negotiation_id, recipient, kind, status, error, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := database.From(ctx, j.conn).Exec(ctx, query,
		rec.NegotiationID.String(),
		rec.Recipient,
		string(rec.Kind),
		string(rec.Status),
		rec.Error,
		attempted.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record delivery for %s: %w", rec.Recipient, err)
	}
	return nil
}

// History returns the attempts for one negotiation in insertion order.
func (j *SQLJournal) History(ctx context.Context, negotiationID uuid.UUID) ([]services.DeliveryRecord, error) {
	query := j.rebind(`SELECT negotiation_id, recipient, kind, status, error, attempted_at
		FROM delivery_journal WHERE negotiation_id = ? ORDER BY id`)
	rows, err := database.From(ctx, j.conn).Query(ctx, query, negotiationID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery journal: %w", err)
	}
	defer rows.Close()

	var records []services.DeliveryRecord
	for rows.Next() {
		var (
			id, recipient, kind, status, errText, attempted string
		)
		if err := rows.Scan(&id, &recipient, &kind, &status, &errText, &attempted); err != nil {
			return nil, err
		}
		rec := services.DeliveryRecord{
			Recipient: recipient,
			Kind:      services.MessageKind(kind),
			Status:    services.DeliveryStatus(status),
			Error:     errText,
		}
		if rec.NegotiationID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("corrupt negotiation id %q: %w", id, err)
		}
		if rec.AttemptedAt, err = time.Parse(timeLayout, attempted); err != nil {
			return nil, fmt.Errorf("corrupt attempted_at %q: %w", attempted, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes attempts older than the cutoff and reports how many went.
func (j *SQLJournal) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := j.rebind(`DELETE FROM delivery_journal WHERE attempted_at < ?`)
	removed, err := database.From(ctx, j.conn).Exec(ctx, query, before.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune delivery journal: %w", err)
	}
	return removed, nil
}

func (j *SQLJournal) rebind(query string) string {
	return database.Rebind(j.conn.Driver(), query)
}
