package storage

import (
	"context"
	"fmt"
	"time"
)

// AuditEvent is one row of the append-only audit trail maintained by
// the worker from the transaction event stream.
type AuditEvent struct {
	ID            int64
	TransactionID string
	UserID        string
	Action        string
	Type          string
	AmountCents   int64
	OccurredAt    time.Time
}

func (r *Repository) AppendAuditEvent(ctx context.Context, e AuditEvent) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO audit_log (transaction_id, user_id, action, type, amount_cents, occurred_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, e.TransactionID, e.UserID, e.Action, e.Type, e.AmountCents, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (r *Repository) CountAuditEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_log").Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}
	return n, nil
}
