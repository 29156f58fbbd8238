package amqp

import (
	"encoding/json"
	"time"

	"moneyman/internal/core"
)

// Actions carried by transaction events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent is published after a ledger mutation commits. The
// worker appends these to the audit log; consumers never mutate the
// ledger from them.
type TransactionEvent struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Action        string    `json:"action"`
	Type          string    `json:"type"`
	AmountCents   int64     `json:"amount_cents"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewTransactionEvent builds an event from a committed transaction.
func NewTransactionEvent(t core.Transaction, action string) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Action:        action,
		Type:          string(t.Type),
		AmountCents:   t.Amount.Cents,
		OccurredAt:    time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
