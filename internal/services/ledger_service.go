// Package services orchestrates ledger operations: it runs each
// create/update/delete request through validation, the edit-window
// policy, and the balance mutation rules, and persists the outcome as a
// single SQL transaction. The caller's user id is an explicit parameter
// on every operation; there is no ambient session state.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"moneyman/internal/amqp"
	"moneyman/internal/core"
	"moneyman/internal/storage"
)

// EventPublisher emits transaction events after a mutation commits. A
// nil publisher disables events; publish failures are logged and never
// fail the request.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// Options tunes ledger policy.
type Options struct {
	// EnforceNonNegativeBalance blocks expenses that would overdraw
	// the account. Transfers always require sufficient source funds
	// regardless of this flag.
	EnforceNonNegativeBalance bool

	// EditWindow bounds how long after creation a transaction stays
	// mutable. Zero means core.DefaultEditWindow.
	EditWindow time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Ledger is the transaction lifecycle controller.
type Ledger struct {
	repo     *storage.Repository
	events   EventPublisher
	enforce  bool
	window   time.Duration
	now      func() time.Time
	accLocks *accountLocks
}

func NewLedger(repo *storage.Repository, events EventPublisher, opts Options) *Ledger {
	window := opts.EditWindow
	if window == 0 {
		window = core.DefaultEditWindow
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		repo:     repo,
		events:   events,
		enforce:  opts.EnforceNonNegativeBalance,
		window:   window,
		now:      now,
		accLocks: newAccountLocks(),
	}
}

// TransactionInput carries the user-supplied fields of a new
// transaction. Id and timestamps are server-assigned.
type TransactionInput struct {
	AccountID   string
	CategoryID  string
	Type        core.TransactionType
	Amount      core.Money
	Description string
	Division    core.Division
	Date        core.Date
	ToAccountID string
}

// TransactionPatch is a partial update; nil fields keep their current
// value.
type TransactionPatch struct {
	AccountID   *string
	CategoryID  *string
	Type        *core.TransactionType
	Amount      *core.Money
	Description *string
	Division    *core.Division
	Date        *core.Date
	ToAccountID *string
}

// CreateTransaction validates the input, applies the balance effects,
// and persists the new ledger entry, all or nothing. The edit-window
// clock starts at the server timestamp assigned here, not at the
// user-supplied transaction date.
func (l *Ledger) CreateTransaction(ctx context.Context, userID string, input TransactionInput) (core.Transaction, error) {
	now := l.now()

	tx := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccountID:   input.AccountID,
		CategoryID:  input.CategoryID,
		Type:        input.Type,
		Amount:      input.Amount,
		Description: input.Description,
		Division:    input.Division,
		Date:        input.Date,
		ToAccountID: input.ToAccountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if tx.Date.IsZero() {
		tx.Date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := l.checkCategory(ctx, userID, tx); err != nil {
		return core.Transaction{}, err
	}

	release := l.accLocks.acquire(affectedAccounts(tx))
	defer release()

	err := l.repo.ExecTx(ctx, func(r *storage.Repository) error {
		if err := l.stageEffects(ctx, r, userID, nil, &tx, now); err != nil {
			return err
		}
		return r.CreateTransaction(ctx, tx)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	l.publishEvent(ctx, tx, amqp.ActionCreated)
	return tx, nil
}

// UpdateTransaction reverses the old entry's balance effects and
// applies the new ones as one logical operation. Rejected with
// core.ErrEditWindowExpired once the window has passed; the window is
// evaluated at request time, never cached.
func (l *Ledger) UpdateTransaction(ctx context.Context, userID, id string, patch TransactionPatch) (core.Transaction, error) {
	now := l.now()

	old, err := l.repo.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if !core.IsEditable(old.CreatedAt, now, l.window) {
		return core.Transaction{}, core.ErrEditWindowExpired
	}

	updated := applyPatch(old, patch)
	updated.UpdatedAt = now

	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := l.checkCategory(ctx, userID, updated); err != nil {
		return core.Transaction{}, err
	}

	release := l.accLocks.acquire(append(affectedAccounts(old), affectedAccounts(updated)...))
	defer release()

	err = l.repo.ExecTx(ctx, func(r *storage.Repository) error {
		if err := l.stageEffects(ctx, r, userID, &old, &updated, now); err != nil {
			return err
		}
		return r.UpdateTransaction(ctx, updated)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	l.publishEvent(ctx, updated, amqp.ActionUpdated)
	return updated, nil
}

// DeleteTransaction reverses the entry's balance effects and removes it
// from the ledger, subject to the same edit window as updates.
func (l *Ledger) DeleteTransaction(ctx context.Context, userID, id string) error {
	now := l.now()

	old, err := l.repo.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	if !core.IsEditable(old.CreatedAt, now, l.window) {
		return core.ErrEditWindowExpired
	}

	release := l.accLocks.acquire(affectedAccounts(old))
	defer release()

	err = l.repo.ExecTx(ctx, func(r *storage.Repository) error {
		for _, d := range core.DeleteEffects(old) {
			if _, err := r.GetAccount(ctx, userID, d.AccountID); err != nil {
				return err
			}
			if err := r.ApplyBalanceDelta(ctx, d.AccountID, d.Cents, now); err != nil {
				return err
			}
		}
		return r.DeleteTransaction(ctx, userID, id)
	})
	if err != nil {
		return err
	}

	l.publishEvent(ctx, old, amqp.ActionDeleted)
	return nil
}

// GetTransaction returns a single ledger entry owned by the user.
func (l *Ledger) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	return l.repo.GetTransaction(ctx, userID, id)
}

// ListTransactions returns the user's ledger entries matching the
// filter, newest first.
func (l *Ledger) ListTransactions(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error) {
	return l.repo.ListTransactions(ctx, userID, f)
}

// stageEffects computes the balance deltas of replacing old (nil on
// create) with updated, enforces the funds policy against balances read
// inside the SQL transaction, and applies the deltas. Nothing is
// written if any step fails.
func (l *Ledger) stageEffects(ctx context.Context, r *storage.Repository, userID string, old, updated *core.Transaction, now time.Time) error {
	var reversal []core.Delta
	if old != nil {
		reversal = core.DeleteEffects(*old)
	}

	ids := append(deltaAccounts(reversal), affectedAccounts(*updated)...)
	balances := make(map[string]int64)
	for _, id := range ids {
		if _, ok := balances[id]; ok {
			continue
		}
		acc, err := r.GetAccount(ctx, userID, id)
		if err != nil {
			return err
		}
		balances[id] = acc.Balance.Cents
	}

	// Funds are checked against the balance the funding account would
	// have after reversing the old entry, so an update is judged as one
	// reverse-then-apply operation.
	for _, d := range reversal {
		balances[d.AccountID] += d.Cents
	}

	available := balances[updated.AccountID]
	switch updated.Type {
	case core.Transfer:
		if available < updated.Amount.Cents {
			return core.ErrInsufficientFunds
		}
	case core.Expense:
		if l.enforce && available < updated.Amount.Cents {
			return core.ErrInsufficientFunds
		}
	}

	var deltas []core.Delta
	if old != nil {
		deltas = core.UpdateEffects(*old, *updated)
	} else {
		deltas = core.CreateEffects(*updated)
	}
	for _, d := range deltas {
		if err := r.ApplyBalanceDelta(ctx, d.AccountID, d.Cents, now); err != nil {
			return err
		}
	}
	return nil
}

// checkCategory resolves the transaction's category and verifies both
// visibility (global or owned) and type compatibility. Transfers carry
// no category and skip this.
func (l *Ledger) checkCategory(ctx context.Context, userID string, tx core.Transaction) error {
	if tx.Type == core.Transfer {
		return nil
	}
	cat, err := l.repo.GetCategory(ctx, tx.CategoryID)
	if err != nil {
		return err
	}
	if cat.UserID != "" && cat.UserID != userID {
		return core.ErrCategoryNotFound
	}
	return core.ValidateCategory(tx.Type, cat)
}

func (l *Ledger) publishEvent(ctx context.Context, tx core.Transaction, action string) {
	if l.events == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event",
			"transaction_id", tx.ID, "action", action)
		return
	}
	if err := l.events.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(tx, action)); err != nil {
		// The mutation is already committed; the event stream is
		// best-effort.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", tx.ID, "action", action, "error", err)
	}
}

func applyPatch(t core.Transaction, p TransactionPatch) core.Transaction {
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Division != nil {
		t.Division = *p.Division
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.ToAccountID != nil {
		t.ToAccountID = *p.ToAccountID
	}
	// Shape coherence across type changes: a transaction patched away
	// from transfer drops its destination, one patched to transfer
	// drops its category.
	if t.Type == core.Transfer {
		t.CategoryID = ""
	} else {
		t.ToAccountID = ""
		if p.ToAccountID != nil && *p.ToAccountID != "" {
			t.ToAccountID = *p.ToAccountID // surfaces ErrTransferDestination in Validate
		}
	}
	return t
}

func affectedAccounts(t core.Transaction) []string {
	if t.Type == core.Transfer {
		return []string{t.AccountID, t.ToAccountID}
	}
	return []string{t.AccountID}
}

func deltaAccounts(deltas []core.Delta) []string {
	ids := make([]string, len(deltas))
	for i, d := range deltas {
		ids[i] = d.AccountID
	}
	return ids
}

// Close releases the ledger's resources.
func (l *Ledger) Close() error {
	if l.repo != nil {
		if err := l.repo.Close(); err != nil {
			return fmt.Errorf("close repository: %w", err)
		}
	}
	return nil
}
