package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"moneyman/internal/core"
)

const accountColumns = "id, user_id, name, type, balance_cents, currency, created_at, updated_at"

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO accounts (id, user_id, name, type, balance_cents, currency, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, a.ID, a.UserID, a.Name, string(a.Type), a.Balance.Cents, a.Currency, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("create account %q: %w", a.Name, core.ErrAccountExists)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+accountColumns+`
        FROM accounts
        WHERE id = ? AND user_id = ?
    `, id, userID)
	return scanAccount(row)
}

func (r *Repository) GetAccountByName(ctx context.Context, userID, name string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+accountColumns+`
        FROM accounts
        WHERE user_id = ? AND name = ?
    `, userID, name)
	return scanAccount(row)
}

func (r *Repository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+accountColumns+`
        FROM accounts
        WHERE user_id = ?
        ORDER BY created_at, name
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ApplyBalanceDelta adds cents (which may be negative) to an account's
// balance and advances its updated_at. Run inside ExecTx together with
// the ledger write.
func (r *Repository) ApplyBalanceDelta(ctx context.Context, accountID string, cents int64, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE accounts
        SET balance_cents = balance_cents + ?, updated_at = ?
        WHERE id = ?
    `, cents, now, accountID)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

func (r *Repository) DeleteAccount(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
        DELETE FROM accounts WHERE id = ? AND user_id = ?
    `, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

// CountAccountTransactions counts ledger entries referencing the
// account as either source or destination. Deletion is blocked while
// this is non-zero.
func (r *Repository) CountAccountTransactions(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
        SELECT COUNT(*)
        FROM transactions
        WHERE account_id = ? OR to_account_id = ?
    `, accountID, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count account transactions: %w", err)
	}
	return n, nil
}

func (r *Repository) HasAccounts(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = ?)", userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check accounts existence: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a       core.Account
		accType string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &accType, &a.Balance.Cents,
		&a.Currency, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Account{}, core.ErrAccountNotFound
		}
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.Type = core.AccountType(accType)
	return a, nil
}
