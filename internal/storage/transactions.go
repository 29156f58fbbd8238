package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moneyman/internal/core"
)

const transactionColumns = `id, user_id, account_id, category_id, type, amount_cents,
        description, division, transaction_date, to_account_id, created_at, updated_at`

// TransactionFilter narrows ListTransactions. Zero values mean "no
// constraint". From and To bound the creation timestamp, matching the
// ledger's newest-first listing.
type TransactionFilter struct {
	Division   core.Division
	CategoryID string
	From       time.Time
	To         time.Time
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO transactions (id, user_id, account_id, category_id, type, amount_cents,
            description, division, transaction_date, to_account_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, t.ID, t.UserID, t.AccountID, nullable(t.CategoryID), string(t.Type), t.Amount.Cents,
		t.Description, string(t.Division), t.Date.Time, nullable(t.ToAccountID),
		t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+transactionColumns+`
        FROM transactions
        WHERE id = ? AND user_id = ?
    `, id, userID)
	return scanTransaction(row)
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE transactions
        SET account_id = ?, category_id = ?, type = ?, amount_cents = ?,
            description = ?, division = ?, transaction_date = ?, to_account_id = ?,
            updated_at = ?
        WHERE id = ? AND user_id = ?
    `, t.AccountID, nullable(t.CategoryID), string(t.Type), t.Amount.Cents,
		t.Description, string(t.Division), t.Date.Time, nullable(t.ToAccountID),
		t.UpdatedAt, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
        DELETE FROM transactions WHERE id = ? AND user_id = ?
    `, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

// ListTransactions returns the user's ledger entries matching the
// filter, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE user_id = ?`
	args := []any{userID}

	if f.Division != "" {
		query += " AND division = ?"
		args = append(args, string(f.Division))
	}
	if f.CategoryID != "" {
		query += " AND category_id = ?"
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, f.To)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListTransactionsSince returns the user's ledger entries created at or
// after since, newest first. Dashboard windows read through here.
func (r *Repository) ListTransactionsSince(ctx context.Context, userID string, since time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+transactionColumns+`
        FROM transactions
        WHERE user_id = ? AND created_at >= ?
        ORDER BY created_at DESC
    `, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list transactions since: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t           core.Transaction
		categoryID  sql.NullString
		toAccountID sql.NullString
		txType      string
		division    string
		txDate      time.Time
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &categoryID, &txType, &t.Amount.Cents,
		&t.Description, &division, &txDate, &toAccountID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.ErrTransactionNotFound
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(txType)
	t.Division = core.Division(division)
	t.Date = core.Date{Time: txDate}
	t.CategoryID = categoryID.String
	t.ToAccountID = toAccountID.String
	return t, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
