package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"moneyman/internal/core"
)

// DefaultAccountName is provisioned for a user on first contact, the
// counterpart of the wallet created at signup in the original flow.
const DefaultAccountName = "Main Wallet"

// Accounts lists the user's accounts, lazily creating the default
// wallet for users seen for the first time.
func (l *Ledger) Accounts(ctx context.Context, userID string) ([]core.Account, error) {
	has, err := l.repo.HasAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !has {
		if err := l.provisionDefaultAccount(ctx, userID); err != nil {
			return nil, fmt.Errorf("provision default account: %w", err)
		}
	}
	return l.repo.ListAccounts(ctx, userID)
}

// provisionDefaultAccount creates the default wallet. Two first-contact
// requests can race here; the loser finds the wallet already created
// and that is not an error.
func (l *Ledger) provisionDefaultAccount(ctx context.Context, userID string) error {
	_, err := l.CreateAccount(ctx, userID, AccountInput{
		Name: DefaultAccountName,
		Type: core.Wallet,
	})
	if errors.Is(err, core.ErrAccountExists) {
		return nil
	}
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Provisioned default account", "user_id", userID)
	return nil
}

// AccountInput carries the user-supplied fields of a new account. The
// initial balance is the only direct balance write an account ever
// sees; afterwards only transaction effects move it.
type AccountInput struct {
	Name           string
	Type           core.AccountType
	InitialBalance core.Money
	Currency       string
}

func (l *Ledger) CreateAccount(ctx context.Context, userID string, input AccountInput) (core.Account, error) {
	now := l.now()

	acc := core.Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(input.Name),
		Type:      input.Type,
		Balance:   input.InitialBalance,
		Currency:  input.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if acc.Type == "" {
		acc.Type = core.Wallet
	}
	if acc.Currency == "" {
		acc.Currency = "USD"
	}

	if err := acc.Validate(); err != nil {
		return core.Account{}, err
	}
	if acc.Balance.Cents < 0 {
		return core.Account{}, core.ErrInvalidAmount
	}

	if err := l.repo.CreateAccount(ctx, acc); err != nil {
		return core.Account{}, err
	}
	return acc, nil
}

// DeleteAccount refuses to delete an account that transactions still
// reference; callers must delete or reassign those entries first.
func (l *Ledger) DeleteAccount(ctx context.Context, userID, id string) error {
	if _, err := l.repo.GetAccount(ctx, userID, id); err != nil {
		return err
	}
	n, err := l.repo.CountAccountTransactions(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return core.ErrAccountInUse
	}
	return l.repo.DeleteAccount(ctx, userID, id)
}

// TransferResult is the outcome of a named-account transfer: the ledger
// entry plus both accounts as updated.
type TransferResult struct {
	Transaction core.Transaction `json:"transaction"`
	From        core.Account     `json:"from"`
	To          core.Account     `json:"to"`
}

// Transfer moves funds between two of the user's accounts addressed by
// name. It runs through the same create path as any other transaction,
// so the debit and credit commit together or not at all.
func (l *Ledger) Transfer(ctx context.Context, userID, fromName, toName string, amount core.Money) (TransferResult, error) {
	fromAcc, err := l.repo.GetAccountByName(ctx, userID, fromName)
	if err != nil {
		return TransferResult{}, err
	}
	toAcc, err := l.repo.GetAccountByName(ctx, userID, toName)
	if err != nil {
		return TransferResult{}, err
	}

	tx, err := l.CreateTransaction(ctx, userID, TransactionInput{
		AccountID:   fromAcc.ID,
		ToAccountID: toAcc.ID,
		Type:        core.Transfer,
		Amount:      amount,
		Division:    core.Personal,
		Description: fmt.Sprintf("Transfer from %s to %s", fromAcc.Name, toAcc.Name),
	})
	if err != nil {
		return TransferResult{}, err
	}

	fromAcc, err = l.repo.GetAccount(ctx, userID, fromAcc.ID)
	if err != nil {
		return TransferResult{}, err
	}
	toAcc, err = l.repo.GetAccount(ctx, userID, toAcc.ID)
	if err != nil {
		return TransferResult{}, err
	}

	return TransferResult{Transaction: tx, From: fromAcc, To: toAcc}, nil
}

// Categories lists the categories visible to the user (global set plus
// their own).
func (l *Ledger) Categories(ctx context.Context, userID string) ([]core.Category, error) {
	return l.repo.ListCategories(ctx, userID)
}
