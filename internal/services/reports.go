package services

import (
	"context"

	"moneyman/internal/core"
	"moneyman/internal/storage"
)

// Dashboard is the aggregated view over a period window.
type Dashboard struct {
	Income  core.Money         `json:"income"`
	Expense core.Money         `json:"expense"`
	Net     core.Money         `json:"net"`
	History []core.Transaction `json:"history"`
}

// Dashboard computes income/expense totals and the transaction history
// for the selected window. The repository restricts the snapshot to the
// window; the aggregation arithmetic is pure.
func (l *Ledger) Dashboard(ctx context.Context, userID string, period core.Period) (Dashboard, error) {
	start, err := core.PeriodStart(period, l.now())
	if err != nil {
		return Dashboard{}, err
	}

	txs, err := l.repo.ListTransactionsSince(ctx, userID, start)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Income:  core.PeriodTotals(txs, core.Income),
		Expense: core.PeriodTotals(txs, core.Expense),
		Net:     core.NetCashFlow(txs),
		History: txs,
	}, nil
}

// CategorySummaryRow pairs an aggregated expense total with its
// resolved category.
type CategorySummaryRow struct {
	Category core.Category `json:"category"`
	Total    core.Money    `json:"total"`
	Count    int           `json:"count"`
}

// CategorySummaries groups the user's expenses by category, descending
// by total.
func (l *Ledger) CategorySummaries(ctx context.Context, userID string) ([]CategorySummaryRow, error) {
	txs, err := l.repo.ListTransactions(ctx, userID, storage.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	totals := core.CategorySummary(txs, core.Expense)
	rows := make([]CategorySummaryRow, 0, len(totals))
	for _, t := range totals {
		cat, err := l.repo.GetCategory(ctx, t.CategoryID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, CategorySummaryRow{Category: cat, Total: t.Total, Count: t.Count})
	}
	return rows, nil
}

// TotalBalance is the informational rollup of all account balances.
func (l *Ledger) TotalBalance(ctx context.Context, userID string) (core.Money, error) {
	accounts, err := l.repo.ListAccounts(ctx, userID)
	if err != nil {
		return core.Money{}, err
	}
	return core.AccountTotalBalance(accounts), nil
}
