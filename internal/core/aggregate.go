package core

import (
	"sort"
	"time"
)

// Period selects the dashboard window relative to "now".
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// PeriodStart returns the inclusive lower bound of a dashboard window:
// week = now minus 7 days, month = now minus one calendar month, year =
// now minus one calendar year. The upper bound is implicitly "now".
func PeriodStart(p Period, now time.Time) (time.Time, error) {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonth:
		return now.AddDate(0, -1, 0), nil
	case PeriodYear:
		return now.AddDate(-1, 0, 0), nil
	}
	return time.Time{}, ErrValidation
}

// PeriodTotals sums the amounts of transactions of the given type. The
// caller has already restricted the slice to the date window; this is
// pure arithmetic over the snapshot.
func PeriodTotals(txs []Transaction, typ TransactionType) Money {
	var total Money
	for _, t := range txs {
		if t.Type == typ {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// NetCashFlow is total income minus total expense for the snapshot. It
// may be negative.
func NetCashFlow(txs []Transaction) Money {
	return PeriodTotals(txs, Income).Sub(PeriodTotals(txs, Expense))
}

// CategoryTotal is one row of a category summary.
type CategoryTotal struct {
	CategoryID string `json:"category_id"`
	Total      Money  `json:"total"`
	Count      int    `json:"count"`
}

// CategorySummary groups transactions of the given direction by
// category, summing amounts and counting occurrences. Rows are ordered
// descending by total; ties keep first-seen order.
func CategorySummary(txs []Transaction, typ TransactionType) []CategoryTotal {
	totals := make(map[string]*CategoryTotal)
	order := make([]string, 0)
	for _, t := range txs {
		if t.Type != typ || t.CategoryID == "" {
			continue
		}
		row, ok := totals[t.CategoryID]
		if !ok {
			row = &CategoryTotal{CategoryID: t.CategoryID}
			totals[t.CategoryID] = row
			order = append(order, t.CategoryID)
		}
		row.Total = row.Total.Add(t.Amount)
		row.Count++
	}

	rows := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		rows = append(rows, *totals[id])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total.Cents > rows[j].Total.Cents
	})
	return rows
}

// AccountTotalBalance sums the stored balances across accounts. It is an
// informational rollup; tests assert it agrees with the ledger-derived
// truth.
func AccountTotalBalance(accounts []Account) Money {
	var total Money
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}
