package core

// Delta is one signed balance effect on a single account. A transaction
// expands into one delta (income, expense) or two (transfer).
type Delta struct {
	AccountID string
	Cents     int64
}

// CreateEffects returns the balance deltas of applying a transaction:
// income credits the account, expense debits it, transfer debits the
// source and credits the destination.
func CreateEffects(t Transaction) []Delta {
	switch t.Type {
	case Income:
		return []Delta{{AccountID: t.AccountID, Cents: t.Amount.Cents}}
	case Expense:
		return []Delta{{AccountID: t.AccountID, Cents: -t.Amount.Cents}}
	case Transfer:
		return []Delta{
			{AccountID: t.AccountID, Cents: -t.Amount.Cents},
			{AccountID: t.ToAccountID, Cents: t.Amount.Cents},
		}
	}
	return nil
}

// DeleteEffects reverses a previously applied transaction.
func DeleteEffects(t Transaction) []Delta {
	return negate(CreateEffects(t))
}

// UpdateEffects merges the reversal of old with the application of new
// into a single per-account delta set, so an update is one logical
// operation even when account references changed. Zero net effects are
// dropped.
func UpdateEffects(old, updated Transaction) []Delta {
	return Merge(append(DeleteEffects(old), CreateEffects(updated)...))
}

// Merge sums deltas per account, preserving first-seen order and
// dropping accounts whose net effect is zero.
func Merge(deltas []Delta) []Delta {
	totals := make(map[string]int64, len(deltas))
	order := make([]string, 0, len(deltas))
	for _, d := range deltas {
		if _, seen := totals[d.AccountID]; !seen {
			order = append(order, d.AccountID)
		}
		totals[d.AccountID] += d.Cents
	}

	merged := make([]Delta, 0, len(order))
	for _, id := range order {
		if totals[id] == 0 {
			continue
		}
		merged = append(merged, Delta{AccountID: id, Cents: totals[id]})
	}
	return merged
}

func negate(deltas []Delta) []Delta {
	out := make([]Delta, len(deltas))
	for i, d := range deltas {
		out[i] = Delta{AccountID: d.AccountID, Cents: -d.Cents}
	}
	return out
}
