// Package core holds the domain model of the ledger: money, accounts,
// categories, transactions, the balance mutation rules, the edit-window
// policy, and the aggregation arithmetic. Everything here is pure; the
// storage and service layers supply persistence and orchestration.
package core

import (
	"bytes"

	"github.com/shopspring/decimal"
)

// Money is an amount in integer cents. All balance arithmetic happens on
// cents; decimals exist only at the JSON boundary.
type Money struct {
	Cents int64
}

// ParseAmount converts a decimal string such as "12.34" into Money with
// half-up rounding on sub-cent digits. Zero and negative amounts are
// rejected; transaction direction is derived from the type, never from
// the sign.
func ParseAmount(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0).IntPart()
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(n Money) Money {
	return Money{Cents: m.Cents + n.Cents}
}

func (m Money) Sub(n Money) Money {
	return Money{Cents: m.Cents - n.Cents}
}

// Decimal returns the amount as a two-place decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON renders Money as a plain JSON number with two decimals,
// matching the wire shape of the REST API.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts both a JSON number and a quoted decimal string.
// Values are rounded half-up to cents. Sign validation is left to
// Validate so that decoding a malformed-but-parsable body still produces
// a typed validation error later.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		m.Cents = 0
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = d.Shift(2).Round(0).IntPart()
	return nil
}
