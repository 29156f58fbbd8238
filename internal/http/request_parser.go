package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"moneyman/internal/core"
	"moneyman/internal/services"
	"moneyman/internal/storage"
)

// maxBodySize caps request bodies; ledger payloads are tiny.
const maxBodySize = 1 << 20

var errInvalidBody = fmt.Errorf("%w: invalid request body", core.ErrValidation)

// decodeJSON parses the request body into dst, rejecting unknown
// fields and trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if dec.More() {
		return errInvalidBody
	}
	return nil
}

// sanitizeInput removes control characters from user-supplied strings.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type createTransactionRequest struct {
	AccountID   string     `json:"account_id"`
	CategoryID  string     `json:"category_id"`
	Type        string     `json:"type"`
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	Division    string     `json:"division"`
	Date        core.Date  `json:"transaction_date"`
	ToAccountID string     `json:"to_account_id"`
}

func (req createTransactionRequest) toInput() services.TransactionInput {
	division := req.Division
	if division == "" {
		division = string(core.Personal)
	}
	return services.TransactionInput{
		AccountID:   sanitizeInput(req.AccountID),
		CategoryID:  sanitizeInput(req.CategoryID),
		Type:        core.TransactionType(sanitizeInput(req.Type)),
		Amount:      req.Amount,
		Description: sanitizeInput(req.Description),
		Division:    core.Division(sanitizeInput(division)),
		Date:        req.Date,
		ToAccountID: sanitizeInput(req.ToAccountID),
	}
}

// updateTransactionRequest is a partial update; absent fields keep
// their current value.
type updateTransactionRequest struct {
	AccountID   *string     `json:"account_id"`
	CategoryID  *string     `json:"category_id"`
	Type        *string     `json:"type"`
	Amount      *core.Money `json:"amount"`
	Description *string     `json:"description"`
	Division    *string     `json:"division"`
	Date        *core.Date  `json:"transaction_date"`
	ToAccountID *string     `json:"to_account_id"`
}

func (req updateTransactionRequest) toPatch() services.TransactionPatch {
	p := services.TransactionPatch{
		Amount: req.Amount,
		Date:   req.Date,
	}
	if req.AccountID != nil {
		v := sanitizeInput(*req.AccountID)
		p.AccountID = &v
	}
	if req.CategoryID != nil {
		v := sanitizeInput(*req.CategoryID)
		p.CategoryID = &v
	}
	if req.Type != nil {
		v := core.TransactionType(sanitizeInput(*req.Type))
		p.Type = &v
	}
	if req.Description != nil {
		v := sanitizeInput(*req.Description)
		p.Description = &v
	}
	if req.Division != nil {
		v := core.Division(sanitizeInput(*req.Division))
		p.Division = &v
	}
	if req.ToAccountID != nil {
		v := sanitizeInput(*req.ToAccountID)
		p.ToAccountID = &v
	}
	return p
}

type transferRequest struct {
	From   string     `json:"from"`
	To     string     `json:"to"`
	Amount core.Money `json:"amount"`
}

type createAccountRequest struct {
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	InitialBalance core.Money `json:"initial_balance"`
	Currency       string     `json:"currency"`
}

func (req createAccountRequest) toInput() services.AccountInput {
	return services.AccountInput{
		Name:           sanitizeInput(req.Name),
		Type:           core.AccountType(sanitizeInput(req.Type)),
		InitialBalance: req.InitialBalance,
		Currency:       sanitizeInput(req.Currency),
	}
}

// parseListFilter builds a transaction filter from query parameters:
// division, category, fromDate, toDate (dates, inclusive).
func parseListFilter(query url.Values) (storage.TransactionFilter, error) {
	var f storage.TransactionFilter

	if division := query.Get("division"); division != "" {
		d := core.Division(division)
		if d != core.Personal && d != core.Office {
			return f, core.ErrInvalidDivision
		}
		f.Division = d
	}
	f.CategoryID = sanitizeInput(query.Get("category"))

	if from := query.Get("fromDate"); from != "" {
		d, err := core.ParseDate(from)
		if err != nil {
			return f, err
		}
		f.From = d.Time
	}
	if to := query.Get("toDate"); to != "" {
		d, err := core.ParseDate(to)
		if err != nil {
			return f, err
		}
		// Inclusive upper bound: the whole named day.
		f.To = d.Time.Add(24*time.Hour - time.Nanosecond)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("%w: 'to' precedes 'from'", core.ErrInvalidDate)
	}
	return f, nil
}

// parsePeriod reads the dashboard window selector, defaulting to week.
func parsePeriod(query url.Values) (core.Period, error) {
	raw := query.Get("type")
	if raw == "" {
		return core.PeriodWeek, nil
	}
	switch p := core.Period(raw); p {
	case core.PeriodWeek, core.PeriodMonth, core.PeriodYear:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", core.ErrValidation, raw)
	}
}
