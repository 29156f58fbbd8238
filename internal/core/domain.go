package core

import (
	"strings"
	"time"
)

type (
	TransactionType string
	Division        string
	AccountType     string
	CategoryType    string
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

const (
	Personal Division = "personal"
	Office   Division = "office"
)

const (
	Wallet     AccountType = "wallet"
	Bank       AccountType = "bank"
	Cash       AccountType = "cash"
	Card       AccountType = "card"
	Savings    AccountType = "savings"
	Investment AccountType = "investment"
)

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
	CategoryBoth    CategoryType = "both"
)

// Date is a calendar day without a time component, used for the
// user-assigned transaction date. The edit-window clock runs on the
// server-assigned CreatedAt, never on this.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = parsed.Time
	return nil
}

// Account is a named balance container. Its balance is the running sum
// of all transaction effects applied to it; it is set directly only at
// creation time (initial balance).
type Account struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	Balance   Money       `json:"balance"`
	Currency  string      `json:"currency"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Category is immutable reference data. An empty UserID marks a global
// category shared by all users.
type Category struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id,omitempty"`
	Name      string       `json:"name"`
	Icon      string       `json:"icon"`
	Color     string       `json:"color"`
	Type      CategoryType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

// Transaction is one ledger entry. Amount is always positive; the
// direction of its balance effect is derived from Type.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	AccountID   string          `json:"account_id"`
	CategoryID  string          `json:"category_id,omitempty"`
	Type        TransactionType `json:"type"`
	Amount      Money           `json:"amount"`
	Description string          `json:"description"`
	Division    Division        `json:"division"`
	Date        Date            `json:"transaction_date"`
	ToAccountID string          `json:"to_account_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

func (d Division) Valid() bool {
	return d == Personal || d == Office
}

func (a AccountType) Valid() bool {
	switch a {
	case Wallet, Bank, Cash, Card, Savings, Investment:
		return true
	}
	return false
}

// Validate performs the structural checks of the VALIDATED lifecycle
// stage: positive amount, type/division membership, and the per-type
// shape rules (transfer needs a distinct destination and no category;
// income and expense need a category and no destination).
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Division.Valid() {
		return ErrInvalidDivision
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if t.AccountID == "" {
		return ErrMissingAccount
	}

	switch t.Type {
	case Transfer:
		if t.ToAccountID == "" {
			return ErrMissingDestination
		}
		if t.ToAccountID == t.AccountID {
			return ErrSameAccountTransfer
		}
		if t.CategoryID != "" {
			return ErrTransferCategory
		}
	default:
		if t.ToAccountID != "" {
			return ErrTransferDestination
		}
		if t.CategoryID == "" {
			return ErrMissingCategory
		}
	}
	return nil
}

// ValidateCategory checks that a category may be attached to a
// transaction of the given type: the category type must match or be
// "both".
func ValidateCategory(t TransactionType, c Category) error {
	if c.Type == CategoryBoth {
		return nil
	}
	if string(c.Type) != string(t) {
		return ErrCategoryMismatch
	}
	return nil
}

func (a Account) Validate() error {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	return nil
}
