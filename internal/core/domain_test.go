package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validIncome() Transaction {
	return Transaction{
		ID:         "tx-1",
		UserID:     "user-1",
		AccountID:  "acc-1",
		CategoryID: "cat-1",
		Type:       Income,
		Amount:     Money{Cents: 1000},
		Division:   Personal,
		Date:       NewDate(2026, 8, 28),
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid income", func(tx *Transaction) {}, nil},
		{"valid expense", func(tx *Transaction) { tx.Type = Expense }, nil},
		{"valid transfer", func(tx *Transaction) {
			tx.Type = Transfer
			tx.CategoryID = ""
			tx.ToAccountID = "acc-2"
		}, nil},
		{"unknown type", func(tx *Transaction) { tx.Type = "loan" }, ErrInvalidType},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -50} }, ErrInvalidAmount},
		{"unknown division", func(tx *Transaction) { tx.Division = "family" }, ErrInvalidDivision},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"missing account", func(tx *Transaction) { tx.AccountID = "" }, ErrMissingAccount},
		{"missing category", func(tx *Transaction) { tx.CategoryID = "" }, ErrMissingCategory},
		{"description too long", func(tx *Transaction) {
			tx.Description = strings.Repeat("x", 201)
		}, ErrDescriptionTooLong},
		{"income with destination", func(tx *Transaction) {
			tx.ToAccountID = "acc-2"
		}, ErrTransferDestination},
		{"transfer without destination", func(tx *Transaction) {
			tx.Type = Transfer
			tx.CategoryID = ""
		}, ErrMissingDestination},
		{"transfer to same account", func(tx *Transaction) {
			tx.Type = Transfer
			tx.CategoryID = ""
			tx.ToAccountID = tx.AccountID
		}, ErrSameAccountTransfer},
		{"transfer with category", func(tx *Transaction) {
			tx.Type = Transfer
			tx.ToAccountID = "acc-2"
		}, ErrTransferCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validIncome()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error %v should match ErrValidation", err)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		name    string
		txType  TransactionType
		catType CategoryType
		wantErr bool
	}{
		{"income category on income", Income, CategoryIncome, false},
		{"expense category on expense", Expense, CategoryExpense, false},
		{"both on income", Income, CategoryBoth, false},
		{"both on expense", Expense, CategoryBoth, false},
		{"income category on expense", Expense, CategoryIncome, true},
		{"expense category on income", Income, CategoryExpense, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCategory(tt.txType, Category{ID: "cat-1", Type: tt.catType})
			if tt.wantErr && !errors.Is(err, ErrCategoryMismatch) {
				t.Errorf("error = %v, want ErrCategoryMismatch", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccountValidate(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		wantErr error
	}{
		{"valid", Account{Name: "Main Wallet", Type: Wallet}, nil},
		{"empty name", Account{Name: "   ", Type: Bank}, ErrEmptyName},
		{"name too long", Account{Name: strings.Repeat("a", 101), Type: Bank}, ErrNameTooLong},
		{"bad type", Account{Name: "Main", Type: "crypto"}, ErrInvalidAccountType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDateParseAndFormat(t *testing.T) {
	d, err := ParseDate("2026-08-28")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2026 || d.Month() != time.August || d.Day() != 28 {
		t.Errorf("ParseDate = %v", d.Time)
	}
	if d.String() != "2026-08-28" {
		t.Errorf("String() = %q", d.String())
	}

	if _, err := ParseDate("28/08/2026"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("wrong layout error = %v, want ErrInvalidDate", err)
	}
	if _, err := ParseDate("2026-13-01"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("bad month error = %v, want ErrInvalidDate", err)
	}
}
