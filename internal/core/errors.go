package core

import (
	"errors"
	"fmt"
)

// ErrValidation is the base class for structural validation failures.
// Every validation sentinel below wraps it, so callers can match either
// the specific failure or the whole family with errors.Is.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidType         = fmt.Errorf("%w: unknown transaction type", ErrValidation)
	ErrInvalidDivision     = fmt.Errorf("%w: division must be personal or office", ErrValidation)
	ErrInvalidAccountType  = fmt.Errorf("%w: unknown account type", ErrValidation)
	ErrMissingAccount      = fmt.Errorf("%w: account is required", ErrValidation)
	ErrMissingCategory     = fmt.Errorf("%w: category is required for income and expense", ErrValidation)
	ErrMissingDestination  = fmt.Errorf("%w: destination account is required for transfer", ErrValidation)
	ErrTransferCategory    = fmt.Errorf("%w: transfer must not carry a category", ErrValidation)
	ErrTransferDestination = fmt.Errorf("%w: only transfer may carry a destination account", ErrValidation)
	ErrSameAccountTransfer = fmt.Errorf("%w: transfer source and destination must differ", ErrValidation)
	ErrCategoryMismatch    = fmt.Errorf("%w: category type does not match transaction type", ErrValidation)
	ErrEmptyName           = fmt.Errorf("%w: name is required", ErrValidation)
	ErrNameTooLong         = fmt.Errorf("%w: name too long (max 100 characters)", ErrValidation)
	ErrDescriptionTooLong  = fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	ErrInvalidDate         = fmt.Errorf("%w: transaction date is required", ErrValidation)
)

// Lookup and policy failures surfaced by the lifecycle controller.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrEditWindowExpired   = errors.New("edit window expired")
	ErrAccountInUse        = errors.New("account still has transactions")
	ErrAccountExists       = errors.New("account already exists")
)
