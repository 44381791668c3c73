package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Error types for ledger writes and report inputs. Writes are rejected
// synchronously with one of these; a rejected write has no effect.

// UnbalancedLegsError is returned when the legs of a transaction do not sum
// to zero at minor-unit precision.
type UnbalancedLegsError struct {
	Description string
	OccurredAt  time.Time
	Residual    decimal.Decimal
}

func (e *UnbalancedLegsError) Error() string {
	return fmt.Sprintf("%s: transaction %q does not balance: residual %s",
		e.OccurredAt.Format("2006-01-02"), e.Description, e.Residual.String())
}

// NewUnbalancedLegsError creates an error for a transaction whose legs leave
// a nonzero residual.
func NewUnbalancedLegsError(input TransactionInput, residual decimal.Decimal) *UnbalancedLegsError {
	return &UnbalancedLegsError{
		Description: input.Description,
		OccurredAt:  input.OccurredAt,
		Residual:    residual,
	}
}

// InsufficientLegsError is returned when a transaction has fewer than two legs.
type InsufficientLegsError struct {
	Description string
	OccurredAt  time.Time
	LegCount    int
}

func (e *InsufficientLegsError) Error() string {
	return fmt.Sprintf("%s: transaction %q has %d leg(s), at least 2 required",
		e.OccurredAt.Format("2006-01-02"), e.Description, e.LegCount)
}

// NewInsufficientLegsError creates an error for a transaction with too few legs.
func NewInsufficientLegsError(input TransactionInput) *InsufficientLegsError {
	return &InsufficientLegsError{
		Description: input.Description,
		OccurredAt:  input.OccurredAt,
		LegCount:    len(input.Legs),
	}
}

// UnknownAccountError is returned when a leg references an account that does
// not exist or has been archived.
type UnknownAccountError struct {
	AccountID string
	Archived  bool
}

func (e *UnknownAccountError) Error() string {
	if e.Archived {
		return fmt.Sprintf("invalid reference to archived account %q", e.AccountID)
	}
	return fmt.Sprintf("invalid reference to unknown account %q", e.AccountID)
}

// NewUnknownAccountError creates an error for a reference to a missing account.
func NewUnknownAccountError(accountID string) *UnknownAccountError {
	return &UnknownAccountError{AccountID: accountID}
}

// NewArchivedAccountError creates an error for a reference to an archived account.
func NewArchivedAccountError(accountID string) *UnknownAccountError {
	return &UnknownAccountError{AccountID: accountID, Archived: true}
}

// UnknownCategoryError is returned when a transaction or budget references a
// category that does not exist or has been archived.
type UnknownCategoryError struct {
	CategoryID string
	Archived   bool
}

func (e *UnknownCategoryError) Error() string {
	if e.Archived {
		return fmt.Sprintf("invalid reference to archived category %q", e.CategoryID)
	}
	return fmt.Sprintf("invalid reference to unknown category %q", e.CategoryID)
}

// NewUnknownCategoryError creates an error for a reference to a missing category.
func NewUnknownCategoryError(categoryID string) *UnknownCategoryError {
	return &UnknownCategoryError{CategoryID: categoryID}
}

// NewArchivedCategoryError creates an error for a reference to an archived category.
func NewArchivedCategoryError(categoryID string) *UnknownCategoryError {
	return &UnknownCategoryError{CategoryID: categoryID, Archived: true}
}

// InvalidAmountError is returned when a leg amount carries more precision
// than the currency minor unit allows.
type InvalidAmountError struct {
	AccountID string
	Amount    decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s for account %q: more than 2 fraction digits",
		e.Amount.String(), e.AccountID)
}

// NewInvalidAmountError creates an error for an amount below minor-unit precision.
func NewInvalidAmountError(accountID string, amount decimal.Decimal) *InvalidAmountError {
	return &InvalidAmountError{AccountID: accountID, Amount: amount}
}

// UnknownTransactionError is returned when an update references a transaction
// id that was never recorded.
type UnknownTransactionError struct {
	TransactionID string
}

func (e *UnknownTransactionError) Error() string {
	return fmt.Sprintf("unknown transaction %q", e.TransactionID)
}

// NewUnknownTransactionError creates an error for a missing transaction id.
func NewUnknownTransactionError(id string) *UnknownTransactionError {
	return &UnknownTransactionError{TransactionID: id}
}

// InvalidPeriodError is returned for a malformed period string such as
// "2024-13" or "24-01".
type InvalidPeriodError struct {
	Value  string
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period %q: %s", e.Value, e.Reason)
}

// NewInvalidPeriodError creates an error for a malformed period string.
func NewInvalidPeriodError(value, reason string) *InvalidPeriodError {
	return &InvalidPeriodError{Value: value, Reason: reason}
}
