package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies how an account participates in derived reports.
// Debt accounts feed the debt series, investment accounts are valued through
// snapshots rather than ledger balances alone.
type AccountType int

const (
	AccountNormal AccountType = iota
	AccountDebt
	AccountInvestment
)

// String returns the string representation of the account type.
func (t AccountType) String() string {
	switch t {
	case AccountNormal:
		return "NORMAL"
	case AccountDebt:
		return "DEBT"
	case AccountInvestment:
		return "INVESTMENT"
	default:
		return "UNKNOWN"
	}
}

// ParseAccountType parses an account type from its string form.
func ParseAccountType(s string) (AccountType, error) {
	switch s {
	case "NORMAL":
		return AccountNormal, nil
	case "DEBT":
		return AccountDebt, nil
	case "INVESTMENT":
		return AccountInvestment, nil
	default:
		return AccountNormal, fmt.Errorf("unknown account type %q", s)
	}
}

// Account represents an account in the ledger. Balances are always derived
// from legs; an account never stores a balance as ledger truth.
type Account struct {
	ID        string
	Name      string
	Type      AccountType
	Active    bool
	Loan      *Loan // set only for DEBT accounts
	CreatedAt time.Time
}

// Loan describes the terms attached to a DEBT account.
type Loan struct {
	OriginPrincipal  decimal.Decimal
	CurrentPrincipal decimal.Decimal
	AnnualRate       decimal.Decimal // fraction, e.g. 0.039 for 3.9%
	Compounding      string          // "MONTHLY", "YEARLY"
	MinimumPayment   decimal.Decimal
}

// LoanEventType distinguishes principal payments from interest accruals.
type LoanEventType int

const (
	LoanEventPaymentPrincipal LoanEventType = iota
	LoanEventInterestAccrual
)

// String returns the string representation of the loan event type.
func (t LoanEventType) String() string {
	switch t {
	case LoanEventPaymentPrincipal:
		return "PAYMENT_PRINCIPAL"
	case LoanEventInterestAccrual:
		return "INTEREST_ACCRUAL"
	default:
		return "UNKNOWN"
	}
}

// LoanEvent is an append-only fact about a loan, optionally tied to the
// transaction that caused it.
type LoanEvent struct {
	ID            string
	AccountID     string
	Type          LoanEventType
	Amount        decimal.Decimal
	OccurredAt    time.Time
	TransactionID string // optional
}

// Goal is a savings target. Current amount and progress are derived by the
// report layer, never stored here.
type Goal struct {
	ID           string
	Name         string
	TargetAmount decimal.Decimal
	TargetDate   time.Time
	CategoryID   string // optional
	AccountID    string // optional
	CreatedAt    time.Time
}
