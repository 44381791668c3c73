package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Leg is one signed entry of a transaction against one account. Legs never
// exist outside a parent transaction and are immutable once committed; edits
// replace the whole leg set atomically.
type Leg struct {
	ID        string
	AccountID string
	Amount    decimal.Decimal
}

// Transaction is a multi-leg ledger entry. The legs of a committed
// transaction always sum to exactly zero.
type Transaction struct {
	ID             string
	Description    string
	Notes          string
	OccurredAt     time.Time
	PostedAt       time.Time
	CategoryID     string // optional
	SubscriptionID string // optional
	Legs           []*Leg
	CreatedAt      time.Time
}

// LegSum returns the sum of all leg amounts. Zero for any committed transaction.
func (t *Transaction) LegSum() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range t.Legs {
		sum = sum.Add(l.Amount)
	}
	return sum
}

// PositiveLegSum returns the sum of the positive legs, the inflow side of the
// transaction.
func (t *Transaction) PositiveLegSum() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range t.Legs {
		if l.Amount.IsPositive() {
			sum = sum.Add(l.Amount)
		}
	}
	return sum
}

// NegativeLegSum returns the sum of the negative legs, the outflow side of
// the transaction. The result is negative or zero.
func (t *Transaction) NegativeLegSum() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range t.Legs {
		if l.Amount.IsNegative() {
			sum = sum.Add(l.Amount)
		}
	}
	return sum
}

// AccountAmount returns the net amount the transaction moves on one account.
func (t *Transaction) AccountAmount(accountID string) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range t.Legs {
		if l.AccountID == accountID {
			sum = sum.Add(l.Amount)
		}
	}
	return sum
}

// Touches reports whether any leg references the account.
func (t *Transaction) Touches(accountID string) bool {
	for _, l := range t.Legs {
		if l.AccountID == accountID {
			return true
		}
	}
	return false
}

// Copy returns a deep copy so callers cannot mutate committed state.
func (t *Transaction) Copy() *Transaction {
	dup := *t
	dup.Legs = make([]*Leg, len(t.Legs))
	for i, l := range t.Legs {
		leg := *l
		dup.Legs[i] = &leg
	}
	return &dup
}

// CompareTransactions orders transactions by (occurred_at, created_at, id).
// The id tie-break keeps running balances deterministic when timestamps collide.
func CompareTransactions(a, b *Transaction) int {
	if c := a.OccurredAt.Compare(b.OccurredAt); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// LegInput is the caller-supplied shape of a leg before validation.
type LegInput struct {
	AccountID string
	Amount    decimal.Decimal
}

// TransactionInput is the caller-supplied shape of a transaction. The store
// validates it as a whole and commits all legs atomically or none.
type TransactionInput struct {
	Description    string
	Notes          string
	OccurredAt     time.Time
	PostedAt       time.Time
	CategoryID     string
	SubscriptionID string
	Legs           []LegInput
}

// MetadataUpdate mutates the descriptive fields of a transaction without
// touching its legs. Nil fields are left unchanged.
type MetadataUpdate struct {
	Description *string
	Notes       *string
	CategoryID  *string
}
