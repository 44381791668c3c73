package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryType marks whether a category classifies money coming in or going out.
type CategoryType int

const (
	CategoryIncome CategoryType = iota
	CategoryExpense
)

// String returns the string representation of the category type.
func (t CategoryType) String() string {
	switch t {
	case CategoryIncome:
		return "INCOME"
	case CategoryExpense:
		return "EXPENSE"
	default:
		return "UNKNOWN"
	}
}

// ParseCategoryType parses a category type from its string form.
func ParseCategoryType(s string) (CategoryType, error) {
	switch s {
	case "INCOME":
		return CategoryIncome, nil
	case "EXPENSE":
		return CategoryExpense, nil
	default:
		return CategoryExpense, fmt.Errorf("unknown category type %q", s)
	}
}

// Category labels transactions for breakdowns and budgets. Categories are
// soft-archived, never deleted while transactions reference them.
type Category struct {
	ID        string
	Name      string
	Type      CategoryType
	Archived  bool
	CreatedAt time.Time
}

// BudgetPeriod is the recurrence of a budget window.
type BudgetPeriod int

const (
	BudgetMonthly BudgetPeriod = iota
	BudgetYearly
)

// String returns the string representation of the budget period.
func (p BudgetPeriod) String() string {
	switch p {
	case BudgetMonthly:
		return "MONTHLY"
	case BudgetYearly:
		return "YEARLY"
	default:
		return "UNKNOWN"
	}
}

// Budget caps spend for a category within a recurring window. Spent,
// remaining and percent used are derived from transactions, never stored.
type Budget struct {
	ID         string
	CategoryID string
	Period     BudgetPeriod
	Amount     decimal.Decimal
	CreatedAt  time.Time
}

// Subscription describes a recurring charge matcher. A transaction matches
// when its description contains MatcherText, its amount is within
// AmountTolerance of TypicalAmount, and (when DayOfMonth is set) it occurred
// within a few days of that day.
type Subscription struct {
	ID              string
	Name            string
	MatcherText     string
	TypicalAmount   decimal.Decimal
	AmountTolerance decimal.Decimal
	DayOfMonth      int // 0 means any day
	CategoryID      string
	Active          bool
	CreatedAt       time.Time
}
