package report

import (
	"time"

	"github.com/shopspring/decimal"

	"finledger/ledger"
)

// BudgetStatus is a budget with its derived rollup for the active window.
type BudgetStatus struct {
	Budget      *ledger.Budget
	Category    *ledger.Category
	WindowStart time.Time
	WindowEnd   time.Time // exclusive
	Spent       decimal.Decimal
	Remaining   decimal.Decimal  // may go negative when overspent
	PercentUsed *decimal.Decimal // nil when the budget amount is zero
	DisplayUsed decimal.Decimal  // PercentUsed capped at 100 for rendering
	Overspent   bool
}

// BudgetReport rolls up spend against each budget's active window at the
// reference instant. Spent is the absolute sum of expense legs for the
// budget's category within the window.
func BudgetReport(l Ledger, now time.Time) []BudgetStatus {
	txns := l.Transactions()

	var out []BudgetStatus
	for _, b := range l.Budgets() {
		category, _ := l.Category(b.CategoryID)
		start, end := budgetWindow(b.Period, now)

		spent := decimal.Zero
		for _, txn := range txns {
			if txn.CategoryID != b.CategoryID {
				continue
			}
			if txn.OccurredAt.Before(start) || !txn.OccurredAt.Before(end) {
				continue
			}
			spent = spent.Add(txn.NegativeLegSum().Abs())
		}

		status := BudgetStatus{
			Budget:      b,
			Category:    category,
			WindowStart: start,
			WindowEnd:   end,
			Spent:       spent,
			Remaining:   b.Amount.Sub(spent),
			PercentUsed: ledger.Percent(spent, b.Amount),
			Overspent:   spent.GreaterThan(b.Amount),
		}
		// Display value is capped; the underlying math never is.
		status.DisplayUsed = decimal.Zero
		if status.PercentUsed != nil {
			status.DisplayUsed = *status.PercentUsed
			if status.DisplayUsed.GreaterThan(decimal.NewFromInt(100)) {
				status.DisplayUsed = decimal.NewFromInt(100)
			}
		}
		out = append(out, status)
	}
	return out
}

func budgetWindow(period ledger.BudgetPeriod, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch period {
	case ledger.BudgetYearly:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0)
	default:
		p := ledger.PeriodOf(now)
		return p.Start(), p.End()
	}
}
