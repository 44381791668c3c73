package report

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"finledger/ledger"
)

func TestBudgetReport_MonthlyWindow(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.AddBudget(ledger.Budget{
		CategoryID: f.groceries.ID,
		Amount:     amt("1000.00"),
		Period:     ledger.BudgetMonthly,
	})
	assert.NoError(t, err)

	f.expense(t, "2024-03-05", "500.00", f.groceries)
	f.expense(t, "2024-03-20", "250.00", f.groceries)
	// Outside the window and outside the category.
	f.expense(t, "2024-02-28", "400.00", f.groceries)
	f.expense(t, "2024-03-10", "900.00", f.rent)

	statuses := BudgetReport(f.store, date("2024-03-15"))
	assert.Equal(t, 1, len(statuses))

	s := statuses[0]
	assert.Equal(t, "750.00", ledger.FormatAmount(s.Spent))
	assert.Equal(t, "250.00", ledger.FormatAmount(s.Remaining))
	assert.NotZero(t, s.PercentUsed)
	assert.Equal(t, "75.00", ledger.FormatAmount(*s.PercentUsed))
	assert.False(t, s.Overspent)
}

func TestBudgetReport_Overspend(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.AddBudget(ledger.Budget{
		CategoryID: f.groceries.ID,
		Amount:     amt("100.00"),
		Period:     ledger.BudgetMonthly,
	})
	assert.NoError(t, err)
	f.expense(t, "2024-03-05", "150.00", f.groceries)

	s := BudgetReport(f.store, date("2024-03-15"))[0]
	assert.True(t, s.Overspent)
	// Remaining goes negative; only the display percentage is capped.
	assert.Equal(t, "-50.00", ledger.FormatAmount(s.Remaining))
	assert.Equal(t, "150.00", ledger.FormatAmount(*s.PercentUsed))
	assert.Equal(t, "100.00", ledger.FormatAmount(s.DisplayUsed))
}

func TestBudgetReport_YearlyWindow(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.AddBudget(ledger.Budget{
		CategoryID: f.rent.ID,
		Amount:     amt("12000.00"),
		Period:     ledger.BudgetYearly,
	})
	assert.NoError(t, err)

	f.expense(t, "2024-01-01", "1000.00", f.rent)
	f.expense(t, "2024-11-01", "1000.00", f.rent)
	f.expense(t, "2023-12-31", "1000.00", f.rent)

	s := BudgetReport(f.store, date("2024-03-15"))[0]
	assert.Equal(t, "2000.00", ledger.FormatAmount(s.Spent))
}

func TestBudgetReport_ZeroAmount(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.AddBudget(ledger.Budget{
		CategoryID: f.groceries.ID,
		Amount:     amt("0.00"),
		Period:     ledger.BudgetMonthly,
	})
	assert.NoError(t, err)
	f.expense(t, "2024-03-05", "10.00", f.groceries)

	s := BudgetReport(f.store, date("2024-03-15"))[0]
	assert.Zero(t, s.PercentUsed)
	assert.True(t, s.DisplayUsed.IsZero())
}
