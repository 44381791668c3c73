package report

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"finledger/ledger"
)

func TestMonthly_TwoMonthYear(t *testing.T) {
	f := newFixture(t)
	f.income(t, "2024-01-05", "1000.00")
	f.income(t, "2024-02-05", "1000.00")
	f.expense(t, "2024-01-10", "600.00", f.groceries)
	f.expense(t, "2024-02-10", "700.00", f.groceries)

	rows := Monthly(f.store, 2024, Filters{})
	assert.Equal(t, 12, len(rows))

	assert.Equal(t, "400.00", ledger.FormatAmount(rows[0].Net))
	assert.Equal(t, "300.00", ledger.FormatAmount(rows[1].Net))
	assert.Equal(t, "1000.00", ledger.FormatAmount(rows[0].Income))
	assert.Equal(t, "-600.00", ledger.FormatAmount(rows[0].Expense))

	// Months without activity are present and zero.
	for _, row := range rows[2:] {
		assert.True(t, row.Income.IsZero())
		assert.True(t, row.Expense.IsZero())
		assert.True(t, row.Net.IsZero())
	}

	years := Yearly(f.store, []int{2024}, Filters{})
	assert.Equal(t, 1, len(years))
	assert.Equal(t, "2000.00", ledger.FormatAmount(years[0].Income))
	assert.Equal(t, "-1300.00", ledger.FormatAmount(years[0].Expense))
	assert.Equal(t, "700.00", ledger.FormatAmount(years[0].Net))
}

func TestQuarterly_DerivedFromMonthly(t *testing.T) {
	f := newFixture(t)
	f.income(t, "2024-01-05", "100.00")
	f.income(t, "2024-03-31", "50.00")
	f.income(t, "2024-04-01", "25.00")
	f.expense(t, "2024-02-14", "30.00", f.rent)
	f.expense(t, "2024-11-20", "10.00", f.rent)

	months := Monthly(f.store, 2024, Filters{})
	quarters := Quarterly(f.store, 2024, Filters{})
	assert.Equal(t, 4, len(quarters))

	for q, row := range quarters {
		income := months[q*3].Income.Add(months[q*3+1].Income).Add(months[q*3+2].Income)
		expense := months[q*3].Expense.Add(months[q*3+1].Expense).Add(months[q*3+2].Expense)
		assert.True(t, row.Income.Equal(income))
		assert.True(t, row.Expense.Equal(expense))
		assert.True(t, row.Net.Equal(income.Add(expense)))
	}

	assert.Equal(t, "120.00", ledger.FormatAmount(quarters[0].Net))
	assert.Equal(t, "25.00", ledger.FormatAmount(quarters[1].Net))
	assert.Equal(t, "0.00", ledger.FormatAmount(quarters[2].Net))
	assert.Equal(t, "-10.00", ledger.FormatAmount(quarters[3].Net))
}

func TestMonthly_TransfersStayNeutral(t *testing.T) {
	f := newFixture(t)
	f.income(t, "2024-01-05", "100.00")

	// A categoryless transfer between own accounts must not show up as
	// income or expense.
	_, err := f.store.RecordTransaction(ledger.TransactionInput{
		Description: "Move to savings",
		OccurredAt:  date("2024-01-06"),
		Legs: []ledger.LegInput{
			{AccountID: f.checking.ID, Amount: amt("-40.00")},
			{AccountID: f.external.ID, Amount: amt("40.00")},
		},
	})
	assert.NoError(t, err)

	rows := Monthly(f.store, 2024, Filters{})
	assert.Equal(t, "100.00", ledger.FormatAmount(rows[0].Income))
	assert.Equal(t, "0.00", ledger.FormatAmount(rows[0].Expense))
}

func TestMonthly_FiltersByAccount(t *testing.T) {
	f := newFixture(t)
	f.income(t, "2024-01-05", "100.00")

	other, err := f.store.AddAccount(ledger.Account{Name: "Side hustle"})
	assert.NoError(t, err)
	_, err = f.store.RecordTransaction(ledger.TransactionInput{
		Description: "Consulting invoice",
		OccurredAt:  date("2024-01-07"),
		CategoryID:  f.salary.ID,
		Legs: []ledger.LegInput{
			{AccountID: other.ID, Amount: amt("250.00")},
			{AccountID: f.external.ID, Amount: amt("-250.00")},
		},
	})
	assert.NoError(t, err)

	all := Monthly(f.store, 2024, Filters{})
	assert.Equal(t, "350.00", ledger.FormatAmount(all[0].Income))

	only := Monthly(f.store, 2024, Filters{AccountIDs: []string{other.ID}})
	assert.Equal(t, "250.00", ledger.FormatAmount(only[0].Income))
}

func TestTransactionYears_Ascending(t *testing.T) {
	f := newFixture(t)
	f.income(t, "2023-06-01", "10.00")
	f.income(t, "2021-02-01", "10.00")
	f.income(t, "2023-01-01", "10.00")

	assert.Equal(t, []int{2021, 2023}, TransactionYears(f.store))
}

func TestMonthly_EmptyLedger(t *testing.T) {
	f := newFixture(t)

	rows := Monthly(f.store, 2024, Filters{})
	assert.Equal(t, 12, len(rows))
	for i, row := range rows {
		assert.Equal(t, ledger.Period{Year: 2024, Month: time.Month(i + 1)}, row.Period)
		assert.True(t, row.Net.IsZero())
	}
	assert.Zero(t, TransactionYears(f.store))
}
