package report

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"finledger/ledger"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixture bundles the seeded store with the ids the tests reference.
type fixture struct {
	store     *ledger.Store
	checking  *ledger.Account
	external  *ledger.Account
	mortgage  *ledger.Account
	salary    *ledger.Category
	groceries *ledger.Category
	rent      *ledger.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := ledger.NewStore()

	f := &fixture{store: s}
	var err error

	f.checking, err = s.AddAccount(ledger.Account{Name: "Checking"})
	assert.NoError(t, err)
	f.external, err = s.AddAccount(ledger.Account{Name: "External"})
	assert.NoError(t, err)
	f.mortgage, err = s.AddAccount(ledger.Account{Name: "Mortgage", Type: ledger.AccountDebt})
	assert.NoError(t, err)

	f.salary, err = s.AddCategory(ledger.Category{Name: "Salary", Type: ledger.CategoryIncome})
	assert.NoError(t, err)
	f.groceries, err = s.AddCategory(ledger.Category{Name: "Groceries", Type: ledger.CategoryExpense})
	assert.NoError(t, err)
	f.rent, err = s.AddCategory(ledger.Category{Name: "Rent", Type: ledger.CategoryExpense})
	assert.NoError(t, err)

	return f
}

// income records a salary transaction into checking on the given day.
func (f *fixture) income(t *testing.T, day, amount string) {
	t.Helper()
	f.incomeNamed(t, day, amount, "Salary payment")
}

func (f *fixture) incomeNamed(t *testing.T, day, amount, description string) {
	t.Helper()
	_, err := f.store.RecordTransaction(ledger.TransactionInput{
		Description: description,
		OccurredAt:  date(day),
		CategoryID:  f.salary.ID,
		Legs: []ledger.LegInput{
			{AccountID: f.checking.ID, Amount: amt(amount)},
			{AccountID: f.external.ID, Amount: amt(amount).Neg()},
		},
	})
	assert.NoError(t, err)
}

// expense records an expense from checking with the given category.
func (f *fixture) expense(t *testing.T, day, amount string, category *ledger.Category) {
	t.Helper()
	f.expenseNamed(t, day, amount, category, category.Name+" purchase")
}

func (f *fixture) expenseNamed(t *testing.T, day, amount string, category *ledger.Category, description string) {
	t.Helper()
	_, err := f.store.RecordTransaction(ledger.TransactionInput{
		Description: description,
		OccurredAt:  date(day),
		CategoryID:  category.ID,
		Legs: []ledger.LegInput{
			{AccountID: f.checking.ID, Amount: amt(amount).Neg()},
			{AccountID: f.external.ID, Amount: amt(amount)},
		},
	})
	assert.NoError(t, err)
}
