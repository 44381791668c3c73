package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"finledger/ledger"
)

const validDataset = `{
	"accounts": [
		{"name": "Checking"},
		{"name": "External"},
		{"name": "Mortgage", "type": "DEBT", "loan": {
			"origin_principal": "250000.00",
			"current_principal": "198000.00",
			"annual_rate": "0.039",
			"compounding": "MONTHLY",
			"minimum_payment": "1100.00"
		}},
		{"name": "Broker", "type": "INVESTMENT"}
	],
	"categories": [
		{"name": "Salary", "type": "INCOME"},
		{"name": "Groceries", "type": "EXPENSE"}
	],
	"transactions": [
		{"date": "2024-01-05", "description": "Salary payment", "category": "Salary", "legs": [
			{"account": "Checking", "amount": "2500.00"},
			{"account": "External", "amount": "-2500.00"}
		]},
		{"date": "2024-01-10", "description": "Supermarket", "category": "Groceries", "legs": [
			{"account": "Checking", "amount": "-84.50"},
			{"account": "External", "amount": "84.50"}
		]}
	],
	"budgets": [
		{"category": "Groceries", "amount": "400.00", "period": "MONTHLY"}
	],
	"subscriptions": [
		{"name": "Streaming", "matcher": "streamflix", "amount": "12.99", "tolerance": "1.00", "day_of_month": 14, "category": "Groceries"}
	],
	"goals": [
		{"name": "Buffer", "target_amount": "5000.00", "account": "Checking"}
	],
	"snapshots": [
		{"account": "Broker", "date": "2024-01-31", "value": "10000.00", "holdings": [
			{"name": "World ETF", "isin": "IE00B4L5Y983", "quantity": "120", "value": "10000.00"}
		]}
	],
	"investment_transactions": [
		{"account": "Broker", "date": "2024-01-15", "description": "Monthly deposit", "amount": "500.00"}
	]
}`

func writeDataset(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.json")
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestLoad_ValidDataset(t *testing.T) {
	path := writeDataset(t, validDataset)

	data, err := New().Load(context.Background(), path)
	assert.NoError(t, err)

	assert.Equal(t, 4, len(data.Ledger.Accounts()))
	assert.Equal(t, 2, len(data.Ledger.Categories()))
	assert.Equal(t, 2, len(data.Ledger.Transactions()))
	assert.Equal(t, 1, len(data.Ledger.Budgets()))
	assert.Equal(t, 1, len(data.Ledger.Subscriptions()))
	assert.Equal(t, 1, len(data.Ledger.Goals()))
	assert.Equal(t, 1, len(data.Snapshots.Snapshots()))
	assert.Equal(t, 1, len(data.Snapshots.Transactions()))

	// Names resolved to generated ids, balances derived from legs.
	accounts := data.Ledger.Accounts()
	var checking *ledger.Account
	for _, a := range accounts {
		if a.Name == "Checking" {
			checking = a
		}
		if a.Name == "Mortgage" {
			assert.Equal(t, ledger.AccountDebt, a.Type)
			assert.NotZero(t, a.Loan)
			assert.Equal(t, "198000", a.Loan.CurrentPrincipal.String())
		}
	}
	assert.NotZero(t, checking)

	balance, err := data.Ledger.BalanceAsOf(checking.ID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, "2415.50", ledger.FormatAmount(balance))

	// Subscription defaults to active when the flag is omitted.
	assert.True(t, data.Ledger.Subscriptions()[0].Active)
}

func TestLoad_UnbalancedTransactionTypedError(t *testing.T) {
	path := writeDataset(t, `{
		"accounts": [{"name": "A"}, {"name": "B"}],
		"transactions": [
			{"date": "2024-01-01", "description": "off by a cent", "legs": [
				{"account": "A", "amount": "-100.00"},
				{"account": "B", "amount": "99.99"}
			]}
		]
	}`)

	_, err := New().Load(context.Background(), path)
	assert.Error(t, err)

	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "transactions", loadErr.Section)
	assert.Equal(t, 0, loadErr.Index)

	var unbalanced *ledger.UnbalancedLegsError
	assert.True(t, errors.As(err, &unbalanced))
	assert.Equal(t, "-0.01", ledger.FormatAmount(unbalanced.Residual))
}

func TestLoad_UnknownReferences(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		section  string
	}{
		{
			name: "leg references missing account",
			contents: `{"accounts": [{"name": "A"}], "transactions": [
				{"date": "2024-01-01", "description": "x", "legs": [
					{"account": "A", "amount": "-1.00"},
					{"account": "Nope", "amount": "1.00"}
				]}
			]}`,
			section: "transactions",
		},
		{
			name:     "budget references missing category",
			contents: `{"budgets": [{"category": "Nope", "amount": "1.00"}]}`,
			section:  "budgets",
		},
		{
			name:     "loan on non-debt account",
			contents: `{"accounts": [{"name": "A", "loan": {"origin_principal": "1.00", "current_principal": "1.00"}}]}`,
			section:  "accounts",
		},
		{
			name:     "bad account type",
			contents: `{"accounts": [{"name": "A", "type": "OFFSHORE"}]}`,
			section:  "accounts",
		},
		{
			name:     "bad transaction date",
			contents: `{"accounts": [{"name": "A"}], "transactions": [{"date": "01/05/2024", "description": "x"}]}`,
			section:  "transactions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().LoadBytes(context.Background(), "test.json", []byte(tt.contents))
			assert.Error(t, err)

			var loadErr *LoadError
			assert.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.section, loadErr.Section)
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	_, err := New().LoadBytes(context.Background(), "test.json", []byte(`{"accounts": [`))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoad_EmptyDataset(t *testing.T) {
	data, err := New().LoadBytes(context.Background(), "test.json", []byte(`{}`))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(data.Ledger.Accounts()))
	assert.Equal(t, 0, len(data.Ledger.Transactions()))
}
