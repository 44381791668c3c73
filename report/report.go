// Package report derives analytics from a transaction ledger: period
// rollups, category and source breakdowns, seasonality heatmaps, net-worth
// and debt trajectories, budget and subscription rollups, and the composite
// overview reports.
//
// All computations are pure functions of a ledger snapshot passed in through
// the Ledger interface; nothing here mutates state, so reports are safe to
// run concurrently and cancellation simply discards the in-flight result.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"finledger/ledger"
)

// Ledger is the read-side repository the aggregators consume. *ledger.Store
// satisfies it.
type Ledger interface {
	Accounts() []*ledger.Account
	Account(id string) (*ledger.Account, bool)
	Categories() []*ledger.Category
	Category(id string) (*ledger.Category, bool)
	Transactions() []*ledger.Transaction
	Budgets() []*ledger.Budget
	Subscriptions() []*ledger.Subscription
	Goals() []*ledger.Goal
	Balances(asOf time.Time) map[string]decimal.Decimal
}

// Flow selects which direction of money a breakdown covers.
type Flow int

const (
	FlowIncome Flow = iota
	FlowExpense
)

// String returns the string representation of the flow.
func (f Flow) String() string {
	if f == FlowIncome {
		return "income"
	}
	return "expense"
}

// Filters restricts which transactions a report covers. Empty slices match
// everything.
type Filters struct {
	AccountIDs  []string
	CategoryIDs []string
}

func (f Filters) matchAccount(txn *ledger.Transaction) bool {
	if len(f.AccountIDs) == 0 {
		return true
	}
	for _, id := range f.AccountIDs {
		if txn.Touches(id) {
			return true
		}
	}
	return false
}

func (f Filters) matchCategory(txn *ledger.Transaction) bool {
	if len(f.CategoryIDs) == 0 {
		return true
	}
	for _, id := range f.CategoryIDs {
		if txn.CategoryID == id {
			return true
		}
	}
	return false
}

// Match reports whether the transaction passes all filters.
func (f Filters) Match(txn *ledger.Transaction) bool {
	return f.matchAccount(txn) && f.matchCategory(txn)
}

// categoryIndex builds an id lookup once per report run.
func categoryIndex(l Ledger) map[string]*ledger.Category {
	categories := l.Categories()
	idx := make(map[string]*ledger.Category, len(categories))
	for _, c := range categories {
		idx[c.ID] = c
	}
	return idx
}

// transactionFlows returns the income and expense amounts a transaction
// contributes. Income is the positive leg sum of INCOME-classified
// transactions; expense is the negative leg sum of EXPENSE-classified ones,
// kept negative. Transactions without a category are transfers and
// contribute to neither.
func transactionFlows(txn *ledger.Transaction, categories map[string]*ledger.Category) (income, expense decimal.Decimal) {
	if txn.CategoryID == "" {
		return decimal.Zero, decimal.Zero
	}
	cat, ok := categories[txn.CategoryID]
	if !ok {
		return decimal.Zero, decimal.Zero
	}
	switch cat.Type {
	case ledger.CategoryIncome:
		return txn.PositiveLegSum(), decimal.Zero
	case ledger.CategoryExpense:
		return decimal.Zero, txn.NegativeLegSum()
	}
	return decimal.Zero, decimal.Zero
}
