package report

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"finledger/ledger"
)

// UncategorizedBucket is the synthetic bucket name for transactions with no
// category.
const UncategorizedBucket = "Uncategorized"

// CategoryBreakdownRow attributes a year's flow to one category.
type CategoryBreakdownRow struct {
	CategoryID       string // empty for the Uncategorized bucket
	Name             string
	Total            decimal.Decimal
	Monthly          [12]decimal.Decimal // sums to Total
	TransactionCount int
	PriorTotal       decimal.Decimal
	Delta            decimal.Decimal  // Total minus PriorTotal
	DeltaPct         *decimal.Decimal // nil when PriorTotal is zero
}

// CategoryBreakdown attributes each transaction's flow amount for a year to
// exactly one category, with an Uncategorized bucket for transactions that
// have none. Rows carry a year-over-year delta against the prior year;
// DeltaPct is nil, never a division by zero, when the prior total is zero.
// Rows are sorted by absolute total descending, name ascending on ties.
func CategoryBreakdown(l Ledger, year int, flow Flow, f Filters) []CategoryBreakdownRow {
	categories := categoryIndex(l)

	current := breakdownTotals(l, year, flow, f, categories)
	prior := breakdownTotals(l, year-1, flow, f, categories)

	rows := make([]CategoryBreakdownRow, 0, len(current))
	for key, agg := range current {
		row := CategoryBreakdownRow{
			CategoryID:       agg.categoryID,
			Name:             agg.name,
			Total:            agg.total,
			Monthly:          agg.monthly,
			TransactionCount: agg.count,
			PriorTotal:       decimal.Zero,
		}
		if p, ok := prior[key]; ok {
			row.PriorTotal = p.total
		}
		row.Delta = row.Total.Sub(row.PriorTotal)
		row.DeltaPct = ledger.Percent(row.Delta, row.PriorTotal.Abs())
		rows = append(rows, row)
	}

	slices.SortStableFunc(rows, func(a, b CategoryBreakdownRow) int {
		if c := b.Total.Abs().Cmp(a.Total.Abs()); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return rows
}

type breakdownAgg struct {
	categoryID string
	name       string
	total      decimal.Decimal
	monthly    [12]decimal.Decimal
	count      int
}

func breakdownTotals(l Ledger, year int, flow Flow, f Filters, categories map[string]*ledger.Category) map[string]*breakdownAgg {
	out := make(map[string]*breakdownAgg)

	add := func(key, categoryID, name string, month int, amount decimal.Decimal) {
		agg, ok := out[key]
		if !ok {
			agg = &breakdownAgg{categoryID: categoryID, name: name, total: decimal.Zero}
			out[key] = agg
		}
		agg.total = agg.total.Add(amount)
		agg.monthly[month-1] = agg.monthly[month-1].Add(amount)
		agg.count++
	}

	for _, txn := range l.Transactions() {
		if txn.OccurredAt.Year() != year || !f.Match(txn) {
			continue
		}

		amount, ok := flowAmount(txn, flow, categories)
		if !ok {
			continue
		}
		month := int(txn.OccurredAt.Month())

		if txn.CategoryID == "" {
			add(UncategorizedBucket, "", UncategorizedBucket, month, amount)
			continue
		}
		cat := categories[txn.CategoryID]
		add(cat.ID, cat.ID, cat.Name, month, amount)
	}
	return out
}

// flowAmount returns the signed amount a transaction contributes to the
// requested flow. Categorized transactions follow their category type.
// Uncategorized transactions follow the sign of their first leg, the primary
// side of the entry, so unclassified spend still surfaces in breakdowns.
func flowAmount(txn *ledger.Transaction, flow Flow, categories map[string]*ledger.Category) (decimal.Decimal, bool) {
	if txn.CategoryID != "" {
		cat, ok := categories[txn.CategoryID]
		if !ok {
			return decimal.Zero, false
		}
		if cat.Type == ledger.CategoryIncome && flow == FlowIncome {
			return txn.PositiveLegSum(), true
		}
		if cat.Type == ledger.CategoryExpense && flow == FlowExpense {
			return txn.NegativeLegSum(), true
		}
		return decimal.Zero, false
	}

	if len(txn.Legs) == 0 {
		return decimal.Zero, false
	}
	primaryNegative := txn.Legs[0].Amount.IsNegative()
	if primaryNegative && flow == FlowExpense {
		return txn.NegativeLegSum(), true
	}
	if !primaryNegative && flow == FlowIncome {
		return txn.PositiveLegSum(), true
	}
	return decimal.Zero, false
}

// RankedTransaction is a transaction ranked by absolute flow amount.
type RankedTransaction struct {
	Transaction *ledger.Transaction
	Amount      decimal.Decimal
}

// LargestTransactions ranks a year's transactions for one flow by absolute
// amount descending, tie-broken by occurred_at descending so ordering is
// stable.
func LargestTransactions(l Ledger, year int, flow Flow, limit int, f Filters) []RankedTransaction {
	categories := categoryIndex(l)

	var ranked []RankedTransaction
	for _, txn := range l.Transactions() {
		if txn.OccurredAt.Year() != year || !f.Match(txn) {
			continue
		}
		amount, ok := flowAmount(txn, flow, categories)
		if !ok || amount.IsZero() {
			continue
		}
		ranked = append(ranked, RankedTransaction{Transaction: txn, Amount: amount})
	}

	slices.SortStableFunc(ranked, func(a, b RankedTransaction) int {
		if c := b.Amount.Abs().Cmp(a.Amount.Abs()); c != 0 {
			return c
		}
		return b.Transaction.OccurredAt.Compare(a.Transaction.OccurredAt)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// MerchantRow aggregates a year's flow per merchant, keyed by normalized
// transaction description.
type MerchantRow struct {
	Merchant         string
	Total            decimal.Decimal
	TransactionCount int
}

// TopMerchants groups transactions by description and ranks merchants by
// absolute total descending, name ascending on ties.
func TopMerchants(l Ledger, year int, flow Flow, limit int, f Filters) []MerchantRow {
	categories := categoryIndex(l)

	totals := make(map[string]*MerchantRow)
	for _, txn := range l.Transactions() {
		if txn.OccurredAt.Year() != year || !f.Match(txn) {
			continue
		}
		amount, ok := flowAmount(txn, flow, categories)
		if !ok || amount.IsZero() {
			continue
		}
		key := normalizeMerchant(txn.Description)
		row, ok := totals[key]
		if !ok {
			row = &MerchantRow{Merchant: strings.TrimSpace(txn.Description), Total: decimal.Zero}
			totals[key] = row
		}
		row.Total = row.Total.Add(amount)
		row.TransactionCount++
	}

	rows := make([]MerchantRow, 0, len(totals))
	for _, row := range totals {
		rows = append(rows, *row)
	}
	slices.SortStableFunc(rows, func(a, b MerchantRow) int {
		if c := b.Total.Abs().Cmp(a.Total.Abs()); c != 0 {
			return c
		}
		return strings.Compare(a.Merchant, b.Merchant)
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func normalizeMerchant(description string) string {
	return strings.Join(strings.Fields(strings.ToLower(description)), " ")
}
