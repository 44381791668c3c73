package report

import (
	"time"

	"github.com/shopspring/decimal"

	"finledger/ledger"
)

// MonthRow is one month's rollup. Expense is stored negative so that
// Net = Income + Expense holds without sign juggling.
type MonthRow struct {
	Period  ledger.Period
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// QuarterRow is one quarter's rollup, always derived from monthly rows.
type QuarterRow struct {
	Year    int
	Quarter int // 1..4
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// YearRow is one year's rollup, always derived from monthly rows.
type YearRow struct {
	Year    int
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// Monthly buckets the ledger's transactions into the 12 calendar months of a
// year and rolls up income, expense and net per month.
func Monthly(l Ledger, year int, f Filters) []MonthRow {
	categories := categoryIndex(l)

	rows := make([]MonthRow, 12)
	for i := range rows {
		rows[i] = MonthRow{
			Period:  ledger.Period{Year: year, Month: time.Month(i + 1)},
			Income:  decimal.Zero,
			Expense: decimal.Zero,
			Net:     decimal.Zero,
		}
	}

	for _, txn := range l.Transactions() {
		if txn.OccurredAt.Year() != year || !f.Match(txn) {
			continue
		}
		income, expense := transactionFlows(txn, categories)
		if income.IsZero() && expense.IsZero() {
			continue
		}
		i := int(txn.OccurredAt.Month()) - 1
		rows[i].Income = rows[i].Income.Add(income)
		rows[i].Expense = rows[i].Expense.Add(expense)
	}

	for i := range rows {
		rows[i].Net = rows[i].Income.Add(rows[i].Expense)
	}
	return rows
}

// Quarterly sums monthly rows in 3-month windows. Deriving from Monthly
// rather than re-bucketing raw transactions guarantees that monthly and
// quarterly reports can never disagree.
func Quarterly(l Ledger, year int, f Filters) []QuarterRow {
	return quartersFromMonths(year, Monthly(l, year, f))
}

func quartersFromMonths(year int, months []MonthRow) []QuarterRow {
	rows := make([]QuarterRow, 4)
	for q := 0; q < 4; q++ {
		row := QuarterRow{
			Year:    year,
			Quarter: q + 1,
			Income:  decimal.Zero,
			Expense: decimal.Zero,
		}
		for _, m := range months[q*3 : q*3+3] {
			row.Income = row.Income.Add(m.Income)
			row.Expense = row.Expense.Add(m.Expense)
		}
		row.Net = row.Income.Add(row.Expense)
		rows[q] = row
	}
	return rows
}

// Yearly sums monthly data per requested year.
func Yearly(l Ledger, years []int, f Filters) []YearRow {
	rows := make([]YearRow, 0, len(years))
	for _, year := range years {
		row := YearRow{Year: year, Income: decimal.Zero, Expense: decimal.Zero}
		for _, m := range Monthly(l, year, f) {
			row.Income = row.Income.Add(m.Income)
			row.Expense = row.Expense.Add(m.Expense)
		}
		row.Net = row.Income.Add(row.Expense)
		rows = append(rows, row)
	}
	return rows
}

// TransactionYears returns the distinct years with ledger activity, ascending.
func TransactionYears(l Ledger) []int {
	seen := make(map[int]bool)
	var years []int
	for _, txn := range l.Transactions() {
		y := txn.OccurredAt.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	// Transactions() is sorted by occurred_at, so years arrive ascending.
	return years
}
