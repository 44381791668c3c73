package report

import (
	"time"

	"github.com/shopspring/decimal"

	"finledger/ledger"
)

// SeriesPoint is one point of a net-worth or debt trajectory, positioned at
// the end of its period. Estimated marks points carried across a period with
// no ledger data or snapshot coverage; gaps are flagged, never silently
// interpolated.
type SeriesPoint struct {
	Period    ledger.Period
	Value     decimal.Decimal
	Estimated bool
}

// SnapshotSource provides externally observed portfolio values, used to fold
// investment market movement into the net-worth series.
type SnapshotSource interface {
	// TotalValueAt returns the total portfolio value from the nearest
	// snapshot at or before t, and whether one exists.
	TotalValueAt(t time.Time) (decimal.Decimal, bool)
}

// NetWorthBuilder accumulates a net-worth trajectory from period nets and
// optional investment snapshots. Net worth at end of period is the value at
// its start plus the period net scaled by RealizedFraction plus any snapshot
// delta covering the period.
type NetWorthBuilder struct {
	// RealizedFraction scales period nets to account for unrealized or
	// pending legs. Defaults to 1.
	RealizedFraction decimal.Decimal
	// Snapshots is an optional source of investment portfolio values.
	Snapshots SnapshotSource
}

// NewNetWorthBuilder returns a builder with the full period net realized.
func NewNetWorthBuilder() *NetWorthBuilder {
	return &NetWorthBuilder{RealizedFraction: decimal.NewFromInt(1)}
}

// Series accumulates the net-worth trajectory from the first ledger activity
// through the requested window and returns the points inside [from, to].
// Always accumulating from the very start is what guarantees the continuity
// invariant: the first point of any year equals the last point of the year
// before.
func (b *NetWorthBuilder) Series(l Ledger, from, to ledger.Period, f Filters) []SeriesPoint {
	fraction := b.RealizedFraction
	if fraction.IsZero() {
		fraction = decimal.NewFromInt(1)
	}

	start := b.seriesStart(l, from)
	nets := monthlyNetIndex(l, start.Year, to.Year, f)

	var points []SeriesPoint
	value := decimal.Zero
	var prevSnapshot *decimal.Decimal
	if b.Snapshots != nil {
		if v, ok := b.Snapshots.TotalValueAt(start.Start().Add(-time.Nanosecond)); ok {
			prevSnapshot = &v
			value = value.Add(v)
		}
	}

	for p := start; !periodAfter(p, to); p = p.Next() {
		net, hasActivity := nets[p]
		value = value.Add(net.Mul(fraction))

		snapshotCovered := false
		if b.Snapshots != nil {
			if v, ok := b.Snapshots.TotalValueAt(p.End().Add(-time.Nanosecond)); ok {
				if prevSnapshot != nil {
					value = value.Add(v.Sub(*prevSnapshot))
				} else {
					value = value.Add(v)
				}
				snap := v
				prevSnapshot = &snap
				snapshotCovered = true
			}
		}

		if !periodBefore(p, from) {
			points = append(points, SeriesPoint{
				Period:    p,
				Value:     value,
				Estimated: !hasActivity && !snapshotCovered,
			})
		}
	}
	return points
}

// YearSeries returns a year's net-worth trajectory: the closing point of the
// previous year followed by the year's 12 month-end points, so
// series[year][0] always equals series[year-1][last].
func (b *NetWorthBuilder) YearSeries(l Ledger, year int, f Filters) []SeriesPoint {
	from := ledger.Period{Year: year - 1, Month: time.December}
	to := ledger.Period{Year: year, Month: time.December}
	points := b.Series(l, from, to, f)

	if len(points) == 0 || points[0].Period != from {
		boundary := SeriesPoint{Period: from, Value: decimal.Zero, Estimated: true}
		if len(points) > 0 {
			points = append([]SeriesPoint{boundary}, points...)
		} else {
			points = []SeriesPoint{boundary}
		}
	}
	return points
}

func (b *NetWorthBuilder) seriesStart(l Ledger, from ledger.Period) ledger.Period {
	years := TransactionYears(l)
	if len(years) == 0 {
		return from
	}
	first := ledger.Period{Year: years[0], Month: time.January}
	if periodBefore(first, from) {
		return first
	}
	return from
}

// DebtSeries is the negated sum of DEBT-account balances at each period
// boundary. Periods without any debt-account activity are flagged as
// estimated rather than interpolated.
func DebtSeries(l Ledger, from, to ledger.Period) []SeriesPoint {
	debtAccounts := make(map[string]bool)
	for _, a := range l.Accounts() {
		if a.Type == ledger.AccountDebt {
			debtAccounts[a.ID] = true
		}
	}

	activity := make(map[ledger.Period]bool)
	for _, txn := range l.Transactions() {
		for _, leg := range txn.Legs {
			if debtAccounts[leg.AccountID] {
				activity[ledger.PeriodOf(txn.OccurredAt)] = true
				break
			}
		}
	}

	var points []SeriesPoint
	for p := from; !periodAfter(p, to); p = p.Next() {
		balances := l.Balances(p.End().Add(-time.Nanosecond))
		debt := decimal.Zero
		for id := range debtAccounts {
			debt = debt.Add(balances[id])
		}
		points = append(points, SeriesPoint{
			Period:    p,
			Value:     debt.Neg(),
			Estimated: !activity[p],
		})
	}
	return points
}

// monthlyNetIndex computes each period's net once for the covered years.
func monthlyNetIndex(l Ledger, fromYear, toYear int, f Filters) map[ledger.Period]decimal.Decimal {
	categories := categoryIndex(l)
	nets := make(map[ledger.Period]decimal.Decimal)
	for _, txn := range l.Transactions() {
		year := txn.OccurredAt.Year()
		if year < fromYear || year > toYear || !f.Match(txn) {
			continue
		}
		income, expense := transactionFlows(txn, categories)
		if income.IsZero() && expense.IsZero() {
			continue
		}
		p := ledger.PeriodOf(txn.OccurredAt)
		nets[p] = nets[p].Add(income).Add(expense)
	}
	return nets
}

func periodBefore(a, b ledger.Period) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	return a.Month < b.Month
}

func periodAfter(a, b ledger.Period) bool {
	return periodBefore(b, a)
}
