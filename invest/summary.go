package invest

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the investment section of the overview reports. A ledger with
// no investment history yields a valid summary with HasData false; missing
// snapshot data degrades to empty fields, it never fails the whole report.
type Summary struct {
	HasData       bool
	TotalValue    decimal.Decimal
	ValueDate     time.Time
	PreviousValue *decimal.Decimal
	Delta         *decimal.Decimal
	DeltaPct      *decimal.Decimal
	Holdings      []HoldingChange
	Performance   *Performance
}

// Summary builds the aggregate investment summary for a window across all
// accounts.
func (s *Store) Summary(from, to time.Time) *Summary {
	out := &Summary{TotalValue: decimal.Zero}

	latest, ok := s.Latest("")
	if !ok {
		return out
	}
	out.HasData = true

	if total, ok := s.TotalValueAt(to); ok {
		out.TotalValue = total
	} else {
		out.TotalValue = latest.Value
	}
	out.ValueDate = latest.Date

	if previous, ok := s.Previous(""); ok {
		prev := previous.Value
		out.PreviousValue = &prev
		delta := latest.Value.Sub(prev)
		out.Delta = &delta
		if !prev.IsZero() {
			pct := delta.Div(prev.Abs()).Mul(decimal.NewFromInt(100)).RoundBank(2)
			out.DeltaPct = &pct
		}
		out.Holdings = DiffHoldings(latest, previous)
	} else {
		out.Holdings = DiffHoldings(latest, nil)
	}

	out.Performance = s.WindowPerformance("", from, to)
	return out
}
