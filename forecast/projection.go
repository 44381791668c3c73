package forecast

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finledger/ledger"
)

// Multipliers applied to the average monthly net for the projection methods.
var (
	conservativeFactor = decimal.NewFromFloat(0.75)
	aggressiveFactor   = decimal.NewFromFloat(1.25)
)

// ProjectionPoint is one month of a net-worth projection.
type ProjectionPoint struct {
	Period ledger.Period
	Value  decimal.Decimal
}

// Projection extends the current net worth forward by the average monthly
// net, with a conservative and an aggressive variant around the baseline.
type Projection struct {
	Baseline     []ProjectionPoint
	Conservative []ProjectionPoint
	Aggressive   []ProjectionPoint
}

// ProjectNetWorth derives the average monthly net from recent history and
// compounds it forward. monthlyNets is the trailing window of month nets,
// oldest first; current is the latest known net worth.
func ProjectNetWorth(current decimal.Decimal, monthlyNets []decimal.Decimal, from ledger.Period, months int) (*Projection, error) {
	if months <= 0 {
		return nil, fmt.Errorf("projection months must be positive, got %d", months)
	}

	avg := decimal.Zero
	if len(monthlyNets) > 0 {
		sum := decimal.Zero
		for _, n := range monthlyNets {
			sum = sum.Add(n)
		}
		avg = sum.Div(decimal.NewFromInt(int64(len(monthlyNets)))).RoundBank(2)
	}

	series := func(step decimal.Decimal) []ProjectionPoint {
		points := make([]ProjectionPoint, 0, months)
		value := current
		p := from
		for i := 0; i < months; i++ {
			p = p.Next()
			value = value.Add(step)
			points = append(points, ProjectionPoint{Period: p, Value: value})
		}
		return points
	}

	return &Projection{
		Baseline:     series(avg),
		Conservative: series(avg.Mul(conservativeFactor).RoundBank(2)),
		Aggressive:   series(avg.Mul(aggressiveFactor).RoundBank(2)),
	}, nil
}

// TrailingMonthlyNets extracts the last n month nets before the period
// containing now, oldest first, from a monthly net index.
func TrailingMonthlyNets(nets map[ledger.Period]decimal.Decimal, now time.Time, n int) []decimal.Decimal {
	current := ledger.PeriodOf(now)

	periods := make([]ledger.Period, 0, n)
	p := current
	for i := 0; i < n; i++ {
		if p.Month == time.January {
			p = ledger.Period{Year: p.Year - 1, Month: time.December}
		} else {
			p = ledger.Period{Year: p.Year, Month: p.Month - 1}
		}
		periods = append([]ledger.Period{p}, periods...)
	}

	out := make([]decimal.Decimal, 0, n)
	for _, p := range periods {
		out = append(out, nets[p])
	}
	return out
}
