package invest

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HoldingChange is one holding's movement between two snapshots.
type HoldingChange struct {
	Name          string
	Current       decimal.Decimal
	Prior         decimal.Decimal
	Delta         decimal.Decimal
	DeltaPct      *decimal.Decimal // nil when Prior is zero
	QuantityDelta decimal.Decimal
}

// DiffHoldings compares the holdings of two snapshots over the union of
// their holding names, matched on a case- and whitespace-normalized key.
// The diff is antisymmetric: swapping the snapshots negates every delta.
func DiffHoldings(latest, previous *Snapshot) []HoldingChange {
	type side struct {
		name     string
		value    decimal.Decimal
		quantity decimal.Decimal
	}

	index := func(s *Snapshot) map[string]side {
		out := make(map[string]side)
		if s == nil {
			return out
		}
		for _, h := range s.Holdings {
			key := normalizeHoldingKey(h.Name)
			entry := out[key]
			if entry.name == "" {
				entry.name = strings.TrimSpace(h.Name)
			}
			entry.value = entry.value.Add(h.Value)
			entry.quantity = entry.quantity.Add(h.Quantity)
			out[key] = entry
		}
		return out
	}

	current := index(latest)
	prior := index(previous)

	keys := make([]string, 0, len(current)+len(prior))
	for k := range current {
		keys = append(keys, k)
	}
	for k := range prior {
		if _, ok := current[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	out := make([]HoldingChange, 0, len(keys))
	for _, k := range keys {
		cur := current[k]
		pri := prior[k]
		name := cur.name
		if name == "" {
			name = pri.name
		}

		change := HoldingChange{
			Name:          name,
			Current:       cur.value,
			Prior:         pri.value,
			Delta:         cur.value.Sub(pri.value),
			QuantityDelta: cur.quantity.Sub(pri.quantity),
		}
		if !pri.value.IsZero() {
			pct := change.Delta.Div(pri.value.Abs()).Mul(decimal.NewFromInt(100)).RoundBank(2)
			change.DeltaPct = &pct
		}
		out = append(out, change)
	}
	return out
}

func normalizeHoldingKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Performance is the market movement of a window once external cashflows are
// excluded.
type Performance struct {
	Start          time.Time
	End            time.Time
	StartValue     decimal.Decimal
	EndValue       decimal.Decimal
	Deposits       decimal.Decimal
	Withdrawals    decimal.Decimal
	NetCashflow    decimal.Decimal
	Market         decimal.Decimal  // (end - start) - net cashflow
	MarketPct      *decimal.Decimal // nil when the denominator is not positive
	TimeWeighted   *decimal.Decimal // fraction, e.g. 0.07 for +7%
	MoneyWeighted  *decimal.Decimal // annualized IRR fraction
	MissingHistory bool             // no snapshot at or before the window start
}

// WindowPerformance measures an account's market performance between two
// dates. The window start tolerates missing snapshots by falling back to the
// nearest snapshot at or before it; with no snapshot at all the window
// starts from zero and is flagged.
func (s *Store) WindowPerformance(accountID string, from, to time.Time) *Performance {
	perf := &Performance{
		Start:       from,
		End:         to,
		StartValue:  decimal.Zero,
		EndValue:    decimal.Zero,
		Deposits:    decimal.Zero,
		Withdrawals: decimal.Zero,
	}

	start, ok := s.NearestAtOrBefore(accountID, from)
	if ok {
		perf.StartValue = start.Value
		perf.Start = start.Date
	} else {
		perf.MissingHistory = true
	}
	if end, ok := s.NearestAtOrBefore(accountID, to); ok {
		perf.EndValue = end.Value
		perf.End = end.Date
	}

	flows := s.classifiedFlows(accountID, perf.Start, perf.End)
	for _, f := range flows {
		switch f.class {
		case CashflowDeposit:
			perf.Deposits = perf.Deposits.Add(f.amount.Abs())
		case CashflowWithdrawal:
			perf.Withdrawals = perf.Withdrawals.Add(f.amount.Abs())
		}
	}
	perf.NetCashflow = perf.Deposits.Sub(perf.Withdrawals)

	perf.Market = perf.EndValue.Sub(perf.StartValue).Sub(perf.NetCashflow)
	denominator := perf.StartValue.Add(perf.NetCashflow)
	if denominator.IsPositive() {
		pct := perf.Market.Div(denominator).Mul(decimal.NewFromInt(100)).RoundBank(2)
		perf.MarketPct = &pct
	}

	perf.TimeWeighted = s.timeWeighted(accountID, perf.Start, perf.End)
	perf.MoneyWeighted = s.moneyWeighted(perf, flows)
	return perf
}

type classifiedFlow struct {
	date   time.Time
	amount decimal.Decimal // signed: deposits positive, withdrawals negative
	class  Cashflow
}

// classifiedFlows runs the classifier over the window's investment
// transactions, in (from, to] exclusive of the start so the starting
// snapshot value is not double counted.
func (s *Store) classifiedFlows(accountID string, from, to time.Time) []classifiedFlow {
	var out []classifiedFlow
	for _, txn := range s.Transactions() {
		if accountID != "" && txn.AccountID != accountID {
			continue
		}
		if !txn.Date.After(from) || txn.Date.After(to) {
			continue
		}
		class := ClassifyCashflow(*txn)
		if class == CashflowNone {
			continue
		}
		amount := txn.Amount.Abs()
		if class == CashflowWithdrawal {
			amount = amount.Neg()
		}
		out = append(out, classifiedFlow{date: txn.Date, amount: amount, class: class})
	}
	return out
}

// timeWeighted chains sub-period growth rates between consecutive snapshots,
// with each sub-period's net cashflow treated as arriving at its start.
func (s *Store) timeWeighted(accountID string, from, to time.Time) *decimal.Decimal {
	var window []*Snapshot
	for _, snap := range s.Snapshots() {
		if accountID != "" && snap.AccountID != accountID {
			continue
		}
		if snap.Date.Before(from) || snap.Date.After(to) {
			continue
		}
		window = append(window, snap)
	}
	if len(window) < 2 {
		return nil
	}

	growth := 1.0
	for i := 1; i < len(window); i++ {
		prev := window[i-1]
		cur := window[i]

		flow := decimal.Zero
		for _, f := range s.classifiedFlows(accountID, prev.Date, cur.Date) {
			flow = flow.Add(f.amount)
		}

		base := prev.Value.Add(flow)
		if !base.IsPositive() {
			return nil
		}
		r, _ := cur.Value.Div(base).Float64()
		growth *= r
	}

	twr := decimal.NewFromFloat(growth - 1).RoundBank(6)
	return &twr
}

// moneyWeighted solves the annualized internal rate of return of the
// window's cashflow stream by bisection: start value out, deposits out,
// withdrawals in, end value in.
func (s *Store) moneyWeighted(perf *Performance, flows []classifiedFlow) *decimal.Decimal {
	days := perf.End.Sub(perf.Start).Hours() / 24
	if days <= 0 {
		return nil
	}

	type event struct {
		years  float64
		amount float64
	}
	var events []event

	startValue, _ := perf.StartValue.Float64()
	endValue, _ := perf.EndValue.Float64()
	if startValue <= 0 && len(flows) == 0 {
		return nil
	}
	events = append(events, event{years: 0, amount: -startValue})
	for _, f := range flows {
		amount, _ := f.amount.Float64()
		years := f.date.Sub(perf.Start).Hours() / 24 / 365.25
		events = append(events, event{years: years, amount: -amount})
	}
	events = append(events, event{years: days / 365.25, amount: endValue})

	npv := func(rate float64) float64 {
		sum := 0.0
		for _, e := range events {
			sum += e.amount / math.Pow(1+rate, e.years)
		}
		return sum
	}

	lo, hi := -0.9999, 10.0
	if npv(lo)*npv(hi) > 0 {
		return nil
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if npv(lo)*npv(mid) <= 0 {
			hi = mid
		} else {
			lo = mid
		}
	}

	irr := decimal.NewFromFloat((lo + hi) / 2).RoundBank(6)
	return &irr
}
