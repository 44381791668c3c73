package ledger

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultReconciliationThreshold is the gap above which an account is
// flagged as needing reconciliation.
var DefaultReconciliationThreshold = decimal.NewFromFloat(0.01)

// BalanceAsOf computes the signed sum of all legs on the account across
// transactions with occurred_at on or before asOf.
func (s *Store) BalanceAsOf(accountID string, asOf time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.accounts[accountID]; !ok {
		return decimal.Zero, NewUnknownAccountError(accountID)
	}

	sum := decimal.Zero
	for _, txn := range s.transactions {
		if txn.OccurredAt.After(asOf) {
			continue
		}
		for _, leg := range txn.Legs {
			if leg.AccountID == accountID {
				sum = sum.Add(leg.Amount)
			}
		}
	}
	return sum, nil
}

// Balances computes all account balances as of the given instant, keyed by
// account id. Accounts with no legs map to zero.
func (s *Store) Balances(asOf time.Time) map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(s.accounts))
	for id := range s.accounts {
		out[id] = decimal.Zero
	}
	for _, txn := range s.transactions {
		if txn.OccurredAt.After(asOf) {
			continue
		}
		for _, leg := range txn.Legs {
			out[leg.AccountID] = out[leg.AccountID].Add(leg.Amount)
		}
	}
	return out
}

// RunningBalanceEntry is one step of an account's running balance.
type RunningBalanceEntry struct {
	Transaction *Transaction
	Amount      decimal.Decimal // net movement of this transaction on the account
	Balance     decimal.Decimal // balance after the transaction
}

// RunningBalance walks the account's transactions in stable
// (occurred_at, created_at, id) order and accumulates the balance after each
// one. The stable ordering guarantees identical output for identical ledgers
// even when timestamps tie.
func (s *Store) RunningBalance(accountID string) ([]RunningBalanceEntry, error) {
	s.mu.RLock()
	if _, ok := s.accounts[accountID]; !ok {
		s.mu.RUnlock()
		return nil, NewUnknownAccountError(accountID)
	}

	var touched []*Transaction
	for _, txn := range s.transactions {
		if txn.Touches(accountID) {
			touched = append(touched, txn.Copy())
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(touched, CompareTransactions)

	entries := make([]RunningBalanceEntry, 0, len(touched))
	balance := decimal.Zero
	for _, txn := range touched {
		amount := txn.AccountAmount(accountID)
		balance = balance.Add(amount)
		entries = append(entries, RunningBalanceEntry{
			Transaction: txn,
			Amount:      amount,
			Balance:     balance,
		})
	}
	return entries, nil
}

// Reconciliation compares a user-asserted external balance against the
// computed one.
type Reconciliation struct {
	AccountID           string
	AsOf                time.Time
	Asserted            decimal.Decimal
	Computed            decimal.Decimal
	Gap                 decimal.Decimal // asserted minus computed
	NeedsReconciliation bool
}

// Reconcile computes the gap between an asserted external balance and the
// ledger balance as of a date, flagging the account when the absolute gap
// exceeds the threshold. A non-positive threshold falls back to the default.
func (s *Store) Reconcile(accountID string, asserted decimal.Decimal, asOf time.Time, threshold decimal.Decimal) (*Reconciliation, error) {
	if !threshold.IsPositive() {
		threshold = DefaultReconciliationThreshold
	}

	computed, err := s.BalanceAsOf(accountID, asOf)
	if err != nil {
		return nil, err
	}

	gap := asserted.Sub(computed)
	return &Reconciliation{
		AccountID:           accountID,
		AsOf:                asOf,
		Asserted:            asserted,
		Computed:            computed,
		Gap:                 gap,
		NeedsReconciliation: gap.Abs().GreaterThan(threshold),
	}, nil
}

// DailyDelta is the net balance movement across a set of accounts for one
// calendar day.
type DailyDelta struct {
	Date  time.Time // midnight UTC
	Delta decimal.Decimal
}

// DailyDeltas sums leg amounts per calendar day over [from, to] for the
// given accounts, or for all non-investment accounts when accountIDs is
// empty. Days with no movement are present with a zero delta so consumers
// see a dense series.
func (s *Store) DailyDeltas(accountIDs []string, from, to time.Time) []DailyDelta {
	from = midnightUTC(from)
	to = midnightUTC(to)
	if to.Before(from) {
		return nil
	}

	include := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		include[id] = true
	}

	s.mu.RLock()
	if len(include) == 0 {
		for id, a := range s.accounts {
			if a.Type != AccountInvestment {
				include[id] = true
			}
		}
	}

	byDay := make(map[time.Time]decimal.Decimal)
	for _, txn := range s.transactions {
		day := midnightUTC(txn.OccurredAt)
		if day.Before(from) || day.After(to) {
			continue
		}
		for _, leg := range txn.Legs {
			if include[leg.AccountID] {
				byDay[day] = byDay[day].Add(leg.Amount)
			}
		}
	}
	s.mu.RUnlock()

	var out []DailyDelta
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		out = append(out, DailyDelta{Date: day, Delta: byDay[day]})
	}
	return out
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
