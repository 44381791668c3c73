// Package invest implements the investment performance engine: append-only
// portfolio snapshots, cashflow classification of investment transactions,
// holdings diffs between snapshots, and time- and money-weighted returns.
package invest

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holding is one position inside a snapshot.
type Holding struct {
	Name     string
	ISIN     string
	Quantity decimal.Decimal
	Value    decimal.Decimal
}

// Snapshot is a dated, per-account portfolio valuation. Snapshots are
// append-only facts ordered by snapshot date, tie-broken by update
// timestamp.
type Snapshot struct {
	ID        string
	AccountID string
	Date      time.Time
	Value     decimal.Decimal
	Holdings  []Holding
	UpdatedAt time.Time
}

// Transaction is a dated investment-account entry fed to the cashflow
// classifier. Type carries the broker's own tag when the import had one.
type Transaction struct {
	ID          string
	AccountID   string
	Date        time.Time
	Description string
	Type        string // dividend, buy, sell, deposit, withdrawal, or empty
	Amount      decimal.Decimal
	HoldingName string
	ISIN        string
	Quantity    decimal.Decimal
}

// HasHoldingReference reports whether the entry references a concrete
// holding. Entries that do are market activity, never cashflows.
func (t Transaction) HasHoldingReference() bool {
	return t.HoldingName != "" || t.ISIN != "" || !t.Quantity.IsZero()
}

// Store holds snapshots and investment transactions. Both are append-only.
type Store struct {
	mu        sync.RWMutex
	snapshots []*Snapshot
	txns      []*Transaction
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{}
}

// AddSnapshot appends a snapshot, keeping the set ordered by
// (date, updated_at).
func (s *Store) AddSnapshot(snap Snapshot) (*Snapshot, error) {
	if snap.Date.IsZero() {
		return nil, fmt.Errorf("snapshot date is required")
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := snap
	stored.Holdings = slices.Clone(snap.Holdings)
	s.snapshots = append(s.snapshots, &stored)
	slices.SortStableFunc(s.snapshots, compareSnapshots)
	dup := stored
	return &dup, nil
}

// AddTransaction appends an investment transaction.
func (s *Store) AddTransaction(txn Transaction) (*Transaction, error) {
	if txn.Date.IsZero() {
		return nil, fmt.Errorf("transaction date is required")
	}
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := txn
	s.txns = append(s.txns, &stored)
	dup := stored
	return &dup, nil
}

// Snapshots returns copies of all snapshots in (date, updated_at) order.
func (s *Store) Snapshots() []*Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Snapshot, len(s.snapshots))
	for i, snap := range s.snapshots {
		dup := *snap
		dup.Holdings = slices.Clone(snap.Holdings)
		out[i] = &dup
	}
	return out
}

// Transactions returns copies of all investment transactions in date order.
func (s *Store) Transactions() []*Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Transaction, len(s.txns))
	for i, txn := range s.txns {
		dup := *txn
		out[i] = &dup
	}
	slices.SortStableFunc(out, func(a, b *Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Latest returns the most recent snapshot for an account, by date then
// update timestamp.
func (s *Store) Latest(accountID string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		if accountMatches(s.snapshots[i], accountID) {
			dup := *s.snapshots[i]
			dup.Holdings = slices.Clone(s.snapshots[i].Holdings)
			return &dup, true
		}
	}
	return nil, false
}

// Previous returns the snapshot preceding the latest one for an account.
func (s *Store) Previous(accountID string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := 0
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		if accountMatches(s.snapshots[i], accountID) {
			found++
			if found == 2 {
				dup := *s.snapshots[i]
				dup.Holdings = slices.Clone(s.snapshots[i].Holdings)
				return &dup, true
			}
		}
	}
	return nil, false
}

// NearestAtOrBefore returns the account's nearest snapshot not after t.
// Callers tolerate missing snapshots by using this instead of an exact
// window-start lookup.
func (s *Store) NearestAtOrBefore(accountID string, t time.Time) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		snap := s.snapshots[i]
		if accountMatches(snap, accountID) && !snap.Date.After(t) {
			dup := *snap
			dup.Holdings = slices.Clone(snap.Holdings)
			return &dup, true
		}
	}
	return nil, false
}

// TotalValueAt sums, across accounts, each account's nearest snapshot value
// at or before t. The second return is false when no account has any
// snapshot by then.
func (s *Store) TotalValueAt(t time.Time) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]decimal.Decimal)
	for _, snap := range s.snapshots {
		if snap.Date.After(t) {
			continue
		}
		// Snapshots are sorted ascending, so the last write wins.
		latest[snap.AccountID] = snap.Value
	}
	if len(latest) == 0 {
		return decimal.Zero, false
	}

	total := decimal.Zero
	for _, v := range latest {
		total = total.Add(v)
	}
	return total, true
}

func accountMatches(snap *Snapshot, accountID string) bool {
	return accountID == "" || snap.AccountID == accountID
}

func compareSnapshots(a, b *Snapshot) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
