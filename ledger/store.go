// Package ledger implements a double-entry transaction ledger with a strict
// zero-sum leg invariant, and the balance engine that derives account
// balances from it.
//
// The store is the single source of truth for accounts, categories and
// transactions. Writes are validated as a whole and committed atomically;
// a rejected write has no effect. Reads return deep copies, so report
// computations never observe a partially written transaction.
//
// Example usage:
//
//	store := ledger.NewStore()
//	checking, _ := store.AddAccount(ledger.Account{Name: "Checking"})
//	savings, _ := store.AddAccount(ledger.Account{Name: "Savings"})
//
//	_, err := store.RecordTransaction(ledger.TransactionInput{
//	    Description: "Monthly saving",
//	    OccurredAt:  time.Now(),
//	    Legs: []ledger.LegInput{
//	        {AccountID: checking.ID, Amount: decimal.NewFromInt(-100)},
//	        {AccountID: savings.ID, Amount: decimal.NewFromInt(100)},
//	    },
//	})
package ledger

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChangeKind tags a change event emitted by the store.
type ChangeKind int

const (
	ChangeTransactionRecorded ChangeKind = iota
	ChangeTransactionUpdated
	ChangeLegsReplaced
)

// String returns the string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeTransactionRecorded:
		return "transaction.recorded"
	case ChangeTransactionUpdated:
		return "transaction.updated"
	case ChangeLegsReplaced:
		return "transaction.legs_replaced"
	default:
		return "unknown"
	}
}

// ChangeEvent is emitted after a successful write, once the new state is
// visible. Consumers use it to invalidate derived balances or to notify
// external systems.
type ChangeEvent struct {
	Kind          ChangeKind
	TransactionID string
	OccurredAt    time.Time
}

// Store holds the ledger state. All writes go through a single mutex so a
// transaction's legs are committed together or not at all; concurrent report
// reads see a consistent snapshot.
type Store struct {
	mu            sync.RWMutex
	accounts      map[string]*Account
	accountOrder  []string
	categories    map[string]*Category
	categoryOrder []string
	transactions  []*Transaction
	txnByID       map[string]*Transaction
	budgets       []*Budget
	subscriptions []*Subscription
	goals         []*Goal
	loanEvents    []*LoanEvent

	subscribers []func(ChangeEvent)
}

// NewStore creates an empty ledger store.
func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]*Account),
		categories: make(map[string]*Category),
		txnByID:    make(map[string]*Transaction),
	}
}

// Subscribe registers a callback invoked after every committed write. The
// callback runs outside the store lock and must not block for long.
func (s *Store) Subscribe(fn func(ChangeEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) emit(ev ChangeEvent) {
	s.mu.RLock()
	subs := slices.Clone(s.subscribers)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// AddAccount registers an account. A missing ID is generated; the active
// flag defaults to true for new accounts.
func (s *Store) AddAccount(a Account) (*Account, error) {
	if a.Name == "" {
		return nil, fmt.Errorf("account name is required")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
		a.Active = true
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; ok {
		return nil, fmt.Errorf("account %q already exists", a.ID)
	}
	stored := a
	s.accounts[a.ID] = &stored
	s.accountOrder = append(s.accountOrder, a.ID)
	dup := stored
	return &dup, nil
}

// ArchiveAccount soft-archives an account. Referenced accounts are never
// deleted; their legs stay part of the ledger history.
func (s *Store) ArchiveAccount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return NewUnknownAccountError(id)
	}
	a.Active = false
	return nil
}

// Account returns a copy of the account with the given id.
func (s *Store) Account(id string) (*Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, false
	}
	dup := *a
	return &dup, true
}

// Accounts returns copies of all accounts in insertion order.
func (s *Store) Accounts() []*Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Account, 0, len(s.accountOrder))
	for _, id := range s.accountOrder {
		dup := *s.accounts[id]
		out = append(out, &dup)
	}
	return out
}

// AddCategory registers a category. A missing ID is generated.
func (s *Store) AddCategory(c Category) (*Category, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("category name is required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; ok {
		return nil, fmt.Errorf("category %q already exists", c.ID)
	}
	stored := c
	s.categories[c.ID] = &stored
	s.categoryOrder = append(s.categoryOrder, c.ID)
	dup := stored
	return &dup, nil
}

// ArchiveCategory soft-archives a category. Transactions keep their
// reference; new writes may no longer use it.
func (s *Store) ArchiveCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return NewUnknownCategoryError(id)
	}
	c.Archived = true
	return nil
}

// Category returns a copy of the category with the given id.
func (s *Store) Category(id string) (*Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, false
	}
	dup := *c
	return &dup, true
}

// Categories returns copies of all categories in insertion order.
func (s *Store) Categories() []*Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Category, 0, len(s.categoryOrder))
	for _, id := range s.categoryOrder {
		dup := *s.categories[id]
		out = append(out, &dup)
	}
	return out
}

// RecordTransaction validates and commits a transaction with all its legs.
// It fails with InsufficientLegsError for fewer than two legs, with
// UnknownAccountError when a leg references a missing or archived account,
// with UnknownCategoryError for a bad category reference, and with
// UnbalancedLegsError when the legs do not sum to exactly zero at minor-unit
// precision. On failure the store is unchanged.
func (s *Store) RecordTransaction(input TransactionInput) (*Transaction, error) {
	s.mu.Lock()
	txn, err := s.recordLocked(input)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.emit(ChangeEvent{
		Kind:          ChangeTransactionRecorded,
		TransactionID: txn.ID,
		OccurredAt:    txn.OccurredAt,
	})
	return txn.Copy(), nil
}

func (s *Store) recordLocked(input TransactionInput) (*Transaction, error) {
	legs, err := s.validateLegs(input)
	if err != nil {
		return nil, err
	}
	if err := s.validateCategory(input.CategoryID); err != nil {
		return nil, err
	}

	posted := input.PostedAt
	if posted.IsZero() {
		posted = input.OccurredAt
	}

	txn := &Transaction{
		ID:             uuid.NewString(),
		Description:    input.Description,
		Notes:          input.Notes,
		OccurredAt:     input.OccurredAt,
		PostedAt:       posted,
		CategoryID:     input.CategoryID,
		SubscriptionID: input.SubscriptionID,
		Legs:           legs,
		CreatedAt:      time.Now().UTC(),
	}

	s.transactions = append(s.transactions, txn)
	s.txnByID[txn.ID] = txn
	return txn, nil
}

// validateLegs checks the whole leg set and materializes legs with fresh ids.
// Caller must hold the write lock.
func (s *Store) validateLegs(input TransactionInput) ([]*Leg, error) {
	if len(input.Legs) < 2 {
		return nil, NewInsufficientLegsError(input)
	}

	sum := decimal.Zero
	legs := make([]*Leg, 0, len(input.Legs))
	for _, in := range input.Legs {
		account, ok := s.accounts[in.AccountID]
		if !ok {
			return nil, NewUnknownAccountError(in.AccountID)
		}
		if !account.Active {
			return nil, NewArchivedAccountError(in.AccountID)
		}
		if !ValidAmount(in.Amount) {
			return nil, NewInvalidAmountError(in.AccountID, in.Amount)
		}
		sum = sum.Add(in.Amount)
		legs = append(legs, &Leg{
			ID:        uuid.NewString(),
			AccountID: in.AccountID,
			Amount:    in.Amount,
		})
	}

	if !sum.IsZero() {
		return nil, NewUnbalancedLegsError(input, sum)
	}
	return legs, nil
}

// validateCategory checks an optional category reference. Caller must hold
// the lock.
func (s *Store) validateCategory(id string) error {
	if id == "" {
		return nil
	}
	c, ok := s.categories[id]
	if !ok {
		return NewUnknownCategoryError(id)
	}
	if c.Archived {
		return NewArchivedCategoryError(id)
	}
	return nil
}

// UpdateTransactionMetadata mutates description, notes and category of a
// transaction without touching its legs.
func (s *Store) UpdateTransactionMetadata(id string, update MetadataUpdate) (*Transaction, error) {
	s.mu.Lock()
	txn, ok := s.txnByID[id]
	if !ok {
		s.mu.Unlock()
		return nil, NewUnknownTransactionError(id)
	}
	if update.CategoryID != nil {
		if err := s.validateCategory(*update.CategoryID); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		txn.CategoryID = *update.CategoryID
	}
	if update.Description != nil {
		txn.Description = *update.Description
	}
	if update.Notes != nil {
		txn.Notes = *update.Notes
	}
	dup := txn.Copy()
	s.mu.Unlock()

	s.emit(ChangeEvent{
		Kind:          ChangeTransactionUpdated,
		TransactionID: dup.ID,
		OccurredAt:    dup.OccurredAt,
	})
	return dup, nil
}

// ReplaceTransactionLegs swaps the complete leg set of a transaction,
// guarded by the same validation as RecordTransaction. Legs are never
// mutated independently.
func (s *Store) ReplaceTransactionLegs(id string, legs []LegInput) (*Transaction, error) {
	s.mu.Lock()
	txn, ok := s.txnByID[id]
	if !ok {
		s.mu.Unlock()
		return nil, NewUnknownTransactionError(id)
	}

	input := TransactionInput{
		Description: txn.Description,
		OccurredAt:  txn.OccurredAt,
		Legs:        legs,
	}
	validated, err := s.validateLegs(input)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	txn.Legs = validated
	dup := txn.Copy()
	s.mu.Unlock()

	s.emit(ChangeEvent{
		Kind:          ChangeLegsReplaced,
		TransactionID: dup.ID,
		OccurredAt:    dup.OccurredAt,
	})
	return dup, nil
}

// Transaction returns a copy of the transaction with the given id.
func (s *Store) Transaction(id string) (*Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.txnByID[id]
	if !ok {
		return nil, false
	}
	return txn.Copy(), true
}

// Transactions returns copies of all transactions in stable
// (occurred_at, created_at, id) order.
func (s *Store) Transactions() []*Transaction {
	s.mu.RLock()
	out := make([]*Transaction, len(s.transactions))
	for i, txn := range s.transactions {
		out[i] = txn.Copy()
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, CompareTransactions)
	return out
}

// AddBudget registers a budget for a category.
func (s *Store) AddBudget(b Budget) (*Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateCategory(b.CategoryID); err != nil {
		return nil, err
	}
	if b.CategoryID == "" {
		return nil, NewUnknownCategoryError("")
	}
	stored := b
	s.budgets = append(s.budgets, &stored)
	dup := stored
	return &dup, nil
}

// Budgets returns copies of all budgets in creation order.
func (s *Store) Budgets() []*Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Budget, len(s.budgets))
	for i, b := range s.budgets {
		dup := *b
		out[i] = &dup
	}
	return out
}

// AddSubscription registers a recurring-charge matcher.
func (s *Store) AddSubscription(sub Subscription) (*Subscription, error) {
	if sub.MatcherText == "" {
		return nil, fmt.Errorf("subscription matcher text is required")
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
		sub.Active = true
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := sub
	s.subscriptions = append(s.subscriptions, &stored)
	dup := stored
	return &dup, nil
}

// Subscriptions returns copies of all subscriptions in creation order. The
// order is what makes first-match-wins deterministic.
func (s *Store) Subscriptions() []*Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Subscription, len(s.subscriptions))
	for i, sub := range s.subscriptions {
		dup := *sub
		out[i] = &dup
	}
	return out
}

// AddGoal registers a savings goal.
func (s *Store) AddGoal(g Goal) (*Goal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := g
	s.goals = append(s.goals, &stored)
	dup := stored
	return &dup, nil
}

// Goals returns copies of all goals in creation order.
func (s *Store) Goals() []*Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Goal, len(s.goals))
	for i, g := range s.goals {
		dup := *g
		out[i] = &dup
	}
	return out
}

// AddLoanEvent appends a loan fact for a DEBT account.
func (s *Store) AddLoanEvent(ev LoanEvent) (*LoanEvent, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[ev.AccountID]
	if !ok {
		return nil, NewUnknownAccountError(ev.AccountID)
	}
	if account.Type != AccountDebt {
		return nil, fmt.Errorf("account %q is not a DEBT account", ev.AccountID)
	}
	stored := ev
	s.loanEvents = append(s.loanEvents, &stored)
	dup := stored
	return &dup, nil
}

// LoanEvents returns copies of all loan events in append order.
func (s *Store) LoanEvents() []*LoanEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*LoanEvent, len(s.loanEvents))
	for i, ev := range s.loanEvents {
		dup := *ev
		out[i] = &dup
	}
	return out
}
