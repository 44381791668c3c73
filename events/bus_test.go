package events

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"finledger/ledger"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus()
	a, cancelA := bus.Subscribe()
	b, cancelB := bus.Subscribe()
	defer cancelA()
	defer cancelB()

	ev := ledger.ChangeEvent{Kind: ledger.ChangeTransactionRecorded, TransactionID: "t1"}
	bus.Publish(ev)

	assert.Equal(t, ev, <-a)
	assert.Equal(t, ev, <-b)
}

func TestBus_CancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	cancel()
	cancel() // safe to call twice

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic or deliver.
	bus.Publish(ledger.ChangeEvent{Kind: ledger.ChangeTransactionUpdated})
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	for i := 0; i < 100; i++ {
		bus.Publish(ledger.ChangeEvent{Kind: ledger.ChangeTransactionRecorded})
	}

	// The buffer holds a bounded number of events; the rest were dropped
	// and Publish returned without blocking.
	assert.Equal(t, 16, len(ch))
}

func TestBus_AttachedToStore(t *testing.T) {
	store := ledger.NewStore()
	checking, err := store.AddAccount(ledger.Account{Name: "Checking"})
	assert.NoError(t, err)
	savings, err := store.AddAccount(ledger.Account{Name: "Savings"})
	assert.NoError(t, err)

	bus := NewBus()
	bus.Attach(store)
	ch, cancel := bus.Subscribe()
	defer cancel()

	txn, err := store.RecordTransaction(ledger.TransactionInput{
		Description: "Move to savings",
		OccurredAt:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Legs: []ledger.LegInput{
			{AccountID: checking.ID, Amount: decimal.NewFromInt(-100)},
			{AccountID: savings.ID, Amount: decimal.NewFromInt(100)},
		},
	})
	assert.NoError(t, err)

	got := <-ch
	assert.Equal(t, ledger.ChangeTransactionRecorded, got.Kind)
	assert.Equal(t, txn.ID, got.TransactionID)
}

func TestLedgerEventMessage_RoundTrip(t *testing.T) {
	ev := ledger.ChangeEvent{
		Kind:          ledger.ChangeLegsReplaced,
		TransactionID: "t42",
		OccurredAt:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	body, err := NewLedgerEventMessage(ev).ToJSON()
	assert.NoError(t, err)

	msg, err := LedgerEventMessageFromJSON(body)
	assert.NoError(t, err)
	assert.Equal(t, "transaction.legs_replaced", msg.Kind)
	assert.Equal(t, "t42", msg.TransactionID)
	assert.True(t, msg.OccurredAt.Equal(ev.OccurredAt))
}
