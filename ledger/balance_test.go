package ledger

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestBalanceAsOf_IgnoresLaterTransactions(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)

	for _, tc := range []struct{ day, amount string }{
		{"2024-01-10", "100.00"},
		{"2024-02-10", "50.00"},
		{"2024-03-10", "25.00"},
	} {
		_, err := s.RecordTransaction(TransactionInput{
			Description: "Deposit",
			OccurredAt:  date(tc.day),
			Legs: []LegInput{
				{AccountID: checking.ID, Amount: amt(tc.amount)},
				{AccountID: savings.ID, Amount: amt(tc.amount).Neg()},
			},
		})
		assert.NoError(t, err)
	}

	balance, err := s.BalanceAsOf(checking.ID, date("2024-02-28"))
	assert.NoError(t, err)
	assert.Equal(t, "150", balance.String())

	balance, err = s.BalanceAsOf(checking.ID, date("2024-12-31"))
	assert.NoError(t, err)
	assert.Equal(t, "175", balance.String())

	_, err = s.BalanceAsOf("missing", date("2024-12-31"))
	var unknown *UnknownAccountError
	assert.True(t, asErr(err, &unknown))
}

func TestRunningBalance_DeterministicOnTies(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)

	// Same occurred_at for all three; order must fall back to created_at
	// and then id, and stay identical across calls.
	for _, amount := range []string{"10.00", "-4.00", "1.00"} {
		_, err := s.RecordTransaction(TransactionInput{
			Description: amount,
			OccurredAt:  date("2024-05-01"),
			Legs: []LegInput{
				{AccountID: checking.ID, Amount: amt(amount)},
				{AccountID: savings.ID, Amount: amt(amount).Neg()},
			},
		})
		assert.NoError(t, err)
	}

	first, err := s.RunningBalance(checking.ID)
	assert.NoError(t, err)
	second, err := s.RunningBalance(checking.ID)
	assert.NoError(t, err)

	assert.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Transaction.ID, second[i].Transaction.ID)
		assert.Equal(t, first[i].Balance.String(), second[i].Balance.String())
	}
	assert.Equal(t, "7", first[len(first)-1].Balance.String())
}

func TestReconcile_FlagsGapAboveThreshold(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)

	_, err := s.RecordTransaction(TransactionInput{
		Description: "Opening",
		OccurredAt:  date("2024-01-01"),
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("500.00")},
			{AccountID: savings.ID, Amount: amt("-500.00")},
		},
	})
	assert.NoError(t, err)

	// Within threshold: no flag.
	rec, err := s.Reconcile(checking.ID, amt("500.01"), date("2024-06-01"), decimal.Zero)
	assert.NoError(t, err)
	assert.False(t, rec.NeedsReconciliation)
	assert.Equal(t, "0.01", rec.Gap.String())

	// Beyond threshold: flagged, gap is signed asserted minus computed.
	rec, err = s.Reconcile(checking.ID, amt("480.00"), date("2024-06-01"), decimal.Zero)
	assert.NoError(t, err)
	assert.True(t, rec.NeedsReconciliation)
	assert.Equal(t, "-20", rec.Gap.String())
}

func TestDailyDeltas_DenseSeries(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)

	invest, err := s.AddAccount(Account{Name: "Broker", Type: AccountInvestment})
	assert.NoError(t, err)
	_ = invest

	_, err = s.RecordTransaction(TransactionInput{
		Description: "Groceries",
		OccurredAt:  date("2024-04-02"),
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("-40.00")},
			{AccountID: savings.ID, Amount: amt("40.00")},
		},
	})
	assert.NoError(t, err)

	deltas := s.DailyDeltas([]string{checking.ID}, date("2024-04-01"), date("2024-04-03"))
	assert.Equal(t, 3, len(deltas))
	assert.Equal(t, "0", deltas[0].Delta.String())
	assert.Equal(t, "-40", deltas[1].Delta.String())
	assert.Equal(t, "0", deltas[2].Delta.String())
}
