package ledger

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newTestStore returns a store with two normal accounts and an income and
// expense category.
func newTestStore(t *testing.T) (*Store, *Account, *Account, *Category, *Category) {
	t.Helper()
	s := NewStore()

	checking, err := s.AddAccount(Account{Name: "Checking"})
	assert.NoError(t, err)
	savings, err := s.AddAccount(Account{Name: "Savings"})
	assert.NoError(t, err)

	salary, err := s.AddCategory(Category{Name: "Salary", Type: CategoryIncome})
	assert.NoError(t, err)
	groceries, err := s.AddCategory(Category{Name: "Groceries", Type: CategoryExpense})
	assert.NoError(t, err)

	return s, checking, savings, salary, groceries
}

func TestRecordTransaction_BalancedLegs(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)

	txn, err := s.RecordTransaction(TransactionInput{
		Description: "Transfer to savings",
		OccurredAt:  date("2024-03-01"),
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("-100.00")},
			{AccountID: savings.ID, Amount: amt("100.00")},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(txn.Legs))
	assert.True(t, txn.LegSum().IsZero())
	assert.Equal(t, txn.PostedAt, txn.OccurredAt)
}

func TestRecordTransaction_UnbalancedLegsRejected(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)

	_, err := s.RecordTransaction(TransactionInput{
		Description: "Off by a cent",
		OccurredAt:  date("2024-03-01"),
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("-100.00")},
			{AccountID: savings.ID, Amount: amt("99.99")},
		},
	})

	var unbalanced *UnbalancedLegsError
	assert.True(t, asErr(err, &unbalanced))
	assert.Equal(t, "-0.01", unbalanced.Residual.String())

	// Rejected write must have no effect.
	assert.Equal(t, 0, len(s.Transactions()))
}

func TestRecordTransaction_InsufficientLegs(t *testing.T) {
	s, checking, _, _, _ := newTestStore(t)

	_, err := s.RecordTransaction(TransactionInput{
		Description: "Lonely leg",
		OccurredAt:  date("2024-03-01"),
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("10.00")},
		},
	})

	var insufficient *InsufficientLegsError
	assert.True(t, asErr(err, &insufficient))
	assert.Equal(t, 1, insufficient.LegCount)
}

func TestRecordTransaction_UnknownAccount(t *testing.T) {
	s, checking, _, _, _ := newTestStore(t)

	_, err := s.RecordTransaction(TransactionInput{
		Description: "Phantom account",
		OccurredAt:  date("2024-03-01"),
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("-5.00")},
			{AccountID: "nope", Amount: amt("5.00")},
		},
	})

	var unknown *UnknownAccountError
	assert.True(t, asErr(err, &unknown))
	assert.Equal(t, "nope", unknown.AccountID)
}

func TestRecordTransaction_ArchivedAccountRejected(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)
	assert.NoError(t, s.ArchiveAccount(savings.ID))

	_, err := s.RecordTransaction(TransactionInput{
		Description: "To archived",
		OccurredAt:  date("2024-03-01"),
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("-5.00")},
			{AccountID: savings.ID, Amount: amt("5.00")},
		},
	})

	var unknown *UnknownAccountError
	assert.True(t, asErr(err, &unknown))
	assert.True(t, unknown.Archived)
}

func TestRecordTransaction_SubMinorUnitPrecisionRejected(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)

	_, err := s.RecordTransaction(TransactionInput{
		Description: "Fractional cent",
		OccurredAt:  date("2024-03-01"),
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("-10.005")},
			{AccountID: savings.ID, Amount: amt("10.005")},
		},
	})

	var invalid *InvalidAmountError
	assert.True(t, asErr(err, &invalid))
}

func TestRecordTransaction_UnknownCategory(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)

	_, err := s.RecordTransaction(TransactionInput{
		Description: "Bad category",
		OccurredAt:  date("2024-03-01"),
		CategoryID:  "missing",
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("-5.00")},
			{AccountID: savings.ID, Amount: amt("5.00")},
		},
	})

	var unknown *UnknownCategoryError
	assert.True(t, asErr(err, &unknown))
}

func TestUpdateTransactionMetadata_LegsUntouched(t *testing.T) {
	s, checking, savings, salary, _ := newTestStore(t)

	txn, err := s.RecordTransaction(TransactionInput{
		Description: "Initial",
		OccurredAt:  date("2024-03-01"),
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("-25.00")},
			{AccountID: savings.ID, Amount: amt("25.00")},
		},
	})
	assert.NoError(t, err)

	desc := "Renamed"
	updated, err := s.UpdateTransactionMetadata(txn.ID, MetadataUpdate{
		Description: &desc,
		CategoryID:  &salary.ID,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Description)
	assert.Equal(t, salary.ID, updated.CategoryID)
	assert.Equal(t, txn.Legs[0].ID, updated.Legs[0].ID)
	assert.Equal(t, txn.Legs[1].Amount.String(), updated.Legs[1].Amount.String())
}

func TestReplaceTransactionLegs_Atomic(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)

	txn, err := s.RecordTransaction(TransactionInput{
		Description: "Split later",
		OccurredAt:  date("2024-03-01"),
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("-30.00")},
			{AccountID: savings.ID, Amount: amt("30.00")},
		},
	})
	assert.NoError(t, err)

	// Unbalanced replacement must leave the old legs in place.
	_, err = s.ReplaceTransactionLegs(txn.ID, []LegInput{
		{AccountID: checking.ID, Amount: amt("-30.00")},
		{AccountID: savings.ID, Amount: amt("29.00")},
	})
	var unbalanced *UnbalancedLegsError
	assert.True(t, asErr(err, &unbalanced))

	current, ok := s.Transaction(txn.ID)
	assert.True(t, ok)
	assert.Equal(t, "30", current.Legs[1].Amount.String())

	// A balanced replacement swaps the whole set.
	replaced, err := s.ReplaceTransactionLegs(txn.ID, []LegInput{
		{AccountID: checking.ID, Amount: amt("-30.00")},
		{AccountID: savings.ID, Amount: amt("20.00")},
		{AccountID: savings.ID, Amount: amt("10.00")},
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, len(replaced.Legs))
	assert.True(t, replaced.LegSum().IsZero())
}

func TestChangeEvents_EmittedAfterCommit(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)

	var events []ChangeEvent
	s.Subscribe(func(ev ChangeEvent) {
		events = append(events, ev)
	})

	txn, err := s.RecordTransaction(TransactionInput{
		Description: "Watched",
		OccurredAt:  date("2024-03-01"),
		Legs: []LegInput{
			{AccountID: checking.ID, Amount: amt("-1.00")},
			{AccountID: savings.ID, Amount: amt("1.00")},
		},
	})
	assert.NoError(t, err)

	desc := "Watched again"
	_, err = s.UpdateTransactionMetadata(txn.ID, MetadataUpdate{Description: &desc})
	assert.NoError(t, err)

	assert.Equal(t, 2, len(events))
	assert.Equal(t, ChangeTransactionRecorded, events[0].Kind)
	assert.Equal(t, txn.ID, events[0].TransactionID)
	assert.Equal(t, ChangeTransactionUpdated, events[1].Kind)
}

func TestTransactions_StableOrder(t *testing.T) {
	s, checking, savings, _, _ := newTestStore(t)

	// Record out of chronological order.
	for _, day := range []string{"2024-03-05", "2024-03-01", "2024-03-03"} {
		_, err := s.RecordTransaction(TransactionInput{
			Description: day,
			OccurredAt:  date(day),
			Legs: []LegInput{
				{AccountID: checking.ID, Amount: amt("-1.00")},
				{AccountID: savings.ID, Amount: amt("1.00")},
			},
		})
		assert.NoError(t, err)
	}

	txns := s.Transactions()
	assert.Equal(t, "2024-03-01", txns[0].Description)
	assert.Equal(t, "2024-03-03", txns[1].Description)
	assert.Equal(t, "2024-03-05", txns[2].Description)
}

func TestAddBudget_RequiresCategory(t *testing.T) {
	s, _, _, _, groceries := newTestStore(t)

	_, err := s.AddBudget(Budget{CategoryID: "missing", Amount: amt("100.00")})
	var unknown *UnknownCategoryError
	assert.True(t, asErr(err, &unknown))

	b, err := s.AddBudget(Budget{CategoryID: groceries.ID, Amount: amt("100.00")})
	assert.NoError(t, err)
	assert.NotEqual(t, "", b.ID)
}

func TestAddLoanEvent_DebtAccountsOnly(t *testing.T) {
	s, checking, _, _, _ := newTestStore(t)

	mortgage, err := s.AddAccount(Account{
		Name: "Mortgage",
		Type: AccountDebt,
		Loan: &Loan{OriginPrincipal: amt("250000.00"), AnnualRate: amt("0.035")},
	})
	assert.NoError(t, err)

	_, err = s.AddLoanEvent(LoanEvent{AccountID: checking.ID, Type: LoanEventInterestAccrual, Amount: amt("10.00")})
	assert.Error(t, err)

	ev, err := s.AddLoanEvent(LoanEvent{
		AccountID:  mortgage.ID,
		Type:       LoanEventPaymentPrincipal,
		Amount:     amt("600.00"),
		OccurredAt: date("2024-03-01"),
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(s.LoanEvents()))
	assert.Equal(t, "PAYMENT_PRINCIPAL", ev.Type.String())
}
