package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"finledger/invest"
	"finledger/ledger"
)

func amt(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedStores(t *testing.T) (*ledger.Store, *invest.Store) {
	t.Helper()
	store := ledger.NewStore()

	checking, err := store.AddAccount(ledger.Account{Name: "Checking"})
	assert.NoError(t, err)
	external, err := store.AddAccount(ledger.Account{Name: "External"})
	assert.NoError(t, err)
	mortgage, err := store.AddAccount(ledger.Account{
		Name: "Mortgage",
		Type: ledger.AccountDebt,
		Loan: &ledger.Loan{
			OriginPrincipal:  amt("200000"),
			CurrentPrincipal: amt("198000"),
			AnnualRate:       amt("0.039"),
			Compounding:      "MONTHLY",
			MinimumPayment:   amt("950"),
		},
	})
	assert.NoError(t, err)

	groceries, err := store.AddCategory(ledger.Category{Name: "Groceries", Type: ledger.CategoryExpense})
	assert.NoError(t, err)
	old, err := store.AddCategory(ledger.Category{Name: "Old", Type: ledger.CategoryExpense})
	assert.NoError(t, err)

	txn, err := store.RecordTransaction(ledger.TransactionInput{
		Description: "Weekly shop",
		Notes:       "card",
		OccurredAt:  date("2024-03-04"),
		CategoryID:  groceries.ID,
		Legs: []ledger.LegInput{
			{AccountID: checking.ID, Amount: amt("-54.30")},
			{AccountID: external.ID, Amount: amt("54.30")},
		},
	})
	assert.NoError(t, err)

	_, err = store.RecordTransaction(ledger.TransactionInput{
		Description: "Outdated spend",
		OccurredAt:  date("2024-02-01"),
		CategoryID:  old.ID,
		Legs: []ledger.LegInput{
			{AccountID: checking.ID, Amount: amt("-10")},
			{AccountID: external.ID, Amount: amt("10")},
		},
	})
	assert.NoError(t, err)

	_, err = store.AddBudget(ledger.Budget{CategoryID: groceries.ID, Amount: amt("400")})
	assert.NoError(t, err)
	_, err = store.AddSubscription(ledger.Subscription{
		Name:            "Music",
		MatcherText:     "spotify",
		TypicalAmount:   amt("9.99"),
		AmountTolerance: amt("1"),
		DayOfMonth:      3,
		CategoryID:      groceries.ID,
	})
	assert.NoError(t, err)
	_, err = store.AddGoal(ledger.Goal{
		Name:         "Emergency fund",
		TargetAmount: amt("5000"),
		TargetDate:   date("2025-12-31"),
		AccountID:    checking.ID,
	})
	assert.NoError(t, err)
	_, err = store.AddLoanEvent(ledger.LoanEvent{
		AccountID:     mortgage.ID,
		Type:          ledger.LoanEventPaymentPrincipal,
		Amount:        amt("500"),
		OccurredAt:    date("2024-03-01"),
		TransactionID: txn.ID,
	})
	assert.NoError(t, err)

	assert.NoError(t, store.ArchiveCategory(old.ID))

	snapshots := invest.NewStore()
	_, err = snapshots.AddSnapshot(invest.Snapshot{
		AccountID: "broker",
		Date:      date("2024-03-01"),
		Value:     amt("1500"),
		Holdings: []invest.Holding{
			{Name: "World ETF", ISIN: "IE00B4L5Y983", Quantity: amt("12"), Value: amt("1500")},
		},
	})
	assert.NoError(t, err)
	_, err = snapshots.AddTransaction(invest.Transaction{
		AccountID:   "broker",
		Date:        date("2024-02-15"),
		Description: "Monthly deposit",
		Type:        "deposit",
		Amount:      amt("250"),
	})
	assert.NoError(t, err)

	return store, snapshots
}

func TestSaveAndLoadDataset_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finledger.db"))
	assert.NoError(t, err)
	defer repo.Close()

	store, snapshots := seedStores(t)
	assert.NoError(t, repo.SaveDataset(ctx, store, snapshots))

	loadedStore, loadedSnapshots, err := repo.LoadDataset(ctx)
	assert.NoError(t, err)

	accounts := loadedStore.Accounts()
	assert.Equal(t, 3, len(accounts))
	assert.Equal(t, "Checking", accounts[0].Name)
	assert.Equal(t, ledger.AccountDebt, accounts[2].Type)
	assert.True(t, accounts[2].Loan != nil)
	assert.True(t, accounts[2].Loan.CurrentPrincipal.Equal(amt("198000")))
	assert.Equal(t, "MONTHLY", accounts[2].Loan.Compounding)

	categories := loadedStore.Categories()
	assert.Equal(t, 2, len(categories))
	assert.False(t, categories[0].Archived)
	assert.True(t, categories[1].Archived)

	txns := loadedStore.Transactions()
	assert.Equal(t, 2, len(txns))
	var shop *ledger.Transaction
	for _, txn := range txns {
		if txn.Description == "Weekly shop" {
			shop = txn
		}
	}
	assert.True(t, shop != nil)
	assert.Equal(t, "card", shop.Notes)
	assert.Equal(t, categories[0].ID, shop.CategoryID)
	assert.Equal(t, 2, len(shop.Legs))
	assert.True(t, shop.Legs[0].Amount.Equal(amt("-54.30")))
	assert.True(t, shop.LegSum().IsZero())

	// Balances are derived identically from the reloaded legs.
	balance, err := loadedStore.BalanceAsOf(accounts[0].ID, date("2024-12-31"))
	assert.NoError(t, err)
	assert.Equal(t, "-64.30", ledger.FormatAmount(balance))

	budgets := loadedStore.Budgets()
	assert.Equal(t, 1, len(budgets))
	assert.Equal(t, ledger.BudgetMonthly, budgets[0].Period)
	assert.True(t, budgets[0].Amount.Equal(amt("400")))

	subs := loadedStore.Subscriptions()
	assert.Equal(t, 1, len(subs))
	assert.Equal(t, "Music", subs[0].Name)
	assert.Equal(t, 3, subs[0].DayOfMonth)
	assert.True(t, subs[0].Active)

	goals := loadedStore.Goals()
	assert.Equal(t, 1, len(goals))
	assert.True(t, goals[0].TargetAmount.Equal(amt("5000")))
	assert.Equal(t, accounts[0].ID, goals[0].AccountID)

	events := loadedStore.LoanEvents()
	assert.Equal(t, 1, len(events))
	assert.Equal(t, accounts[2].ID, events[0].AccountID)
	// The referenced transaction id was remapped to the reloaded one.
	assert.Equal(t, shop.ID, events[0].TransactionID)

	snaps := loadedSnapshots.Snapshots()
	assert.Equal(t, 1, len(snaps))
	assert.True(t, snaps[0].Value.Equal(amt("1500")))
	assert.Equal(t, 1, len(snaps[0].Holdings))
	assert.Equal(t, "World ETF", snaps[0].Holdings[0].Name)
	assert.True(t, snaps[0].Holdings[0].Quantity.Equal(amt("12")))

	investTxns := loadedSnapshots.Transactions()
	assert.Equal(t, 1, len(investTxns))
	assert.Equal(t, "deposit", investTxns[0].Type)
	assert.True(t, investTxns[0].Amount.Equal(amt("250")))
}

func TestSaveDataset_ReplacesPreviousContents(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finledger.db"))
	assert.NoError(t, err)
	defer repo.Close()

	store, snapshots := seedStores(t)
	assert.NoError(t, repo.SaveDataset(ctx, store, snapshots))

	small := ledger.NewStore()
	_, err = small.AddAccount(ledger.Account{Name: "Only"})
	assert.NoError(t, err)
	assert.NoError(t, repo.SaveDataset(ctx, small, invest.NewStore()))

	loaded, loadedSnaps, err := repo.LoadDataset(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(loaded.Accounts()))
	assert.Equal(t, 0, len(loaded.Transactions()))
	assert.Equal(t, 0, len(loadedSnaps.Snapshots()))
}

func TestLoadDataset_EmptyDatabase(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finledger.db"))
	assert.NoError(t, err)
	defer repo.Close()

	store, snapshots, err := repo.LoadDataset(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(store.Accounts()))
	assert.Equal(t, 0, len(snapshots.Snapshots()))
}

func TestNewSQLiteRepository_CreatesParentDirectory(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewSQLiteRepository(filepath.Join(dir, "nested", "deep", "finledger.db"))
	assert.NoError(t, err)
	assert.NoError(t, repo.Close())
}
