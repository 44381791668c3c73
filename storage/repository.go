// Package storage persists a full ledger dataset to SQLite. The database is
// a durable mirror of the in-memory stores: SaveDataset replaces the stored
// dataset wholesale inside one transaction, LoadDataset rebuilds fresh
// stores by replaying every record through the same validation a live write
// goes through.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"finledger/invest"
	"finledger/ledger"
)

// SQLiteRepository owns a SQLite database holding one ledger dataset.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// runs pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveDataset replaces the stored dataset with the current contents of the
// stores. Either everything commits or nothing does.
func (r *SQLiteRepository) SaveDataset(ctx context.Context, store *ledger.Store, snapshots *invest.Store) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"investment_transactions", "holdings", "snapshots", "loan_events",
		"goals", "subscriptions", "budgets", "legs", "transactions",
		"categories", "accounts",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := saveAccounts(ctx, tx, store.Accounts()); err != nil {
		return err
	}
	if err := saveCategories(ctx, tx, store.Categories()); err != nil {
		return err
	}
	txns := store.Transactions()
	if err := saveTransactions(ctx, tx, txns); err != nil {
		return err
	}
	if err := saveBudgets(ctx, tx, store.Budgets()); err != nil {
		return err
	}
	if err := saveSubscriptions(ctx, tx, store.Subscriptions()); err != nil {
		return err
	}
	if err := saveGoals(ctx, tx, store.Goals()); err != nil {
		return err
	}
	if err := saveLoanEvents(ctx, tx, store.LoanEvents()); err != nil {
		return err
	}

	var snaps []*invest.Snapshot
	var investTxns []*invest.Transaction
	if snapshots != nil {
		snaps = snapshots.Snapshots()
		investTxns = snapshots.Transactions()
	}
	if err := saveSnapshots(ctx, tx, snaps); err != nil {
		return err
	}
	if err := saveInvestmentTransactions(ctx, tx, investTxns); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dataset: %w", err)
	}

	slog.InfoContext(ctx, "Dataset saved to SQLite",
		"transactions", len(txns),
		"snapshots", len(snaps))
	return nil
}

func saveAccounts(ctx context.Context, tx *sql.Tx, accounts []*ledger.Account) error {
	for _, a := range accounts {
		var origin, current, rate, compounding, minimum any
		if a.Loan != nil {
			origin = a.Loan.OriginPrincipal.String()
			current = a.Loan.CurrentPrincipal.String()
			rate = a.Loan.AnnualRate.String()
			compounding = a.Loan.Compounding
			minimum = a.Loan.MinimumPayment.String()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (id, name, type, active, loan_origin_principal,
				loan_current_principal, loan_annual_rate, loan_compounding,
				loan_minimum_payment, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Name, a.Type.String(), boolToInt(a.Active),
			origin, current, rate, compounding, minimum,
			a.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert account %q: %w", a.Name, err)
		}
	}
	return nil
}

func saveCategories(ctx context.Context, tx *sql.Tx, categories []*ledger.Category) error {
	for _, c := range categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, type, archived, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Type.String(), boolToInt(c.Archived),
			c.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert category %q: %w", c.Name, err)
		}
	}
	return nil
}

func saveTransactions(ctx context.Context, tx *sql.Tx, txns []*ledger.Transaction) error {
	for _, t := range txns {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, description, notes, occurred_at,
				posted_at, category_id, subscription_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Description, t.Notes,
			t.OccurredAt.UTC().Format(time.RFC3339Nano),
			t.PostedAt.UTC().Format(time.RFC3339Nano),
			nullable(t.CategoryID), nullable(t.SubscriptionID),
			t.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert transaction %q: %w", t.ID, err)
		}
		for i, leg := range t.Legs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO legs (id, transaction_id, position, account_id, amount)
				VALUES (?, ?, ?, ?, ?)`,
				leg.ID, t.ID, i, leg.AccountID, leg.Amount.String())
			if err != nil {
				return fmt.Errorf("insert leg %d of transaction %q: %w", i, t.ID, err)
			}
		}
	}
	return nil
}

func saveBudgets(ctx context.Context, tx *sql.Tx, budgets []*ledger.Budget) error {
	for _, b := range budgets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO budgets (id, category_id, period, amount, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			b.ID, b.CategoryID, b.Period.String(), b.Amount.String(),
			b.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert budget %q: %w", b.ID, err)
		}
	}
	return nil
}

func saveSubscriptions(ctx context.Context, tx *sql.Tx, subs []*ledger.Subscription) error {
	for _, s := range subs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO subscriptions (id, name, matcher_text, typical_amount,
				amount_tolerance, day_of_month, category_id, active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Name, s.MatcherText, s.TypicalAmount.String(),
			s.AmountTolerance.String(), s.DayOfMonth, nullable(s.CategoryID),
			boolToInt(s.Active), s.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert subscription %q: %w", s.Name, err)
		}
	}
	return nil
}

func saveGoals(ctx context.Context, tx *sql.Tx, goals []*ledger.Goal) error {
	for _, g := range goals {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO goals (id, name, target_amount, target_date,
				category_id, account_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.Name, g.TargetAmount.String(),
			g.TargetDate.UTC().Format(time.RFC3339Nano),
			nullable(g.CategoryID), nullable(g.AccountID),
			g.CreatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert goal %q: %w", g.Name, err)
		}
	}
	return nil
}

func saveLoanEvents(ctx context.Context, tx *sql.Tx, events []*ledger.LoanEvent) error {
	for _, ev := range events {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO loan_events (id, account_id, type, amount, occurred_at, transaction_id)
			VALUES (?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.AccountID, ev.Type.String(), ev.Amount.String(),
			ev.OccurredAt.UTC().Format(time.RFC3339Nano), nullable(ev.TransactionID))
		if err != nil {
			return fmt.Errorf("insert loan event %q: %w", ev.ID, err)
		}
	}
	return nil
}

func saveSnapshots(ctx context.Context, tx *sql.Tx, snaps []*invest.Snapshot) error {
	for _, s := range snaps {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (id, account_id, date, value, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.AccountID, s.Date.UTC().Format(time.RFC3339Nano),
			s.Value.String(), s.UpdatedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert snapshot %q: %w", s.ID, err)
		}
		for i, h := range s.Holdings {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO holdings (snapshot_id, position, name, isin, quantity, value)
				VALUES (?, ?, ?, ?, ?, ?)`,
				s.ID, i, h.Name, h.ISIN, h.Quantity.String(), h.Value.String())
			if err != nil {
				return fmt.Errorf("insert holding %d of snapshot %q: %w", i, s.ID, err)
			}
		}
	}
	return nil
}

func saveInvestmentTransactions(ctx context.Context, tx *sql.Tx, txns []*invest.Transaction) error {
	for _, t := range txns {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO investment_transactions (id, account_id, date, description,
				type, amount, holding_name, isin, quantity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.AccountID, t.Date.UTC().Format(time.RFC3339Nano),
			t.Description, t.Type, t.Amount.String(), t.HoldingName, t.ISIN,
			t.Quantity.String())
		if err != nil {
			return fmt.Errorf("insert investment transaction %q: %w", t.ID, err)
		}
	}
	return nil
}

// LoadDataset rebuilds fresh stores from the database. Records go through
// the stores' own validation, so a hand-edited database fails the same way
// a bad live write would. Transaction ids are regenerated by the store;
// loan events that referenced a stored transaction are remapped to the new
// id.
func (r *SQLiteRepository) LoadDataset(ctx context.Context) (*ledger.Store, *invest.Store, error) {
	store := ledger.NewStore()
	snapshots := invest.NewStore()

	inactiveAccounts, err := r.loadAccounts(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	archivedCategories, err := r.loadCategories(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	if err := r.loadSubscriptions(ctx, store); err != nil {
		return nil, nil, err
	}
	txnIDs, err := r.loadTransactions(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	if err := r.loadBudgets(ctx, store); err != nil {
		return nil, nil, err
	}
	if err := r.loadGoals(ctx, store); err != nil {
		return nil, nil, err
	}
	if err := r.loadLoanEvents(ctx, store, txnIDs); err != nil {
		return nil, nil, err
	}

	// Archive flags go on last: archived records reject new writes, and the
	// history above still references them.
	for _, id := range inactiveAccounts {
		if err := store.ArchiveAccount(id); err != nil {
			return nil, nil, fmt.Errorf("archive account %q: %w", id, err)
		}
	}
	for _, id := range archivedCategories {
		if err := store.ArchiveCategory(id); err != nil {
			return nil, nil, fmt.Errorf("archive category %q: %w", id, err)
		}
	}

	if err := r.loadSnapshots(ctx, snapshots); err != nil {
		return nil, nil, err
	}
	if err := r.loadInvestmentTransactions(ctx, snapshots); err != nil {
		return nil, nil, err
	}

	return store, snapshots, nil
}

func (r *SQLiteRepository) loadAccounts(ctx context.Context, store *ledger.Store) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, active, loan_origin_principal,
			loan_current_principal, loan_annual_rate, loan_compounding,
			loan_minimum_payment, created_at
		FROM accounts ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var inactive []string
	for rows.Next() {
		var (
			a                                        ledger.Account
			typ, createdAt                           string
			active                                   int
			origin, current, rate, compounding, minP sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &typ, &active, &origin, &current,
			&rate, &compounding, &minP, &createdAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.Type, err = ledger.ParseAccountType(typ); err != nil {
			return nil, fmt.Errorf("account %q: %w", a.Name, err)
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("account %q: %w", a.Name, err)
		}
		if origin.Valid {
			loan := &ledger.Loan{Compounding: compounding.String}
			if loan.OriginPrincipal, err = parseDecimal(origin.String); err != nil {
				return nil, fmt.Errorf("account %q loan: %w", a.Name, err)
			}
			if loan.CurrentPrincipal, err = parseDecimal(current.String); err != nil {
				return nil, fmt.Errorf("account %q loan: %w", a.Name, err)
			}
			if loan.AnnualRate, err = parseDecimal(rate.String); err != nil {
				return nil, fmt.Errorf("account %q loan: %w", a.Name, err)
			}
			if loan.MinimumPayment, err = parseDecimal(minP.String); err != nil {
				return nil, fmt.Errorf("account %q loan: %w", a.Name, err)
			}
			a.Loan = loan
		}
		a.Active = true
		if _, err := store.AddAccount(a); err != nil {
			return nil, fmt.Errorf("restore account %q: %w", a.Name, err)
		}
		if active == 0 {
			inactive = append(inactive, a.ID)
		}
	}
	return inactive, rows.Err()
}

func (r *SQLiteRepository) loadCategories(ctx context.Context, store *ledger.Store) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, archived, created_at FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var archived []string
	for rows.Next() {
		var (
			c              ledger.Category
			typ, createdAt string
			flag           int
		)
		if err := rows.Scan(&c.ID, &c.Name, &typ, &flag, &createdAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if c.Type, err = ledger.ParseCategoryType(typ); err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		if _, err := store.AddCategory(c); err != nil {
			return nil, fmt.Errorf("restore category %q: %w", c.Name, err)
		}
		if flag != 0 {
			archived = append(archived, c.ID)
		}
	}
	return archived, rows.Err()
}

func (r *SQLiteRepository) loadSubscriptions(ctx context.Context, store *ledger.Store) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, matcher_text, typical_amount, amount_tolerance,
			day_of_month, category_id, active, created_at
		FROM subscriptions ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s                           ledger.Subscription
			typical, tolerance, created string
			categoryID                  sql.NullString
			active                      int
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.MatcherText, &typical,
			&tolerance, &s.DayOfMonth, &categoryID, &active, &created); err != nil {
			return fmt.Errorf("scan subscription: %w", err)
		}
		if s.TypicalAmount, err = parseDecimal(typical); err != nil {
			return fmt.Errorf("subscription %q: %w", s.Name, err)
		}
		if s.AmountTolerance, err = parseDecimal(tolerance); err != nil {
			return fmt.Errorf("subscription %q: %w", s.Name, err)
		}
		if s.CreatedAt, err = parseTime(created); err != nil {
			return fmt.Errorf("subscription %q: %w", s.Name, err)
		}
		s.CategoryID = categoryID.String
		s.Active = active != 0
		if _, err := store.AddSubscription(s); err != nil {
			return fmt.Errorf("restore subscription %q: %w", s.Name, err)
		}
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadTransactions(ctx context.Context, store *ledger.Store) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, notes, occurred_at, posted_at, category_id,
			subscription_id
		FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	type storedTxn struct {
		id    string
		input ledger.TransactionInput
	}
	var txns []storedTxn
	for rows.Next() {
		var (
			st                       storedTxn
			occurred, posted         string
			categoryID, subscription sql.NullString
		)
		if err := rows.Scan(&st.id, &st.input.Description, &st.input.Notes,
			&occurred, &posted, &categoryID, &subscription); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if st.input.OccurredAt, err = parseTime(occurred); err != nil {
			rows.Close()
			return nil, fmt.Errorf("transaction %q: %w", st.id, err)
		}
		if st.input.PostedAt, err = parseTime(posted); err != nil {
			rows.Close()
			return nil, fmt.Errorf("transaction %q: %w", st.id, err)
		}
		st.input.CategoryID = categoryID.String
		st.input.SubscriptionID = subscription.String
		txns = append(txns, st)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	ids := make(map[string]string, len(txns))
	for i := range txns {
		legs, err := r.loadLegs(ctx, txns[i].id)
		if err != nil {
			return nil, err
		}
		txns[i].input.Legs = legs
		committed, err := store.RecordTransaction(txns[i].input)
		if err != nil {
			return nil, fmt.Errorf("restore transaction %q: %w", txns[i].id, err)
		}
		ids[txns[i].id] = committed.ID
	}
	return ids, nil
}

func (r *SQLiteRepository) loadLegs(ctx context.Context, txnID string) ([]ledger.LegInput, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT account_id, amount FROM legs
		WHERE transaction_id = ? ORDER BY position`, txnID)
	if err != nil {
		return nil, fmt.Errorf("query legs of %q: %w", txnID, err)
	}
	defer rows.Close()

	var legs []ledger.LegInput
	for rows.Next() {
		var (
			leg    ledger.LegInput
			amount string
		)
		if err := rows.Scan(&leg.AccountID, &amount); err != nil {
			return nil, fmt.Errorf("scan leg of %q: %w", txnID, err)
		}
		if leg.Amount, err = parseDecimal(amount); err != nil {
			return nil, fmt.Errorf("leg of %q: %w", txnID, err)
		}
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

func (r *SQLiteRepository) loadBudgets(ctx context.Context, store *ledger.Store) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category_id, period, amount, created_at FROM budgets ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			b                       ledger.Budget
			period, amount, created string
		)
		if err := rows.Scan(&b.ID, &b.CategoryID, &period, &amount, &created); err != nil {
			return fmt.Errorf("scan budget: %w", err)
		}
		if period == ledger.BudgetYearly.String() {
			b.Period = ledger.BudgetYearly
		}
		if b.Amount, err = parseDecimal(amount); err != nil {
			return fmt.Errorf("budget %q: %w", b.ID, err)
		}
		if b.CreatedAt, err = parseTime(created); err != nil {
			return fmt.Errorf("budget %q: %w", b.ID, err)
		}
		if _, err := store.AddBudget(b); err != nil {
			return fmt.Errorf("restore budget %q: %w", b.ID, err)
		}
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadGoals(ctx context.Context, store *ledger.Store) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, target_amount, target_date, category_id, account_id,
			created_at
		FROM goals ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			g                     ledger.Goal
			target, date, created string
			categoryID, accountID sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.Name, &target, &date, &categoryID,
			&accountID, &created); err != nil {
			return fmt.Errorf("scan goal: %w", err)
		}
		if g.TargetAmount, err = parseDecimal(target); err != nil {
			return fmt.Errorf("goal %q: %w", g.Name, err)
		}
		if g.TargetDate, err = parseTime(date); err != nil {
			return fmt.Errorf("goal %q: %w", g.Name, err)
		}
		if g.CreatedAt, err = parseTime(created); err != nil {
			return fmt.Errorf("goal %q: %w", g.Name, err)
		}
		g.CategoryID = categoryID.String
		g.AccountID = accountID.String
		if _, err := store.AddGoal(g); err != nil {
			return fmt.Errorf("restore goal %q: %w", g.Name, err)
		}
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadLoanEvents(ctx context.Context, store *ledger.Store, txnIDs map[string]string) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, type, amount, occurred_at, transaction_id
		FROM loan_events ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query loan events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ev                    ledger.LoanEvent
			typ, amount, occurred string
			txnID                 sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.AccountID, &typ, &amount, &occurred, &txnID); err != nil {
			return fmt.Errorf("scan loan event: %w", err)
		}
		if typ == ledger.LoanEventInterestAccrual.String() {
			ev.Type = ledger.LoanEventInterestAccrual
		}
		if ev.Amount, err = parseDecimal(amount); err != nil {
			return fmt.Errorf("loan event %q: %w", ev.ID, err)
		}
		if ev.OccurredAt, err = parseTime(occurred); err != nil {
			return fmt.Errorf("loan event %q: %w", ev.ID, err)
		}
		ev.TransactionID = txnIDs[txnID.String]
		if _, err := store.AddLoanEvent(ev); err != nil {
			return fmt.Errorf("restore loan event %q: %w", ev.ID, err)
		}
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadSnapshots(ctx context.Context, snapshots *invest.Store) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, date, value, updated_at FROM snapshots ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query snapshots: %w", err)
	}

	var snaps []invest.Snapshot
	for rows.Next() {
		var (
			s                    invest.Snapshot
			date, value, updated string
		)
		if err := rows.Scan(&s.ID, &s.AccountID, &date, &value, &updated); err != nil {
			rows.Close()
			return fmt.Errorf("scan snapshot: %w", err)
		}
		if s.Date, err = parseTime(date); err != nil {
			rows.Close()
			return fmt.Errorf("snapshot %q: %w", s.ID, err)
		}
		if s.Value, err = parseDecimal(value); err != nil {
			rows.Close()
			return fmt.Errorf("snapshot %q: %w", s.ID, err)
		}
		if s.UpdatedAt, err = parseTime(updated); err != nil {
			rows.Close()
			return fmt.Errorf("snapshot %q: %w", s.ID, err)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for i := range snaps {
		holdings, err := r.loadHoldings(ctx, snaps[i].ID)
		if err != nil {
			return err
		}
		snaps[i].Holdings = holdings
		if _, err := snapshots.AddSnapshot(snaps[i]); err != nil {
			return fmt.Errorf("restore snapshot %q: %w", snaps[i].ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) loadHoldings(ctx context.Context, snapshotID string) ([]invest.Holding, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, isin, quantity, value FROM holdings
		WHERE snapshot_id = ? ORDER BY position`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query holdings of %q: %w", snapshotID, err)
	}
	defer rows.Close()

	var holdings []invest.Holding
	for rows.Next() {
		var (
			h               invest.Holding
			quantity, value string
		)
		if err := rows.Scan(&h.Name, &h.ISIN, &quantity, &value); err != nil {
			return nil, fmt.Errorf("scan holding of %q: %w", snapshotID, err)
		}
		if h.Quantity, err = parseDecimal(quantity); err != nil {
			return nil, fmt.Errorf("holding of %q: %w", snapshotID, err)
		}
		if h.Value, err = parseDecimal(value); err != nil {
			return nil, fmt.Errorf("holding of %q: %w", snapshotID, err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (r *SQLiteRepository) loadInvestmentTransactions(ctx context.Context, snapshots *invest.Store) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, date, description, type, amount, holding_name,
			isin, quantity
		FROM investment_transactions ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("query investment transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t                      invest.Transaction
			date, amount, quantity string
		)
		if err := rows.Scan(&t.ID, &t.AccountID, &date, &t.Description,
			&t.Type, &amount, &t.HoldingName, &t.ISIN, &quantity); err != nil {
			return fmt.Errorf("scan investment transaction: %w", err)
		}
		if t.Date, err = parseTime(date); err != nil {
			return fmt.Errorf("investment transaction %q: %w", t.ID, err)
		}
		if t.Amount, err = parseDecimal(amount); err != nil {
			return fmt.Errorf("investment transaction %q: %w", t.ID, err)
		}
		if t.Quantity, err = parseDecimal(quantity); err != nil {
			return fmt.Errorf("investment transaction %q: %w", t.ID, err)
		}
		if _, err := snapshots.AddTransaction(t); err != nil {
			return fmt.Errorf("restore investment transaction %q: %w", t.ID, err)
		}
	}
	return rows.Err()
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
