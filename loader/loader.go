// Package loader reads a ledger dataset from a JSON file and materializes it
// into the in-memory stores. Validation happens here, at the boundary: the
// file references accounts and categories by name, the loader resolves them
// to ids, and every transaction passes through the store's own invariants so
// an unbalanced entry in the file is rejected with the same typed error a
// live write would get.
//
// Example usage:
//
//	ldr := loader.New()
//	data, err := ldr.Load(ctx, "ledger.json")
//	if err != nil {
//	    var unbalanced *ledger.UnbalancedLegsError
//	    if errors.As(err, &unbalanced) { ... }
//	}
//	balances := data.Ledger.Balances(time.Now())
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"finledger/invest"
	"finledger/ledger"
)

// Loader reads dataset files.
type Loader struct{}

// New creates a Loader.
func New() *Loader {
	return &Loader{}
}

// Dataset is a fully materialized ledger file.
type Dataset struct {
	Path      string
	Ledger    *ledger.Store
	Snapshots *invest.Store
}

// LoadError wraps a failure with the file position it came from. The
// underlying error is preserved for errors.As, so typed ledger errors
// survive the trip through the loader.
type LoadError struct {
	Path    string
	Section string
	Index   int
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s[%d]: %v", e.Path, e.Section, e.Index, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type fileDataset struct {
	Accounts      []fileAccount      `json:"accounts"`
	Categories    []fileCategory     `json:"categories"`
	Transactions  []fileTransaction  `json:"transactions"`
	Budgets       []fileBudget       `json:"budgets"`
	Subscriptions []fileSubscription `json:"subscriptions"`
	Goals         []fileGoal         `json:"goals"`
	Snapshots     []fileSnapshot     `json:"snapshots"`
	Investments   []fileInvestment   `json:"investment_transactions"`
}

type fileAccount struct {
	Name string    `json:"name"`
	Type string    `json:"type"` // NORMAL, DEBT, INVESTMENT; empty means NORMAL
	Loan *fileLoan `json:"loan"`
}

type fileLoan struct {
	OriginPrincipal  string `json:"origin_principal"`
	CurrentPrincipal string `json:"current_principal"`
	AnnualRate       string `json:"annual_rate"`
	Compounding      string `json:"compounding"`
	MinimumPayment   string `json:"minimum_payment"`
}

type fileCategory struct {
	Name string `json:"name"`
	Type string `json:"type"` // INCOME or EXPENSE
}

type fileTransaction struct {
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Notes       string    `json:"notes"`
	Category    string    `json:"category"` // by name; empty means transfer
	Legs        []fileLeg `json:"legs"`
}

type fileLeg struct {
	Account string `json:"account"` // by name
	Amount  string `json:"amount"`
}

type fileBudget struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Period   string `json:"period"` // MONTHLY or YEARLY
}

type fileSubscription struct {
	Name       string `json:"name"`
	Matcher    string `json:"matcher"`
	Amount     string `json:"amount"`
	Tolerance  string `json:"tolerance"`
	DayOfMonth int    `json:"day_of_month"`
	Category   string `json:"category"`
	Active     *bool  `json:"active"` // defaults to true
}

type fileGoal struct {
	Name         string `json:"name"`
	TargetAmount string `json:"target_amount"`
	TargetDate   string `json:"target_date"`
	Account      string `json:"account"`
	Category     string `json:"category"`
}

type fileSnapshot struct {
	Account  string        `json:"account"`
	Date     string        `json:"date"`
	Value    string        `json:"value"`
	Holdings []fileHolding `json:"holdings"`
}

type fileHolding struct {
	Name     string `json:"name"`
	ISIN     string `json:"isin"`
	Quantity string `json:"quantity"`
	Value    string `json:"value"`
}

type fileInvestment struct {
	Account     string `json:"account"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Holding     string `json:"holding"`
	ISIN        string `json:"isin"`
	Quantity    string `json:"quantity"`
}

// Load reads and materializes a dataset file.
func (l *Loader) Load(ctx context.Context, filename string) (*Dataset, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return l.LoadBytes(ctx, filename, data)
}

// LoadBytes materializes a dataset from raw bytes; filename is used for
// error context only.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*Dataset, error) {
	var file fileDataset
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s: malformed dataset: %w", filename, err)
	}

	out := &Dataset{
		Path:      filename,
		Ledger:    ledger.NewStore(),
		Snapshots: invest.NewStore(),
	}

	accounts := make(map[string]*ledger.Account)
	categories := make(map[string]*ledger.Category)

	for i, fa := range file.Accounts {
		account, err := l.buildAccount(fa)
		if err != nil {
			return nil, &LoadError{Path: filename, Section: "accounts", Index: i, Err: err}
		}
		stored, err := out.Ledger.AddAccount(*account)
		if err != nil {
			return nil, &LoadError{Path: filename, Section: "accounts", Index: i, Err: err}
		}
		accounts[fa.Name] = stored
	}

	for i, fc := range file.Categories {
		kind, err := ledger.ParseCategoryType(fc.Type)
		if err != nil {
			return nil, &LoadError{Path: filename, Section: "categories", Index: i, Err: err}
		}
		stored, err := out.Ledger.AddCategory(ledger.Category{Name: fc.Name, Type: kind})
		if err != nil {
			return nil, &LoadError{Path: filename, Section: "categories", Index: i, Err: err}
		}
		categories[fc.Name] = stored
	}

	for i, ft := range file.Transactions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		input, err := l.buildTransaction(ft, accounts, categories)
		if err != nil {
			return nil, &LoadError{Path: filename, Section: "transactions", Index: i, Err: err}
		}
		if _, err := out.Ledger.RecordTransaction(*input); err != nil {
			return nil, &LoadError{Path: filename, Section: "transactions", Index: i, Err: err}
		}
	}

	for i, fb := range file.Budgets {
		category, ok := categories[fb.Category]
		if !ok {
			return nil, &LoadError{Path: filename, Section: "budgets", Index: i, Err: fmt.Errorf("unknown category %q", fb.Category)}
		}
		amount, err := parseAmount(fb.Amount)
		if err != nil {
			return nil, &LoadError{Path: filename, Section: "budgets", Index: i, Err: err}
		}
		period := ledger.BudgetMonthly
		if fb.Period == "YEARLY" {
			period = ledger.BudgetYearly
		} else if fb.Period != "" && fb.Period != "MONTHLY" {
			return nil, &LoadError{Path: filename, Section: "budgets", Index: i, Err: fmt.Errorf("unknown budget period %q", fb.Period)}
		}
		if _, err := out.Ledger.AddBudget(ledger.Budget{CategoryID: category.ID, Amount: amount, Period: period}); err != nil {
			return nil, &LoadError{Path: filename, Section: "budgets", Index: i, Err: err}
		}
	}

	for i, fs := range file.Subscriptions {
		sub, err := l.buildSubscription(fs, categories)
		if err != nil {
			return nil, &LoadError{Path: filename, Section: "subscriptions", Index: i, Err: err}
		}
		if _, err := out.Ledger.AddSubscription(*sub); err != nil {
			return nil, &LoadError{Path: filename, Section: "subscriptions", Index: i, Err: err}
		}
	}

	for i, fg := range file.Goals {
		goal, err := l.buildGoal(fg, accounts, categories)
		if err != nil {
			return nil, &LoadError{Path: filename, Section: "goals", Index: i, Err: err}
		}
		if _, err := out.Ledger.AddGoal(*goal); err != nil {
			return nil, &LoadError{Path: filename, Section: "goals", Index: i, Err: err}
		}
	}

	for i, fs := range file.Snapshots {
		snap, err := l.buildSnapshot(fs, accounts)
		if err != nil {
			return nil, &LoadError{Path: filename, Section: "snapshots", Index: i, Err: err}
		}
		if _, err := out.Snapshots.AddSnapshot(*snap); err != nil {
			return nil, &LoadError{Path: filename, Section: "snapshots", Index: i, Err: err}
		}
	}

	for i, fi := range file.Investments {
		txn, err := l.buildInvestment(fi, accounts)
		if err != nil {
			return nil, &LoadError{Path: filename, Section: "investment_transactions", Index: i, Err: err}
		}
		if _, err := out.Snapshots.AddTransaction(*txn); err != nil {
			return nil, &LoadError{Path: filename, Section: "investment_transactions", Index: i, Err: err}
		}
	}

	return out, nil
}

func (l *Loader) buildAccount(fa fileAccount) (*ledger.Account, error) {
	account := &ledger.Account{Name: fa.Name, Active: true}
	if fa.Type != "" {
		kind, err := ledger.ParseAccountType(fa.Type)
		if err != nil {
			return nil, err
		}
		account.Type = kind
	}
	if fa.Loan != nil {
		if account.Type != ledger.AccountDebt {
			return nil, fmt.Errorf("account %q: loan terms require type DEBT", fa.Name)
		}
		loan, err := l.buildLoan(*fa.Loan)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", fa.Name, err)
		}
		account.Loan = loan
	}
	return account, nil
}

func (l *Loader) buildLoan(fl fileLoan) (*ledger.Loan, error) {
	origin, err := parseAmount(fl.OriginPrincipal)
	if err != nil {
		return nil, fmt.Errorf("origin principal: %w", err)
	}
	current, err := parseAmount(fl.CurrentPrincipal)
	if err != nil {
		return nil, fmt.Errorf("current principal: %w", err)
	}
	rate, err := parseOptionalAmount(fl.AnnualRate)
	if err != nil {
		return nil, fmt.Errorf("annual rate: %w", err)
	}
	minimum, err := parseOptionalAmount(fl.MinimumPayment)
	if err != nil {
		return nil, fmt.Errorf("minimum payment: %w", err)
	}
	return &ledger.Loan{
		OriginPrincipal:  origin,
		CurrentPrincipal: current,
		AnnualRate:       rate,
		Compounding:      fl.Compounding,
		MinimumPayment:   minimum,
	}, nil
}

func (l *Loader) buildTransaction(ft fileTransaction, accounts map[string]*ledger.Account, categories map[string]*ledger.Category) (*ledger.TransactionInput, error) {
	occurredAt, err := parseDate(ft.Date)
	if err != nil {
		return nil, err
	}

	input := &ledger.TransactionInput{
		Description: ft.Description,
		Notes:       ft.Notes,
		OccurredAt:  occurredAt,
	}
	if ft.Category != "" {
		category, ok := categories[ft.Category]
		if !ok {
			return nil, fmt.Errorf("unknown category %q", ft.Category)
		}
		input.CategoryID = category.ID
	}

	for _, fl := range ft.Legs {
		account, ok := accounts[fl.Account]
		if !ok {
			return nil, fmt.Errorf("unknown account %q", fl.Account)
		}
		amount, err := parseAmount(fl.Amount)
		if err != nil {
			return nil, fmt.Errorf("leg %q: %w", fl.Account, err)
		}
		input.Legs = append(input.Legs, ledger.LegInput{AccountID: account.ID, Amount: amount})
	}
	return input, nil
}

func (l *Loader) buildSubscription(fs fileSubscription, categories map[string]*ledger.Category) (*ledger.Subscription, error) {
	amount, err := parseAmount(fs.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	tolerance, err := parseOptionalAmount(fs.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("tolerance: %w", err)
	}

	sub := &ledger.Subscription{
		Name:            fs.Name,
		MatcherText:     fs.Matcher,
		TypicalAmount:   amount,
		AmountTolerance: tolerance,
		DayOfMonth:      fs.DayOfMonth,
		Active:          true,
	}
	if fs.Active != nil {
		sub.Active = *fs.Active
	}
	if fs.Category != "" {
		category, ok := categories[fs.Category]
		if !ok {
			return nil, fmt.Errorf("unknown category %q", fs.Category)
		}
		sub.CategoryID = category.ID
	}
	return sub, nil
}

func (l *Loader) buildGoal(fg fileGoal, accounts map[string]*ledger.Account, categories map[string]*ledger.Category) (*ledger.Goal, error) {
	target, err := parseAmount(fg.TargetAmount)
	if err != nil {
		return nil, fmt.Errorf("target amount: %w", err)
	}
	goal := &ledger.Goal{Name: fg.Name, TargetAmount: target}

	if fg.TargetDate != "" {
		date, err := parseDate(fg.TargetDate)
		if err != nil {
			return nil, fmt.Errorf("target date: %w", err)
		}
		goal.TargetDate = date
	}
	if fg.Account != "" {
		account, ok := accounts[fg.Account]
		if !ok {
			return nil, fmt.Errorf("unknown account %q", fg.Account)
		}
		goal.AccountID = account.ID
	}
	if fg.Category != "" {
		category, ok := categories[fg.Category]
		if !ok {
			return nil, fmt.Errorf("unknown category %q", fg.Category)
		}
		goal.CategoryID = category.ID
	}
	return goal, nil
}

func (l *Loader) buildSnapshot(fs fileSnapshot, accounts map[string]*ledger.Account) (*invest.Snapshot, error) {
	date, err := parseDate(fs.Date)
	if err != nil {
		return nil, err
	}
	value, err := parseAmount(fs.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}

	snap := &invest.Snapshot{Date: date, Value: value}
	if fs.Account != "" {
		account, ok := accounts[fs.Account]
		if !ok {
			return nil, fmt.Errorf("unknown account %q", fs.Account)
		}
		snap.AccountID = account.ID
	}

	for _, fh := range fs.Holdings {
		if fh.Name == "" {
			return nil, fmt.Errorf("holding name is required")
		}
		quantity, err := parseOptionalAmount(fh.Quantity)
		if err != nil {
			return nil, fmt.Errorf("holding %q: quantity: %w", fh.Name, err)
		}
		holdingValue, err := parseOptionalAmount(fh.Value)
		if err != nil {
			return nil, fmt.Errorf("holding %q: value: %w", fh.Name, err)
		}
		snap.Holdings = append(snap.Holdings, invest.Holding{
			Name:     fh.Name,
			ISIN:     fh.ISIN,
			Quantity: quantity,
			Value:    holdingValue,
		})
	}
	return snap, nil
}

func (l *Loader) buildInvestment(fi fileInvestment, accounts map[string]*ledger.Account) (*invest.Transaction, error) {
	date, err := parseDate(fi.Date)
	if err != nil {
		return nil, err
	}
	amount, err := parseOptionalAmount(fi.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	quantity, err := parseOptionalAmount(fi.Quantity)
	if err != nil {
		return nil, fmt.Errorf("quantity: %w", err)
	}

	txn := &invest.Transaction{
		Date:        date,
		Description: fi.Description,
		Type:        fi.Type,
		Amount:      amount,
		HoldingName: fi.Holding,
		ISIN:        fi.ISIN,
		Quantity:    quantity,
	}
	if fi.Account != "" {
		account, ok := accounts[fi.Account]
		if !ok {
			return nil, fmt.Errorf("unknown account %q", fi.Account)
		}
		txn.AccountID = account.ID
	}
	return txn, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return parseAmount(s)
}
