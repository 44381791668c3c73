package report

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finledger/invest"
	"finledger/ledger"
)

// AccountFlow summarizes one account's movement within a year.
type AccountFlow struct {
	AccountID string
	Name      string
	Type      ledger.AccountType
	Inflow    decimal.Decimal
	Outflow   decimal.Decimal // negative or zero
	Net       decimal.Decimal
}

// GoalStatus is a goal with its derived progress.
type GoalStatus struct {
	Goal          *ledger.Goal
	CurrentAmount decimal.Decimal
	ProgressPct   *decimal.Decimal // nil when the target amount is zero
}

// Insight is one human-readable observation derived from the numbers.
type Insight struct {
	Kind string
	Text string
}

// YearlyOverview is the full report bundle for one year.
type YearlyOverview struct {
	Year                    int
	Monthly                 []MonthRow
	Quarterly               []QuarterRow
	NetWorth                []SeriesPoint
	Debt                    []SeriesPoint
	CategoryBreakdown       []CategoryBreakdownRow
	IncomeCategoryBreakdown []CategoryBreakdownRow
	CategoryChanges         []CategoryBreakdownRow
	AccountFlows            []AccountFlow
	TopMerchants            []MerchantRow
	LargestTransactions     []RankedTransaction
	Investments             *invest.Summary
	Goals                   []GoalStatus
	Insights                []Insight
}

// BuildYearlyOverview assembles a year's overview. The independent sections
// run in parallel and the whole build honors context cancellation; sections
// are pure reads, so an abandoned build leaves nothing behind.
func BuildYearlyOverview(ctx context.Context, l Ledger, snapshots *invest.Store, year int, f Filters) (*YearlyOverview, error) {
	start := time.Now()
	if snapshots == nil {
		snapshots = invest.NewStore()
	}
	out := &YearlyOverview{Year: year}

	builder := NewNetWorthBuilder()
	builder.Snapshots = snapshots

	g, ctx := errgroup.WithContext(ctx)
	section := func(fn func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}

	section(func() {
		out.Monthly = Monthly(l, year, f)
		out.Quarterly = quartersFromMonths(year, out.Monthly)
	})
	section(func() { out.NetWorth = builder.YearSeries(l, year, f) })
	section(func() {
		from := ledger.Period{Year: year, Month: time.January}
		to := ledger.Period{Year: year, Month: time.December}
		out.Debt = DebtSeries(l, from, to)
	})
	section(func() { out.CategoryBreakdown = CategoryBreakdown(l, year, FlowExpense, f) })
	section(func() { out.IncomeCategoryBreakdown = CategoryBreakdown(l, year, FlowIncome, f) })
	section(func() { out.AccountFlows = accountFlows(l, year, f) })
	section(func() { out.TopMerchants = TopMerchants(l, year, FlowExpense, 10, f) })
	section(func() { out.LargestTransactions = LargestTransactions(l, year, FlowExpense, 10, f) })
	section(func() {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(1, 0, 0).Add(-time.Nanosecond)
		out.Investments = snapshots.Summary(start, end)
	})
	section(func() { out.Goals = GoalReport(l, endOfYear(year)) })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Derived sections depend on the breakdowns above.
	out.CategoryChanges = categoryChanges(out.CategoryBreakdown)
	out.Insights = buildInsights(out)
	slog.DebugContext(ctx, "yearly overview built", "year", year, "duration", time.Since(start))
	return out, nil
}

// KPIs are the lifetime key figures of the total overview.
type KPIs struct {
	LifetimeIncome    decimal.Decimal
	LifetimeExpense   decimal.Decimal
	LifetimeNet       decimal.Decimal
	AvgMonthlyIncome  decimal.Decimal
	AvgMonthlyExpense decimal.Decimal
	SavingsRatePct    *decimal.Decimal // nil when there is no income
}

// MixRow is one category's share of a lifetime flow.
type MixRow struct {
	Name     string
	Total    decimal.Decimal
	SharePct *decimal.Decimal
}

// AccountSummary is one account with its current derived balance.
type AccountSummary struct {
	Account *ledger.Account
	Balance decimal.Decimal
}

// TotalOverview is the all-time report bundle.
type TotalOverview struct {
	KPIs           KPIs
	NetWorthSeries []SeriesPoint
	Yearly         []YearRow
	ExpenseHeatmap *Heatmap
	IncomeHeatmap  *Heatmap
	ExpenseMix     []MixRow
	IncomeMix      []MixRow
	Accounts       []AccountSummary
	Investments    *invest.Summary
	Debt           []SeriesPoint
}

// BuildTotalOverview assembles the all-time overview across every year with
// ledger activity.
func BuildTotalOverview(ctx context.Context, l Ledger, snapshots *invest.Store, f Filters) (*TotalOverview, error) {
	start := time.Now()
	if snapshots == nil {
		snapshots = invest.NewStore()
	}
	out := &TotalOverview{}
	years := TransactionYears(l)
	now := time.Now().UTC()

	builder := NewNetWorthBuilder()
	builder.Snapshots = snapshots

	g, ctx := errgroup.WithContext(ctx)
	section := func(fn func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}

	section(func() { out.Yearly = Yearly(l, years, f) })
	section(func() {
		if len(years) == 0 {
			return
		}
		from := ledger.Period{Year: years[0], Month: time.January}
		to := ledger.PeriodOf(now)
		out.NetWorthSeries = builder.Series(l, from, to, f)
		out.Debt = DebtSeries(l, from, to)
	})
	section(func() { out.ExpenseHeatmap = BuildHeatmap(l, years, FlowExpense, f) })
	section(func() { out.IncomeHeatmap = BuildHeatmap(l, years, FlowIncome, f) })
	section(func() {
		balances := l.Balances(now)
		for _, a := range l.Accounts() {
			out.Accounts = append(out.Accounts, AccountSummary{Account: a, Balance: balances[a.ID]})
		}
	})
	section(func() {
		var start time.Time
		if len(years) > 0 {
			start = time.Date(years[0], time.January, 1, 0, 0, 0, 0, time.UTC)
		}
		out.Investments = snapshots.Summary(start, now)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.KPIs = lifetimeKPIs(out.Yearly)
	out.ExpenseMix = lifetimeMix(out.ExpenseHeatmap)
	out.IncomeMix = lifetimeMix(out.IncomeHeatmap)
	slog.DebugContext(ctx, "total overview built", "years", len(years), "duration", time.Since(start))
	return out, nil
}

func lifetimeKPIs(yearly []YearRow) KPIs {
	kpis := KPIs{
		LifetimeIncome:    decimal.Zero,
		LifetimeExpense:   decimal.Zero,
		AvgMonthlyIncome:  decimal.Zero,
		AvgMonthlyExpense: decimal.Zero,
	}
	for _, y := range yearly {
		kpis.LifetimeIncome = kpis.LifetimeIncome.Add(y.Income)
		kpis.LifetimeExpense = kpis.LifetimeExpense.Add(y.Expense)
	}
	kpis.LifetimeNet = kpis.LifetimeIncome.Add(kpis.LifetimeExpense)

	months := decimal.NewFromInt(int64(len(yearly) * 12))
	if !months.IsZero() {
		kpis.AvgMonthlyIncome = kpis.LifetimeIncome.Div(months).RoundBank(2)
		kpis.AvgMonthlyExpense = kpis.LifetimeExpense.Div(months).RoundBank(2)
	}
	kpis.SavingsRatePct = ledger.Percent(kpis.LifetimeNet, kpis.LifetimeIncome)
	return kpis
}

func lifetimeMix(h *Heatmap) []MixRow {
	if h == nil {
		return nil
	}
	total := decimal.Zero
	for _, row := range h.Rows {
		total = total.Add(row.Total.Abs())
	}

	out := make([]MixRow, 0, len(h.Rows))
	for _, row := range h.Rows {
		out = append(out, MixRow{
			Name:     row.Name,
			Total:    row.Total,
			SharePct: ledger.Percent(row.Total.Abs(), total),
		})
	}
	slices.SortStableFunc(out, func(a, b MixRow) int {
		return b.Total.Abs().Cmp(a.Total.Abs())
	})
	return out
}

func accountFlows(l Ledger, year int, f Filters) []AccountFlow {
	byAccount := make(map[string]*AccountFlow)
	for _, a := range l.Accounts() {
		byAccount[a.ID] = &AccountFlow{
			AccountID: a.ID,
			Name:      a.Name,
			Type:      a.Type,
			Inflow:    decimal.Zero,
			Outflow:   decimal.Zero,
		}
	}

	for _, txn := range l.Transactions() {
		if txn.OccurredAt.Year() != year || !f.Match(txn) {
			continue
		}
		for _, leg := range txn.Legs {
			flow, ok := byAccount[leg.AccountID]
			if !ok {
				continue
			}
			if leg.Amount.IsPositive() {
				flow.Inflow = flow.Inflow.Add(leg.Amount)
			} else {
				flow.Outflow = flow.Outflow.Add(leg.Amount)
			}
		}
	}

	out := make([]AccountFlow, 0, len(byAccount))
	for _, a := range l.Accounts() {
		flow := byAccount[a.ID]
		flow.Net = flow.Inflow.Add(flow.Outflow)
		out = append(out, *flow)
	}
	return out
}

// GoalReport derives each goal's progress: account-linked goals measure the
// account balance, category-linked goals measure the category's absolute
// lifetime flow.
func GoalReport(l Ledger, asOf time.Time) []GoalStatus {
	balances := l.Balances(asOf)
	categories := categoryIndex(l)

	var out []GoalStatus
	for _, g := range l.Goals() {
		current := decimal.Zero
		switch {
		case g.AccountID != "":
			current = balances[g.AccountID]
		case g.CategoryID != "":
			for _, txn := range l.Transactions() {
				if txn.CategoryID != g.CategoryID || txn.OccurredAt.After(asOf) {
					continue
				}
				income, expense := transactionFlows(txn, categories)
				current = current.Add(income).Add(expense.Abs())
			}
		}
		out = append(out, GoalStatus{
			Goal:          g,
			CurrentAmount: current,
			ProgressPct:   ledger.Percent(current, g.TargetAmount),
		})
	}
	return out
}

func categoryChanges(breakdown []CategoryBreakdownRow) []CategoryBreakdownRow {
	changes := slices.Clone(breakdown)
	slices.SortStableFunc(changes, func(a, b CategoryBreakdownRow) int {
		return b.Delta.Abs().Cmp(a.Delta.Abs())
	})
	return changes
}

func buildInsights(o *YearlyOverview) []Insight {
	var out []Insight

	if len(o.CategoryChanges) > 0 {
		top := o.CategoryChanges[0]
		if !top.Delta.IsZero() {
			direction := "up"
			if top.Delta.Abs().GreaterThan(top.Delta) {
				direction = "down"
			}
			out = append(out, Insight{
				Kind: "category_change",
				Text: top.Name + " moved " + direction + " by " + ledger.FormatAmount(top.Delta.Abs()) + " versus last year",
			})
		}
	}

	best := -1
	for i, m := range o.Monthly {
		if best < 0 || m.Net.GreaterThan(o.Monthly[best].Net) {
			best = i
		}
	}
	if best >= 0 && !o.Monthly[best].Net.IsZero() {
		out = append(out, Insight{
			Kind: "best_month",
			Text: o.Monthly[best].Period.String() + " was the strongest month with a net of " + ledger.FormatAmount(o.Monthly[best].Net),
		})
	}

	if o.Investments != nil && o.Investments.HasData && o.Investments.DeltaPct != nil {
		out = append(out, Insight{
			Kind: "investments",
			Text: "Portfolio moved " + o.Investments.DeltaPct.String() + "% since the previous snapshot",
		})
	}
	return out
}

func endOfYear(year int) time.Time {
	return time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
}
