package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"finledger/config"
	"finledger/ledger"
	"finledger/loader"
	"finledger/output"
	"finledger/report"
)

type ReportCmd struct {
	Year int  `help:"Year to report on (latest year with activity if 0)." default:"0"`
	Full bool `help:"Include merchants and largest transactions." short:"a"`
}

func (cmd *ReportCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx := context.Background()

	file := globals.dataFile(config.Load().LedgerFile)
	ds, err := loader.New().Load(runCtx, file)
	if err != nil {
		return err
	}

	year := cmd.Year
	if year == 0 {
		years := report.TransactionYears(ds.Ledger)
		if len(years) == 0 {
			printInfof(ctx.Stdout, "No transactions in %s", pathStyle.Render(file))
			return nil
		}
		year = years[len(years)-1]
	}

	overview, err := report.BuildYearlyOverview(runCtx, ds.Ledger, ds.Snapshots, year, report.Filters{})
	if err != nil {
		return err
	}

	styles := output.NewStyles(ctx.Stdout)
	cmd.renderMonthly(ctx, styles, overview)
	cmd.renderCategories(ctx, styles, overview)
	cmd.renderNetWorth(ctx, styles, overview)
	cmd.renderBudgets(ctx, styles, ds)
	if cmd.Full {
		cmd.renderMerchants(ctx, styles, overview)
		cmd.renderLargest(ctx, styles, overview)
	}
	cmd.renderInsights(ctx, overview)

	return nil
}

// amountStyle colors an amount cell by sign.
func amountStyle(styles *output.Styles, raw string) func(string) string {
	if len(raw) > 0 && raw[0] == '-' {
		return styles.Negative
	}
	return styles.Amount
}

func (cmd *ReportCmd) renderMonthly(ctx *kong.Context, styles *output.Styles, o *report.YearlyOverview) {
	fmt.Fprintln(ctx.Stdout, styles.Keyword(fmt.Sprintf("Overview %d", o.Year)))
	fmt.Fprintln(ctx.Stdout)

	rows := make([][]string, 0, len(o.Monthly)+1)
	for _, m := range o.Monthly {
		rows = append(rows, []string{
			m.Period.String(),
			ledger.FormatAmount(m.Income),
			ledger.FormatAmount(m.Expense),
			ledger.FormatAmount(m.Net),
		})
	}
	yearIncome, yearExpense, yearNet := yearTotals(o.Monthly)
	rows = append(rows, []string{
		"total",
		ledger.FormatAmount(yearIncome),
		ledger.FormatAmount(yearExpense),
		ledger.FormatAmount(yearNet),
	})

	writeTable(ctx.Stdout,
		[]string{"Month", "Income", "Expense", "Net"},
		rows,
		[]bool{false, true, true, true},
		func(row, col int, padded string) string {
			if col == 0 {
				return padded
			}
			return amountStyle(styles, rows[row][col])(padded)
		})
	fmt.Fprintln(ctx.Stdout)
}

func yearTotals(months []report.MonthRow) (income, expense, net decimal.Decimal) {
	for _, m := range months {
		income = income.Add(m.Income)
		expense = expense.Add(m.Expense)
		net = net.Add(m.Net)
	}
	return income, expense, net
}

func (cmd *ReportCmd) renderCategories(ctx *kong.Context, styles *output.Styles, o *report.YearlyOverview) {
	if len(o.CategoryBreakdown) == 0 {
		return
	}
	fmt.Fprintln(ctx.Stdout, styles.Keyword("Spending by category"))
	fmt.Fprintln(ctx.Stdout)

	rows := make([][]string, 0, len(o.CategoryBreakdown))
	for _, row := range o.CategoryBreakdown {
		delta := ""
		if pct := ledger.FormatAmountPtr(row.DeltaPct); pct != nil {
			delta = *pct + "%"
		}
		rows = append(rows, []string{
			row.Name,
			ledger.FormatAmount(row.Total),
			fmt.Sprintf("%d", row.TransactionCount),
			delta,
		})
	}
	writeTable(ctx.Stdout,
		[]string{"Category", "Total", "Count", "YoY"},
		rows,
		[]bool{false, true, true, true},
		func(row, col int, padded string) string {
			switch col {
			case 0:
				return styles.Account(padded)
			case 1:
				return amountStyle(styles, rows[row][col])(padded)
			default:
				return styles.Dim(padded)
			}
		})
	fmt.Fprintln(ctx.Stdout)
}

func (cmd *ReportCmd) renderNetWorth(ctx *kong.Context, styles *output.Styles, o *report.YearlyOverview) {
	if len(o.NetWorth) == 0 {
		return
	}
	last := o.NetWorth[len(o.NetWorth)-1]
	label := fmt.Sprintf("Net worth at %s: %s", last.Period, ledger.FormatAmount(last.Value))
	if last.Estimated {
		label += " (estimated)"
	}
	printInfof(ctx.Stdout, "%s", label)

	if len(o.Debt) > 0 {
		debt := o.Debt[len(o.Debt)-1]
		if !debt.Value.IsZero() {
			printInfof(ctx.Stdout, "Outstanding debt at %s: %s", debt.Period, ledger.FormatAmount(debt.Value))
		}
	}
	fmt.Fprintln(ctx.Stdout)
}

func (cmd *ReportCmd) renderBudgets(ctx *kong.Context, styles *output.Styles, ds *loader.Dataset) {
	statuses := report.BudgetReport(ds.Ledger, time.Now().UTC())
	if len(statuses) == 0 {
		return
	}
	fmt.Fprintln(ctx.Stdout, styles.Keyword("Budgets"))
	fmt.Fprintln(ctx.Stdout)

	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		name := ""
		if st.Category != nil {
			name = st.Category.Name
		}
		used := ""
		if pct := ledger.FormatAmountPtr(st.PercentUsed); pct != nil {
			used = *pct + "%"
		}
		rows = append(rows, []string{
			name,
			st.Budget.Period.String(),
			ledger.FormatAmount(st.Spent),
			ledger.FormatAmount(st.Budget.Amount),
			used,
		})
	}
	writeTable(ctx.Stdout,
		[]string{"Category", "Period", "Spent", "Budget", "Used"},
		rows,
		[]bool{false, false, true, true, true},
		func(row, col int, padded string) string {
			if statuses[row].Overspent {
				return styles.Error(padded)
			}
			return padded
		})
	fmt.Fprintln(ctx.Stdout)
}

func (cmd *ReportCmd) renderMerchants(ctx *kong.Context, styles *output.Styles, o *report.YearlyOverview) {
	if len(o.TopMerchants) == 0 {
		return
	}
	fmt.Fprintln(ctx.Stdout, styles.Keyword("Top merchants"))
	fmt.Fprintln(ctx.Stdout)

	rows := make([][]string, 0, len(o.TopMerchants))
	for _, m := range o.TopMerchants {
		rows = append(rows, []string{
			truncate(m.Merchant, terminalWidth()/2),
			ledger.FormatAmount(m.Total),
			fmt.Sprintf("%d", m.TransactionCount),
		})
	}
	writeTable(ctx.Stdout,
		[]string{"Merchant", "Total", "Count"},
		rows,
		[]bool{false, true, true},
		nil)
	fmt.Fprintln(ctx.Stdout)
}

func (cmd *ReportCmd) renderLargest(ctx *kong.Context, styles *output.Styles, o *report.YearlyOverview) {
	if len(o.LargestTransactions) == 0 {
		return
	}
	fmt.Fprintln(ctx.Stdout, styles.Keyword("Largest transactions"))
	fmt.Fprintln(ctx.Stdout)

	rows := make([][]string, 0, len(o.LargestTransactions))
	for _, r := range o.LargestTransactions {
		rows = append(rows, []string{
			r.Transaction.OccurredAt.Format("2006-01-02"),
			truncate(r.Transaction.Description, terminalWidth()/2),
			ledger.FormatAmount(r.Amount),
		})
	}
	writeTable(ctx.Stdout,
		[]string{"Date", "Description", "Amount"},
		rows,
		[]bool{false, false, true},
		nil)
	fmt.Fprintln(ctx.Stdout)
}

func (cmd *ReportCmd) renderInsights(ctx *kong.Context, o *report.YearlyOverview) {
	for _, insight := range o.Insights {
		printInfof(ctx.Stdout, "%s", insight.Text)
	}
}

func truncate(s string, max int) string {
	if max < 8 {
		max = 8
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "…")
}
