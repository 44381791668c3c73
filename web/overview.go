package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finledger/invest"
	"finledger/ledger"
	"finledger/report"
)

type quarterRowResponse struct {
	Year    int    `json:"year"`
	Quarter int    `json:"quarter"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

type seriesPointResponse struct {
	Period    string `json:"period"`
	Value     string `json:"value"`
	Estimated bool   `json:"estimated"`
}

type categoryRowResponse struct {
	CategoryID       string   `json:"category_id,omitempty"`
	Name             string   `json:"name"`
	Total            string   `json:"total"`
	Monthly          []string `json:"monthly"`
	TransactionCount int      `json:"transaction_count"`
	PriorTotal       string   `json:"prior_total"`
	Delta            string   `json:"delta"`
	DeltaPct         *string  `json:"delta_pct"`
}

type accountFlowResponse struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Inflow    string `json:"inflow"`
	Outflow   string `json:"outflow"`
	Net       string `json:"net"`
}

type merchantRowResponse struct {
	Merchant         string `json:"merchant"`
	Total            string `json:"total"`
	TransactionCount int    `json:"transaction_count"`
}

type rankedTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	OccurredAt    string `json:"occurred_at"`
	Description   string `json:"description"`
	CategoryID    string `json:"category_id,omitempty"`
	Amount        string `json:"amount"`
}

type holdingChangeResponse struct {
	Name          string  `json:"name"`
	Current       string  `json:"current"`
	Prior         string  `json:"prior"`
	Delta         string  `json:"delta"`
	DeltaPct      *string `json:"delta_pct"`
	QuantityDelta string  `json:"quantity_delta"`
}

type performanceResponse struct {
	Start          string  `json:"start"`
	End            string  `json:"end"`
	StartValue     string  `json:"start_value"`
	EndValue       string  `json:"end_value"`
	Deposits       string  `json:"deposits"`
	Withdrawals    string  `json:"withdrawals"`
	NetCashflow    string  `json:"net_cashflow"`
	Market         string  `json:"market"`
	MarketPct      *string `json:"market_pct"`
	TimeWeighted   *string `json:"time_weighted"`
	MoneyWeighted  *string `json:"money_weighted"`
	MissingHistory bool    `json:"missing_history"`
}

type investSummaryResponse struct {
	HasData       bool                    `json:"has_data"`
	TotalValue    string                  `json:"total_value"`
	ValueDate     string                  `json:"value_date,omitempty"`
	PreviousValue *string                 `json:"previous_value"`
	Delta         *string                 `json:"delta"`
	DeltaPct      *string                 `json:"delta_pct"`
	Holdings      []holdingChangeResponse `json:"holdings"`
	Performance   *performanceResponse    `json:"performance,omitempty"`
}

type insightResponse struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type yearlyOverviewResponse struct {
	Year                    int                         `json:"year"`
	Monthly                 []monthRowResponse          `json:"monthly"`
	Quarterly               []quarterRowResponse        `json:"quarterly"`
	NetWorth                []seriesPointResponse       `json:"net_worth"`
	Debt                    []seriesPointResponse       `json:"debt"`
	CategoryBreakdown       []categoryRowResponse       `json:"category_breakdown"`
	IncomeCategoryBreakdown []categoryRowResponse       `json:"income_category_breakdown"`
	CategoryChanges         []categoryRowResponse       `json:"category_changes"`
	AccountFlows            []accountFlowResponse       `json:"account_flows"`
	TopMerchants            []merchantRowResponse       `json:"top_merchants"`
	LargestTransactions     []rankedTransactionResponse `json:"largest_transactions"`
	Investments             *investSummaryResponse      `json:"investments,omitempty"`
	Goals                   []goalStatusResponse        `json:"goals"`
	Insights                []insightResponse           `json:"insights"`
}

type kpisResponse struct {
	LifetimeIncome    string  `json:"lifetime_income"`
	LifetimeExpense   string  `json:"lifetime_expense"`
	LifetimeNet       string  `json:"lifetime_net"`
	AvgMonthlyIncome  string  `json:"avg_monthly_income"`
	AvgMonthlyExpense string  `json:"avg_monthly_expense"`
	SavingsRatePct    *string `json:"savings_rate_pct"`
}

type mixRowResponse struct {
	Name     string  `json:"name"`
	Total    string  `json:"total"`
	SharePct *string `json:"share_pct"`
}

type accountSummaryResponse struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Active    bool   `json:"active"`
	Balance   string `json:"balance"`
}

type heatmapRowResponse struct {
	CategoryID  string    `json:"category_id,omitempty"`
	Name        string    `json:"name"`
	Totals      []string  `json:"totals"`
	Total       string    `json:"total"`
	Intensities []float64 `json:"intensities"`
}

type heatmapResponse struct {
	Years []int                `json:"years"`
	Rows  []heatmapRowResponse `json:"rows"`
	Max   string               `json:"max"`
}

type totalOverviewResponse struct {
	KPIs           kpisResponse             `json:"kpis"`
	NetWorthSeries []seriesPointResponse    `json:"net_worth_series"`
	Yearly         []yearRowResponse        `json:"yearly"`
	ExpenseHeatmap *heatmapResponse         `json:"expense_heatmap,omitempty"`
	IncomeHeatmap  *heatmapResponse         `json:"income_heatmap,omitempty"`
	ExpenseMix     []mixRowResponse         `json:"expense_mix"`
	IncomeMix      []mixRowResponse         `json:"income_mix"`
	Accounts       []accountSummaryResponse `json:"accounts"`
	Investments    *investSummaryResponse   `json:"investments,omitempty"`
	Debt           []seriesPointResponse    `json:"debt"`
}

func toSeriesPointResponses(points []report.SeriesPoint) []seriesPointResponse {
	out := make([]seriesPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, seriesPointResponse{
			Period:    p.Period.String(),
			Value:     ledger.FormatAmount(p.Value),
			Estimated: p.Estimated,
		})
	}
	return out
}

func toCategoryRowResponses(rows []report.CategoryBreakdownRow) []categoryRowResponse {
	out := make([]categoryRowResponse, 0, len(rows))
	for _, row := range rows {
		monthly := make([]string, len(row.Monthly))
		for i, m := range row.Monthly {
			monthly[i] = ledger.FormatAmount(m)
		}
		out = append(out, categoryRowResponse{
			CategoryID:       row.CategoryID,
			Name:             row.Name,
			Total:            ledger.FormatAmount(row.Total),
			Monthly:          monthly,
			TransactionCount: row.TransactionCount,
			PriorTotal:       ledger.FormatAmount(row.PriorTotal),
			Delta:            ledger.FormatAmount(row.Delta),
			DeltaPct:         ledger.FormatAmountPtr(row.DeltaPct),
		})
	}
	return out
}

func toInvestSummaryResponse(s *invest.Summary) *investSummaryResponse {
	if s == nil {
		return nil
	}
	resp := &investSummaryResponse{
		HasData:       s.HasData,
		TotalValue:    ledger.FormatAmount(s.TotalValue),
		PreviousValue: ledger.FormatAmountPtr(s.PreviousValue),
		Delta:         ledger.FormatAmountPtr(s.Delta),
		DeltaPct:      ledger.FormatAmountPtr(s.DeltaPct),
		Holdings:      make([]holdingChangeResponse, 0, len(s.Holdings)),
	}
	if !s.ValueDate.IsZero() {
		resp.ValueDate = s.ValueDate.Format(dateLayout)
	}
	for _, h := range s.Holdings {
		resp.Holdings = append(resp.Holdings, holdingChangeResponse{
			Name:          h.Name,
			Current:       ledger.FormatAmount(h.Current),
			Prior:         ledger.FormatAmount(h.Prior),
			Delta:         ledger.FormatAmount(h.Delta),
			DeltaPct:      ledger.FormatAmountPtr(h.DeltaPct),
			QuantityDelta: h.QuantityDelta.String(),
		})
	}
	if p := s.Performance; p != nil {
		resp.Performance = &performanceResponse{
			Start:          p.Start.Format(dateLayout),
			End:            p.End.Format(dateLayout),
			StartValue:     ledger.FormatAmount(p.StartValue),
			EndValue:       ledger.FormatAmount(p.EndValue),
			Deposits:       ledger.FormatAmount(p.Deposits),
			Withdrawals:    ledger.FormatAmount(p.Withdrawals),
			NetCashflow:    ledger.FormatAmount(p.NetCashflow),
			Market:         ledger.FormatAmount(p.Market),
			MarketPct:      ledger.FormatAmountPtr(p.MarketPct),
			TimeWeighted:   formatFractionPtr(p.TimeWeighted),
			MoneyWeighted:  formatFractionPtr(p.MoneyWeighted),
			MissingHistory: p.MissingHistory,
		}
	}
	return resp
}

// formatFractionPtr keeps four fraction digits; return fractions like 0.0712
// lose too much at two.
func formatFractionPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixedBank(4)
	return &s
}

func toGoalStatusResponses(statuses []report.GoalStatus) []goalStatusResponse {
	out := make([]goalStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, goalStatusResponse{
			GoalID:        st.Goal.ID,
			Name:          st.Goal.Name,
			TargetAmount:  ledger.FormatAmount(st.Goal.TargetAmount),
			TargetDate:    st.Goal.TargetDate.Format(dateLayout),
			CurrentAmount: ledger.FormatAmount(st.CurrentAmount),
			ProgressPct:   ledger.FormatAmountPtr(st.ProgressPct),
		})
	}
	return out
}

func toHeatmapResponse(h *report.Heatmap) *heatmapResponse {
	if h == nil {
		return nil
	}
	resp := &heatmapResponse{
		Years: h.Years,
		Rows:  make([]heatmapRowResponse, 0, len(h.Rows)),
		Max:   ledger.FormatAmount(h.Max),
	}
	for _, row := range h.Rows {
		totals := make([]string, len(row.Totals))
		for i, t := range row.Totals {
			totals[i] = ledger.FormatAmount(t)
		}
		resp.Rows = append(resp.Rows, heatmapRowResponse{
			CategoryID:  row.CategoryID,
			Name:        row.Name,
			Totals:      totals,
			Total:       ledger.FormatAmount(row.Total),
			Intensities: row.Intensities,
		})
	}
	return resp
}

func toYearlyOverviewResponse(o *report.YearlyOverview) *yearlyOverviewResponse {
	resp := &yearlyOverviewResponse{
		Year:                    o.Year,
		Monthly:                 make([]monthRowResponse, 0, len(o.Monthly)),
		Quarterly:               make([]quarterRowResponse, 0, len(o.Quarterly)),
		NetWorth:                toSeriesPointResponses(o.NetWorth),
		Debt:                    toSeriesPointResponses(o.Debt),
		CategoryBreakdown:       toCategoryRowResponses(o.CategoryBreakdown),
		IncomeCategoryBreakdown: toCategoryRowResponses(o.IncomeCategoryBreakdown),
		CategoryChanges:         toCategoryRowResponses(o.CategoryChanges),
		AccountFlows:            make([]accountFlowResponse, 0, len(o.AccountFlows)),
		TopMerchants:            make([]merchantRowResponse, 0, len(o.TopMerchants)),
		LargestTransactions:     make([]rankedTransactionResponse, 0, len(o.LargestTransactions)),
		Investments:             toInvestSummaryResponse(o.Investments),
		Goals:                   toGoalStatusResponses(o.Goals),
		Insights:                make([]insightResponse, 0, len(o.Insights)),
	}
	for _, m := range o.Monthly {
		resp.Monthly = append(resp.Monthly, monthRowResponse{
			Period:  m.Period.String(),
			Income:  ledger.FormatAmount(m.Income),
			Expense: ledger.FormatAmount(m.Expense),
			Net:     ledger.FormatAmount(m.Net),
		})
	}
	for _, q := range o.Quarterly {
		resp.Quarterly = append(resp.Quarterly, quarterRowResponse{
			Year:    q.Year,
			Quarter: q.Quarter,
			Income:  ledger.FormatAmount(q.Income),
			Expense: ledger.FormatAmount(q.Expense),
			Net:     ledger.FormatAmount(q.Net),
		})
	}
	for _, f := range o.AccountFlows {
		resp.AccountFlows = append(resp.AccountFlows, accountFlowResponse{
			AccountID: f.AccountID,
			Name:      f.Name,
			Type:      f.Type.String(),
			Inflow:    ledger.FormatAmount(f.Inflow),
			Outflow:   ledger.FormatAmount(f.Outflow),
			Net:       ledger.FormatAmount(f.Net),
		})
	}
	for _, m := range o.TopMerchants {
		resp.TopMerchants = append(resp.TopMerchants, merchantRowResponse{
			Merchant:         m.Merchant,
			Total:            ledger.FormatAmount(m.Total),
			TransactionCount: m.TransactionCount,
		})
	}
	for _, r := range o.LargestTransactions {
		resp.LargestTransactions = append(resp.LargestTransactions, rankedTransactionResponse{
			TransactionID: r.Transaction.ID,
			OccurredAt:    r.Transaction.OccurredAt.Format(dateLayout),
			Description:   r.Transaction.Description,
			CategoryID:    r.Transaction.CategoryID,
			Amount:        ledger.FormatAmount(r.Amount),
		})
	}
	for _, in := range o.Insights {
		resp.Insights = append(resp.Insights, insightResponse{Kind: in.Kind, Text: in.Text})
	}
	return resp
}

func toTotalOverviewResponse(o *report.TotalOverview) *totalOverviewResponse {
	resp := &totalOverviewResponse{
		KPIs: kpisResponse{
			LifetimeIncome:    ledger.FormatAmount(o.KPIs.LifetimeIncome),
			LifetimeExpense:   ledger.FormatAmount(o.KPIs.LifetimeExpense),
			LifetimeNet:       ledger.FormatAmount(o.KPIs.LifetimeNet),
			AvgMonthlyIncome:  ledger.FormatAmount(o.KPIs.AvgMonthlyIncome),
			AvgMonthlyExpense: ledger.FormatAmount(o.KPIs.AvgMonthlyExpense),
			SavingsRatePct:    ledger.FormatAmountPtr(o.KPIs.SavingsRatePct),
		},
		NetWorthSeries: toSeriesPointResponses(o.NetWorthSeries),
		Yearly:         make([]yearRowResponse, 0, len(o.Yearly)),
		ExpenseHeatmap: toHeatmapResponse(o.ExpenseHeatmap),
		IncomeHeatmap:  toHeatmapResponse(o.IncomeHeatmap),
		ExpenseMix:     make([]mixRowResponse, 0, len(o.ExpenseMix)),
		IncomeMix:      make([]mixRowResponse, 0, len(o.IncomeMix)),
		Accounts:       make([]accountSummaryResponse, 0, len(o.Accounts)),
		Investments:    toInvestSummaryResponse(o.Investments),
		Debt:           toSeriesPointResponses(o.Debt),
	}
	for _, y := range o.Yearly {
		resp.Yearly = append(resp.Yearly, yearRowResponse{
			Year:    y.Year,
			Income:  ledger.FormatAmount(y.Income),
			Expense: ledger.FormatAmount(y.Expense),
			Net:     ledger.FormatAmount(y.Net),
		})
	}
	for _, m := range o.ExpenseMix {
		resp.ExpenseMix = append(resp.ExpenseMix, mixRowResponse{
			Name:     m.Name,
			Total:    ledger.FormatAmount(m.Total),
			SharePct: ledger.FormatAmountPtr(m.SharePct),
		})
	}
	for _, m := range o.IncomeMix {
		resp.IncomeMix = append(resp.IncomeMix, mixRowResponse{
			Name:     m.Name,
			Total:    ledger.FormatAmount(m.Total),
			SharePct: ledger.FormatAmountPtr(m.SharePct),
		})
	}
	for _, a := range o.Accounts {
		resp.Accounts = append(resp.Accounts, accountSummaryResponse{
			AccountID: a.Account.ID,
			Name:      a.Account.Name,
			Type:      a.Account.Type.String(),
			Active:    a.Account.Active,
			Balance:   ledger.FormatAmount(a.Balance),
		})
	}
	return resp
}

func (s *Server) handleYearlyOverview(c *gin.Context) {
	store, snapshots := s.stores()

	year, ok := yearParam(c, c.Param("year"))
	if !ok {
		return
	}

	overview, err := report.BuildYearlyOverview(c.Request.Context(), store, snapshots, year, filtersFromQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toYearlyOverviewResponse(overview))
}

func (s *Server) handleTotalOverview(c *gin.Context) {
	store, snapshots := s.stores()

	overview, err := report.BuildTotalOverview(c.Request.Context(), store, snapshots, filtersFromQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toTotalOverviewResponse(overview))
}
