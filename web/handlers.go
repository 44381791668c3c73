package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finledger/forecast"
	"finledger/ledger"
	"finledger/report"
)

const dateLayout = "2006-01-02"

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.Version})
}

type accountResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	Active    bool          `json:"active"`
	Loan      *loanResponse `json:"loan,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type loanResponse struct {
	OriginPrincipal  string `json:"origin_principal"`
	CurrentPrincipal string `json:"current_principal"`
	AnnualRate       string `json:"annual_rate"`
	Compounding      string `json:"compounding"`
	MinimumPayment   string `json:"minimum_payment"`
}

func (s *Server) handleGetAccounts(c *gin.Context) {
	store, _ := s.stores()

	accounts := store.Accounts()
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp := accountResponse{
			ID:        a.ID,
			Name:      a.Name,
			Type:      a.Type.String(),
			Active:    a.Active,
			CreatedAt: a.CreatedAt,
		}
		if a.Loan != nil {
			resp.Loan = &loanResponse{
				OriginPrincipal:  ledger.FormatAmount(a.Loan.OriginPrincipal),
				CurrentPrincipal: ledger.FormatAmount(a.Loan.CurrentPrincipal),
				AnnualRate:       a.Loan.AnnualRate.String(),
				Compounding:      a.Loan.Compounding,
				MinimumPayment:   ledger.FormatAmount(a.Loan.MinimumPayment),
			}
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

type balanceResponse struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
}

func (s *Server) handleGetBalances(c *gin.Context) {
	store, _ := s.stores()

	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be YYYY-MM-DD"})
			return
		}
		// End of day, so the day's own transactions count.
		asOf = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	balances := store.Balances(asOf)
	accounts := store.Accounts()
	out := make([]balanceResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, balanceResponse{
			AccountID: a.ID,
			Name:      a.Name,
			Type:      a.Type.String(),
			Balance:   ledger.FormatAmount(balances[a.ID]),
		})
	}
	c.JSON(http.StatusOK, gin.H{"balances": out, "as_of": asOf.Format(dateLayout)})
}

type reconciliationResponse struct {
	AccountID           string `json:"account_id"`
	AsOf                string `json:"as_of"`
	Asserted            string `json:"asserted"`
	Computed            string `json:"computed"`
	Gap                 string `json:"gap"`
	NeedsReconciliation bool   `json:"needs_reconciliation"`
}

func (s *Server) handleReconcile(c *gin.Context) {
	store, _ := s.stores()

	accountID := c.Query("account")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account is required"})
		return
	}
	asserted, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a decimal number"})
		return
	}

	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be YYYY-MM-DD"})
			return
		}
		asOf = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	rec, err := store.Reconcile(accountID, asserted, asOf, s.ReconciliationThreshold)
	if err != nil {
		c.JSON(ledgerErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, reconciliationResponse{
		AccountID:           rec.AccountID,
		AsOf:                rec.AsOf.Format(dateLayout),
		Asserted:            ledger.FormatAmount(rec.Asserted),
		Computed:            ledger.FormatAmount(rec.Computed),
		Gap:                 ledger.FormatAmount(rec.Gap),
		NeedsReconciliation: rec.NeedsReconciliation,
	})
}

type legResponse struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}

type transactionResponse struct {
	ID             string        `json:"id"`
	Description    string        `json:"description"`
	Notes          string        `json:"notes,omitempty"`
	OccurredAt     string        `json:"occurred_at"`
	PostedAt       string        `json:"posted_at"`
	CategoryID     string        `json:"category_id,omitempty"`
	SubscriptionID string        `json:"subscription_id,omitempty"`
	Legs           []legResponse `json:"legs"`
}

func toTransactionResponse(t *ledger.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:             t.ID,
		Description:    t.Description,
		Notes:          t.Notes,
		OccurredAt:     t.OccurredAt.Format(dateLayout),
		PostedAt:       t.PostedAt.Format(dateLayout),
		CategoryID:     t.CategoryID,
		SubscriptionID: t.SubscriptionID,
		Legs:           make([]legResponse, 0, len(t.Legs)),
	}
	for _, leg := range t.Legs {
		resp.Legs = append(resp.Legs, legResponse{
			AccountID: leg.AccountID,
			Amount:    ledger.FormatAmount(leg.Amount),
		})
	}
	return resp
}

func (s *Server) handleGetTransactions(c *gin.Context) {
	store, _ := s.stores()

	txns := store.Transactions()
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number"})
			return
		}
		filtered := txns[:0]
		for _, t := range txns {
			if t.OccurredAt.Year() == year {
				filtered = append(filtered, t)
			}
		}
		txns = filtered
	}

	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

type legRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}

type transactionRequest struct {
	Description string       `json:"description"`
	Notes       string       `json:"notes"`
	OccurredAt  string       `json:"occurred_at"`
	PostedAt    string       `json:"posted_at"`
	CategoryID  string       `json:"category_id"`
	Legs        []legRequest `json:"legs"`
}

func (s *Server) handlePostTransaction(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	occurred, err := time.Parse(dateLayout, req.OccurredAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "occurred_at must be YYYY-MM-DD"})
		return
	}
	input := ledger.TransactionInput{
		Description: req.Description,
		Notes:       req.Notes,
		OccurredAt:  occurred,
		CategoryID:  req.CategoryID,
	}
	if req.PostedAt != "" {
		posted, err := time.Parse(dateLayout, req.PostedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "posted_at must be YYYY-MM-DD"})
			return
		}
		input.PostedAt = posted
	}
	for i, leg := range req.Legs {
		amount, err := decimal.NewFromString(leg.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "leg " + strconv.Itoa(i) + ": invalid amount"})
			return
		}
		input.Legs = append(input.Legs, ledger.LegInput{AccountID: leg.AccountID, Amount: amount})
	}

	store, _ := s.stores()
	txn, err := store.RecordTransaction(input)
	if err != nil {
		status, payload := ledgerErrorResponse(err)
		c.JSON(status, payload)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": toTransactionResponse(txn)})
}

// ledgerErrorResponse maps the store's typed validation errors onto HTTP
// statuses. Reference errors are 404-ish but reported as 422 since the
// request itself named them; only malformed input is 400.
func ledgerErrorResponse(err error) (int, gin.H) {
	var unbalanced *ledger.UnbalancedLegsError
	if errors.As(err, &unbalanced) {
		return http.StatusUnprocessableEntity, gin.H{
			"error":    "transaction legs do not sum to zero",
			"residual": ledger.FormatAmount(unbalanced.Residual),
		}
	}
	var insufficient *ledger.InsufficientLegsError
	if errors.As(err, &insufficient) {
		return http.StatusUnprocessableEntity, gin.H{"error": "a transaction needs at least two legs"}
	}
	var unknownAccount *ledger.UnknownAccountError
	if errors.As(err, &unknownAccount) {
		return http.StatusUnprocessableEntity, gin.H{"error": err.Error()}
	}
	var unknownCategory *ledger.UnknownCategoryError
	if errors.As(err, &unknownCategory) {
		return http.StatusUnprocessableEntity, gin.H{"error": err.Error()}
	}
	var invalidAmount *ledger.InvalidAmountError
	if errors.As(err, &invalidAmount) {
		return http.StatusUnprocessableEntity, gin.H{"error": err.Error()}
	}
	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}

type monthRowResponse struct {
	Period  string `json:"period"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

func (s *Server) handleMonthly(c *gin.Context) {
	store, _ := s.stores()

	year, ok := yearParam(c, c.Query("year"))
	if !ok {
		return
	}

	rows := report.Monthly(store, year, filtersFromQuery(c))
	out := make([]monthRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, monthRowResponse{
			Period:  row.Period.String(),
			Income:  ledger.FormatAmount(row.Income),
			Expense: ledger.FormatAmount(row.Expense),
			Net:     ledger.FormatAmount(row.Net),
		})
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "months": out})
}

type yearRowResponse struct {
	Year    int    `json:"year"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

func (s *Server) handleYearly(c *gin.Context) {
	store, _ := s.stores()

	years := report.TransactionYears(store)
	rows := report.Yearly(store, years, filtersFromQuery(c))
	out := make([]yearRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, yearRowResponse{
			Year:    row.Year,
			Income:  ledger.FormatAmount(row.Income),
			Expense: ledger.FormatAmount(row.Expense),
			Net:     ledger.FormatAmount(row.Net),
		})
	}
	c.JSON(http.StatusOK, gin.H{"years": out})
}

type budgetStatusResponse struct {
	BudgetID    string  `json:"budget_id"`
	Category    string  `json:"category"`
	Period      string  `json:"period"`
	Amount      string  `json:"amount"`
	WindowStart string  `json:"window_start"`
	Spent       string  `json:"spent"`
	Remaining   string  `json:"remaining"`
	PercentUsed *string `json:"percent_used"`
	Overspent   bool    `json:"overspent"`
}

func (s *Server) handleBudgets(c *gin.Context) {
	store, _ := s.stores()

	statuses := report.BudgetReport(store, time.Now().UTC())
	out := make([]budgetStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		resp := budgetStatusResponse{
			BudgetID:    st.Budget.ID,
			Period:      st.Budget.Period.String(),
			Amount:      ledger.FormatAmount(st.Budget.Amount),
			WindowStart: st.WindowStart.Format(dateLayout),
			Spent:       ledger.FormatAmount(st.Spent),
			Remaining:   ledger.FormatAmount(st.Remaining),
			PercentUsed: ledger.FormatAmountPtr(st.PercentUsed),
			Overspent:   st.Overspent,
		}
		if st.Category != nil {
			resp.Category = st.Category.Name
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, gin.H{"budgets": out})
}

type subscriptionMatchResponse struct {
	SubscriptionID string `json:"subscription_id"`
	Name           string `json:"name"`
	TransactionID  string `json:"transaction_id"`
	Description    string `json:"description"`
	OccurredAt     string `json:"occurred_at"`
	Amount         string `json:"amount"`
}

func (s *Server) handleSubscriptions(c *gin.Context) {
	store, _ := s.stores()

	matches := report.MatchSubscriptions(store, filtersFromQuery(c))
	out := make([]subscriptionMatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, subscriptionMatchResponse{
			SubscriptionID: m.Subscription.ID,
			Name:           m.Subscription.Name,
			TransactionID:  m.Transaction.ID,
			Description:    m.Transaction.Description,
			OccurredAt:     m.Transaction.OccurredAt.Format(dateLayout),
			Amount:         ledger.FormatAmount(m.Amount),
		})
	}
	c.JSON(http.StatusOK, gin.H{"matches": out})
}

type goalStatusResponse struct {
	GoalID        string  `json:"goal_id"`
	Name          string  `json:"name"`
	TargetAmount  string  `json:"target_amount"`
	TargetDate    string  `json:"target_date"`
	CurrentAmount string  `json:"current_amount"`
	ProgressPct   *string `json:"progress_pct"`
}

func (s *Server) handleGoals(c *gin.Context) {
	store, _ := s.stores()

	statuses := report.GoalReport(store, time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{"goals": toGoalStatusResponses(statuses)})
}

type forecastPointResponse struct {
	Date  string `json:"date"`
	Value string `json:"value"`
	Low   string `json:"low"`
	High  string `json:"high"`
}

func (s *Server) handleForecast(c *gin.Context) {
	store, _ := s.stores()

	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive number"})
			return
		}
		days = parsed
	}

	forecaster := forecast.New()
	if s.ForecastLookbackDays > 0 {
		forecaster.LookbackDays = s.ForecastLookbackDays
	}
	if model := c.Query("model"); model != "" {
		forecaster.Model = model
	}
	if raw := c.Query("lookback_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lookback_days must be a positive number"})
			return
		}
		forecaster.LookbackDays = parsed
	}

	accountIDs := splitParam(c.Query("accounts"))
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -forecaster.LookbackDays)
	history := store.DailyDeltas(accountIDs, from, now)
	starting := forecastBasis(store, accountIDs, now)

	result, err := forecaster.Forecast(c.Request.Context(), history, starting, days)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	points := make([]forecastPointResponse, 0, len(result.Points))
	for _, p := range result.Points {
		points = append(points, forecastPointResponse{
			Date:  p.Date.Format(dateLayout),
			Value: ledger.FormatAmount(p.Value),
			Low:   ledger.FormatAmount(p.Low),
			High:  ledger.FormatAmount(p.High),
		})
	}
	weekday := make([]string, len(result.WeekdayAverages))
	for i, v := range result.WeekdayAverages {
		weekday[i] = ledger.FormatAmount(v)
	}
	monthday := make([]string, len(result.MonthdayAverages))
	for i, v := range result.MonthdayAverages {
		monthday[i] = ledger.FormatAmount(v)
	}
	c.JSON(http.StatusOK, gin.H{
		"model":             result.Model,
		"lookback_days":     result.LookbackDays,
		"starting_balance":  ledger.FormatAmount(starting),
		"points":            points,
		"weekday_averages":  weekday,
		"monthday_averages": monthday,
	})
}

// forecastBasis sums current balances over the same account set DailyDeltas
// covers, so the projected series starts from the balance its deltas move.
func forecastBasis(store *ledger.Store, accountIDs []string, now time.Time) decimal.Decimal {
	starting := decimal.Zero
	balances := store.Balances(now)
	if len(accountIDs) == 0 {
		for _, a := range store.Accounts() {
			if a.Type != ledger.AccountInvestment {
				starting = starting.Add(balances[a.ID])
			}
		}
		return starting
	}
	for _, id := range accountIDs {
		starting = starting.Add(balances[id])
	}
	return starting
}

type projectionPointResponse struct {
	Period string `json:"period"`
	Value  string `json:"value"`
}

func (s *Server) handleProjection(c *gin.Context) {
	store, snapshots := s.stores()

	months := 12
	if raw := c.Query("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "months must be a positive number"})
			return
		}
		months = parsed
	}

	now := time.Now().UTC()
	current := decimal.Zero
	years := report.TransactionYears(store)
	nets := make(map[ledger.Period]decimal.Decimal)
	if len(years) > 0 {
		builder := s.netWorthBuilder(snapshots)
		from := ledger.Period{Year: years[0], Month: time.January}
		series := builder.Series(store, from, ledger.PeriodOf(now), report.Filters{})
		if len(series) > 0 {
			current = series[len(series)-1].Value
		}
		for _, year := range years {
			for _, row := range report.Monthly(store, year, report.Filters{}) {
				nets[row.Period] = row.Net
			}
		}
	}

	trailing := forecast.TrailingMonthlyNets(nets, now, 12)
	projection, err := forecast.ProjectNetWorth(current, trailing, ledger.PeriodOf(now), months)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"current":      ledger.FormatAmount(current),
		"baseline":     projectionPoints(projection.Baseline),
		"conservative": projectionPoints(projection.Conservative),
		"aggressive":   projectionPoints(projection.Aggressive),
	})
}

func projectionPoints(points []forecast.ProjectionPoint) []projectionPointResponse {
	out := make([]projectionPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, projectionPointResponse{
			Period: p.Period.String(),
			Value:  ledger.FormatAmount(p.Value),
		})
	}
	return out
}

func yearParam(c *gin.Context, raw string) (int, bool) {
	if raw == "" {
		return time.Now().UTC().Year(), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number"})
		return 0, false
	}
	return year, true
}

func filtersFromQuery(c *gin.Context) report.Filters {
	return report.Filters{
		AccountIDs:  splitParam(c.Query("accounts")),
		CategoryIDs: splitParam(c.Query("categories")),
	}
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
