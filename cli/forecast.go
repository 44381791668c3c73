package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"finledger/config"
	"finledger/forecast"
	"finledger/ledger"
	"finledger/loader"
	"finledger/output"
)

type ForecastCmd struct {
	Days     int    `help:"Days to project forward." default:"30"`
	Model    string `help:"Forecast model (ensemble or trend)." default:"ensemble"`
	Lookback int    `help:"History window in days." default:"180"`
}

func (cmd *ForecastCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx := context.Background()

	cfg := config.Load()
	ds, err := loader.New().Load(runCtx, globals.dataFile(cfg.LedgerFile))
	if err != nil {
		return err
	}

	forecaster := forecast.New()
	forecaster.Model = cmd.Model
	forecaster.LookbackDays = cmd.Lookback
	if cmd.Lookback == forecast.DefaultLookbackDays && cfg.ForecastLookbackDays > 0 {
		forecaster.LookbackDays = cfg.ForecastLookbackDays
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -forecaster.LookbackDays)
	history := ds.Ledger.DailyDeltas(nil, from, now)

	starting := forecastStartingBalance(ds.Ledger, now)

	result, err := forecaster.Forecast(runCtx, history, starting, cmd.Days)
	if err != nil {
		return err
	}

	styles := output.NewStyles(ctx.Stdout)
	fmt.Fprintln(ctx.Stdout, styles.Keyword(fmt.Sprintf("Cashflow forecast, %d days (%s)", cmd.Days, result.Model)))
	fmt.Fprintln(ctx.Stdout)
	printInfof(ctx.Stdout, "starting balance %s", ledger.FormatAmount(starting))
	fmt.Fprintln(ctx.Stdout)

	rows := make([][]string, 0, len(result.Points))
	for _, p := range result.Points {
		rows = append(rows, []string{
			p.Date.Format("2006-01-02"),
			ledger.FormatAmount(p.Value),
			ledger.FormatAmount(p.Low),
			ledger.FormatAmount(p.High),
		})
	}
	writeTable(ctx.Stdout,
		[]string{"Date", "Projected", "Low", "High"},
		rows,
		[]bool{false, true, true, true},
		func(row, col int, padded string) string {
			if col == 1 {
				return amountStyle(styles, rows[row][col])(padded)
			}
			if col > 1 {
				return styles.Dim(padded)
			}
			return padded
		})

	return nil
}

// forecastStartingBalance sums balances over the same accounts the daily
// delta history covers, every non-investment account.
func forecastStartingBalance(l *ledger.Store, now time.Time) decimal.Decimal {
	starting := decimal.Zero
	balances := l.Balances(now)
	for _, a := range l.Accounts() {
		if a.Type != ledger.AccountInvestment {
			starting = starting.Add(balances[a.ID])
		}
	}
	return starting
}
