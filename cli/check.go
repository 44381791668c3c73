package cli

import (
	"context"
	stdErrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"finledger/config"
	"finledger/ledger"
	"finledger/loader"
)

type CheckCmd struct {
	File string `help:"Ledger data file (overrides the global flag)." arg:"" optional:""`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	file := cmd.File
	if file == "" {
		file = globals.dataFile(config.Load().LedgerFile)
	}

	ds, err := loader.New().Load(context.Background(), file)
	if err != nil {
		var loadErr *loader.LoadError
		if stdErrors.As(err, &loadErr) {
			printError(ctx.Stderr, fmt.Sprintf("%s[%d]: %v", loadErr.Section, loadErr.Index, loadErr.Err))
		} else {
			printError(ctx.Stderr, err.Error())
		}

		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, "check failed")
		os.Exit(1)
	}

	accounts := ds.Ledger.Accounts()
	txns := ds.Ledger.Transactions()

	printInfof(ctx.Stdout, "Loaded %s", pathStyle.Render(file))
	printInfof(ctx.Stdout, "%d accounts, %d categories, %d transactions",
		len(accounts), len(ds.Ledger.Categories()), len(txns))
	if n := len(ds.Snapshots.Snapshots()); n > 0 {
		printInfof(ctx.Stdout, "%d portfolio snapshots", n)
	}

	// Every committed transaction balances; surface the sum anyway so a
	// corrupted store is caught here and not in a report.
	total := ledger.FormatAmount(sumBalances(ds.Ledger, time.Now().UTC()))
	printInfof(ctx.Stdout, "net ledger balance %s", total)

	printSuccess(ctx.Stdout, "Check passed")
	return nil
}

func sumBalances(store *ledger.Store, asOf time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, balance := range store.Balances(asOf) {
		sum = sum.Add(balance)
	}
	return sum
}
