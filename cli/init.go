package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"finledger/config"
)

// starterDataset is the skeleton written by `init` and `serve --create`.
// It names the sections a dataset file can carry so the file is
// self-documenting.
const starterDataset = `{
  "accounts": [
    {"name": "Checking"},
    {"name": "Savings"},
    {"name": "External"}
  ],
  "categories": [
    {"name": "Salary", "type": "INCOME"},
    {"name": "Groceries", "type": "EXPENSE"},
    {"name": "Housing", "type": "EXPENSE"}
  ],
  "transactions": [],
  "budgets": [],
  "subscriptions": [],
  "goals": [],
  "snapshots": [],
  "investment_transactions": []
}
`

type InitCmd struct {
	File  string `help:"File to create (overrides the global flag)." arg:"" optional:""`
	Force bool   `help:"Overwrite an existing file without confirmation."`
}

func (cmd *InitCmd) Run(ctx *kong.Context, globals *Globals) error {
	file := cmd.File
	if file == "" {
		file = globals.dataFile(config.Load().LedgerFile)
	}

	if _, err := os.Stat(file); err == nil && !cmd.Force {
		confirmed, err := promptYesNo(ctx, fmt.Sprintf("File %q already exists. Overwrite it?", file))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !confirmed {
			return fmt.Errorf("file already exists: %s", file)
		}
	}

	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create parent directory: %w", err)
		}
	}
	if err := os.WriteFile(file, []byte(starterDataset), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Created %s", pathStyle.Render(file)))
	printInfof(ctx.Stdout, "Run `finledger serve %s` to start the web interface", file)
	return nil
}
