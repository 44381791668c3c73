package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"finledger/config"
	"finledger/loader"
	"finledger/storage"
)

type SyncCmd struct {
	Database string `help:"SQLite database path (uses SQLITE_DB_PATH when empty)." short:"d"`
}

func (cmd *SyncCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx := context.Background()

	cfg := config.Load()
	file := globals.dataFile(cfg.LedgerFile)

	ds, err := loader.New().Load(runCtx, file)
	if err != nil {
		return err
	}

	dbPath := cmd.Database
	if dbPath == "" {
		dbPath = cfg.SQLiteDBPath
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.SaveDataset(runCtx, ds.Ledger, ds.Snapshots); err != nil {
		return err
	}

	printInfof(ctx.Stdout, "Mirrored %s into %s",
		pathStyle.Render(file), pathStyle.Render(dbPath))
	printSuccess(ctx.Stdout, "Sync complete")
	return nil
}
