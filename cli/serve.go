package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alecthomas/kong"

	"finledger/config"
	"finledger/events"
	"finledger/ledger"
	"finledger/web"
)

type ServeCmd struct {
	File   string `help:"Ledger data file to serve (overrides the global flag)." arg:"" optional:""`
	Port   int    `help:"Port to listen on (0 uses the configured default)." default:"0"`
	Watch  bool   `help:"Reload when the data file changes on disk." default:"true" negatable:""`
	Create bool   `help:"Automatically create the file if it doesn't exist (no confirmation prompt)." short:"c"`
	NoAMQP bool   `help:"Skip publishing ledger events to AMQP even when configured."`
}

func (cmd *ServeCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx := context.Background()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	file := cmd.File
	if file == "" {
		file = globals.dataFile(cfg.LedgerFile)
	}
	dataFile, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if _, err := os.Stat(dataFile); err != nil {
		if os.IsNotExist(err) {
			shouldCreate := cmd.Create

			if !shouldCreate {
				confirmed, err := promptYesNo(ctx, fmt.Sprintf("File %q does not exist. Create it?", dataFile))
				if err != nil {
					return fmt.Errorf("failed to read confirmation: %w", err)
				}
				shouldCreate = confirmed
			}

			if !shouldCreate {
				return fmt.Errorf("file does not exist: %s", dataFile)
			}

			if err := os.MkdirAll(filepath.Dir(dataFile), 0755); err != nil {
				return fmt.Errorf("failed to create parent directory: %w", err)
			}
			if err := os.WriteFile(dataFile, []byte(starterDataset), 0600); err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}

			printInfof(ctx.Stdout, "Created starter data file: %s", pathStyle.Render(dataFile))
		} else {
			return fmt.Errorf("failed to access file: %w", err)
		}
	}

	port := cmd.Port
	if port == 0 {
		port, _ = strconv.Atoi(cfg.Port)
	}

	server := web.New(port, dataFile)
	server.Host = cfg.Host
	server.WatchEnabled = cmd.Watch
	server.RealizedFraction = cfg.RealizedFraction
	server.ReconciliationThreshold = cfg.ReconciliationThreshold
	server.ForecastLookbackDays = cfg.ForecastLookbackDays
	if Version != "" {
		server.Version = Version
	} else {
		server.Version = "dev"
	}

	if cfg.AMQPURL != "" && !cmd.NoAMQP {
		publisher, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer publisher.Close()
		server.OnDatasetLoaded = func(store *ledger.Store) {
			publisher.Attach(runCtx, store)
		}
		printInfof(ctx.Stdout, "Publishing ledger events to %s", cfg.AMQPExchange)
	}

	printInfof(ctx.Stdout, "Serving %s on http://%s:%d", pathStyle.Render(dataFile), cfg.Host, port)
	return server.Start(runCtx)
}
