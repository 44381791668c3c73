package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	File string `help:"Ledger data file." short:"f" env:"FINLEDGER_FILE"`
}

type Commands struct {
	Globals

	Check    CheckCmd    `cmd:"" help:"Load and validate a ledger data file."`
	Report   ReportCmd   `cmd:"" help:"Render the yearly overview report."`
	Forecast ForecastCmd `cmd:"" help:"Project cashflow forward from recent history."`
	Serve    ServeCmd    `cmd:"" help:"Start the web server."`
	Sync     SyncCmd     `cmd:"" help:"Mirror the data file into a SQLite database."`
	Init     InitCmd     `cmd:"" help:"Create a starter data file."`
}

// dataFile resolves the ledger file from the global flag, the configured
// LEDGER_FILE, and the default name, in that order.
func (g *Globals) dataFile(configured string) string {
	if g.File != "" {
		return g.File
	}
	if configured != "" {
		return configured
	}
	return "finledger.json"
}
