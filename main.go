package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"finledger/cli"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	root struct {
		Version kong.VersionFlag `help:"Show version information"`
		cli.Commands
	}
)

func main() {
	cli.Version = Version
	cli.CommitSHA = CommitSHA

	ctx := kong.Parse(&root,
		kong.Vars{
			"version": buildVersion(),
		},
		kong.Name("finledger"),
		kong.Description("A personal finance ledger and reporting engine."),
		kong.UsageOnError(),
		kong.Bind(&root.Globals),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func buildVersion() string {
	if Version == "" {
		Version = "dev"
	}
	if CommitSHA == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, CommitSHA)
}
