// Package main is the entry point for the safehaven CLI.
//
// safehaven deploys and tears down secure research environments by driving
// the infrastructure automation engine against Azure. Each environment
// component is one engine stack whose configuration, state backups and
// key vault are managed alongside it.
//
// Commands: deploy, teardown, cancel, output, secret, version.
//
// For detailed usage information, run:
//
//	safehaven --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/safehaven/cmd/safehaven/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
