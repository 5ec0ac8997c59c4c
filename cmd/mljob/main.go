// Package main is the entry point for the mljob CLI.
//
// This binary launches distributed ML training jobs through an MPI-style
// launcher and manages the toolkit's container image. It delegates all
// functionality to the internal/cli package, which defines cobra commands.
package main

import (
	"github.com/shinji-kodama/mljob/internal/cli"
)

// version, commit, and date identify the binary in --version output.
// Release builds overwrite them via -ldflags "-X main.version=...";
// development builds keep the defaults.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject build-time version info into the CLI package, keeping the
	// ldflags target in main while cobra owns the --version flag.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
