// Package cli implements the cobra-based CLI commands for mljob.
//
// Each subcommand (train, image) is defined in its own file within this
// package. This file defines the root command that serves as the parent
// for all subcommands and handles global flags and error-to-exit-code
// translation.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/mljob/internal/model"
)

// Global flag variables shared across all subcommands. They are bound to
// cobra persistent flags on the root command, which makes them available
// to every subcommand automatically.
var (
	// jsonOutput switches result and error output to structured JSON
	// for machine consumption.
	jsonOutput bool

	// verbose enables detailed stderr logging of the routing and
	// dispatch steps.
	verbose bool
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command performs no action itself — it provides help text and
// global flags. Functionality lives in the train and image subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mljob",
		Short: "Distributed ML training launch and toolkit image lifecycle",
		Long: `mljob launches distributed machine-learning training jobs through an
MPI-style launcher and manages the toolkit's container image.

The train command separates its own orchestration flags (worker count,
hostfile) from the wrapped training command's arguments, which are
forwarded verbatim. The image command builds, pushes, or runs the toolkit
container image, with settings taken from mljob.jsonc and the
MLJOB_* environment variables.`,

		// Usage and errors are printed by Execute, in text or JSON per
		// the --json flag, so cobra's automatic output is silenced.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewTrainCommand())
	rootCmd.AddCommand(NewImageCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// CLIError values carry their own exit codes — including downstream exit
// codes propagated from a failed launcher or docker child process. Any
// other error exits with the general error code.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag. Errors always go to
// stderr; stdout is reserved for successful command output.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// applyGlobals transfers the routed global flags onto the package-level
// flag variables. The subcommands disable cobra flag parsing, so
// --verbose and --json given after the subcommand name arrive through
// the router instead of cobra; flags given before the subcommand name
// are parsed by cobra as usual, so this only ever turns the globals on.
func applyGlobals(req *model.InvocationRequest) {
	if req.Verbose {
		verbose = true
	}
	if req.JSON {
		jsonOutput = true
	}
}

// usageError prints the command's usage text to stderr and returns a
// CLIError with the fixed usage-error exit code. Dispatch never proceeds
// past a usage error — no downstream process is launched.
func usageError(message, usage string) error {
	fmt.Fprintf(os.Stderr, "Usage:\n%s", usage)
	return model.NewCLIError(model.ExitUsageError, message)
}

// VerboseLog prints a message to stderr only when verbose mode is
// enabled. Used throughout the CLI for trace output that shows which
// routing and dispatch steps are being performed.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}
