// Package cli — train.go implements the "mljob train" command (the
// distributed training launcher).
//
// Orchestration steps:
//  1. Route raw argv: extract -np and --hostfile, keep the rest verbatim
//  2. Reject a worker count below 1 before anything is launched
//  3. Load the launcher template from configuration
//  4. Parse the hostfile, if given
//  5. Build the downstream argv and execute it, propagating its exit code
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/mljob/internal/config"
	"github.com/shinji-kodama/mljob/internal/hostfile"
	"github.com/shinji-kodama/mljob/internal/launcher"
	"github.com/shinji-kodama/mljob/internal/router"
)

// NewTrainCommand creates the "train" cobra command.
//
// Flag parsing is disabled on the cobra side: aside from -np and
// --hostfile, every token belongs to the wrapped training command and
// must reach it untouched — including tokens that look like flags cobra
// would otherwise reject. The shared router does the splitting instead.
func NewTrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train -np <count> [--hostfile <file>] [training args...]",
		Short: "Launch a distributed training job",
		Long: `Launch a distributed training job through the configured MPI-style
launcher.

The -np flag sets the number of parallel workers and is required. An
optional YAML hostfile spreads the workers across multiple machines.
All other arguments are forwarded verbatim, in order, to the wrapped
training command.

Examples:
  mljob train -np 4 --epochs 10
  mljob train -np 8 --hostfile hosts.yml --data /sets/imagenet`,

		DisableFlagParsing: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd.Context(), args)
		},
	}

	return cmd
}

// trainUsage renders the train command's usage text for usage errors.
func trainUsage() string {
	return "  mljob train -np <count> [--hostfile <file>] [training args...]\n" +
		router.Usage(router.TrainTable())
}

// runTrain is the orchestration function for the train command.
func runTrain(ctx context.Context, args []string) error {
	// DisableFlagParsing means cobra forwards even --help to us.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			fmt.Fprintf(os.Stderr, "Usage:\n%s", trainUsage())
			return nil
		}
	}

	// Step 1: route argv into orchestration flags and pass-through.
	req, err := router.Parse(router.TrainTable(), args)
	if err != nil {
		return usageError(err.Error(), trainUsage())
	}
	applyGlobals(req)
	VerboseLog("Routed %d pass-through token(s)", len(req.Passthrough))

	// Step 2: reject a missing or invalid worker count before any
	// process is created.
	if err := req.ValidateProcessCount(); err != nil {
		return usageError(err.Error(), trainUsage())
	}
	VerboseLog("Process count: %d", req.ProcessCount)

	// Step 3: load the launcher template.
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	VerboseLog("Launcher: %s", cfg.Launcher)

	// Step 4: resolve the host list, if a hostfile was given.
	spec := launcher.JobSpec{
		Procs:       req.ProcessCount,
		Passthrough: req.Passthrough,
	}
	if req.Hostfile != "" {
		hosts, err := hostfile.ParseFile(req.Hostfile)
		if err != nil {
			return err
		}
		spec.Hosts = hosts
		VerboseLog("Hosts: %s (%d slots)", hosts, hosts.TotalSlots())

		// Oversubscription is the launcher's call to refuse or allow;
		// we only surface it.
		if req.ProcessCount > hosts.TotalSlots() {
			fmt.Fprintf(os.Stderr, "Warning: %d workers requested but hostfile provides %d slots\n",
				req.ProcessCount, hosts.TotalSlots())
		}
	}

	// Step 5: build and execute the downstream command.
	argv := launcher.BuildArgv(cfg, spec)
	printLaunchPlan(argv)
	return launcher.Run(ctx, argv)
}

// printLaunchPlan shows the downstream command about to run. JSON mode
// emits the argv as an array for machine consumption; text mode logs it
// only under --verbose to keep the training output clean.
func printLaunchPlan(argv []string) {
	if IsJSONOutput() {
		data, _ := json.Marshal(map[string]interface{}{"launch": argv})
		fmt.Println(string(data))
		return
	}
	VerboseLog("Launching: %v", argv)
}
