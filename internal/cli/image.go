// Package cli — image.go implements the "mljob image" command (the
// toolkit image lifecycle).
//
// Orchestration steps:
//  1. Route raw argv: build/run action (last-wins) plus wheel/push/force
//  2. Reject the invocation with usage text when no action was selected
//  3. Load image settings from mljob.jsonc and MLJOB_* overrides
//  4. Verify daemon connectivity
//  5. Dispatch: [wheel →] build [→ push], or run
package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/mljob/internal/config"
	"github.com/shinji-kodama/mljob/internal/docker"
	"github.com/shinji-kodama/mljob/internal/model"
	"github.com/shinji-kodama/mljob/internal/router"
)

// NewImageCommand creates the "image" cobra command.
//
// Like train, cobra flag parsing is disabled and the shared router does
// the work: the build/run flags carry a last-wins policy that cobra's
// flag model cannot express.
func NewImageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image [-b|--build] [-w|--wheel] [-p|--push] [-f|--force] [-r|--run] [--default]",
		Short: "Build, push, or run the toolkit container image",
		Long: `Build, push, or run the toolkit container image.

Build and run are mutually exclusive; when both appear, the later flag
wins. Wheel, push and force are independent modifiers: wheel builds the
source package before the image, push uploads the built image to the
registry, and force disables the build cache. --default runs the image
with force and push disabled. With no action flag, usage is printed and
nothing is executed.

Examples:
  mljob image --build
  mljob image -b -w -p
  mljob image --run
  mljob image --default`,

		DisableFlagParsing: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runImage(cmd.Context(), args)
		},
	}

	return cmd
}

// imageUsage renders the image command's usage text for usage errors.
func imageUsage() string {
	return "  mljob image [flags]\n" + router.Usage(router.ImageTable())
}

// runImage is the orchestration function for the image command.
func runImage(ctx context.Context, args []string) error {
	for _, a := range args {
		if a == "--help" || a == "-h" {
			fmt.Fprintf(os.Stderr, "Usage:\n%s", imageUsage())
			return nil
		}
	}

	// Step 1: route argv.
	req, err := router.Parse(router.ImageTable(), args)
	if err != nil {
		return usageError(err.Error(), imageUsage())
	}
	applyGlobals(req)

	// Unrecognized tokens have no downstream process to go to here —
	// surface them instead of dropping them silently.
	if len(req.Passthrough) > 0 {
		return usageError(fmt.Sprintf("unrecognized arguments: %v", req.Passthrough), imageUsage())
	}

	// Step 2: no action flag means usage, not a silent default.
	if req.Action == model.ActionNone {
		return usageError("no action selected", imageUsage())
	}
	VerboseLog("Action: %s (wheel=%t push=%t force=%t)",
		req.Action, req.Modes.Wheel, req.Modes.Push, req.Modes.Force)

	// Step 3: load image settings.
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	ref := cfg.ImageRef()
	VerboseLog("Image reference: %s", ref)

	// Step 4: daemon preflight — fail fast before a long build.
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()
	if err := cli.Ping(ctx); err != nil {
		return err
	}

	// Step 5: dispatch.
	switch req.Action {
	case model.ActionBuild:
		return runImageBuild(ctx, cli, cfg, ref, req.Modes)
	case model.ActionRun:
		return runImageRun(ctx, cli, cfg, ref)
	default:
		return usageError(fmt.Sprintf("unsupported action %q", req.Action), imageUsage())
	}
}

// runImageBuild executes the wheel → build → push sequence, skipping the
// steps whose modifiers are unset.
func runImageBuild(ctx context.Context, cli *docker.Client, cfg *config.Config, ref string, modes model.Modes) error {
	if modes.Wheel {
		VerboseLog("Building source wheel: %v", cfg.WheelCommand)
		if err := runWheel(ctx, cfg.WheelCommand); err != nil {
			return err
		}
	}

	VerboseLog("Building image %s (no-cache=%t)", ref, modes.Force)
	if err := docker.Build(ctx, ref, cfg.Dockerfile, cfg.Context, cfg.EffectiveBuildArgs(), modes.Force); err != nil {
		return err
	}

	if modes.Push {
		// The build above produced the image, but verify anyway: a
		// multi-stage build interrupted between tag and push would
		// otherwise yield a confusing daemon error.
		exists, err := docker.ImageExists(ctx, cli, ref)
		if err != nil {
			return err
		}
		if !exists {
			return model.NewCLIError(
				model.ExitImageNotFound,
				fmt.Sprintf("image %s not found locally after build", ref),
			)
		}
		VerboseLog("Pushing %s", ref)
		if err := docker.Push(ctx, ref); err != nil {
			return err
		}
	}

	if !IsJSONOutput() {
		fmt.Printf("Built %s\n", ref)
		if modes.Push {
			fmt.Printf("Pushed %s\n", ref)
		}
	}
	return nil
}

// runImageRun starts the toolkit image interactively after confirming it
// exists locally.
func runImageRun(ctx context.Context, cli *docker.Client, cfg *config.Config, ref string) error {
	exists, err := docker.ImageExists(ctx, cli, ref)
	if err != nil {
		return err
	}
	if !exists {
		return model.NewCLIError(
			model.ExitImageNotFound,
			fmt.Sprintf("image %s not found locally — build it first with 'mljob image --build'", ref),
		)
	}

	VerboseLog("Running %s", ref)
	return docker.Run(ctx, ref, cfg.RunArgs, cfg.Mounts)
}

// runWheel executes the configured packaging command with inherited
// streams. A failed wheel build aborts the image build.
func runWheel(ctx context.Context, command []string) error {
	if len(command) == 0 {
		return model.NewCLIError(model.ExitConfigError, "wheel requested but no wheelCommand configured")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("wheel build failed (%v)", command),
			err,
		)
	}
	return nil
}
