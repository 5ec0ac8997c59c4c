// image.go implements the toolkit image lifecycle operations: existence
// checks via the Docker SDK, and build/push/run via the docker CLI.
//
// Build and run are long, output-heavy operations whose progress should
// reach the operator's terminal unfiltered, so they inherit the standard
// streams. Push additionally depends on the CLI's credential helpers,
// which the SDK does not consult.
package docker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"

	"github.com/shinji-kodama/mljob/internal/model"
)

// ImageExists reports whether the given reference resolves to a local
// image. Push and run require the image to have been built first; this
// check turns the otherwise cryptic daemon error into an actionable one.
func ImageExists(ctx context.Context, cli *Client, ref string) (bool, error) {
	filterArgs := filters.NewArgs(filters.Arg("reference", ref))

	images, err := cli.Inner().ImageList(ctx, image.ListOptions{Filters: filterArgs})
	if err != nil {
		return false, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to list images matching %q", ref),
			err,
		)
	}
	return len(images) > 0, nil
}

// BuildArgs assembles the argument list for "docker build". Exposed
// separately from Build so the exact CLI surface is testable without a
// daemon.
//
// Build args are emitted in sorted key order so the command line is
// deterministic across runs.
func BuildArgs(ref, dockerfile, contextDir string, buildArgs map[string]string, noCache bool) []string {
	args := []string{"build", "-t", ref}
	if dockerfile != "" {
		args = append(args, "-f", dockerfile)
	}
	if noCache {
		args = append(args, "--no-cache")
	}

	keys := make([]string, 0, len(buildArgs))
	for k := range buildArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--build-arg", k+"="+buildArgs[k])
	}

	return append(args, contextDir)
}

// Build runs "docker build" with streaming output. The noCache flag maps
// the router's force modifier to --no-cache.
func Build(ctx context.Context, ref, dockerfile, contextDir string, buildArgs map[string]string, noCache bool) error {
	return runDocker(ctx, BuildArgs(ref, dockerfile, contextDir, buildArgs, noCache))
}

// Push runs "docker push" for the given reference. Registry credentials
// come from the operator's docker login state.
func Push(ctx context.Context, ref string) error {
	return runDocker(ctx, []string{"push", ref})
}

// RunArgs assembles the argument list for the interactive "docker run".
// The container is removed on exit; mounts and extra run arguments come
// from the project configuration.
func RunArgs(ref string, runArgs, mounts []string) []string {
	args := []string{"run", "--rm", "-it"}
	args = append(args, runArgs...)
	for _, m := range mounts {
		args = append(args, "-v", m)
	}
	return append(args, ref)
}

// Run starts the toolkit image interactively, wiring the operator's
// terminal straight through to the container.
func Run(ctx context.Context, ref string, runArgs, mounts []string) error {
	return runDocker(ctx, RunArgs(ref, runArgs, mounts))
}

// runDocker executes the docker CLI with inherited environment and
// standard streams, blocking until it exits. A non-zero docker exit is
// propagated on the returned CLIError, mirroring how the train command
// treats its downstream launcher.
func runDocker(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		return wrapDockerExit(args[0], err)
	}
	return nil
}

// wrapDockerExit translates a docker CLI failure into a CLIError whose
// code matches the child's exit status, mirroring how the train command
// treats its downstream launcher. A child killed by a signal has no exit
// code; exec reports -1, which maps to the general error code. Anything
// that is not an exit status (the binary failed to start at all) points
// at the docker installation rather than the operation.
func wrapDockerExit(subcommand string, err error) error {
	if exitErr, ok := err.(*exec.ExitError); ok {
		code := exitErr.ExitCode()
		if code < 0 {
			return model.WrapCLIError(
				model.ExitGeneralError,
				fmt.Sprintf("docker %s terminated abnormally", subcommand),
				err,
			)
		}
		return model.WrapCLIError(
			model.ExitCode(code),
			fmt.Sprintf("docker %s exited with status %d", subcommand, code),
			err,
		)
	}
	return model.WrapCLIError(
		model.ExitDockerNotRunning,
		fmt.Sprintf("docker %s failed", subcommand),
		err,
	)
}
