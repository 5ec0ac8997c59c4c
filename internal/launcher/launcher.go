// Package launcher builds and executes the downstream training launch
// command.
//
// The downstream argv follows a fixed template:
//
//	<launcher> <launcherArgs...> -np <N> [-H <hosts>] <entrypoint...> <passthrough...>
//
// Construction is a pure function over the job spec so it can be tested
// without creating processes. Execution inherits the parent environment
// and standard streams, runs the child in its own process group, forwards
// termination signals to that group so no worker rank is orphaned, and
// reports the child's exit code back to the caller unchanged.
package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/shinji-kodama/mljob/internal/config"
	"github.com/shinji-kodama/mljob/internal/hostfile"
	"github.com/shinji-kodama/mljob/internal/model"
)

// JobSpec is everything needed to form the downstream argv.
type JobSpec struct {
	// Procs is the validated worker count (>= 1).
	Procs int

	// Hosts is the optional host list for multi-node launches.
	Hosts hostfile.HostList

	// Passthrough holds the operator's arguments for the wrapped
	// training command, in original order.
	Passthrough []string
}

// BuildArgv assembles the full downstream command line from the spec and
// the launcher template in the configuration. The first element is the
// launcher program itself.
func BuildArgv(cfg *config.Config, spec JobSpec) []string {
	argv := make([]string, 0,
		1+len(cfg.LauncherArgs)+4+len(cfg.Entrypoint)+len(spec.Passthrough))

	argv = append(argv, cfg.Launcher)
	argv = append(argv, cfg.LauncherArgs...)
	argv = append(argv, "-np", strconv.Itoa(spec.Procs))
	if len(spec.Hosts) > 0 {
		argv = append(argv, "-H", spec.Hosts.String())
	}
	argv = append(argv, cfg.Entrypoint...)
	argv = append(argv, spec.Passthrough...)
	return argv
}

// Run executes the given argv, blocking until the child exits.
//
// The child gets the parent's environment and standard streams, and is
// placed in a new process group. SIGINT and SIGTERM received while the
// child runs are forwarded to the whole group, which covers worker
// processes the launcher itself spawns.
//
// On a non-zero child exit, the returned CLIError carries the child's
// exit code so the router exits exactly as the child did.
func Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return model.NewCLIError(model.ExitGeneralError, "empty launch command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	// New process group, so a forwarded signal reaches the launcher and
	// every worker it spawned in one kill.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to start %s", argv[0]),
			err,
		)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case sig := <-sigCh:
			// Negative pid addresses the process group.
			if s, ok := sig.(syscall.Signal); ok {
				_ = syscall.Kill(-cmd.Process.Pid, s)
			}
		case err := <-done:
			if err != nil {
				return wrapExit(argv[0], err)
			}
			return nil
		}
	}
}

// wrapExit translates a Wait error into a CLIError whose code matches
// the child's exit status. A child killed by a signal has no exit code;
// exec reports -1, which maps to the general error code.
func wrapExit(prog string, err error) error {
	if exitErr, ok := err.(*exec.ExitError); ok {
		code := exitErr.ExitCode()
		if code < 0 {
			code = int(model.ExitGeneralError)
		}
		return model.WrapCLIError(
			model.ExitCode(code),
			fmt.Sprintf("%s exited with status %d", prog, exitErr.ExitCode()),
			err,
		)
	}
	return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("%s failed", prog), err)
}
