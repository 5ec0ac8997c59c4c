// Package model defines the domain types for the mljob CLI.
//
// The central entity is InvocationRequest — the immutable result of routing
// a raw argument vector into orchestration directives and pass-through
// arguments. Requests are constructed once per invocation by the router,
// consumed once by the dispatch step, and never persisted.
package model

import (
	"fmt"
	"strings"
)

// LaunchAction identifies the mutually exclusive image-lifecycle action
// selected by an invocation. When both a build flag and a run flag appear
// in the same argument vector, the later one in scan order wins — this is
// a deliberate, documented last-wins policy, not an accident of parsing.
type LaunchAction string

const (
	// ActionNone means no action flag was seen. Dispatch treats this as
	// a usage error rather than silently picking a default.
	ActionNone LaunchAction = "none"

	// ActionBuild builds the toolkit container image.
	ActionBuild LaunchAction = "build"

	// ActionRun runs the toolkit container image interactively.
	ActionRun LaunchAction = "run"
)

// String returns the string representation of LaunchAction.
func (a LaunchAction) String() string {
	return string(a)
}

// IsValid checks whether the LaunchAction value is one of the
// predefined valid actions.
func (a LaunchAction) IsValid() bool {
	switch a {
	case ActionNone, ActionBuild, ActionRun:
		return true
	default:
		return false
	}
}

// ParseLaunchAction converts a string to a LaunchAction.
// Returns an error if the string does not match any valid action.
func ParseLaunchAction(s string) (LaunchAction, error) {
	action := LaunchAction(strings.ToLower(s))
	if !action.IsValid() {
		return "", fmt.Errorf("invalid launch action: %q (valid: none, build, run)", s)
	}
	return action, nil
}

// Modes holds the independent boolean modifiers of an image invocation.
// Unlike the build/run action, these do not exclude one another.
type Modes struct {
	// Wheel requests the packaging step (source wheel build) before the
	// image build.
	Wheel bool `json:"wheel"`

	// Push requests pushing the built image to the registry. Only
	// meaningful combined with a build action.
	Push bool `json:"push"`

	// Force disables the build cache (docker build --no-cache).
	Force bool `json:"force"`
}

// InvocationRequest is the fully routed form of a raw argument vector.
//
// Invariant: every input token is classified exactly once — either consumed
// as a recognized orchestration flag (plus its value, if the flag takes
// one) or appended to Passthrough in original order. The router guarantees
// this by construction; nothing mutates a request after parsing.
type InvocationRequest struct {
	// ProcessCount is the number of parallel workers requested via the
	// process-count flag. Zero means the flag was never given; dispatch
	// rejects anything below 1.
	ProcessCount int `json:"processCount"`

	// Action is the selected image-lifecycle action (last-wins between
	// build and run flags). ActionNone for train invocations.
	Action LaunchAction `json:"action"`

	// Modes holds the independent wheel/push/force modifiers.
	Modes Modes `json:"modes"`

	// Hostfile is the path to a YAML hostfile for multi-node launches.
	// Empty means single-node.
	Hostfile string `json:"hostfile,omitempty"`

	// Verbose requests detailed stderr logging of the routing and
	// dispatch steps. The subcommands disable cobra flag parsing, so
	// the persistent --verbose flag reaches the router as a raw token
	// and is consumed here rather than by cobra.
	Verbose bool `json:"verbose,omitempty"`

	// JSON requests structured JSON result and error output. Routed
	// for the same reason as Verbose.
	JSON bool `json:"json,omitempty"`

	// Passthrough holds every token the router did not recognize,
	// preserved verbatim and in order, for the downstream process.
	Passthrough []string `json:"passthrough,omitempty"`
}

// ValidateProcessCount checks that the request carries a usable worker
// count. This is the dispatch-time guard for the train command: a count
// below 1 (including the unset default of 0) must never reach the
// downstream launcher.
func (r *InvocationRequest) ValidateProcessCount() error {
	if r.ProcessCount < 1 {
		return fmt.Errorf("process count must be at least 1 (got %d)", r.ProcessCount)
	}
	return nil
}

// ExitCode defines the CLI exit codes. Scripts and CI systems depend on
// these to distinguish router-side usage errors from downstream failures.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitUsageError is the fixed code for dispatch rejected before any
	// process was launched: missing flag value, process count below 1,
	// or no action selected.
	ExitUsageError ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitConfigError indicates the project configuration file or its
	// environment overrides could not be loaded.
	ExitConfigError ExitCode = 4

	// ExitImageNotFound indicates the toolkit image does not exist
	// locally when push or run requires it.
	ExitImageNotFound ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes. Downstream failures are wrapped with
// the child's own exit code so the router exits exactly as the child did.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
