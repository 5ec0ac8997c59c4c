package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLaunchAction_IsValid verifies that only the predefined actions
// are accepted as valid.
func TestLaunchAction_IsValid(t *testing.T) {
	assert.True(t, ActionNone.IsValid())
	assert.True(t, ActionBuild.IsValid())
	assert.True(t, ActionRun.IsValid())
	assert.False(t, LaunchAction("push").IsValid(), "push is a modifier, not an action")
	assert.False(t, LaunchAction("").IsValid())
}

// TestParseLaunchAction verifies case-insensitive parsing and rejection
// of unknown action names.
func TestParseLaunchAction(t *testing.T) {
	action, err := ParseLaunchAction("Build")
	require.NoError(t, err)
	assert.Equal(t, ActionBuild, action)

	_, err = ParseLaunchAction("deploy")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid launch action")
}

// TestValidateProcessCount_Unset verifies that the zero default (flag
// never given) is rejected — dispatch must never launch with an unset
// worker count.
func TestValidateProcessCount_Unset(t *testing.T) {
	req := &InvocationRequest{}
	err := req.ValidateProcessCount()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 1")
}

// TestValidateProcessCount_Negative verifies rejection of negative counts.
func TestValidateProcessCount_Negative(t *testing.T) {
	req := &InvocationRequest{ProcessCount: -3}
	assert.Error(t, req.ValidateProcessCount())
}

// TestValidateProcessCount_Valid verifies that any count >= 1 passes.
func TestValidateProcessCount_Valid(t *testing.T) {
	for _, n := range []int{1, 4, 128} {
		req := &InvocationRequest{ProcessCount: n}
		assert.NoError(t, req.ValidateProcessCount(), "count %d should be valid", n)
	}
}

// TestCLIError_Error verifies message formatting with and without an
// underlying error.
func TestCLIError_Error(t *testing.T) {
	plain := NewCLIError(ExitUsageError, "no action selected")
	assert.Equal(t, "no action selected", plain.Error())

	wrapped := WrapCLIError(ExitDockerNotRunning, "docker build failed", fmt.Errorf("exit status 1"))
	assert.Equal(t, "docker build failed: exit status 1", wrapped.Error())
}

// TestCLIError_Unwrap verifies errors.Is works through the wrapper,
// which the CLI layer relies on when classifying downstream failures.
func TestCLIError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	wrapped := WrapCLIError(ExitDockerNotRunning, "ping failed", inner)
	assert.True(t, errors.Is(wrapped, inner))
}

// TestExitCodes_AreStable guards the numeric values of the exit code
// contract — scripts depend on these staying fixed.
func TestExitCodes_AreStable(t *testing.T) {
	assert.Equal(t, 0, int(ExitSuccess))
	assert.Equal(t, 1, int(ExitGeneralError))
	assert.Equal(t, 2, int(ExitUsageError))
	assert.Equal(t, 3, int(ExitDockerNotRunning))
	assert.Equal(t, 4, int(ExitConfigError))
	assert.Equal(t, 5, int(ExitImageNotFound))
}
