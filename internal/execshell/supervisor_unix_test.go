//go:build unix

package execshell_test

import (
	"context"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/toolrun/internal/execshell"
)

const testTerminatedExitCodeConstant = 128 + int(syscall.SIGTERM)

type terminatingCommandEventObserver struct {
	recordingCommandEventObserver
}

func (terminator *terminatingCommandEventObserver) CommandStarted(command execshell.ShellCommand, processIdentifier int) {
	terminator.recordingCommandEventObserver.CommandStarted(command, processIdentifier)
	syscall.Kill(processIdentifier, syscall.SIGTERM)
}

func TestExecuteReportsSignalTerminationAsShellExitCode(testInstance *testing.T) {
	terminator := &terminatingCommandEventObserver{}
	supervisor, _ := newObservedSupervisor(testInstance, execshell.WithCommandEventObserver(terminator))

	exitCode, executionError := supervisor.Execute(context.Background(), ".", helperCommand(helperModeSleepConstant, "30s"), 0)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, testTerminatedExitCodeConstant, exitCode)

	failure := execshell.RequireSuccess(execshell.ShellCommand{}, execshell.ExecutionResult{ExitCode: exitCode})
	var commandFailure execshell.CommandFailedError
	require.ErrorAs(testInstance, failure, &commandFailure)
	require.Equal(testInstance, 143, commandFailure.ExitCode())
}
