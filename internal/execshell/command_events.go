package execshell

// CommandEventObserver receives lifecycle notifications for supervised executions.
type CommandEventObserver interface {
	// CommandStarted notifies observers that the child process is running with the given pid.
	// Callers that need cancellation can terminate the child through this pid.
	CommandStarted(command ShellCommand, processIdentifier int)
	// CommandCompleted notifies observers that the child exited and every stream was drained.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports failures that prevented the child from starting.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// noopCommandEventObserver discards all command events.
type noopCommandEventObserver struct{}

// CommandStarted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandStarted(ShellCommand, int) {}

// CommandCompleted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

// CommandExecutionFailed implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
