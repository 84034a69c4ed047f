package execshell

import (
	"errors"
	"fmt"
)

const (
	loggerNotConfiguredMessageConstant      = "execshell: logger not configured"
	sinkNotConfiguredMessageConstant        = "execshell: stream sink not configured"
	emptyCommandMessageConstant             = "execshell: command line is empty"
	unsupportedEncodingMessageConstant      = "execshell: unsupported encoding"
	unsupportedEncodingTemplateConstant     = "%w %q"
	spawnErrorTemplateConstant              = "unable to start %q in %s: %v"
	commandFailedErrorTemplateConstant      = "%q exited with code %d"
	commandFailedWithOutputTemplateConstant = "%q exited with code %d: %s"
)

var (
	// ErrLoggerNotConfigured indicates that a supervisor was built without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrStreamSinkNotConfigured indicates that Run was called without a sink.
	ErrStreamSinkNotConfigured = errors.New(sinkNotConfiguredMessageConstant)
	// ErrEmptyCommand indicates that the command line has no executable.
	ErrEmptyCommand = errors.New(emptyCommandMessageConstant)
	// ErrUnsupportedEncoding indicates that an encoding name could not be resolved.
	ErrUnsupportedEncoding = errors.New(unsupportedEncodingMessageConstant)
)

// SpawnError reports that the child process could not be launched.
// No output is captured when it is returned.
type SpawnError struct {
	Command          CommandLine
	WorkingDirectory string
	Cause            error
}

// Error describes the command and the operating system reason.
func (spawnError *SpawnError) Error() string {
	return fmt.Sprintf(spawnErrorTemplateConstant, spawnError.Command.String(), spawnError.WorkingDirectory, spawnError.Cause)
}

// Unwrap exposes the operating system error.
func (spawnError *SpawnError) Unwrap() error {
	return spawnError.Cause
}

// CommandFailedError converts a non-zero exit status into an error for callers that treat it as failure.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the exit status and, when captured, the standard error text.
func (failure CommandFailedError) Error() string {
	if len(failure.Result.StandardError) > 0 {
		return fmt.Sprintf(commandFailedWithOutputTemplateConstant, failure.Command.Arguments.String(), failure.Result.ExitCode, failure.Result.StandardError)
	}
	return fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command.Arguments.String(), failure.Result.ExitCode)
}

// ExitCode returns the child's exit status.
func (failure CommandFailedError) ExitCode() int {
	return failure.Result.ExitCode
}

// RequireSuccess returns a CommandFailedError when the result carries a non-zero exit status.
func RequireSuccess(command ShellCommand, result ExecutionResult) error {
	if result.ExitCode == 0 {
		return nil
	}
	return CommandFailedError{Command: command, Result: result}
}

func newUnsupportedEncodingError(encodingName string) error {
	return fmt.Errorf(unsupportedEncodingTemplateConstant, ErrUnsupportedEncoding, encodingName)
}
