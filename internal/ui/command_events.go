package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/toolrun/internal/execshell"
)

const (
	processStartedTemplateConstant         = "Started %s as pid %d%s"
	processCompletedTemplateConstant       = "Completed %s%s"
	processFailedTemplateConstant          = "%s%s failed with exit code %d"
	processFailureDetailTemplateConstant   = "%s: %s"
	processNotStartedTemplateConstant      = "Could not start %s%s: %v"
	processErroredTemplateConstant         = "%s%s failed: %v"
	workingDirectorySuffixTemplateConstant = " (in %s)"
	argumentSeparatorConstant              = " "
	unknownExecutableLabelConstant         = "<unknown>"
	emptyStringConstant                    = ""
	processIdentifierFieldConstant         = "pid"
	exitCodeFieldConstant                  = "exit_code"
)

var errUnknownFailure = errors.New("unknown error")

// CommandEventFormatter builds short console messages for process lifecycle events.
// Executables are shown by file name only; the structured logs keep the full path.
type CommandEventFormatter struct{}

// BuildStartedMessage describes a child that was spawned with the given pid.
func (formatter CommandEventFormatter) BuildStartedMessage(command execshell.ShellCommand, processIdentifier int) string {
	return fmt.Sprintf(processStartedTemplateConstant, formatter.commandLabel(command), processIdentifier, formatter.workingDirectorySuffix(command))
}

// BuildCompletedMessage describes a finished child. A non-zero exit code is reported together with
// the last captured standard error line, when there is one.
func (formatter CommandEventFormatter) BuildCompletedMessage(command execshell.ShellCommand, result execshell.ExecutionResult) string {
	if result.ExitCode == 0 {
		return fmt.Sprintf(processCompletedTemplateConstant, formatter.commandLabel(command), formatter.workingDirectorySuffix(command))
	}

	failureMessage := fmt.Sprintf(processFailedTemplateConstant, formatter.commandLabel(command), formatter.workingDirectorySuffix(command), result.ExitCode)
	lastErrorLine := lastNonEmptyLine(result.StandardErrorLines())
	if len(lastErrorLine) == 0 {
		return failureMessage
	}
	return fmt.Sprintf(processFailureDetailTemplateConstant, failureMessage, lastErrorLine)
}

// BuildExecutionFailureMessage describes a child that could not be run to completion.
func (formatter CommandEventFormatter) BuildExecutionFailureMessage(command execshell.ShellCommand, failure error) string {
	if failure == nil {
		failure = errUnknownFailure
	}

	var spawnError *execshell.SpawnError
	if errors.As(failure, &spawnError) {
		return fmt.Sprintf(processNotStartedTemplateConstant, formatter.commandLabel(command), formatter.workingDirectorySuffix(command), spawnError.Cause)
	}
	return fmt.Sprintf(processErroredTemplateConstant, formatter.commandLabel(command), formatter.workingDirectorySuffix(command), failure)
}

func (formatter CommandEventFormatter) commandLabel(command execshell.ShellCommand) string {
	executable := strings.TrimSpace(command.Arguments.Executable())
	if len(executable) == 0 {
		return unknownExecutableLabelConstant
	}

	labelParts := append([]string{filepath.Base(executable)}, command.Arguments.Arguments()...)
	return strings.Join(labelParts, argumentSeparatorConstant)
}

func (formatter CommandEventFormatter) workingDirectorySuffix(command execshell.ShellCommand) string {
	workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(workingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, workingDirectory)
}

func lastNonEmptyLine(lines []string) string {
	for lineIndex := len(lines) - 1; lineIndex >= 0; lineIndex-- {
		if trimmedLine := strings.TrimSpace(lines[lineIndex]); len(trimmedLine) > 0 {
			return trimmedLine
		}
	}
	return emptyStringConstant
}

// ConsoleCommandEventLogger reports process lifecycle events through a console-format zap logger.
// It implements execshell.CommandEventObserver.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter CommandEventFormatter
}

// NewConsoleCommandEventLogger constructs an event logger; a nil logger discards every event.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// CommandStarted logs the spawned pid at info level.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand, processIdentifier int) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(command, processIdentifier), zap.Int(processIdentifierFieldConstant, processIdentifier))
}

// CommandCompleted logs a zero exit code at info level and any other exit code at warn level.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	completedMessage := eventLogger.formatter.BuildCompletedMessage(command, result)
	if result.ExitCode == 0 {
		eventLogger.logger.Info(completedMessage)
		return
	}
	eventLogger.logger.Warn(completedMessage, zap.Int(exitCodeFieldConstant, result.ExitCode))
}

// CommandExecutionFailed logs spawn and wait failures at error level.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(command, failure))
}
