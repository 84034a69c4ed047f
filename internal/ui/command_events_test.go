package ui_test

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/toolrun/internal/execshell"
	"github.com/temirov/toolrun/internal/ui"
)

const (
	testEditorPathConstant                 = "/opt/engine/bin/editor"
	testCookArgumentConstant               = "-run=cook"
	testWorkingDirectoryConstant           = "/tmp/project"
	testCommandLabelConstant               = "editor -run=cook (in /tmp/project)"
	testProcessIdentifierConstant          = 4242
	testExecutionFailureReasonConstant     = "wait interrupted"
	testMultiLineStandardErrorConstant     = "warning: slow disk\nerror: missing asset\n\n"
	testStartedCaseConstant                = "process_started"
	testSucceededCaseConstant              = "process_succeeded"
	testFailedCaseConstant                 = "process_failed_with_stderr"
	testFailedWithoutOutputCaseConstant    = "process_failed_without_stderr"
	testSpawnFailureCaseConstant           = "process_not_started"
	testExecutionFailureCaseConstant       = "process_errored"
	testStartedMessageConstant             = "Started editor -run=cook as pid 4242 (in /tmp/project)"
	testSucceededMessageConstant           = "Completed " + testCommandLabelConstant
	testFailedMessageConstant              = testCommandLabelConstant + " failed with exit code 3: error: missing asset"
	testFailedWithoutOutputMessageConstant = testCommandLabelConstant + " failed with exit code 3"
	testSpawnFailureMessageConstant        = "Could not start " + testCommandLabelConstant + ": executable file not found in $PATH"
	testExecutionFailureMessageConstant    = testCommandLabelConstant + " failed: " + testExecutionFailureReasonConstant
)

func TestConsoleCommandEventLoggerEmitsMessages(testInstance *testing.T) {
	command := execshell.ShellCommand{
		Arguments: execshell.CommandLine{testEditorPathConstant, testCookArgumentConstant},
		Details:   execshell.CommandDetails{WorkingDirectory: testWorkingDirectoryConstant},
	}

	testCases := []struct {
		name            string
		invoke          func(eventLogger *ui.ConsoleCommandEventLogger)
		expectedLevel   zapcore.Level
		expectedMessage string
		expectedFields  map[string]any
	}{
		{
			name: testStartedCaseConstant,
			invoke: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandStarted(command, testProcessIdentifierConstant)
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testStartedMessageConstant,
			expectedFields:  map[string]any{"pid": int64(testProcessIdentifierConstant)},
		},
		{
			name: testSucceededCaseConstant,
			invoke: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 0})
			},
			expectedLevel:   zapcore.InfoLevel,
			expectedMessage: testSucceededMessageConstant,
			expectedFields:  map[string]any{},
		},
		{
			name: testFailedCaseConstant,
			invoke: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 3, StandardError: testMultiLineStandardErrorConstant})
			},
			expectedLevel:   zapcore.WarnLevel,
			expectedMessage: testFailedMessageConstant,
			expectedFields:  map[string]any{"exit_code": int64(3)},
		},
		{
			name: testFailedWithoutOutputCaseConstant,
			invoke: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandCompleted(command, execshell.ExecutionResult{ExitCode: 3})
			},
			expectedLevel:   zapcore.WarnLevel,
			expectedMessage: testFailedWithoutOutputMessageConstant,
			expectedFields:  map[string]any{"exit_code": int64(3)},
		},
		{
			name: testSpawnFailureCaseConstant,
			invoke: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandExecutionFailed(command, &execshell.SpawnError{Command: command.Arguments, Cause: exec.ErrNotFound})
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: testSpawnFailureMessageConstant,
			expectedFields:  map[string]any{},
		},
		{
			name: testExecutionFailureCaseConstant,
			invoke: func(eventLogger *ui.ConsoleCommandEventLogger) {
				eventLogger.CommandExecutionFailed(command, errors.New(testExecutionFailureReasonConstant))
			},
			expectedLevel:   zapcore.ErrorLevel,
			expectedMessage: testExecutionFailureMessageConstant,
			expectedFields:  map[string]any{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			observerCore, observedLogs := observer.New(zapcore.DebugLevel)
			eventLogger := ui.NewConsoleCommandEventLogger(zap.New(observerCore))

			testCase.invoke(eventLogger)

			entries := observedLogs.All()
			require.Len(subTest, entries, 1)
			require.Equal(subTest, testCase.expectedLevel, entries[0].Level)
			require.Equal(subTest, testCase.expectedMessage, entries[0].Message)
			require.Equal(subTest, testCase.expectedFields, entries[0].ContextMap())
		})
	}
}

func TestConsoleCommandEventLoggerToleratesMissingLogger(testInstance *testing.T) {
	var nilEventLogger *ui.ConsoleCommandEventLogger
	require.NotPanics(testInstance, func() {
		nilEventLogger.CommandStarted(execshell.ShellCommand{}, testProcessIdentifierConstant)
		ui.NewConsoleCommandEventLogger(nil).CommandExecutionFailed(execshell.ShellCommand{}, nil)
	})
}

func TestCommandEventFormatterLabelsEmptyCommand(testInstance *testing.T) {
	formatter := ui.CommandEventFormatter{}
	require.Equal(testInstance, "Completed <unknown>", formatter.BuildCompletedMessage(execshell.ShellCommand{}, execshell.ExecutionResult{}))
	require.Equal(testInstance, "<unknown> failed: unknown error", formatter.BuildExecutionFailureMessage(execshell.ShellCommand{}, nil))
}
