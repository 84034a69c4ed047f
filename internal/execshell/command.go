package execshell

import (
	"strings"
	"time"
)

const (
	commandLineJoinSeparatorConstant = " "
)

// CommandLine is an ordered argument vector whose first element names the executable.
type CommandLine []string

// Executable returns the program name or path, or an empty string for an empty command line.
func (commandLine CommandLine) Executable() string {
	if len(commandLine) == 0 {
		return emptyStringConstant
	}
	return commandLine[0]
}

// Arguments returns the arguments following the executable.
func (commandLine CommandLine) Arguments() []string {
	if len(commandLine) < 2 {
		return nil
	}
	return append([]string{}, commandLine[1:]...)
}

// Clone returns an independent copy of the command line.
func (commandLine CommandLine) Clone() CommandLine {
	if commandLine == nil {
		return nil
	}
	return append(CommandLine{}, commandLine...)
}

// String joins the command line with single spaces for log output.
func (commandLine CommandLine) String() string {
	return strings.Join(commandLine, commandLineJoinSeparatorConstant)
}

// CommandDetails describes the execution context of one invocation.
type CommandDetails struct {
	// WorkingDirectory is the directory the child starts in; empty means the current directory.
	WorkingDirectory string
	// EnvironmentVariables are appended to the inherited environment.
	EnvironmentVariables map[string]string
	// StandardInput is written to the child's standard input before it is closed.
	// A nil payload leaves standard input closed.
	StandardInput []byte
	// HeartbeatInterval enables keepalive notifications when positive.
	HeartbeatInterval time.Duration
	// Encoding names the primary text encoding of the child's output; empty means UTF-8.
	Encoding string
}

// ShellCommand pairs a command line with its execution context.
type ShellCommand struct {
	Arguments CommandLine
	Details   CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
// StandardOutput and StandardError are only populated in capture mode.
type ExecutionResult struct {
	StandardOutput string `yaml:"stdout"`
	StandardError  string `yaml:"stderr"`
	ExitCode       int    `yaml:"exit_code"`
}

// StandardOutputLines splits the captured standard output into lines without terminators.
func (result ExecutionResult) StandardOutputLines() []string {
	return splitCapturedLines(result.StandardOutput)
}

// StandardErrorLines splits the captured standard error into lines without terminators.
func (result ExecutionResult) StandardErrorLines() []string {
	return splitCapturedLines(result.StandardError)
}

func splitCapturedLines(capturedText string) []string {
	if len(capturedText) == 0 {
		return nil
	}
	trimmedText := strings.TrimSuffix(capturedText, "\n")
	trimmedText = strings.TrimSuffix(trimmedText, "\r")
	splitLines := strings.Split(trimmedText, "\n")
	for lineIndex := range splitLines {
		splitLines[lineIndex] = strings.TrimSuffix(splitLines[lineIndex], "\r")
	}
	return splitLines
}
