package execshell

import (
	"fmt"
	"strings"
)

const (
	runningMessageTemplateConstant        = "Running %s (in %s)"
	finishedMessageTemplateConstant       = "Program %s finished with exit code %d"
	keepaliveMessageTemplateConstant      = "Keepalive for %s"
	spawnFailedMessageTemplateConstant    = "Unable to start %s"
	streamClosedMessageConstant           = "output stream closed during shutdown"
	streamReadFailedMessageConstant       = "output stream read failed"
	debugStreamUnavailableMessageConstant = "debug string capture unavailable"
	debugStreamStopFailedMessageConstant  = "debug string capture did not stop cleanly"
	fallbackDecodingMessageConstant       = "output line decoded with fallback encoding"
	emptyStringConstant                   = ""
	unknownExecutableLabelConstant        = "<unknown>"
)

const (
	logFieldExecutionIdentifierConstant = "execution_id"
	logFieldExecutableConstant          = "executable"
	logFieldArgumentsConstant           = "arguments"
	logFieldWorkingDirectoryConstant    = "working_directory"
	logFieldProcessIdentifierConstant   = "pid"
	logFieldExitCodeConstant            = "exit_code"
	logFieldStreamConstant              = "stream"
	logFieldSourceStreamConstant        = "source_stream"
	logFieldEncodingConstant            = "encoding"
	logFieldHeartbeatSequenceConstant   = "sequence"
)

// CommandMessageFormatter builds the supervisor's human-readable lifecycle messages.
type CommandMessageFormatter struct{}

// BuildRunningMessage describes a command about to start in the resolved working directory.
func (formatter CommandMessageFormatter) BuildRunningMessage(commandLine CommandLine, workingDirectory string) string {
	return fmt.Sprintf(runningMessageTemplateConstant, commandLine.String(), workingDirectory)
}

// BuildFinishedMessage describes a command that exited.
func (formatter CommandMessageFormatter) BuildFinishedMessage(commandLine CommandLine, exitCode int) string {
	return fmt.Sprintf(finishedMessageTemplateConstant, formatter.executableLabel(commandLine), exitCode)
}

// BuildKeepaliveMessage describes one heartbeat for a long running command.
func (formatter CommandMessageFormatter) BuildKeepaliveMessage(commandLine CommandLine) string {
	return fmt.Sprintf(keepaliveMessageTemplateConstant, formatter.executableLabel(commandLine))
}

// BuildSpawnFailedMessage describes a command that could not be launched.
func (formatter CommandMessageFormatter) BuildSpawnFailedMessage(commandLine CommandLine) string {
	return fmt.Sprintf(spawnFailedMessageTemplateConstant, formatter.executableLabel(commandLine))
}

func (formatter CommandMessageFormatter) executableLabel(commandLine CommandLine) string {
	executable := strings.TrimSpace(commandLine.Executable())
	if len(executable) == 0 {
		return unknownExecutableLabelConstant
	}
	return executable
}
