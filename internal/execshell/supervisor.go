package execshell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

const (
	waitFailedTemplateConstant = "execshell: waiting for %q: %w"
)

// SupervisorOption customizes a ProcessSupervisor.
type SupervisorOption func(*ProcessSupervisor)

// WithArgumentSanitizer replaces the MSYS argument sanitizer.
func WithArgumentSanitizer(sanitizer *ArgumentSanitizer) SupervisorOption {
	return func(supervisor *ProcessSupervisor) {
		if sanitizer != nil {
			supervisor.sanitizer = sanitizer
		}
	}
}

// WithProcessSpawner replaces the os/exec spawner.
func WithProcessSpawner(spawner ProcessSpawner) SupervisorOption {
	return func(supervisor *ProcessSupervisor) {
		if spawner != nil {
			supervisor.spawner = spawner
		}
	}
}

// WithCommandEventObserver registers an observer for lifecycle notifications.
func WithCommandEventObserver(observer CommandEventObserver) SupervisorOption {
	return func(supervisor *ProcessSupervisor) {
		if observer != nil {
			supervisor.observer = observer
		}
	}
}

// WithAuxiliaryCaptureProvider replaces the platform debug string capture. A nil provider disables it.
func WithAuxiliaryCaptureProvider(provider AuxiliaryCaptureProvider) SupervisorOption {
	return func(supervisor *ProcessSupervisor) {
		supervisor.auxiliaryCaptureProvider = provider
	}
}

// WithHostDialogSuppressor replaces the platform crash dialog suppression.
func WithHostDialogSuppressor(suppressor HostDialogSuppressor) SupervisorOption {
	return func(supervisor *ProcessSupervisor) {
		if suppressor != nil {
			supervisor.dialogSuppressor = suppressor
		}
	}
}

// WithStandardOutputLevel sets the level used to log standard output lines in streaming mode.
func WithStandardOutputLevel(level zapcore.Level) SupervisorOption {
	return func(supervisor *ProcessSupervisor) {
		supervisor.standardOutputLevel = level
	}
}

// WithEncodings sets the primary and fallback encodings used when a command does not name one.
// An empty fallback disables the second decoding attempt.
func WithEncodings(primaryEncodingName string, fallbackEncodingName string) SupervisorOption {
	return func(supervisor *ProcessSupervisor) {
		supervisor.primaryEncodingName = primaryEncodingName
		supervisor.fallbackEncodingName = fallbackEncodingName
	}
}

// WithExecutionIdentifierGenerator replaces the uuid based execution identifiers.
func WithExecutionIdentifierGenerator(generator func() string) SupervisorOption {
	return func(supervisor *ProcessSupervisor) {
		if generator != nil {
			supervisor.executionIdentifierGenerator = generator
		}
	}
}

// ProcessSupervisor runs one child process per call and drains its streams to completion.
// A supervisor is safe for concurrent use; calls share no state besides the logger.
type ProcessSupervisor struct {
	logger                       *zap.Logger
	sanitizer                    *ArgumentSanitizer
	spawner                      ProcessSpawner
	observer                     CommandEventObserver
	auxiliaryCaptureProvider     AuxiliaryCaptureProvider
	dialogSuppressor             HostDialogSuppressor
	messageFormatter             CommandMessageFormatter
	standardOutputLevel          zapcore.Level
	primaryEncodingName          string
	fallbackEncodingName         string
	executionIdentifierGenerator func() string
}

// NewProcessSupervisor constructs a supervisor using the host's platform facilities.
func NewProcessSupervisor(logger *zap.Logger, options ...SupervisorOption) (*ProcessSupervisor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}

	supervisor := &ProcessSupervisor{
		logger:                       logger,
		sanitizer:                    NewArgumentSanitizer(),
		spawner:                      NewOSProcessSpawner(),
		observer:                     noopCommandEventObserver{},
		auxiliaryCaptureProvider:     PlatformAuxiliaryCaptureProvider(),
		dialogSuppressor:             PlatformHostDialogSuppressor(),
		messageFormatter:             CommandMessageFormatter{},
		standardOutputLevel:          zapcore.DebugLevel,
		primaryEncodingName:          DefaultEncodingName,
		fallbackEncodingName:         DefaultFallbackEncodingName,
		executionIdentifierGenerator: uuid.NewString,
	}
	for _, option := range options {
		option(supervisor)
	}

	if _, resolveError := NewLineDecoder(supervisor.primaryEncodingName, supervisor.fallbackEncodingName); resolveError != nil {
		return nil, resolveError
	}
	return supervisor, nil
}

// Execute runs the command in streaming mode: every output line is logged as it arrives,
// standard input is closed, and a keepalive is logged every heartbeatInterval when it is positive.
// It returns the child's exit status once the child exited and all output was logged.
// There is no timeout; a child that never exits blocks the call.
func (supervisor *ProcessSupervisor) Execute(executionContext context.Context, workingDirectory string, commandLine CommandLine, heartbeatInterval time.Duration) (int, error) {
	command := ShellCommand{
		Arguments: commandLine,
		Details: CommandDetails{
			WorkingDirectory:  workingDirectory,
			HeartbeatInterval: heartbeatInterval,
		},
	}
	executionResult, executionError := supervisor.Run(executionContext, command, nil)
	return executionResult.ExitCode, executionError
}

// CaptureOutput runs the command in capture mode: input, when not empty, is encoded with the
// named encoding and written to standard input, and both output streams are returned decoded
// with the same encoding. Lines are decoded one at a time, so the fallback encoding applies
// only to the lines that need it. No heartbeat runs and no debug strings are captured.
func (supervisor *ProcessSupervisor) CaptureOutput(executionContext context.Context, workingDirectory string, commandLine CommandLine, input string, encodingName string) (ExecutionResult, error) {
	command := ShellCommand{
		Arguments: commandLine,
		Details: CommandDetails{
			WorkingDirectory: workingDirectory,
			Encoding:         encodingName,
		},
	}

	lineDecoder, decoderError := supervisor.newLineDecoder(command.Details)
	if decoderError != nil {
		return ExecutionResult{}, decoderError
	}
	if len(input) > 0 {
		encodedInput, encodeError := lineDecoder.Encode(input)
		if encodeError != nil {
			return ExecutionResult{}, encodeError
		}
		command.Details.StandardInput = encodedInput
	}

	captureSink := NewCaptureStreamSink()
	executionResult, executionError := supervisor.run(executionContext, command, captureExecutionMode, func(*zap.Logger) StreamSink { return captureSink })
	if executionError != nil {
		return ExecutionResult{}, executionError
	}

	executionResult.StandardOutput = captureSink.Text(StandardOutputStream)
	executionResult.StandardError = captureSink.Text(StandardErrorStream)
	return executionResult, nil
}

// Run executes the command in streaming mode and delivers lines to the sink.
// A nil sink logs every line through the supervisor's logger.
func (supervisor *ProcessSupervisor) Run(executionContext context.Context, command ShellCommand, sink StreamSink) (ExecutionResult, error) {
	sinkFactory := func(executionLogger *zap.Logger) StreamSink {
		return NewLoggingStreamSinkWithLevels(executionLogger, supervisor.standardOutputLevel)
	}
	if sink != nil {
		sinkFactory = func(*zap.Logger) StreamSink { return sink }
	}
	return supervisor.run(executionContext, command, streamingExecutionMode, sinkFactory)
}

type executionMode int

const (
	streamingExecutionMode executionMode = iota
	captureExecutionMode
)

func (supervisor *ProcessSupervisor) run(executionContext context.Context, command ShellCommand, mode executionMode, sinkFactory func(*zap.Logger) StreamSink) (ExecutionResult, error) {
	if len(command.Arguments) == 0 {
		return ExecutionResult{}, ErrEmptyCommand
	}

	lineDecoder, decoderError := supervisor.newLineDecoder(command.Details)
	if decoderError != nil {
		return ExecutionResult{}, decoderError
	}

	command.Arguments = supervisor.sanitizer.Sanitize(command.Arguments)
	command.Details.WorkingDirectory = resolveWorkingDirectory(command.Details.WorkingDirectory)

	executionLogger := supervisor.logger.With(
		zap.String(logFieldExecutionIdentifierConstant, supervisor.executionIdentifierGenerator()),
		zap.String(logFieldExecutableConstant, command.Arguments.Executable()),
	)
	sink := sinkFactory(executionLogger)
	if sink == nil {
		return ExecutionResult{}, ErrStreamSinkNotConfigured
	}

	executionLogger.Debug(
		supervisor.messageFormatter.BuildRunningMessage(command.Arguments, command.Details.WorkingDirectory),
		zap.Strings(logFieldArgumentsConstant, command.Arguments.Arguments()),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)

	var auxiliaryCapture AuxiliaryCapture
	if mode == streamingExecutionMode {
		supervisor.dialogSuppressor()
		auxiliaryCapture = supervisor.openAuxiliaryCapture(executionLogger)
	}

	childProcess, spawnError := supervisor.spawner.Spawn(command.Arguments, command.Details)
	if spawnError != nil {
		if auxiliaryCapture != nil {
			auxiliaryCapture.Stop()
		}
		failure := &SpawnError{Command: command.Arguments.Clone(), WorkingDirectory: command.Details.WorkingDirectory, Cause: spawnError}
		executionLogger.Error(supervisor.messageFormatter.BuildSpawnFailedMessage(command.Arguments), zap.Error(spawnError))
		supervisor.observer.CommandExecutionFailed(command, failure)
		return ExecutionResult{}, failure
	}
	defer childProcess.Close()

	processIdentifier := childProcess.ProcessIdentifier()
	supervisor.observer.CommandStarted(command, processIdentifier)

	if auxiliaryCapture != nil {
		auxiliaryCapture = supervisor.startAuxiliaryCapture(executionLogger, auxiliaryCapture, processIdentifier)
	}

	escapeTemplateDelimiters := mode == streamingExecutionMode
	var workerGroup errgroup.Group
	drainWorkers := []*StreamDrainWorker{
		NewStreamDrainWorker(StandardOutputStream, childProcess.StandardOutput(), lineDecoder, sink, executionLogger, escapeTemplateDelimiters),
		NewStreamDrainWorker(StandardErrorStream, childProcess.StandardError(), lineDecoder, sink, executionLogger, escapeTemplateDelimiters),
	}
	if auxiliaryCapture != nil {
		drainWorkers = append(drainWorkers, NewStreamDrainWorker(DebugStringStream, auxiliaryCapture.Output(), lineDecoder, sink, executionLogger, escapeTemplateDelimiters))
	}
	for _, drainWorker := range drainWorkers {
		workerGroup.Go(func() error {
			drainWorker.Drain()
			return nil
		})
	}

	heartbeatContext, stopHeartbeat := context.WithCancel(executionContext)
	defer stopHeartbeat()
	if mode == streamingExecutionMode {
		heartbeatWorker := NewHeartbeatWorker(command.Arguments, command.Details.HeartbeatInterval, supervisor.keepaliveNotifier(executionLogger))
		if heartbeatWorker != nil {
			workerGroup.Go(func() error {
				heartbeatWorker.Run(heartbeatContext)
				return nil
			})
		}
	}

	exitCode, waitError := childProcess.Wait()

	stopHeartbeat()
	if auxiliaryCapture != nil {
		if stopError := auxiliaryCapture.Stop(); stopError != nil {
			executionLogger.Warn(debugStreamStopFailedMessageConstant, zap.Error(stopError))
		}
	}
	workerGroup.Wait()

	executionResult := ExecutionResult{ExitCode: exitCode}
	executionLogger.Info(
		supervisor.messageFormatter.BuildFinishedMessage(command.Arguments, exitCode),
		zap.Int(logFieldProcessIdentifierConstant, processIdentifier),
		zap.Int(logFieldExitCodeConstant, exitCode),
	)

	if waitError != nil {
		wrappedError := fmt.Errorf(waitFailedTemplateConstant, command.Arguments.String(), waitError)
		supervisor.observer.CommandExecutionFailed(command, wrappedError)
		return executionResult, wrappedError
	}

	supervisor.observer.CommandCompleted(command, executionResult)
	return executionResult, nil
}

func (supervisor *ProcessSupervisor) newLineDecoder(details CommandDetails) (*LineDecoder, error) {
	primaryEncodingName := details.Encoding
	if len(primaryEncodingName) == 0 {
		primaryEncodingName = supervisor.primaryEncodingName
	}
	return NewLineDecoder(primaryEncodingName, supervisor.fallbackEncodingName)
}

func (supervisor *ProcessSupervisor) openAuxiliaryCapture(executionLogger *zap.Logger) AuxiliaryCapture {
	if supervisor.auxiliaryCaptureProvider == nil {
		return nil
	}
	auxiliaryCapture := supervisor.auxiliaryCaptureProvider()
	if auxiliaryCapture == nil {
		return nil
	}
	if openError := auxiliaryCapture.Open(); openError != nil {
		executionLogger.Debug(debugStreamUnavailableMessageConstant, zap.Error(openError))
		return nil
	}
	return auxiliaryCapture
}

func (supervisor *ProcessSupervisor) startAuxiliaryCapture(executionLogger *zap.Logger, auxiliaryCapture AuxiliaryCapture, processIdentifier int) AuxiliaryCapture {
	startError := auxiliaryCapture.Attach(processIdentifier)
	if startError == nil {
		startError = auxiliaryCapture.Start()
	}
	if startError != nil {
		executionLogger.Debug(debugStreamUnavailableMessageConstant, zap.Error(startError))
		auxiliaryCapture.Stop()
		return nil
	}
	return auxiliaryCapture
}

func (supervisor *ProcessSupervisor) keepaliveNotifier(executionLogger *zap.Logger) HeartbeatNotifier {
	return HeartbeatNotifierFunc(func(commandLine CommandLine, sequence int) {
		executionLogger.Info(supervisor.messageFormatter.BuildKeepaliveMessage(commandLine), zap.Int(logFieldHeartbeatSequenceConstant, sequence))
	})
}

func resolveWorkingDirectory(workingDirectory string) string {
	if len(workingDirectory) == 0 {
		currentDirectory, currentDirectoryError := os.Getwd()
		if currentDirectoryError != nil {
			return workingDirectory
		}
		return currentDirectory
	}
	absoluteDirectory, absoluteError := filepath.Abs(workingDirectory)
	if absoluteError != nil {
		return workingDirectory
	}
	return absoluteDirectory
}
