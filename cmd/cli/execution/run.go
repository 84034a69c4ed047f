package execution

import (
	"github.com/spf13/cobra"

	"github.com/temirov/toolrun/internal/execshell"
	flagutils "github.com/temirov/toolrun/internal/utils/flags"
)

const (
	runCommandUseConstant              = "run [flags] -- <command> [arguments...]"
	runCommandShortDescriptionConstant = "Run a command and log its output as it arrives"
	runCommandLongDescriptionConstant  = "run starts the command as a child process, logs every line of its standard output and standard error, optionally logs a keepalive at a fixed interval, and exits with the child's exit code."
)

// RunCommandBuilder assembles the run command.
type RunCommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	SupervisorFactory            SupervisorFactory
	SupervisorOptions            []execshell.SupervisorOption
}

// Build constructs the run command.
func (builder *RunCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   runCommandUseConstant,
		Short: runCommandShortDescriptionConstant,
		Long:  runCommandLongDescriptionConstant,
	}
	command.Flags().SetInterspersed(false)

	flagValues := flagutils.BindExecutionFlags(
		command,
		flagutils.ExecutionFlagValues{DebugStream: true},
		flagutils.DefaultExecutionFlagDefinitions(true, true, false, true),
	)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, arguments, flagValues)
	}

	return command, nil
}

func (builder *RunCommandBuilder) run(command *cobra.Command, arguments []string, flagValues *flagutils.ExecutionFlagValues) error {
	commandLine, commandLineError := resolveCommandLine(command, arguments)
	if commandLineError != nil {
		return commandLineError
	}

	commandConfiguration := resolveConfiguration(builder.ConfigurationProvider)
	if command.Flags().Changed(flagutils.HeartbeatFlagName) {
		commandConfiguration.Heartbeat = flagValues.Heartbeat
	}
	if command.Flags().Changed(flagutils.DebugStreamFlagName) {
		commandConfiguration.DebugStream = flagValues.DebugStream
	}
	commandConfiguration = commandConfiguration.Sanitize()

	workingDirectory, workingDirectoryError := resolveWorkingDirectory(flagValues.WorkingDirectory)
	if workingDirectoryError != nil {
		return workingDirectoryError
	}

	logger := resolveLogger(builder.LoggerProvider)
	logExecutionSettings(command, logger, commandConfiguration)

	supervisor, supervisorError := buildSupervisor(supervisorRequest{
		logger:               logger,
		configuration:        commandConfiguration,
		humanReadableLogging: resolveHumanReadableLogging(builder.HumanReadableLoggingProvider),
		factory:              builder.SupervisorFactory,
		additionalOptions:    append(invocationOptions(command), builder.SupervisorOptions...),
	})
	if supervisorError != nil {
		return supervisorError
	}

	exitCode, executionError := supervisor.Execute(command.Context(), workingDirectory, commandLine, commandConfiguration.Heartbeat)
	if executionError != nil {
		return executionError
	}

	shellCommand := execshell.ShellCommand{
		Arguments: commandLine,
		Details:   execshell.CommandDetails{WorkingDirectory: workingDirectory},
	}
	return execshell.RequireSuccess(shellCommand, execshell.ExecutionResult{ExitCode: exitCode})
}
