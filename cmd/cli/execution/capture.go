package execution

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/toolrun/internal/execshell"
	"github.com/temirov/toolrun/internal/ui"
	"github.com/temirov/toolrun/internal/utils"
	flagutils "github.com/temirov/toolrun/internal/utils/flags"
	pathutils "github.com/temirov/toolrun/internal/utils/path"
)

const (
	captureCommandUseConstant              = "capture [flags] -- <command> [arguments...]"
	captureCommandShortDescriptionConstant = "Run a command and print its captured output"
	captureCommandLongDescriptionConstant  = "capture runs the command with optional standard input, collects its standard output and standard error, prints them once the child exits, and exits with the child's exit code."
	inputFlagNameConstant                  = "input"
	inputFlagUsageConstant                 = "Text written to the child's standard input"
	inputFileFlagNameConstant              = "input-file"
	inputFileFlagUsageConstant             = "File whose contents are written to the child's standard input"
	outputFormatFlagNameConstant           = "output-format"
	outputFormatFlagUsageConstant          = "Print the captured streams as text or as a YAML document"
	readInputFileErrorTemplateConstant     = "unable to read input file: %w"
	printCapturedOutputTemplateConstant    = "unable to print captured output: %w"
)

const (
	// OutputFormatText prints the captured streams to the matching console streams.
	OutputFormatText = "text"
	// OutputFormatYAML prints one YAML document with both streams and the exit code.
	OutputFormatYAML = "yaml"
)

// CaptureCommandBuilder assembles the capture command.
type CaptureCommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	SupervisorFactory            SupervisorFactory
	SupervisorOptions            []execshell.SupervisorOption
}

type captureFlagValues struct {
	execution    *flagutils.ExecutionFlagValues
	input        string
	inputFile    string
	outputFormat string
}

// Build constructs the capture command.
func (builder *CaptureCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   captureCommandUseConstant,
		Short: captureCommandShortDescriptionConstant,
		Long:  captureCommandLongDescriptionConstant,
	}
	command.Flags().SetInterspersed(false)

	flagValues := &captureFlagValues{}
	flagValues.execution = flagutils.BindExecutionFlags(
		command,
		flagutils.ExecutionFlagValues{},
		flagutils.DefaultExecutionFlagDefinitions(true, false, true, false),
	)
	command.Flags().StringVar(&flagValues.input, inputFlagNameConstant, "", inputFlagUsageConstant)
	command.Flags().StringVar(&flagValues.inputFile, inputFileFlagNameConstant, "", inputFileFlagUsageConstant)
	command.MarkFlagsMutuallyExclusive(inputFlagNameConstant, inputFileFlagNameConstant)
	flagutils.AddChoiceFlag(
		command.Flags(),
		&flagValues.outputFormat,
		outputFormatFlagNameConstant,
		OutputFormatText,
		[]string{OutputFormatText, OutputFormatYAML},
		outputFormatFlagUsageConstant,
	)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, arguments, flagValues)
	}

	return command, nil
}

func (builder *CaptureCommandBuilder) run(command *cobra.Command, arguments []string, flagValues *captureFlagValues) error {
	commandLine, commandLineError := resolveCommandLine(command, arguments)
	if commandLineError != nil {
		return commandLineError
	}

	commandConfiguration := resolveConfiguration(builder.ConfigurationProvider)
	if command.Flags().Changed(flagutils.EncodingFlagName) {
		commandConfiguration.Encoding = flagValues.execution.Encoding
	}
	commandConfiguration = commandConfiguration.Sanitize()

	workingDirectory, workingDirectoryError := resolveWorkingDirectory(flagValues.execution.WorkingDirectory)
	if workingDirectoryError != nil {
		return workingDirectoryError
	}

	input, inputError := resolveInput(flagValues)
	if inputError != nil {
		return inputError
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

	executionResult, executionError := supervisor.CaptureOutput(command.Context(), workingDirectory, commandLine, input, commandConfiguration.Encoding)
	if executionError != nil {
		return executionError
	}

	printer := ui.NewCapturedOutputPrinter(
		utils.NewFlushingWriter(command.OutOrStdout()),
		utils.NewFlushingWriter(command.ErrOrStderr()),
		ui.IsTerminal(command.ErrOrStderr()),
	)
	var printError error
	switch flagValues.outputFormat {
	case OutputFormatYAML:
		printError = printer.PrintYAML(executionResult)
	default:
		printError = printer.PrintText(executionResult)
	}
	if printError != nil {
		return fmt.Errorf(printCapturedOutputTemplateConstant, printError)
	}

	shellCommand := execshell.ShellCommand{
		Arguments: commandLine,
		Details:   execshell.CommandDetails{WorkingDirectory: workingDirectory, Encoding: commandConfiguration.Encoding},
	}
	return execshell.RequireSuccess(shellCommand, executionResult)
}

func resolveInput(flagValues *captureFlagValues) (string, error) {
	inputFile := strings.TrimSpace(flagValues.inputFile)
	if len(inputFile) == 0 {
		return flagValues.input, nil
	}

	inputContent, readError := os.ReadFile(pathutils.NewHomeExpander().Expand(inputFile))
	if readError != nil {
		return "", fmt.Errorf(readInputFileErrorTemplateConstant, readError)
	}
	return string(inputContent), nil
}
