package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	executioncmd "github.com/temirov/toolrun/cmd/cli/execution"
	"github.com/temirov/toolrun/internal/utils"
	flagutils "github.com/temirov/toolrun/internal/utils/flags"
)

const (
	applicationNameConstant             = "toolrun"
	applicationShortDescriptionConstant = "Run external tools as supervised child processes"
	applicationLongDescriptionConstant  = "toolrun launches build, cook and deploy tools as child processes, logs or captures their output without losing a line, and exits with the child's exit code."
	configFileFlagNameConstant          = "config"
	configFileFlagUsageConstant         = "Configuration file to load instead of searching ./config.yaml and the user config directory."
	logLevelFlagNameConstant            = "log-level"
	logLevelFlagUsageConstant           = "Minimum severity of log entries, overriding common.log_level."
	logFormatFlagNameConstant           = "log-format"
	logFormatFlagUsageConstant          = "Log entry encoding, overriding common.log_format."
	loggerSyncErrorTemplateConstant     = "unable to flush logger: %w"
)

// Application owns the toolrun root command together with the configuration and logger
// its subcommands read at run time.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	commandContextAccessor utils.CommandContextAccessor
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	logger                 *zap.Logger
}

type commandBuilder interface {
	Build() (*cobra.Command, error)
}

// NewApplication builds the toolrun root command with its run, capture and sanitize subcommands.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(configurationNameConstant, configurationTypeConstant, environmentPrefixConstant, configurationSearchPaths())
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		logger:                 zap.NewNop(),
	}
	application.rootCommand = application.newRootCommand()
	application.registerSubcommands()
	return application
}

func (application *Application) newRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, _ []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
	}
	rootCommand.SetContext(context.Background())

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flagutils.AddChoiceFlag(persistentFlags, &application.logLevelFlagValue, logLevelFlagNameConstant, string(utils.LogLevelInfo), utils.SupportedLogLevels(), logLevelFlagUsageConstant)
	flagutils.AddChoiceFlag(persistentFlags, &application.logFormatFlagValue, logFormatFlagNameConstant, string(utils.LogFormatStructured), utils.SupportedLogFormats(), logFormatFlagUsageConstant)
	return rootCommand
}

// registerSubcommands attaches every subcommand whose builder succeeds.
// Providers are read lazily because configuration loads in PersistentPreRunE.
func (application *Application) registerSubcommands() {
	builders := []commandBuilder{
		&executioncmd.RunCommandBuilder{
			LoggerProvider:               application.currentLogger,
			HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
			ConfigurationProvider:        application.executionConfiguration,
		},
		&executioncmd.CaptureCommandBuilder{
			LoggerProvider:               application.currentLogger,
			HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
			ConfigurationProvider:        application.executionConfiguration,
		},
		&executioncmd.SanitizeCommandBuilder{},
	}
	for _, builder := range builders {
		if subcommand, buildError := builder.Build(); buildError == nil {
			application.rootCommand.AddCommand(subcommand)
		}
	}
}

// Execute runs the root command and flushes the logger afterwards.
// A flush failure is reported only when the command itself succeeded.
func (application *Application) Execute() error {
	if executionError := application.rootCommand.Execute(); executionError != nil {
		_ = syncLogger(application.logger)
		return executionError
	}
	if syncError := syncLogger(application.logger); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return nil
}

// Execute builds a fresh application and runs it with the process arguments.
func Execute() error {
	application := NewApplication()
	application.rootCommand.SetArgs(flagutils.NormalizeToggleArguments(application.rootCommand, os.Args[1:]))
	return application.Execute()
}

func (application *Application) currentLogger() *zap.Logger {
	return application.logger
}

func (application *Application) executionConfiguration() executioncmd.CommandConfiguration {
	return application.configuration.Execution
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogFormat), string(utils.LogFormatConsole))
}

// ignoredSyncErrors are returned by Sync on terminals and pipes, which cannot be fsynced.
var ignoredSyncErrors = []error{syscall.ENOTSUP, syscall.EINVAL, syscall.ENOTTY}

func syncLogger(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	syncError := logger.Sync()
	for _, ignoredError := range ignoredSyncErrors {
		if errors.Is(syncError, ignoredError) {
			return nil
		}
	}
	return syncError
}
