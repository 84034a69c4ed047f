package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	executioncmd "github.com/temirov/toolrun/cmd/cli/execution"
	"github.com/temirov/toolrun/internal/utils"
)

const (
	environmentPrefixConstant              = "TOOLRUN"
	configurationNameConstant              = "config"
	configurationTypeConstant              = "yaml"
	workingDirectorySearchPathConstant     = "."
	commonLogLevelConfigKeyConstant        = "common.log_level"
	commonLogFormatConfigKeyConstant       = "common.log_format"
	executionConfigurationKeyConstant      = "execution"
	configurationResolvedMessageConstant   = "configuration resolved"
	logFieldLogLevelConstant               = "log_level"
	logFieldLogFormatConstant              = "log_format"
	logFieldConfigurationFileConstant      = "config_file"
	logFieldExecutionIdentifierConstant    = "execution_id"
	configurationLoadErrorTemplateConstant = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant    = "unable to create logger: %w"
)

// ApplicationConfiguration mirrors the layout of config.yaml.
type ApplicationConfiguration struct {
	Common    ApplicationCommonConfiguration    `mapstructure:"common"`
	Execution executioncmd.CommandConfiguration `mapstructure:"execution"`
}

// ApplicationCommonConfiguration holds the logging settings every command shares.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// configurationSearchPaths lists where config.yaml is looked up when --config is absent.
func configurationSearchPaths() []string {
	searchPaths := []string{workingDirectorySearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, applicationNameConstant))
	}
	return searchPaths
}

func defaultConfigurationValues() map[string]any {
	defaultValues := executioncmd.DefaultConfigurationValues(executionConfigurationKeyConstant)
	defaultValues[commonLogLevelConfigKeyConstant] = string(utils.LogLevelInfo)
	defaultValues[commonLogFormatConfigKeyConstant] = string(utils.LogFormatStructured)
	return defaultValues
}

// initializeConfiguration loads the layered configuration, applies the logging flags,
// builds the logger and records the invocation on the command context.
func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration
	application.applyLoggingFlagOverrides(command)

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogLevel))),
		utils.LogFormat(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogFormat))),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	invocation := utils.Invocation{
		ConfigurationFilePath: loadedConfiguration.ConfigFileUsed,
		Identifier:            uuid.NewString(),
	}
	application.logger.Debug(
		configurationResolvedMessageConstant,
		zap.String(logFieldExecutionIdentifierConstant, invocation.Identifier),
		zap.String(logFieldLogLevelConstant, application.configuration.Common.LogLevel),
		zap.String(logFieldLogFormatConstant, application.configuration.Common.LogFormat),
		zap.String(logFieldConfigurationFileConstant, invocation.ConfigurationFilePath),
	)

	if command == nil {
		return nil
	}
	invocationContext := application.commandContextAccessor.WithInvocation(command.Context(), invocation)
	command.SetContext(invocationContext)
	if rootCommand := command.Root(); rootCommand != command {
		rootCommand.SetContext(invocationContext)
	}
	return nil
}

// applyLoggingFlagOverrides copies --log-level and --log-format over the loaded values when given.
func (application *Application) applyLoggingFlagOverrides(command *cobra.Command) {
	if command == nil {
		return
	}
	overrides := []struct {
		flagName  string
		flagValue string
		target    *string
	}{
		{flagName: logLevelFlagNameConstant, flagValue: application.logLevelFlagValue, target: &application.configuration.Common.LogLevel},
		{flagName: logFormatFlagNameConstant, flagValue: application.logFormatFlagValue, target: &application.configuration.Common.LogFormat},
	}
	for _, override := range overrides {
		if flag := command.Flags().Lookup(override.flagName); flag != nil && flag.Changed {
			*override.target = override.flagValue
			continue
		}
		if flag := command.Root().PersistentFlags().Lookup(override.flagName); flag != nil && flag.Changed {
			*override.target = override.flagValue
		}
	}
}
