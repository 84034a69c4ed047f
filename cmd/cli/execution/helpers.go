package execution

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/toolrun/internal/execshell"
	"github.com/temirov/toolrun/internal/ui"
	"github.com/temirov/toolrun/internal/utils"
	pathutils "github.com/temirov/toolrun/internal/utils/path"
)

const (
	commandLineRequiredMessageConstant          = "command required; pass it after --"
	standardOutputLevelErrorTemplateConstant    = "invalid stdout log level: %w"
	workingDirectoryErrorTemplateConstant       = "invalid working directory: %w"
	supervisorConstructionErrorTemplateConstant = "unable to construct process supervisor: %w"
	configurationSourceMessageConstant          = "execution settings resolved"
	logFieldConfigurationFileConstant           = "config_file"
	logFieldHeartbeatConstant                   = "heartbeat"
	logFieldEncodingConstant                    = "encoding"
	logFieldDebugStreamConstant                 = "debug_stream"
)

// ErrCommandLineRequired indicates that no command was given after the flags.
var ErrCommandLineRequired = errors.New(commandLineRequiredMessageConstant)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// SupervisorFactory constructs the process supervisor a command runs with.
type SupervisorFactory func(logger *zap.Logger, options ...execshell.SupervisorOption) (*execshell.ProcessSupervisor, error)

// supervisorRequest gathers what is needed to build a supervisor for one command invocation.
type supervisorRequest struct {
	logger               *zap.Logger
	configuration        CommandConfiguration
	humanReadableLogging bool
	factory              SupervisorFactory
	additionalOptions    []execshell.SupervisorOption
}

func buildSupervisor(request supervisorRequest) (*execshell.ProcessSupervisor, error) {
	standardOutputLogLevel, parseError := utils.ParseLogLevel(request.configuration.StandardOutputLogLevel)
	if parseError != nil {
		return nil, fmt.Errorf(standardOutputLevelErrorTemplateConstant, parseError)
	}
	standardOutputLevel, levelError := standardOutputLogLevel.ZapLevel()
	if levelError != nil {
		return nil, fmt.Errorf(standardOutputLevelErrorTemplateConstant, levelError)
	}

	options := []execshell.SupervisorOption{
		execshell.WithStandardOutputLevel(standardOutputLevel),
		execshell.WithEncodings(request.configuration.Encoding, request.configuration.FallbackEncoding),
	}
	if request.humanReadableLogging {
		options = append(options, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(request.logger)))
	}
	options = append(options, request.additionalOptions...)
	// A disabled debug stream wins over any capture provider passed in by the caller.
	if !request.configuration.DebugStream {
		options = append(options, execshell.WithAuxiliaryCaptureProvider(nil))
	}

	factory := request.factory
	if factory == nil {
		factory = execshell.NewProcessSupervisor
	}

	supervisor, constructionError := factory(request.logger, options...)
	if constructionError != nil {
		return nil, fmt.Errorf(supervisorConstructionErrorTemplateConstant, constructionError)
	}
	return supervisor, nil
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveHumanReadableLogging(provider func() bool) bool {
	if provider == nil {
		return false
	}
	return provider()
}

func resolveConfiguration(provider func() CommandConfiguration) CommandConfiguration {
	if provider == nil {
		return DefaultCommandConfiguration()
	}
	return provider().Sanitize()
}

func resolveCommandLine(command *cobra.Command, arguments []string) (execshell.CommandLine, error) {
	if len(arguments) == 0 || len(strings.TrimSpace(arguments[0])) == 0 {
		if helpError := displayCommandHelp(command); helpError != nil {
			return nil, helpError
		}
		return nil, ErrCommandLineRequired
	}
	return execshell.CommandLine(append([]string{}, arguments...)), nil
}

func resolveWorkingDirectory(candidate string) (string, error) {
	workingDirectory, resolveError := pathutils.NewHomeExpander().ResolveDirectory(candidate)
	if resolveError != nil {
		return "", fmt.Errorf(workingDirectoryErrorTemplateConstant, resolveError)
	}
	return workingDirectory, nil
}

// invocationOptions correlates the supervisor's execution_id with the CLI invocation when one is recorded.
func invocationOptions(command *cobra.Command) []execshell.SupervisorOption {
	if command == nil {
		return nil
	}
	invocation, invocationAvailable := utils.NewCommandContextAccessor().Invocation(command.Context())
	if !invocationAvailable || len(invocation.Identifier) == 0 {
		return nil
	}
	invocationIdentifier := invocation.Identifier
	return []execshell.SupervisorOption{
		execshell.WithExecutionIdentifierGenerator(func() string { return invocationIdentifier }),
	}
}

func logExecutionSettings(command *cobra.Command, logger *zap.Logger, configuration CommandConfiguration) {
	configurationFilePath := ""
	if command != nil {
		configurationFilePath, _ = utils.NewCommandContextAccessor().ConfigurationFilePath(command.Context())
	}
	logger.Debug(
		configurationSourceMessageConstant,
		zap.String(logFieldConfigurationFileConstant, configurationFilePath),
		zap.Duration(logFieldHeartbeatConstant, configuration.Heartbeat),
		zap.String(logFieldEncodingConstant, configuration.Encoding),
		zap.Bool(logFieldDebugStreamConstant, configuration.DebugStream),
	)
}

func displayCommandHelp(command *cobra.Command) error {
	if command == nil {
		return nil
	}
	return command.Help()
}
