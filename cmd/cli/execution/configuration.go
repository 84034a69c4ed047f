package execution

import (
	"strings"
	"time"

	"github.com/temirov/toolrun/internal/execshell"
	"github.com/temirov/toolrun/internal/utils"
)

const (
	configurationHeartbeatKeyConstant              = "heartbeat"
	configurationStandardOutputLogLevelKeyConstant = "stdout_log_level"
	configurationEncodingKeyConstant               = "encoding"
	configurationFallbackEncodingKeyConstant       = "fallback_encoding"
	configurationDebugStreamKeyConstant            = "debug_stream"
	configurationKeySeparatorConstant              = "."
)

// CommandConfiguration captures the settings shared by the run and capture commands.
type CommandConfiguration struct {
	Heartbeat              time.Duration `mapstructure:"heartbeat"`
	StandardOutputLogLevel string        `mapstructure:"stdout_log_level"`
	Encoding               string        `mapstructure:"encoding"`
	FallbackEncoding       string        `mapstructure:"fallback_encoding"`
	DebugStream            bool          `mapstructure:"debug_stream"`
}

// DefaultCommandConfiguration provides the execution settings used when nothing is configured.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Heartbeat:              0,
		StandardOutputLogLevel: string(utils.LogLevelDebug),
		Encoding:               execshell.DefaultEncodingName,
		FallbackEncoding:       execshell.DefaultFallbackEncodingName,
		DebugStream:            true,
	}
}

// DefaultConfigurationValues produces Viper defaults for the execution settings under rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationHeartbeatKeyConstant:              defaults.Heartbeat,
		rootKey + configurationKeySeparatorConstant + configurationStandardOutputLogLevelKeyConstant: defaults.StandardOutputLogLevel,
		rootKey + configurationKeySeparatorConstant + configurationEncodingKeyConstant:               defaults.Encoding,
		rootKey + configurationKeySeparatorConstant + configurationFallbackEncodingKeyConstant:       defaults.FallbackEncoding,
		rootKey + configurationKeySeparatorConstant + configurationDebugStreamKeyConstant:            defaults.DebugStream,
	}
}

// Sanitize trims values and restores defaults for blank or negative settings.
// A blank fallback encoding stays blank and disables the fallback decoding attempt.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration
	if sanitized.Heartbeat < 0 {
		sanitized.Heartbeat = 0
	}
	sanitized.StandardOutputLogLevel = valueOrDefault(configuration.StandardOutputLogLevel, defaults.StandardOutputLogLevel)
	sanitized.Encoding = valueOrDefault(configuration.Encoding, defaults.Encoding)
	sanitized.FallbackEncoding = strings.TrimSpace(configuration.FallbackEncoding)
	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}
