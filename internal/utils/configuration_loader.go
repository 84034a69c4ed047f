package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configurationKeySeparatorConstant               = "."
	environmentKeySeparatorConstant                 = "_"
	listValueSeparatorConstant                      = ","
	configurationTargetMissingMessageConstant       = "configuration target is nil"
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
)

// ErrConfigurationTargetMissing indicates that LoadConfiguration was given nothing to decode into.
var ErrConfigurationTargetMissing = errors.New(configurationTargetMissingMessageConstant)

// ConfigurationLoader resolves layered configuration with Viper. Later layers win:
// default values, embedded configuration, the configuration file, then environment
// variables named PREFIX_SECTION_KEY. Durations such as "30s" and comma separated
// lists decode directly into typed fields.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	// ConfigFileUsed is the configuration file that was merged, or empty when none was found.
	ConfigFileUsed string
	// EmbeddedDefaultsApplied reports whether embedded configuration took part in the merge.
	EmbeddedDefaultsApplied bool
}

// NewConfigurationLoader creates a loader that looks for configurationName in searchPaths, in order.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string{}, searchPaths...),
	}
}

// SetEmbeddedConfiguration stores configuration data merged beneath any configuration file.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embeddedConfigurationType = strings.TrimSpace(configurationType)
	loader.embeddedConfiguration = nil
	if len(configurationData) > 0 {
		loader.embeddedConfiguration = bytes.Clone(configurationData)
	}
}

// LoadConfiguration decodes the layered configuration into targetConfiguration.
// An explicit configurationFilePath must exist; a file missing from the search paths is not an error.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	if targetConfiguration == nil {
		return LoadedConfiguration{}, ErrConfigurationTargetMissing
	}

	configurationReader := loader.newConfigurationReader(defaultValues)

	embeddedApplied, embeddedError := loader.mergeEmbeddedConfiguration(configurationReader)
	if embeddedError != nil {
		return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, embeddedError)
	}

	if fileError := loader.mergeConfigurationFile(configurationReader, configurationFilePath); fileError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, fileError)
	}

	if decodeError := configurationReader.Unmarshal(targetConfiguration, viper.DecodeHook(configurationDecodeHook())); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, decodeError)
	}

	return LoadedConfiguration{
		ConfigFileUsed:          configurationReader.ConfigFileUsed(),
		EmbeddedDefaultsApplied: embeddedApplied,
	}, nil
}

func (loader *ConfigurationLoader) newConfigurationReader(defaultValues map[string]any) *viper.Viper {
	configurationReader := viper.New()
	configurationReader.SetConfigName(loader.configurationName)
	configurationReader.SetConfigType(loader.configurationType)
	for _, searchPath := range loader.searchPaths {
		configurationReader.AddConfigPath(searchPath)
	}

	configurationReader.SetEnvPrefix(loader.environmentPrefix)
	configurationReader.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentKeySeparatorConstant))
	configurationReader.AutomaticEnv()

	for defaultKey, defaultValue := range defaultValues {
		configurationReader.SetDefault(defaultKey, defaultValue)
	}
	return configurationReader
}

func (loader *ConfigurationLoader) mergeEmbeddedConfiguration(configurationReader *viper.Viper) (bool, error) {
	if len(loader.embeddedConfiguration) == 0 {
		return false, nil
	}

	embeddedType := loader.embeddedConfigurationType
	if len(embeddedType) == 0 {
		embeddedType = loader.configurationType
	}

	configurationReader.SetConfigType(embeddedType)
	defer configurationReader.SetConfigType(loader.configurationType)
	if mergeError := configurationReader.MergeConfig(bytes.NewReader(loader.embeddedConfiguration)); mergeError != nil {
		return false, mergeError
	}
	return true, nil
}

func (loader *ConfigurationLoader) mergeConfigurationFile(configurationReader *viper.Viper, configurationFilePath string) error {
	if len(strings.TrimSpace(configurationFilePath)) > 0 {
		configurationReader.SetConfigFile(configurationFilePath)
	}

	mergeError := configurationReader.MergeInConfig()
	var notFoundError viper.ConfigFileNotFoundError
	if mergeError == nil || errors.As(mergeError, &notFoundError) {
		return nil
	}
	return mergeError
}

func configurationDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listValueSeparatorConstant),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}
