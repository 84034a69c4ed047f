package utils_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/toolrun/internal/utils"
)

const (
	testEnvironmentPrefixConstant          = "TESTTOOLRUN"
	testHeartbeatEnvironmentNameConstant   = "TESTTOOLRUN_EXECUTION_HEARTBEAT"
	testConfigurationNameConstant          = "config"
	testConfigurationTypeConstant          = "yaml"
	testConfigurationFileNameConstant      = "config.yaml"
	testHeartbeatKeyConstant               = "execution.heartbeat"
	testEncodingKeyConstant                = "execution.encoding"
	testDefaultHeartbeatConstant           = "1s"
	testDefaultEncodingConstant            = "utf-8"
	testEmbeddedConfigurationConstant      = "execution:\n  heartbeat: 2s\n"
	testFileConfigurationConstant          = "execution:\n  heartbeat: 3s\n  encoding: cp850\n"
	testListConfigurationConstant          = "execution:\n  heartbeat: 45s\n  encodings: utf-8,cp850\n"
	testMalformedConfigurationConstant     = "execution: [unterminated\n"
	testEnvironmentHeartbeatConstant       = "4s"
	testUserConfigurationDirectoryConstant = "toolrun"
	testXDGDirectoryNameConstant           = "config"
	testDefaultsOnlyCaseConstant           = "defaults_only"
	testEmbeddedCaseConstant               = "embedded_over_defaults"
	testFileCaseConstant                   = "file_over_embedded"
	testEnvironmentCaseConstant            = "environment_over_file"
	testWorkingDirectoryCaseConstant       = "working_directory"
	testUserDirectoryCaseConstant          = "user_configuration_directory"
)

type configurationFixture struct {
	Execution executionConfigurationFixture `mapstructure:"execution"`
}

type executionConfigurationFixture struct {
	Heartbeat time.Duration `mapstructure:"heartbeat"`
	Encoding  string        `mapstructure:"encoding"`
	Encodings []string      `mapstructure:"encodings"`
}

func executionDefaults() map[string]any {
	return map[string]any{
		testHeartbeatKeyConstant: testDefaultHeartbeatConstant,
		testEncodingKeyConstant:  testDefaultEncodingConstant,
	}
}

func writeConfigurationFile(testInstance *testing.T, directory string, content string) string {
	testInstance.Helper()
	configurationFilePath := filepath.Join(directory, testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(content), 0o600))
	return configurationFilePath
}

func TestConfigurationLoaderLayersSources(testInstance *testing.T) {
	testCases := []struct {
		name                  string
		embeddedConfiguration string
		fileConfiguration     string
		environmentHeartbeat  string
		expectedHeartbeat     time.Duration
		expectedEncoding      string
	}{
		{
			name:              testDefaultsOnlyCaseConstant,
			expectedHeartbeat: time.Second,
			expectedEncoding:  testDefaultEncodingConstant,
		},
		{
			name:                  testEmbeddedCaseConstant,
			embeddedConfiguration: testEmbeddedConfigurationConstant,
			expectedHeartbeat:     2 * time.Second,
			expectedEncoding:      testDefaultEncodingConstant,
		},
		{
			name:                  testFileCaseConstant,
			embeddedConfiguration: testEmbeddedConfigurationConstant,
			fileConfiguration:     testFileConfigurationConstant,
			expectedHeartbeat:     3 * time.Second,
			expectedEncoding:      "cp850",
		},
		{
			name:                  testEnvironmentCaseConstant,
			embeddedConfiguration: testEmbeddedConfigurationConstant,
			fileConfiguration:     testFileConfigurationConstant,
			environmentHeartbeat:  testEnvironmentHeartbeatConstant,
			expectedHeartbeat:     4 * time.Second,
			expectedEncoding:      "cp850",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			configurationFilePath := ""
			if len(testCase.fileConfiguration) > 0 {
				configurationFilePath = writeConfigurationFile(subTest, subTest.TempDir(), testCase.fileConfiguration)
			}
			if len(testCase.environmentHeartbeat) > 0 {
				subTest.Setenv(testHeartbeatEnvironmentNameConstant, testCase.environmentHeartbeat)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{subTest.TempDir()})
			configurationLoader.SetEmbeddedConfiguration([]byte(testCase.embeddedConfiguration), testConfigurationTypeConstant)

			var loadedConfiguration configurationFixture
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, executionDefaults(), &loadedConfiguration)

			require.NoError(subTest, loadError)
			require.Equal(subTest, testCase.expectedHeartbeat, loadedConfiguration.Execution.Heartbeat)
			require.Equal(subTest, testCase.expectedEncoding, loadedConfiguration.Execution.Encoding)
			require.Equal(subTest, configurationFilePath, metadata.ConfigFileUsed)
			require.Equal(subTest, len(testCase.embeddedConfiguration) > 0, metadata.EmbeddedDefaultsApplied)
		})
	}
}

func TestConfigurationLoaderSearchPaths(testInstance *testing.T) {
	testCases := []struct {
		name            string
		selectDirectory func(workingDirectory string, userConfigurationDirectory string) string
	}{
		{
			name: testWorkingDirectoryCaseConstant,
			selectDirectory: func(workingDirectory string, _ string) string {
				return workingDirectory
			},
		},
		{
			name: testUserDirectoryCaseConstant,
			selectDirectory: func(_ string, userConfigurationDirectory string) string {
				return userConfigurationDirectory
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			workingDirectory := subTest.TempDir()
			homeDirectory := subTest.TempDir()
			subTest.Setenv("HOME", homeDirectory)
			subTest.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDirectory, testXDGDirectoryNameConstant))

			userConfigurationBaseDirectory, userConfigurationError := os.UserConfigDir()
			require.NoError(subTest, userConfigurationError)
			userConfigurationDirectory := filepath.Join(userConfigurationBaseDirectory, testUserConfigurationDirectoryConstant)
			require.NoError(subTest, os.MkdirAll(userConfigurationDirectory, 0o755))

			configurationFilePath := writeConfigurationFile(subTest, testCase.selectDirectory(workingDirectory, userConfigurationDirectory), testFileConfigurationConstant)

			configurationLoader := utils.NewConfigurationLoader(
				testConfigurationNameConstant,
				testConfigurationTypeConstant,
				testEnvironmentPrefixConstant,
				[]string{workingDirectory, userConfigurationDirectory},
			)

			var loadedConfiguration configurationFixture
			metadata, loadError := configurationLoader.LoadConfiguration("", executionDefaults(), &loadedConfiguration)

			require.NoError(subTest, loadError)
			require.Equal(subTest, 3*time.Second, loadedConfiguration.Execution.Heartbeat)
			require.Equal(subTest, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderDecodesDurationsAndLists(testInstance *testing.T) {
	configurationFilePath := writeConfigurationFile(testInstance, testInstance.TempDir(), testListConfigurationConstant)
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)

	var loadedConfiguration configurationFixture
	_, loadError := configurationLoader.LoadConfiguration(configurationFilePath, nil, &loadedConfiguration)

	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 45*time.Second, loadedConfiguration.Execution.Heartbeat)
	require.Equal(testInstance, []string{"utf-8", "cp850"}, loadedConfiguration.Execution.Encodings)
}

func TestConfigurationLoaderReportsErrors(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)

	_, targetError := configurationLoader.LoadConfiguration("", nil, nil)
	require.ErrorIs(testInstance, targetError, utils.ErrConfigurationTargetMissing)

	var loadedConfiguration configurationFixture
	missingFilePath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	_, missingFileError := configurationLoader.LoadConfiguration(missingFilePath, nil, &loadedConfiguration)
	require.Error(testInstance, missingFileError)

	configurationLoader.SetEmbeddedConfiguration([]byte(testMalformedConfigurationConstant), testConfigurationTypeConstant)
	_, embeddedError := configurationLoader.LoadConfiguration("", nil, &loadedConfiguration)
	require.Error(testInstance, embeddedError)
}
