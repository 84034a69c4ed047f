package utils_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/toolrun/internal/utils"
)

const (
	testStructuredDebugCaseConstant  = "structured_debug"
	testStructuredErrorCaseConstant  = "structured_error_hides_info"
	testConsoleInfoCaseConstant      = "console_info"
	testConsoleColorCaseConstant     = "console_colored_levels"
	testUnsupportedLevelCaseConstant = "unsupported_level"
	testUnsupportedFormatConstant    = "unsupported_format"
	testInvalidLogLevelConstant      = "invalid"
	testInvalidLogFormatConstant     = "invalid"
	testInfoMessageConstant          = "keepalive for cook"
	testErrorMessageConstant         = "child wrote to stderr"
	testColoredInfoLevelConstant     = "\x1b[34mINFO\x1b[0m"
	testPlainInfoLevelConstant       = "INFO"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name              string
		logLevel          utils.LogLevel
		logFormat         utils.LogFormat
		colorizeLevels    bool
		expectError       bool
		expectJSON        bool
		expectInfoVisible bool
		expectedSnippet   string
	}{
		{
			name:              testStructuredDebugCaseConstant,
			logLevel:          utils.LogLevelDebug,
			logFormat:         utils.LogFormatStructured,
			expectJSON:        true,
			expectInfoVisible: true,
			expectedSnippet:   `"level":"info"`,
		},
		{
			name:              testStructuredErrorCaseConstant,
			logLevel:          utils.LogLevelError,
			logFormat:         utils.LogFormatStructured,
			expectJSON:        true,
			expectInfoVisible: false,
			expectedSnippet:   `"level":"error"`,
		},
		{
			name:              testConsoleInfoCaseConstant,
			logLevel:          utils.LogLevelInfo,
			logFormat:         utils.LogFormatConsole,
			expectInfoVisible: true,
			expectedSnippet:   testPlainInfoLevelConstant,
		},
		{
			name:              testConsoleColorCaseConstant,
			logLevel:          utils.LogLevelInfo,
			logFormat:         utils.LogFormatConsole,
			colorizeLevels:    true,
			expectInfoVisible: true,
			expectedSnippet:   testColoredInfoLevelConstant,
		},
		{
			name:        testUnsupportedLevelCaseConstant,
			logLevel:    utils.LogLevel(testInvalidLogLevelConstant),
			logFormat:   utils.LogFormatStructured,
			expectError: true,
		},
		{
			name:        testUnsupportedFormatConstant,
			logLevel:    utils.LogLevelInfo,
			logFormat:   utils.LogFormat(testInvalidLogFormatConstant),
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			outputBuffer := &bytes.Buffer{}
			loggerFactory := utils.NewLoggerFactoryWithOutput(outputBuffer, testCase.colorizeLevels)

			logger, creationError := loggerFactory.CreateLogger(testCase.logLevel, testCase.logFormat)
			if testCase.expectError {
				require.Error(subTest, creationError)
				require.Nil(subTest, logger)
				return
			}
			require.NoError(subTest, creationError)

			logger.Info(testInfoMessageConstant)
			logger.Error(testErrorMessageConstant)
			require.NoError(subTest, logger.Sync())

			outputLines := strings.Split(strings.TrimSpace(outputBuffer.String()), "\n")
			require.Contains(subTest, outputBuffer.String(), testErrorMessageConstant)
			require.Equal(subTest, testCase.expectInfoVisible, strings.Contains(outputBuffer.String(), testInfoMessageConstant))
			require.Contains(subTest, outputBuffer.String(), testCase.expectedSnippet)
			for _, outputLine := range outputLines {
				require.Equal(subTest, testCase.expectJSON, json.Valid([]byte(outputLine)))
			}
		})
	}
}

func TestLoggerFactoryDoesNotSampleRepeatedLines(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	logger, creationError := utils.NewLoggerFactoryWithOutput(outputBuffer, false).CreateLogger(utils.LogLevelDebug, utils.LogFormatStructured)
	require.NoError(testInstance, creationError)

	const repeatedLineCount = 500
	for lineIndex := 0; lineIndex < repeatedLineCount; lineIndex++ {
		logger.Debug(testInfoMessageConstant)
	}

	require.Equal(testInstance, repeatedLineCount, strings.Count(outputBuffer.String(), testInfoMessageConstant))
}

func TestParseLogLevel(testInstance *testing.T) {
	parsedLevel, parseError := utils.ParseLogLevel(" WARN ")
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, utils.LogLevelWarn, parsedLevel)

	zapLevel, levelError := parsedLevel.ZapLevel()
	require.NoError(testInstance, levelError)
	require.Equal(testInstance, zapcore.WarnLevel, zapLevel)

	_, parseError = utils.ParseLogLevel(testInvalidLogLevelConstant)
	require.Error(testInstance, parseError)

	require.Equal(testInstance, []string{"debug", "info", "warn", "error"}, utils.SupportedLogLevels())
	require.Equal(testInstance, []string{"structured", "console"}, utils.SupportedLogFormats())
}
