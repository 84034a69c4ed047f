package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	consoleTimeLayoutConstant            = "15:04:05.000"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// SupportedLogLevels lists the accepted level names in increasing severity.
func SupportedLogLevels() []string {
	return []string{logLevelDebugStringConstant, logLevelInfoStringConstant, logLevelWarnStringConstant, logLevelErrorStringConstant}
}

// SupportedLogFormats lists the accepted format names.
func SupportedLogFormats() []string {
	return []string{logFormatStructuredStringConstant, logFormatConsoleStringConstant}
}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// ParseLogLevel normalizes a configured level name.
func ParseLogLevel(rawLogLevel string) (LogLevel, error) {
	logLevel := LogLevel(strings.ToLower(strings.TrimSpace(rawLogLevel)))
	if _, levelExists := logLevelMapping[logLevel]; !levelExists {
		return "", fmt.Errorf(unsupportedLogLevelTemplateConstant, rawLogLevel)
	}
	return logLevel, nil
}

// ZapLevel converts the level into its zap equivalent.
func (logLevel LogLevel) ZapLevel() (zapcore.Level, error) {
	zapLogLevel, levelExists := logLevelMapping[logLevel]
	if !levelExists {
		return zapcore.InfoLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, logLevel)
	}
	return zapLogLevel, nil
}

// LoggerFactory builds zap.Logger instances that share one output.
type LoggerFactory struct {
	output         zapcore.WriteSyncer
	colorizeLevels bool
}

// NewLoggerFactory constructs a factory writing to standard error. Console levels are
// colored when standard error is a terminal.
func NewLoggerFactory() *LoggerFactory {
	standardErrorDescriptor := os.Stderr.Fd()
	isTerminal := isatty.IsTerminal(standardErrorDescriptor) || isatty.IsCygwinTerminal(standardErrorDescriptor)
	return NewLoggerFactoryWithOutput(os.Stderr, isTerminal)
}

// NewLoggerFactoryWithOutput constructs a factory writing to output. Writes are serialized.
func NewLoggerFactoryWithOutput(output io.Writer, colorizeLevels bool) *LoggerFactory {
	if output == nil {
		output = io.Discard
	}
	return &LoggerFactory{output: zapcore.Lock(zapcore.AddSync(output)), colorizeLevels: colorizeLevels}
}

// CreateLogger produces a logger with the requested level and format. The structured format
// emits JSON with caller information; the console format prints short timestamps and no caller.
// Neither format samples or attaches stack traces, so every child output line is kept.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, levelError := requestedLogLevel.ZapLevel()
	if levelError != nil {
		return nil, levelError
	}

	encoder, encoderError := factory.newEncoder(requestedLogFormat)
	if encoderError != nil {
		return nil, encoderError
	}

	core := zapcore.NewCore(encoder, factory.output, zap.NewAtomicLevelAt(zapLogLevel))
	loggerOptions := []zap.Option{zap.ErrorOutput(factory.output)}
	if requestedLogFormat == LogFormatStructured {
		loggerOptions = append(loggerOptions, zap.AddCaller())
	}
	return zap.New(core, loggerOptions...), nil
}

func (factory *LoggerFactory) newEncoder(requestedLogFormat LogFormat) (zapcore.Encoder, error) {
	switch requestedLogFormat {
	case LogFormatStructured:
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), nil
	case LogFormatConsole:
		encoderConfiguration := zap.NewDevelopmentEncoderConfig()
		encoderConfiguration.EncodeTime = zapcore.TimeEncoderOfLayout(consoleTimeLayoutConstant)
		if factory.colorizeLevels {
			encoderConfiguration.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(encoderConfiguration), nil
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}
}
