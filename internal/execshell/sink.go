package execshell

import (
	"bytes"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// OutputStream identifies the channel a line was read from.
type OutputStream int

// Drained output channels.
const (
	StandardOutputStream OutputStream = iota
	StandardErrorStream
	DebugStringStream
)

// String returns the stream name used in log fields.
func (stream OutputStream) String() string {
	switch stream {
	case StandardOutputStream:
		return "stdout"
	case StandardErrorStream:
		return "stderr"
	case DebugStringStream:
		return "debug"
	default:
		return "unknown"
	}
}

// OutputLine is one line read from a child stream.
type OutputLine struct {
	// Stream identifies the source channel.
	Stream OutputStream
	// Raw holds the bytes exactly as read, including the line terminator when present.
	Raw []byte
	// Text is the decoded line without terminators and with template delimiters escaped.
	Text string
}

// StreamSink receives drained lines. Implementations must accept concurrent calls
// from the drain workers of one or more executions.
type StreamSink interface {
	Deliver(line OutputLine)
}

// LoggingStreamSink forwards lines to a zap logger, one entry per line.
type LoggingStreamSink struct {
	logger              *zap.Logger
	standardOutputLevel zapcore.Level
	standardErrorLevel  zapcore.Level
	debugStringLevel    zapcore.Level
}

// NewLoggingStreamSink builds a sink logging standard output and debug strings at debug level
// and standard error at error level.
func NewLoggingStreamSink(logger *zap.Logger) *LoggingStreamSink {
	return NewLoggingStreamSinkWithLevels(logger, zapcore.DebugLevel)
}

// NewLoggingStreamSinkWithLevels builds a sink that logs standard output at the given level.
func NewLoggingStreamSinkWithLevels(logger *zap.Logger, standardOutputLevel zapcore.Level) *LoggingStreamSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingStreamSink{
		logger:              logger,
		standardOutputLevel: standardOutputLevel,
		standardErrorLevel:  zapcore.ErrorLevel,
		debugStringLevel:    zapcore.DebugLevel,
	}
}

// Deliver logs the line at the severity associated with its stream.
func (sink *LoggingStreamSink) Deliver(line OutputLine) {
	level := sink.standardOutputLevel
	switch line.Stream {
	case StandardErrorStream:
		level = sink.standardErrorLevel
	case DebugStringStream:
		level = sink.debugStringLevel
	}

	if checkedEntry := sink.logger.Check(level, line.Text); checkedEntry != nil {
		checkedEntry.Write(zap.String(logFieldStreamConstant, line.Stream.String()))
	}
}

// CaptureStreamSink accumulates capture-mode output per stream, both as read and as decoded.
type CaptureStreamSink struct {
	mutex   sync.Mutex
	streams map[OutputStream]*capturedStream
}

// capturedStream keeps the decoded text with each line's original terminator restored.
type capturedStream struct {
	raw  bytes.Buffer
	text strings.Builder
}

// NewCaptureStreamSink constructs an empty accumulator.
func NewCaptureStreamSink() *CaptureStreamSink {
	return &CaptureStreamSink{streams: make(map[OutputStream]*capturedStream)}
}

// Deliver appends the line to its stream. Each line is kept as decoded by the drain worker,
// so one undecodable line never changes how its neighbours read.
func (sink *CaptureStreamSink) Deliver(line OutputLine) {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()

	stream, streamExists := sink.streams[line.Stream]
	if !streamExists {
		stream = &capturedStream{}
		sink.streams[line.Stream] = stream
	}
	stream.raw.Write(line.Raw)
	stream.text.WriteString(line.Text)
	stream.text.Write(line.Raw[len(bytes.TrimRight(line.Raw, lineTerminatorCharactersConstant)):])
}

// Bytes returns a copy of the raw bytes captured from the stream.
func (sink *CaptureStreamSink) Bytes(stream OutputStream) []byte {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()

	captured, streamExists := sink.streams[stream]
	if !streamExists {
		return nil
	}
	return bytes.Clone(captured.raw.Bytes())
}

// Text returns the decoded text captured from the stream with line terminators preserved.
func (sink *CaptureStreamSink) Text(stream OutputStream) string {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()

	captured, streamExists := sink.streams[stream]
	if !streamExists {
		return ""
	}
	return captured.text.String()
}

// fanOutStreamSink delivers every line to each wrapped sink in order.
type fanOutStreamSink []StreamSink

func (sinks fanOutStreamSink) Deliver(line OutputLine) {
	for _, sink := range sinks {
		sink.Deliver(line)
	}
}

// CombineStreamSinks returns a sink delivering to all non-nil sinks.
func CombineStreamSinks(sinks ...StreamSink) StreamSink {
	combinedSinks := make(fanOutStreamSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			combinedSinks = append(combinedSinks, sink)
		}
	}
	if len(combinedSinks) == 1 {
		return combinedSinks[0]
	}
	return combinedSinks
}
