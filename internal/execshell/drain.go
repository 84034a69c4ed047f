package execshell

import (
	"bufio"
	"errors"
	"io"
	"os"

	"go.uber.org/zap"
)

const (
	lineDelimiterConstant             = '\n'
	logFieldFallbackLineCountConstant = "fallback_lines"
	logFieldReplacedLineCountConstant = "replaced_lines"
)

// StreamDrainWorker reads one child stream until end-of-stream and delivers every line to a sink.
type StreamDrainWorker struct {
	stream  OutputStream
	reader  io.Reader
	decoder *LineDecoder
	sink    StreamSink
	logger  *zap.Logger

	escapeTemplateDelimiters bool
	fallbackLineCount        int
	replacedLineCount        int
}

// NewStreamDrainWorker constructs a worker for one stream. Lines are escaped for template
// formatters when escapeTemplateDelimiters is set.
func NewStreamDrainWorker(stream OutputStream, reader io.Reader, decoder *LineDecoder, sink StreamSink, logger *zap.Logger, escapeTemplateDelimiters bool) *StreamDrainWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamDrainWorker{
		stream:                   stream,
		reader:                   reader,
		decoder:                  decoder,
		sink:                     sink,
		logger:                   logger,
		escapeTemplateDelimiters: escapeTemplateDelimiters,
	}
}

// Drain blocks until the stream reports end-of-stream or is closed underneath it.
// A final line without a terminator is still delivered. Read failures are logged and absorbed.
func (worker *StreamDrainWorker) Drain() {
	bufferedReader := bufio.NewReader(worker.reader)
	for {
		rawLine, readError := bufferedReader.ReadBytes(lineDelimiterConstant)
		if len(rawLine) > 0 {
			worker.deliver(rawLine)
		}
		if readError == nil {
			continue
		}

		switch {
		case errors.Is(readError, io.EOF):
		case isClosedStreamError(readError):
			worker.logger.Debug(streamClosedMessageConstant, zap.String(logFieldSourceStreamConstant, worker.stream.String()))
		default:
			worker.logger.Debug(streamReadFailedMessageConstant, zap.String(logFieldSourceStreamConstant, worker.stream.String()), zap.Error(readError))
		}
		worker.reportDecodingFallbacks()
		return
	}
}

func (worker *StreamDrainWorker) deliver(rawLine []byte) {
	decodedText, decodeOutcome := worker.decoder.Decode(rawLine)
	switch decodeOutcome {
	case DecodedWithFallbackEncoding:
		worker.fallbackLineCount++
	case DecodedWithReplacement:
		worker.replacedLineCount++
	}

	lineText := StripLineTerminators(decodedText)
	if worker.escapeTemplateDelimiters {
		lineText = EscapeTemplateDelimiters(lineText)
	}

	worker.sink.Deliver(OutputLine{
		Stream: worker.stream,
		Raw:    rawLine,
		Text:   lineText,
	})
}

func (worker *StreamDrainWorker) reportDecodingFallbacks() {
	if worker.fallbackLineCount == 0 && worker.replacedLineCount == 0 {
		return
	}
	worker.logger.Debug(
		fallbackDecodingMessageConstant,
		zap.String(logFieldSourceStreamConstant, worker.stream.String()),
		zap.Int(logFieldFallbackLineCountConstant, worker.fallbackLineCount),
		zap.Int(logFieldReplacedLineCountConstant, worker.replacedLineCount),
	)
}

func isClosedStreamError(readError error) bool {
	return errors.Is(readError, os.ErrClosed) || errors.Is(readError, io.ErrClosedPipe)
}
