package utils

import (
	"io"
	"sync"
)

type errorReportingFlusher interface {
	Flush() error
}

type silentFlusher interface {
	Flush()
}

// FlushingWriter makes every write visible immediately when the destination buffers its output.
// Writes are serialized, so one Write call never interleaves with another.
type FlushingWriter struct {
	mutex       sync.Mutex
	destination io.Writer
}

// NewFlushingWriter wraps destination. A nil destination yields nil and an existing FlushingWriter is returned as is.
func NewFlushingWriter(destination io.Writer) io.Writer {
	if destination == nil {
		return nil
	}
	if _, alreadyFlushing := destination.(*FlushingWriter); alreadyFlushing {
		return destination
	}
	return &FlushingWriter{destination: destination}
}

// Write forwards the payload and flushes the destination when it supports flushing.
func (writer *FlushingWriter) Write(payload []byte) (int, error) {
	if writer == nil || writer.destination == nil {
		return len(payload), nil
	}

	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	writtenCount, writeError := writer.destination.Write(payload)
	if writeError != nil {
		return writtenCount, writeError
	}
	return writtenCount, flushDestination(writer.destination)
}

func flushDestination(destination io.Writer) error {
	switch flushable := destination.(type) {
	case errorReportingFlusher:
		return flushable.Flush()
	case silentFlusher:
		flushable.Flush()
		return nil
	default:
		return nil
	}
}
