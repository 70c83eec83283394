package utils

import (
	"fmt"
	"io"
	"sync"
)

const (
	lineTerminatorConstant = "\n"
)

// FlushingWriter emits console progress lines and flushes buffered writers after each one.
type FlushingWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

// NewFlushingWriter wraps the provided writer. A nil writer discards output.
func NewFlushingWriter(writer io.Writer) *FlushingWriter {
	if existing, alreadyWrapped := writer.(*FlushingWriter); alreadyWrapped {
		return existing
	}
	if writer == nil {
		writer = io.Discard
	}
	return &FlushingWriter{writer: writer}
}

// Write delegates to the underlying writer and flushes it when possible.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return len(data), nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	if flushableWriter, implementsFlush := flushingWriter.writer.(interface{ Flush() error }); implementsFlush {
		if flushError := flushableWriter.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}

	return bytesWritten, nil
}

// WriteLine formats a single line, terminates it, and writes it in one call.
func (flushingWriter *FlushingWriter) WriteLine(format string, arguments ...any) error {
	_, writeError := io.WriteString(flushingWriter, fmt.Sprintf(format, arguments...)+lineTerminatorConstant)
	return writeError
}
