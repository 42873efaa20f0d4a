package tools

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
)

// LogReadWriter is a wrapper around an io.ReadWriter that logs all reads and
// writes to a slog.Logger at debug level. PASS arguments are masked.
type LogReadWriter struct {
	ReadWriter io.ReadWriter
	logger     *slog.Logger
}

func (rw *LogReadWriter) Read(b []byte) (int, error) {
	n, err := rw.ReadWriter.Read(b)
	if rw.logger != nil && n > 0 { // Log only if n > 0 to avoid logging empty reads
		rw.logger.Debug("Request", "body", Redact(b[:n]))
	}
	return n, err
}

func (rw *LogReadWriter) Write(b []byte) (int, error) {
	if rw.logger != nil {
		rw.logger.Debug("Respond", "body", IsPrintable(b))
	}
	return rw.ReadWriter.Write(b)
}

// NewLogReadWriter creates a new LogReadWriter.
func NewLogReadWriter(rw io.ReadWriter, logger *slog.Logger) *LogReadWriter {
	return &LogReadWriter{ReadWriter: rw, logger: logger}
}

// BufLogReadWriter reads through a bufio.Reader and writes straight through,
// both sides logged by a LogReadWriter.
type BufLogReadWriter struct {
	io.Writer
	*bufio.Reader
}

// NewBufLogReadWriter creates a new BufLogReadWriter. size is the reader
// buffer size and bounds the longest line ReadSlice can return.
// the reason to divide it in 2 structs is to avoid the need to implement all the methods of bufio.ReadWriter
func NewBufLogReadWriter(rw io.ReadWriter, logger *slog.Logger, size int) *BufLogReadWriter {
	rw = &LogReadWriter{ReadWriter: rw, logger: logger}

	return &BufLogReadWriter{
		Reader: bufio.NewReaderSize(rw, size),
		Writer: rw,
	}
}

var passPrefix = []byte("PASS ")

// Redact returns the printable form of b with the argument of any PASS
// command replaced by "****".
func Redact(b []byte) string {
	lines := bytes.SplitAfter(b, []byte("\n"))
	for i, line := range lines {
		if len(line) >= len(passPrefix) && bytes.EqualFold(line[:len(passPrefix)], passPrefix) {
			lines[i] = []byte("PASS ****")
		}
	}
	return IsPrintable(bytes.Join(lines, nil))
}
