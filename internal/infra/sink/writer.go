// Package sink provides destinations for the monitor trace.
package sink

import (
	"bufio"
	"io"
	"os"
	"sync"
)

// Writer is a buffered line sink over an io.Writer.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	buf *bufio.Writer
}

// NewWriter creates a sink writing to w. Lines reach w on Flush.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, buf: bufio.NewWriter(w)}
}

// Stderr returns a sink writing to standard error.
func Stderr() *Writer {
	return NewWriter(os.Stderr)
}

// Stdout returns a sink writing to standard output.
func Stdout() *Writer {
	return NewWriter(os.Stdout)
}

// WriteLine appends line and a newline to the buffer.
func (s *Writer) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.buf.WriteString(line); err != nil {
		return err
	}
	return s.buf.WriteByte('\n')
}

// Flush writes buffered lines to the underlying writer.
func (s *Writer) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Flush()
}
