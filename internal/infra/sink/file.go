package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteMode decides what happens to an existing log file.
type WriteMode string

const (
	ModeAppend    WriteMode = "append"
	ModeOverwrite WriteMode = "overwrite"
)

// ParseWriteMode converts "append" or "overwrite" to a WriteMode. Empty means append.
func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAppend:
		return ModeAppend, nil
	case ModeOverwrite:
		return ModeOverwrite, nil
	default:
		return "", fmt.Errorf("write mode must be append or overwrite, not %q", s)
	}
}

// File is a line sink backed by a log file.
type File struct {
	*Writer
	file *os.File
}

// OpenFile opens (creating if needed) the log file at path.
func OpenFile(path string, mode WriteMode) (*File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	switch mode {
	case ModeOverwrite:
		flags |= os.O_TRUNC
	case ModeAppend, "":
		flags |= os.O_APPEND
	default:
		return nil, fmt.Errorf("sink: unknown write mode %q", mode)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sink: ensure log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: open log file: %w", err)
	}
	return &File{Writer: NewWriter(f), file: f}, nil
}

// Path returns the file backing this sink.
func (s *File) Path() string {
	return s.file.Name()
}

// Close flushes pending lines and releases the file handle.
func (s *File) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	flushErr := s.Flush()
	if err := s.file.Close(); err != nil {
		return err
	}
	return flushErr
}
