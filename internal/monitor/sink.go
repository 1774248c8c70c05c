package monitor

import (
	"strconv"
	"strings"

	"github.com/vietddude/taskwatch/internal/core/task"
)

// Sink receives the rendered trace. The monitor only writes and flushes; it
// never opens, closes or rotates a sink.
type Sink interface {
	WriteLine(line string) error
	Flush() error
}

// write and flush must be called with m.mu held.

func (m *Monitor) write(line string) {
	if err := m.sink.WriteLine(line); err != nil {
		m.sinkFailed("write", err)
	}
}

func (m *Monitor) flush() {
	if err := m.sink.Flush(); err != nil {
		m.sinkFailed("flush", err)
	}
}

func (m *Monitor) sinkFailed(op string, err error) {
	m.sinkErrors++
	m.recorder.SinkFailed()
	m.logger.Warn("sink "+op+" failed", "error", err)
}

// failureLine renders "{ts}: {id} ***[ symbol] {message}".
func (m *Monitor) failureLine(ts string, rec *task.Record, symbol string, failure error) string {
	var b strings.Builder
	b.WriteString(ts)
	b.WriteString(": ")
	b.WriteString(string(rec.ID))
	b.WriteString(" ***")
	if symbol != "" {
		b.WriteString(" ")
		b.WriteString(symbol)
	}
	b.WriteString(" ")
	b.WriteString(m.merge(failure.Error()))
	return b.String()
}

// retryLine renders "{ts}: {id} ### (N tries left)".
func retryLine(ts string, rec *task.Record, remaining int) string {
	left := "(1 try left)"
	if remaining != 1 {
		left = "(" + strconv.Itoa(remaining) + " tries left)"
	}
	return ts + ": " + string(rec.ID) + " ### " + left
}

// merge joins a multi-line message with the merge separator. Trailing newlines
// are dropped first. An empty separator passes the message through as is.
func (m *Monitor) merge(msg string) string {
	if m.mergeSeparator == "" {
		return msg
	}
	return strings.Join(strings.Split(strings.TrimRight(msg, "\n"), "\n"), m.mergeSeparator)
}
