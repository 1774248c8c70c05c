package sink

import "sync"

// Memory keeps every line in memory. Lines become visible to Lines only after
// Flush, like a buffered stream.
type Memory struct {
	mu      sync.RWMutex
	pending []string
	lines   []string
	flushes int
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) WriteLine(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, line)
	return nil
}

func (m *Memory) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, m.pending...)
	m.pending = m.pending[:0]
	m.flushes++
	return nil
}

// Lines returns a copy of the flushed lines.
func (m *Memory) Lines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

// Flushes returns how many times Flush was called.
func (m *Memory) Flushes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flushes
}

// Reset drops all lines.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	m.lines = nil
	m.flushes = 0
}
