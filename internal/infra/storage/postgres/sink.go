package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// opTimeout bounds the insert made by Flush.
const opTimeout = 10 * time.Second

const insertLine = `
INSERT INTO task_lines (session_id, seq, line, created_at)
VALUES (:session_id, :seq, :line, :created_at)`

type lineRow struct {
	SessionID uuid.UUID `db:"session_id"`
	Seq       int64     `db:"seq"`
	Line      string    `db:"line"`
	CreatedAt time.Time `db:"created_at"`
}

// Sink stores trace lines as rows of task_lines, keyed by session.
type Sink struct {
	db      *DB
	session uuid.UUID
	mu      sync.Mutex
	seq     int64
	pending []lineRow
}

// NewSink creates a sink writing the lines of session.
func NewSink(db *DB, session uuid.UUID) *Sink {
	return &Sink{db: db, session: session}
}

// WriteLine buffers line until the next Flush.
func (s *Sink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.pending = append(s.pending, lineRow{
		SessionID: s.session,
		Seq:       s.seq,
		Line:      line,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// Flush inserts buffered lines in a single statement. Lines stay buffered if
// the insert fails.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := s.db.NamedExecContext(ctx, insertLine, s.pending); err != nil {
		return fmt.Errorf("failed to insert task lines: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

// Lines returns the stored lines of a session in write order.
func (db *DB) Lines(ctx context.Context, session uuid.UUID) ([]string, error) {
	var lines []string
	err := db.SelectContext(ctx, &lines,
		`SELECT line FROM task_lines WHERE session_id = $1 ORDER BY seq`, session)
	if err != nil {
		return nil, fmt.Errorf("failed to select task lines: %w", err)
	}
	return lines, nil
}

// ClearLines deletes the stored lines of a session.
func (db *DB) ClearLines(ctx context.Context, session uuid.UUID) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM task_lines WHERE session_id = $1`, session)
	if err != nil {
		return 0, fmt.Errorf("failed to delete task lines: %w", err)
	}
	return res.RowsAffected()
}

// DeleteLinesOlderThan deletes lines written before cutoff, across sessions.
func (db *DB) DeleteLinesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM task_lines WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune task lines: %w", err)
	}
	return res.RowsAffected()
}
