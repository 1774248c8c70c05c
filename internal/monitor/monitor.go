// Package monitor runs nested units of work and writes a call-stack shaped
// trace of them to a Sink.
//
// Every Run call gets a hierarchical identifier derived from the previous
// call: work started inside another task's work becomes its child ("0.a"),
// work started after a task finished becomes its sibling ("0.b"). Tasks below
// the verbosity threshold are held back and replayed only when a later task
// fails. Failed work is retried according to the task's policy and finally
// either swallowed as a warning or returned as an error.
//
// Basic usage:
//
//	m, _ := monitor.New(sink.Stderr(), monitor.WithVerbosity(domain.LevelVerbose))
//	_, err := m.Verbose(ctx, "sync mirrors", func(ctx context.Context) (any, error) {
//	    _, err := m.Debug(ctx, "fetch index", fetchIndex)
//	    return nil, err
//	})
//
// A Monitor is not meant to be shared between goroutines: identifiers only
// make sense for a single call stack. Give each goroutine its own Monitor.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vietddude/taskwatch/internal/core/domain"
	"github.com/vietddude/taskwatch/internal/core/hier"
	"github.com/vietddude/taskwatch/internal/core/task"
)

// DefaultMergeSeparator joins the lines of a multi-line failure message.
const DefaultMergeSeparator = " (LF) "

// Work is a unit of computation run under the monitor.
type Work func(ctx context.Context) (any, error)

// Stats is a snapshot of a monitor's counters.
type Stats struct {
	Name       string       `json:"name"`
	Errors     int          `json:"errors"`
	Warnings   int          `json:"warnings"`
	SinkErrors int          `json:"sink_errors"`
	Hidden     int          `json:"hidden"`
	LastID     hier.ID      `json:"last_id"`
	Verbosity  domain.Level `json:"verbosity"`
}

// Monitor holds the state shared by every task of one logical call stack.
type Monitor struct {
	mu sync.Mutex

	name           string
	verbosity      domain.Level
	errorSymbol    string
	warnSymbol     string
	mergeSeparator string
	defaultPolicy  task.Policy
	clock          Clock
	sink           Sink
	recorder       Recorder
	logger         *slog.Logger
	hook           func(Transition)

	hidden     []*task.Record
	last       hier.ID
	rel        domain.Relationship
	errors     int
	warnings   int
	sinkErrors int
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithName labels the monitor in metrics and health reports.
func WithName(name string) Option {
	return func(m *Monitor) { m.name = name }
}

// WithVerbosity sets the verbosity threshold. Default is always.
func WithVerbosity(l domain.Level) Option {
	return func(m *Monitor) { m.verbosity = l }
}

// WithErrorSymbol sets the tag written on failure lines that end in an error.
func WithErrorSymbol(s string) Option {
	return func(m *Monitor) { m.errorSymbol = s }
}

// WithWarnSymbol sets the tag written on all other failure lines.
func WithWarnSymbol(s string) Option {
	return func(m *Monitor) { m.warnSymbol = s }
}

// WithMergeSeparator sets the text joining the lines of a failure message.
// An empty separator leaves messages untouched.
func WithMergeSeparator(s string) Option {
	return func(m *Monitor) { m.mergeSeparator = s }
}

// WithDefaultPolicy sets the policy used when Run is given none.
func WithDefaultPolicy(p task.Policy) Option {
	return func(m *Monitor) { m.defaultPolicy = p }
}

// WithClock sets the clock used for timestamps.
func WithClock(c Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Monitor) { m.recorder = r }
}

// WithLogger sets the logger for the monitor's own diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithTransitionHook registers a callback for every task state change.
func WithTransitionHook(fn func(Transition)) Option {
	return func(m *Monitor) { m.hook = fn }
}

// New creates a Monitor writing to sink.
func New(sink Sink, opts ...Option) (*Monitor, error) {
	if sink == nil {
		return nil, ErrNilSink
	}

	m := &Monitor{
		verbosity:      domain.LevelAlways,
		mergeSeparator: DefaultMergeSeparator,
		defaultPolicy:  task.DefaultPolicy(),
		clock:          systemClock,
		sink:           sink,
		recorder:       nopRecorder{},
		rel:            domain.RelationshipChild,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.clock == nil {
		m.clock = systemClock
	}
	if m.recorder == nil {
		m.recorder = nopRecorder{}
	}

	if !m.verbosity.Valid() {
		return nil, fmt.Errorf("%w: verbosity %q", ErrInvalidLevel, m.verbosity)
	}
	p, err := m.defaultPolicy.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid default policy: %w", err)
	}
	m.defaultPolicy = p

	return m, nil
}

// Run records a task and, if work is not nil, runs it under policy. A nil
// policy uses the monitor's default policy.
//
// Run returns a *task.ValidationError for a malformed policy, title or level
// without touching the monitor's state. A failure that exhausts an error
// policy is returned unmodified. A failure that exhausts a warn policy is
// swallowed: Run returns nil, nil.
func (m *Monitor) Run(
	ctx context.Context,
	title string,
	level domain.Level,
	policy *task.Policy,
	work Work,
) (any, error) {
	ts := m.timestamp()

	m.mu.Lock()
	p := m.defaultPolicy
	if policy != nil {
		p = *policy
	}
	rec, err := task.New(task.Params{
		Timestamp:    ts,
		Last:         m.last,
		Title:        title,
		Policy:       p,
		Relationship: m.rel,
	})
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	rank, ok := level.Rank()
	if !ok {
		m.mu.Unlock()
		return nil, &task.ValidationError{
			Field: "level",
			Title: title,
			Err:   fmt.Errorf("%w: %q", ErrInvalidLevel, level),
		}
	}
	threshold, _ := m.verbosity.Rank()
	visible := rank >= threshold
	if visible {
		m.hidden = nil
		m.write(rec.String())
		m.flush()
	} else {
		m.hidden = append(m.hidden, rec)
	}
	m.mu.Unlock()

	m.recorder.TaskStarted(level, visible)
	tr := newTracker(rec.ID, m.hook, m.logger)
	if visible {
		tr.to(StateVisible)
	} else {
		tr.to(StateSuppressed)
	}

	defer m.settle(rec.ID, domain.RelationshipSibling)

	if work == nil {
		tr.to(StateDone)
		return nil, nil
	}

	m.settle(rec.ID, domain.RelationshipChild)
	return m.attempt(WithContext(ctx, m), rec, level, work, tr).unwrap()
}

// settle makes the next task a rel of id.
func (m *Monitor) settle(id hier.ID, rel domain.Relationship) {
	m.mu.Lock()
	m.last = id
	m.rel = rel
	m.mu.Unlock()
}

// Debug runs work at debug level with the default policy.
func (m *Monitor) Debug(ctx context.Context, title string, work Work) (any, error) {
	return m.Run(ctx, title, domain.LevelDebug, nil, work)
}

// Verbose runs work at verbose level with the default policy.
func (m *Monitor) Verbose(ctx context.Context, title string, work Work) (any, error) {
	return m.Run(ctx, title, domain.LevelVerbose, nil, work)
}

// Always runs work at always level with the default policy.
func (m *Monitor) Always(ctx context.Context, title string, work Work) (any, error) {
	return m.Run(ctx, title, domain.LevelAlways, nil, work)
}

// Quiet runs work at quiet level with the default policy.
func (m *Monitor) Quiet(ctx context.Context, title string, work Work) (any, error) {
	return m.Run(ctx, title, domain.LevelQuiet, nil, work)
}

// Do is Run with a typed result.
func Do[T any](
	ctx context.Context,
	m *Monitor,
	title string,
	level domain.Level,
	policy *task.Policy,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	res, err := m.Run(ctx, title, level, policy, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil || res == nil {
		return zero, err
	}
	return res.(T), nil
}

// SetVerbosity changes the verbosity threshold.
func (m *Monitor) SetVerbosity(l domain.Level) error {
	if !l.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, l)
	}
	m.mu.Lock()
	m.verbosity = l
	m.mu.Unlock()
	return nil
}

// Verbosity returns the verbosity threshold.
func (m *Monitor) Verbosity() domain.Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verbosity
}

// Errors returns how many tasks ended in a returned error.
func (m *Monitor) Errors() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors
}

// Warnings returns how many failures were swallowed as warnings.
func (m *Monitor) Warnings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warnings
}

// LastID returns the identifier of the most recent task, empty before the first.
func (m *Monitor) LastID() hier.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Name returns the monitor's name.
func (m *Monitor) Name() string {
	return m.name
}

// Stats returns a snapshot of the monitor's counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Name:       m.name,
		Errors:     m.errors,
		Warnings:   m.warnings,
		SinkErrors: m.sinkErrors,
		Hidden:     len(m.hidden),
		LastID:     m.last,
		Verbosity:  m.verbosity,
	}
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying m.
func WithContext(ctx context.Context, m *Monitor) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext returns the monitor running the current work, or nil.
func FromContext(ctx context.Context) *Monitor {
	m, _ := ctx.Value(ctxKey{}).(*Monitor)
	return m
}
