package plan

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/taskwatch/internal/core/domain"
	"github.com/vietddude/taskwatch/internal/infra/sink"
	"github.com/vietddude/taskwatch/internal/monitor"
)

// =============================================================================
// Test doubles
// =============================================================================

var errBoom = errors.New("boom")

// scriptedExecutor fails a command the given number of times before it
// succeeds. Commands are keyed by their last argument.
type scriptedExecutor struct {
	mu       sync.Mutex
	failures map[string]int
	calls    []string
}

func (e *scriptedExecutor) Execute(_ context.Context, argv []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := argv[len(argv)-1]
	e.calls = append(e.calls, key)
	if e.failures[key] > 0 {
		e.failures[key]--
		return errBoom
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(t *testing.T, exec Executor) (*Runner, *monitor.Monitor, *sink.Memory) {
	t.Helper()
	mem := sink.NewMemory()
	m, err := monitor.New(mem,
		monitor.WithClock(monitor.ClockFunc(func() (string, error) { return "T", nil })),
		monitor.WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	r := NewRunner(m,
		WithExecutor(exec),
		WithLogger(quietLogger()),
		WithDefaults(Defaults{Tries: 1, Disposition: domain.DispositionError, Backoff: time.Millisecond}),
	)
	return r, m, mem
}

// =============================================================================
// Runner
// =============================================================================

func TestRunner_NestedTasks(t *testing.T) {
	exec := &scriptedExecutor{}
	r, m, mem := newTestRunner(t, exec)

	p := &Plan{Tasks: []Task{
		{Title: "A", Tasks: []Task{
			{Title: "B", Run: "b"},
			{Title: "C", Level: "debug", Run: "c"},
		}},
		{Title: "D", Run: "d"},
	}}
	require.NoError(t, r.Run(context.Background(), p))

	assert.Equal(t, []string{
		"T: 0 ### A",
		"T: 0.a ### B",
		"T: 1 ### D",
	}, mem.Lines())
	assert.Equal(t, []string{"b", "c", "d"}, exec.calls)
	assert.Equal(t, 0, m.Errors())
}

func TestRunner_HiddenTaskReplayedOnFailure(t *testing.T) {
	exec := &scriptedExecutor{failures: map[string]int{"c": 1}}
	r, m, mem := newTestRunner(t, exec)

	p := &Plan{Tasks: []Task{
		{Title: "A", Tasks: []Task{
			{Title: "B", Level: "debug", Run: "b"},
			{Title: "C", Level: "debug", Run: "c", Disposition: "warn"},
		}},
	}}
	require.NoError(t, r.Run(context.Background(), p))

	assert.Equal(t, []string{
		"T: 0 ### A",
		"T: 0.a ### B",
		"T: 0.b ### C",
		"T: 0.b *** boom",
	}, mem.Lines())
	assert.Equal(t, 1, m.Warnings())
	assert.Equal(t, 0, m.Errors())
}

func TestRunner_RetriesWithBackoff(t *testing.T) {
	exec := &scriptedExecutor{failures: map[string]int{"flaky": 1}}
	r, m, mem := newTestRunner(t, exec)

	p := &Plan{Tasks: []Task{{Title: "Flaky", Run: "flaky", Tries: 2}}}
	require.NoError(t, r.Run(context.Background(), p))

	assert.Equal(t, []string{
		"T: 0 ### Flaky",
		"T: 0 *** boom",
		"T: 0 ### (1 try left)",
	}, mem.Lines())
	assert.Equal(t, []string{"flaky", "flaky"}, exec.calls)
	assert.Equal(t, 0, m.Errors())
}

func TestRunner_ErrorStopsPlan(t *testing.T) {
	exec := &scriptedExecutor{failures: map[string]int{"first": 5}}
	r, m, _ := newTestRunner(t, exec)

	p := &Plan{Tasks: []Task{
		{Title: "First", Run: "first", Tries: 2},
		{Title: "Second", Run: "second"},
	}}
	err := r.Run(context.Background(), p)

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"first", "first"}, exec.calls)
	assert.Equal(t, 1, m.Errors())
}

func TestRunner_ChildFailureFailsParent(t *testing.T) {
	exec := &scriptedExecutor{failures: map[string]int{"child": 1}}
	r, _, mem := newTestRunner(t, exec)

	p := &Plan{Tasks: []Task{
		{Title: "Parent", Tries: 2, Tasks: []Task{{Title: "Child", Run: "child"}}},
	}}
	require.NoError(t, r.Run(context.Background(), p))

	lines := mem.Lines()
	assert.Equal(t, []string{
		"T: 0 ### Parent",
		"T: 0.a ### Child",
		"T: 0.a *** boom",
		"T: 0 *** boom",
		"T: 0 ### (1 try left)",
		"T: 0.b ### Child",
	}, lines)
}

func TestRunner_RecoveryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exec := ExecutorFunc(func(context.Context, []string) error {
		cancel()
		return errBoom
	})
	r, m, _ := newTestRunner(t, exec)

	p := &Plan{Tasks: []Task{{Title: "Slow", Run: "slow", Tries: 3, Backoff: time.Hour}}}

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, p) }()

	select {
	case err := <-done:
		var rerr *monitor.RecoveryError
		require.ErrorAs(t, err, &rerr)
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, rerr.Failure, errBoom)
		assert.Equal(t, 1, m.Errors())
	case <-time.After(5 * time.Second):
		t.Fatal("recovery did not stop on cancellation")
	}
}

func TestRunner_Policy(t *testing.T) {
	r := NewRunner(nil, WithDefaults(Defaults{Tries: 4, Disposition: domain.DispositionWarn, Backoff: time.Millisecond}))

	p := r.policy(&Task{})
	assert.Equal(t, 4, p.Tries)
	assert.Equal(t, domain.DispositionWarn, p.Disposition)
	assert.NotNil(t, p.Recovery)

	p = r.policy(&Task{Tries: 1, Disposition: "error"})
	assert.Equal(t, 1, p.Tries)
	assert.Equal(t, domain.DispositionError, p.Disposition)
	assert.Nil(t, p.Recovery)

	_, err := p.Validate()
	assert.NoError(t, err)
}

// =============================================================================
// CommandExecutor
// =============================================================================

func TestCommandExecutor(t *testing.T) {
	var stdout bytes.Buffer
	e := &CommandExecutor{Stdout: &stdout, Env: []string{"TASKWATCH_GREETING=hello"}}

	require.NoError(t, e.Execute(context.Background(), []string{DefaultShell, "-c", "echo $TASKWATCH_GREETING"}))
	assert.Equal(t, "hello\n", stdout.String())

	err := e.Execute(context.Background(), []string{DefaultShell, "-c", "echo one >&2; echo two >&2; exit 3"})
	var cerr *CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 3, cerr.ExitCode)
	assert.Equal(t, "one\ntwo", cerr.Stderr)
	assert.Equal(t, DefaultShell+": exit status 3\none\ntwo", err.Error())
}

func TestCommandExecutor_NotFound(t *testing.T) {
	e := &CommandExecutor{}
	err := e.Execute(context.Background(), []string{"/nonexistent/taskwatch-binary"})

	var cerr *CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, -1, cerr.ExitCode)
}

func TestCommandExecutor_FailureLineIsMerged(t *testing.T) {
	mem := sink.NewMemory()
	m, err := monitor.New(mem,
		monitor.WithClock(monitor.ClockFunc(func() (string, error) { return "T", nil })),
		monitor.WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	r := NewRunner(m, WithLogger(quietLogger()))

	p := &Plan{Tasks: []Task{{Title: "Fail", Run: "echo first >&2; echo second >&2; exit 1", Disposition: "warn"}}}
	require.NoError(t, r.Run(context.Background(), p))

	lines := mem.Lines()
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], "exit status 1 (LF) first (LF) second"), lines[1])
}

func TestTail(t *testing.T) {
	assert.Equal(t, "", tail("", 3))
	assert.Equal(t, "c\nd", tail("a\nb\n\nc\nd\n", 2))
}
