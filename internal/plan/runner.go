package plan

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/vietddude/taskwatch/internal/core/domain"
	"github.com/vietddude/taskwatch/internal/core/task"
	"github.com/vietddude/taskwatch/internal/monitor"
)

// DefaultBackoff is the first wait before a retry when neither the task nor
// the runner sets one.
const DefaultBackoff = time.Second

// Defaults fill in what a task leaves unset.
type Defaults struct {
	Tries       int
	Disposition domain.Disposition
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// Runner runs plans under one monitor.
type Runner struct {
	monitor  *monitor.Monitor
	executor Executor
	shell    string
	defaults Defaults
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithExecutor replaces the command executor.
func WithExecutor(e Executor) RunnerOption {
	return func(r *Runner) { r.executor = e }
}

// WithShell sets the shell used for run lines.
func WithShell(shell string) RunnerOption {
	return func(r *Runner) { r.shell = shell }
}

// WithDefaults sets the policy defaults.
func WithDefaults(d Defaults) RunnerOption {
	return func(r *Runner) { r.defaults = d }
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner reporting to m.
func NewRunner(m *monitor.Monitor, opts ...RunnerOption) *Runner {
	r := &Runner{
		monitor:  m,
		executor: &CommandExecutor{},
		shell:    DefaultShell,
		defaults: Defaults{Tries: 1, Disposition: domain.DispositionError, Backoff: DefaultBackoff},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run runs the plan's top-level tasks in order and stops at the first error
// that a task propagates. Failures swallowed by warn policies do not stop it.
func (r *Runner) Run(ctx context.Context, p *Plan) error {
	r.logger.Debug("running plan", "plan", p.Name, "tasks", len(p.Tasks))
	for i := range p.Tasks {
		if err := r.runTask(ctx, &p.Tasks[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runTask(ctx context.Context, t *Task) error {
	policy := r.policy(t)
	_, err := r.monitor.Run(ctx, t.Title, t.level(), &policy, func(ctx context.Context) (any, error) {
		if argv := t.argv(r.shell); argv != nil {
			if err := r.executor.Execute(ctx, argv); err != nil {
				return nil, err
			}
		}
		for i := range t.Tasks {
			if err := r.runTask(ctx, &t.Tasks[i]); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// policy builds a fresh policy per run so every task starts its backoff over.
func (r *Runner) policy(t *Task) task.Policy {
	tries := t.Tries
	if tries == 0 {
		tries = r.defaults.Tries
	}
	d := r.defaults.Disposition
	if t.Disposition != "" {
		d, _ = domain.ParseDisposition(t.Disposition)
	}
	if d == "" {
		d = domain.DispositionError
	}
	if tries <= 1 {
		return task.Policy{Tries: 1, Disposition: d}
	}

	base := t.Backoff
	if base <= 0 {
		base = r.defaults.Backoff
	}
	if base <= 0 {
		base = DefaultBackoff
	}
	ceiling := t.MaxBackoff
	if ceiling <= 0 {
		ceiling = r.defaults.MaxBackoff
	}
	return task.RetryPolicy(tries, r.backoff(t.Title, base, ceiling), d)
}

// backoff returns a recovery that waits an exponentially growing delay.
func (r *Runner) backoff(title string, base, ceiling time.Duration) task.RecoveryFunc {
	b := retry.NewExponential(base)
	if ceiling > 0 {
		b = retry.WithCappedDuration(ceiling, b)
	}
	return func(ctx context.Context, failure error) error {
		delay, stop := b.Next()
		if stop {
			return failure
		}
		r.logger.Debug("waiting before retry", "task", title, "delay", delay, "error", failure)

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}
