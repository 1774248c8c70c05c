package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/taskwatch/internal/core/config"
	"github.com/vietddude/taskwatch/internal/core/domain"
	"github.com/vietddude/taskwatch/internal/core/task"
	"github.com/vietddude/taskwatch/internal/core/worker"
	"github.com/vietddude/taskwatch/internal/health"
	"github.com/vietddude/taskwatch/internal/infra/clock"
	redisclient "github.com/vietddude/taskwatch/internal/infra/redis"
	"github.com/vietddude/taskwatch/internal/infra/sink"
	"github.com/vietddude/taskwatch/internal/infra/storage/postgres"
	"github.com/vietddude/taskwatch/internal/metrics"
	"github.com/vietddude/taskwatch/internal/monitor"
	"github.com/vietddude/taskwatch/internal/plan"
)

// session is one monitored run: a sink, the monitor writing to it and a
// plan runner.
type session struct {
	id      uuid.UUID
	monitor *monitor.Monitor
	runner  *plan.Runner
	pruner  *worker.Pruner
	closers []io.Closer
}

func newSession(ctx context.Context, cfg *config.AppConfig) (*session, error) {
	s := &session{id: uuid.New()}

	out, err := s.openSink(ctx, cfg.Sink)
	if err != nil {
		return nil, err
	}

	m, err := monitor.New(out, monitorOptions(cfg.Monitor)...)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create monitor: %w", err)
	}
	s.monitor = m

	pc := cfg.Monitor.DefaultPolicy
	d, _ := domain.ParseDisposition(pc.Disposition)
	s.runner = plan.NewRunner(m,
		plan.WithExecutor(&plan.CommandExecutor{Stdout: os.Stdout, Stderr: os.Stderr}),
		plan.WithDefaults(plan.Defaults{
			Tries:       pc.Tries,
			Disposition: d,
			Backoff:     pc.Backoff,
			MaxBackoff:  pc.MaxBackoff,
		}),
		plan.WithLogger(slog.Default().With("monitor", cfg.Monitor.Name)),
	)
	return s, nil
}

func (s *session) openSink(ctx context.Context, sc config.SinkConfig) (monitor.Sink, error) {
	switch sc.Type {
	case config.SinkStdout:
		return sink.Stdout(), nil
	case config.SinkFile:
		mode, _ := sink.ParseWriteMode(sc.Write)
		f, err := sink.OpenFile(sc.Path, mode)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, f)
		return f, nil
	case config.SinkRedis:
		client, err := redisclient.NewClient(sc.Redis)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client)
		slog.Info("Writing trace to redis", "session", s.id)
		return redisclient.NewSink(client, sc.Redis, s.id.String()), nil
	case config.SinkPostgres:
		db, err := postgres.NewDB(ctx, sc.Database)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db)
		if sc.Database.Retention > 0 {
			s.pruner = worker.NewPruner(db, sc.Database.Retention)
		}
		slog.Info("Writing trace to postgres", "session", s.id)
		return postgres.NewSink(db, s.id), nil
	default:
		return sink.Stderr(), nil
	}
}

func monitorOptions(mc config.MonitorConfig) []monitor.Option {
	level, _ := domain.ParseLevel(mc.Verbosity)
	d, _ := domain.ParseDisposition(mc.DefaultPolicy.Disposition)

	opts := []monitor.Option{
		monitor.WithName(mc.Name),
		monitor.WithVerbosity(level),
		monitor.WithErrorSymbol(mc.ErrorSymbol),
		monitor.WithWarnSymbol(mc.WarnSymbol),
		monitor.WithDefaultPolicy(task.Policy{Tries: 1, Disposition: d}),
		monitor.WithClock(clock.New(mc.TimeFormat, mc.UTC)),
		monitor.WithRecorder(metrics.NewRecorder(mc.Name)),
		monitor.WithLogger(slog.Default().With("monitor", mc.Name)),
	}
	if mc.MergeSeparator != nil {
		opts = append(opts, monitor.WithMergeSeparator(*mc.MergeSeparator))
	}
	return opts
}

// serve runs fn, with the pruner and the health server alongside when they
// are configured.
func (s *session) serve(ctx context.Context, addr string, fn func(context.Context) error) error {
	if s.pruner != nil {
		pctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			s.pruner.Start(pctx)
		}()
		defer func() {
			cancel()
			<-done
		}()
	}
	if addr == "" {
		return fn(ctx)
	}

	checker := health.NewChecker()
	checker.Register(s.monitor.Name(), s.monitor)
	srv := health.NewServer(checker, addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				slog.Warn("Health server shutdown failed", "error", err)
			}
		}()
		return fn(gctx)
	})
	slog.Info("Health server listening", "addr", addr)
	return g.Wait()
}

// Close releases the sink's connections.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

// summary logs the counters once the run is over.
func (s *session) summary() {
	st := s.monitor.Stats()
	slog.Info("Run finished",
		"session", s.id,
		"errors", st.Errors,
		"warnings", st.Warnings,
		"sink_errors", st.SinkErrors,
		"last_id", st.LastID,
	)
}
