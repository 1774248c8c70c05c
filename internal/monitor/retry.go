package monitor

import (
	"context"

	"github.com/vietddude/taskwatch/internal/core/domain"
	"github.com/vietddude/taskwatch/internal/core/task"
)

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	// outcomeSuppressed is a failure swallowed by a warn policy.
	outcomeSuppressed
	outcomePropagate
)

// outcome is the result of the retry protocol.
type outcome struct {
	kind  outcomeKind
	value any
	err   error
}

func (o outcome) unwrap() (any, error) {
	switch o.kind {
	case outcomeSuccess:
		return o.value, nil
	case outcomePropagate:
		return nil, o.err
	default:
		return nil, nil
	}
}

// attempt runs work up to rec.Policy.Tries times. Between two attempts the
// policy's recovery func runs with the failure, so with N tries recovery runs
// at most N-1 times. Once every try has failed the disposition decides.
func (m *Monitor) attempt(
	ctx context.Context,
	rec *task.Record,
	level domain.Level,
	work Work,
	tr *tracker,
) outcome {
	remaining := rec.Policy.Tries

	for {
		remaining--
		tr.to(StateAttempting)

		result, err := work(ctx)
		if err == nil {
			tr.to(StateDone)
			return outcome{kind: outcomeSuccess, value: result}
		}

		m.recorder.AttemptFailed(level)
		exhausted := remaining == 0
		symbol := m.warnSymbol
		if exhausted && rec.Policy.Disposition == domain.DispositionError {
			symbol = m.errorSymbol
		}
		m.reportFailure(rec, symbol, err)

		if !exhausted {
			tr.to(StateRecovering)
			if rerr := rec.Policy.Recovery(ctx, err); rerr != nil {
				m.countError()
				m.recorder.RecoveryFailed()
				tr.to(StatePropagated)
				return outcome{kind: outcomePropagate, err: &RecoveryError{Err: rerr, Failure: err}}
			}

			m.reportRetry(rec, remaining)
			m.recorder.Retried()
			m.logger.Debug("retrying task", "id", rec.ID, "title", rec.Title, "tries_left", remaining)
			continue
		}

		m.recorder.Exhausted(rec.Policy.Disposition)
		if rec.Policy.Disposition == domain.DispositionError {
			m.countError()
			tr.to(StateExhaustedError)
			tr.to(StatePropagated)
			return outcome{kind: outcomePropagate, err: err}
		}

		m.countWarning()
		tr.to(StateExhaustedWarn)
		tr.to(StateDone)
		return outcome{kind: outcomeSuppressed}
	}
}

// reportFailure replays the hidden tasks in order, then writes the failure line.
func (m *Monitor) reportFailure(rec *task.Record, symbol string, failure error) {
	ts := m.timestamp()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.hidden {
		m.write(h.String())
	}
	m.hidden = nil
	m.write(m.failureLine(ts, rec, symbol, failure))
	m.flush()
}

func (m *Monitor) reportRetry(rec *task.Record, remaining int) {
	ts := m.timestamp()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(retryLine(ts, rec, remaining))
	m.flush()
}

func (m *Monitor) countError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

func (m *Monitor) countWarning() {
	m.mu.Lock()
	m.warnings++
	m.mu.Unlock()
}
