// Package worker holds background jobs that run beside a monitored session.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// LineStore deletes stored trace lines.
type LineStore interface {
	DeleteLinesOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pruner deletes stored trace lines older than the retention period.
type Pruner struct {
	store     LineStore
	retention time.Duration
	now       func() time.Time
}

// NewPruner creates a new Pruner worker.
func NewPruner(store LineStore, retention time.Duration) *Pruner {
	return &Pruner{
		store:     store,
		retention: retention,
		now:       time.Now,
	}
}

// Interval is how often Start prunes: a tenth of the retention period,
// clamped to [1m, 1h].
func (p *Pruner) Interval() time.Duration {
	interval := min(p.retention/10, 1*time.Hour)
	return max(interval, 1*time.Minute)
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

// Prune runs a single pass and returns the number of deleted lines.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.retention <= 0 {
		return 0, nil
	}
	return p.store.DeleteLinesOlderThan(ctx, p.now().Add(-p.retention))
}

func (p *Pruner) prune(ctx context.Context) {
	n, err := p.Prune(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("Failed to prune task lines", "error", err)
		}
		return
	}
	if n > 0 {
		slog.Debug("Pruned task lines", "deleted", n, "retention", p.retention)
	}
}
