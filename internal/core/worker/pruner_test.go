package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (s *fakeStore) DeleteLinesOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	return 3, s.err
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cutoffs)
}

func TestPruner_Prune(t *testing.T) {
	store := &fakeStore{}
	p := NewPruner(store, 24*time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	n, err := p.Prune(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Prune() = %d, want 3", n)
	}
	if want := now.Add(-24 * time.Hour); !store.cutoffs[0].Equal(want) {
		t.Errorf("cutoff = %s, want %s", store.cutoffs[0], want)
	}
}

func TestPruner_Disabled(t *testing.T) {
	store := &fakeStore{}
	p := NewPruner(store, 0)

	if n, err := p.Prune(context.Background()); n != 0 || err != nil {
		t.Errorf("Prune() = %d, %v; want 0, nil", n, err)
	}
	p.Start(context.Background()) // returns at once
	if store.calls() != 0 {
		t.Errorf("store called %d times, want 0", store.calls())
	}
}

func TestPruner_Interval(t *testing.T) {
	tests := []struct {
		retention time.Duration
		want      time.Duration
	}{
		{time.Minute, time.Minute},
		{2 * time.Hour, 12 * time.Minute},
		{7 * 24 * time.Hour, time.Hour},
	}
	for _, tt := range tests {
		if got := NewPruner(nil, tt.retention).Interval(); got != tt.want {
			t.Errorf("Interval(%s) = %s, want %s", tt.retention, got, tt.want)
		}
	}
}

func TestPruner_StartPrunesUntilCancelled(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	p := NewPruner(store, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for store.calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial prune did not run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
