package redis

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// opTimeout bounds each Redis round trip made by Flush.
const opTimeout = 5 * time.Second

// Sink appends trace lines to a Redis list, one list per session.
type Sink struct {
	client  *Client
	key     string
	ttl     time.Duration
	mu      sync.Mutex
	pending []string
}

// NewSink creates a sink writing to the list of session.
func NewSink(client *Client, cfg Config, session string) *Sink {
	return &Sink{
		client: client,
		key:    linesKey(cfg.Prefix, session),
		ttl:    cfg.TTL,
	}
}

// Key returns the Redis list the sink writes to.
func (s *Sink) Key() string {
	return s.key
}

// WriteLine buffers line until the next Flush.
func (s *Sink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, line)
	return nil
}

// Flush pushes buffered lines in one pipeline. Lines stay buffered if the
// push fails so the next Flush retries them.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	values := make([]any, len(s.pending))
	for i, l := range s.pending {
		values[i] = l
	}

	pipe := s.client.rdb.TxPipeline()
	pipe.RPush(ctx, s.key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push lines: %w", err)
	}

	s.pending = s.pending[:0]
	return nil
}
