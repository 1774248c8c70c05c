package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis connection used by the trace sink.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"` // 0 = keep forever
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Key helpers
func linesKey(prefix, session string) string {
	if prefix == "" {
		prefix = "taskwatch"
	}
	return fmt.Sprintf("%s:%s:lines", prefix, session)
}

// Lines returns every line stored for a session, oldest first.
func (c *Client) Lines(ctx context.Context, prefix, session string) ([]string, error) {
	lines, err := c.rdb.LRange(ctx, linesKey(prefix, session), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange failed: %w", err)
	}
	return lines, nil
}

// Clear removes a session's lines.
func (c *Client) Clear(ctx context.Context, prefix, session string) error {
	return c.rdb.Del(ctx, linesKey(prefix, session)).Err()
}
