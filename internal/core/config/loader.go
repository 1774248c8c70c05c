package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/taskwatch/internal/core/domain"
	"github.com/vietddude/taskwatch/internal/infra/sink"
)

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Monitor.Name == "" {
		cfg.Monitor.Name = "taskwatch"
	}
	if cfg.Monitor.Verbosity == "" {
		cfg.Monitor.Verbosity = string(domain.LevelAlways)
	}
	if cfg.Monitor.DefaultPolicy.Disposition == "" {
		cfg.Monitor.DefaultPolicy.Disposition = string(domain.DispositionError)
	}
	if cfg.Monitor.DefaultPolicy.Tries == 0 {
		cfg.Monitor.DefaultPolicy.Tries = 1
	}
	if cfg.Monitor.DefaultPolicy.Backoff == 0 {
		cfg.Monitor.DefaultPolicy.Backoff = time.Second
	}
	if cfg.Sink.Type == "" {
		cfg.Sink.Type = SinkStderr
	}
	if cfg.Sink.Write == "" {
		cfg.Sink.Write = string(sink.ModeAppend)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks enumerated values and required fields.
func (c *AppConfig) Validate() error {
	var errs []error

	if _, err := domain.ParseLevel(c.Monitor.Verbosity); err != nil {
		errs = append(errs, fmt.Errorf("monitor.verbosity: %w", err))
	}
	if _, err := domain.ParseDisposition(c.Monitor.DefaultPolicy.Disposition); err != nil {
		errs = append(errs, fmt.Errorf("monitor.default_policy.disposition: %w", err))
	}
	if c.Monitor.DefaultPolicy.Tries < 1 {
		errs = append(errs, fmt.Errorf("monitor.default_policy.tries must be at least 1, got %d",
			c.Monitor.DefaultPolicy.Tries))
	}
	if _, err := sink.ParseWriteMode(c.Sink.Write); err != nil {
		errs = append(errs, fmt.Errorf("sink.write: %w", err))
	}

	switch c.Sink.Type {
	case SinkStderr, SinkStdout:
	case SinkFile:
		if c.Sink.Path == "" {
			errs = append(errs, errors.New("sink.path is required for a file sink"))
		}
	case SinkRedis:
		if c.Sink.Redis.URL == "" {
			errs = append(errs, errors.New("sink.redis.url is required for a redis sink"))
		}
	case SinkPostgres:
		if c.Sink.Database.URL == "" {
			errs = append(errs, errors.New("sink.database.url is required for a postgres sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("sink.type %q is not one of stderr, stdout, file, redis, postgres",
			c.Sink.Type))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format))
	}

	return errors.Join(errs...)
}
