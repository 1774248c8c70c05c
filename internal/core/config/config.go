package config

import (
	"time"

	redisclient "github.com/vietddude/taskwatch/internal/infra/redis"
	"github.com/vietddude/taskwatch/internal/infra/storage/postgres"
)

// Sink types.
const (
	SinkStderr   = "stderr"
	SinkStdout   = "stdout"
	SinkFile     = "file"
	SinkRedis    = "redis"
	SinkPostgres = "postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Monitor MonitorConfig `yaml:"monitor"`
	Sink    SinkConfig    `yaml:"sink"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// MonitorConfig holds the monitor's settings.
type MonitorConfig struct {
	Name        string `yaml:"name"`
	Verbosity   string `yaml:"verbosity"` // debug, verbose, always, quiet
	ErrorSymbol string `yaml:"error_symbol"`
	WarnSymbol  string `yaml:"warn_symbol"`
	// MergeSeparator joins multi-line failure messages. nil keeps the
	// default " (LF) ", an empty string leaves messages untouched.
	MergeSeparator *string      `yaml:"merge_separator"`
	TimeFormat     string       `yaml:"time_format"`
	UTC            bool         `yaml:"utc"`
	DefaultPolicy  PolicyConfig `yaml:"default_policy"`
}

// PolicyConfig describes a failure policy. Tries above one retry after
// waiting an exponential backoff starting at Backoff.
type PolicyConfig struct {
	Tries       int           `yaml:"tries"`
	Disposition string        `yaml:"disposition"` // warn, error
	Backoff     time.Duration `yaml:"backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

// SinkConfig selects where the trace goes.
type SinkConfig struct {
	Type     string             `yaml:"type"`  // stderr, stdout, file, redis, postgres
	Path     string             `yaml:"path"`  // file only
	Write    string             `yaml:"write"` // append, overwrite
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `yaml:"listen"` // empty = no health server
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
