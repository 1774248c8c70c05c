package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_REDIS_URL", "redis://localhost:6379/2")

	path := writeConfig(t, `
sink:
  type: redis
  redis:
    url: ${TEST_REDIS_URL}
    ttl: 1h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sink.Redis.URL != "redis://localhost:6379/2" {
		t.Errorf("Expected URL redis://localhost:6379/2, got %s", cfg.Sink.Redis.URL)
	}
	if cfg.Sink.Redis.TTL != time.Hour {
		t.Errorf("Expected TTL 1h, got %s", cfg.Sink.Redis.TTL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "monitor:\n  name: nightly\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Monitor.Name != "nightly" {
		t.Errorf("Name = %q", cfg.Monitor.Name)
	}
	if cfg.Monitor.Verbosity != "always" {
		t.Errorf("Verbosity = %q, want always", cfg.Monitor.Verbosity)
	}
	if cfg.Monitor.DefaultPolicy.Disposition != "error" || cfg.Monitor.DefaultPolicy.Tries != 1 {
		t.Errorf("DefaultPolicy = %+v", cfg.Monitor.DefaultPolicy)
	}
	if cfg.Monitor.MergeSeparator != nil {
		t.Errorf("MergeSeparator should be unset, got %q", *cfg.Monitor.MergeSeparator)
	}
	if cfg.Sink.Type != SinkStderr || cfg.Sink.Write != "append" {
		t.Errorf("Sink = %+v", cfg.Sink)
	}
}

func TestLoad_FullMonitorSection(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
monitor:
  verbosity: verbose
  error_symbol: ERROR
  warn_symbol: WARNING
  merge_separator: ""
  time_format: "15:04:05"
  utc: true
  default_policy:
    tries: 3
    disposition: warn
    backoff: 250ms
    max_backoff: 5s
sink:
  type: file
  path: /tmp/taskwatch.log
  write: overwrite
server:
  listen: ":9100"
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	m := cfg.Monitor
	if m.Verbosity != "verbose" || m.ErrorSymbol != "ERROR" || m.WarnSymbol != "WARNING" {
		t.Errorf("unexpected monitor config: %+v", m)
	}
	if m.MergeSeparator == nil || *m.MergeSeparator != "" {
		t.Error("explicit empty merge_separator should be kept")
	}
	if m.DefaultPolicy.Backoff != 250*time.Millisecond || m.DefaultPolicy.MaxBackoff != 5*time.Second {
		t.Errorf("DefaultPolicy = %+v", m.DefaultPolicy)
	}
	if cfg.Sink.Write != "overwrite" || cfg.Server.Listen != ":9100" {
		t.Errorf("Sink = %+v, Server = %+v", cfg.Sink, cfg.Server)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad verbosity", "monitor:\n  verbosity: loud\n", "monitor.verbosity"},
		{"bad disposition", "monitor:\n  default_policy:\n    disposition: explode\n", "disposition"},
		{"file without path", "sink:\n  type: file\n", "sink.path"},
		{"redis without url", "sink:\n  type: redis\n", "sink.redis.url"},
		{"postgres without url", "sink:\n  type: postgres\n", "sink.database.url"},
		{"unknown sink", "sink:\n  type: kafka\n", "sink.type"},
		{"bad write mode", "sink:\n  write: rotate\n", "sink.write"},
		{"bad log format", "logging:\n  format: xml\n", "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/taskwatch.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}
