package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/taskwatch/internal/core/config"
	"github.com/vietddude/taskwatch/internal/core/domain"
)

// defaultConfigPath is read when present and --config is not given.
const defaultConfigPath = "taskwatch.yaml"

var (
	cfgPath   string
	isDebug   bool
	verbosity string
	listen    string

	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "taskwatch",
	Short: "Run commands as monitored, retried, hierarchical tasks",
	Long: `Taskwatch runs commands as a tree of tasks. Each task gets a hierarchical
identifier, quiet tasks stay hidden until something fails, and failing
tasks are retried before they warn or fail the run.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("taskwatch failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default is taskwatch.yaml when present)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&verbosity, "verbosity", "", "trace verbosity: debug, verbose, always or quiet")
	rootCmd.PersistentFlags().StringVar(&listen, "listen", "", "serve /health and /metrics on this address")
}

func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	loaded, err := loadConfig()
	if err != nil {
		stylelog.InitDefault()
		return err
	}
	if verbosity != "" {
		if _, err := domain.ParseLevel(verbosity); err != nil {
			stylelog.InitDefault()
			return fmt.Errorf("--verbosity: %w", err)
		}
		loaded.Monitor.Verbosity = verbosity
	}
	if listen != "" {
		loaded.Server.Listen = listen
	}
	cfg = loaded

	setupLogging(cfg.Logging)
	slog.Debug("Configuration loaded", "config", cfgPath, "sink", cfg.Sink.Type)
	return nil
}

func loadConfig() (*config.AppConfig, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		cfgPath = defaultConfigPath
		return config.Load(cfgPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", defaultConfigPath, err)
	}
	return config.Default(), nil
}

func setupLogging(lc config.LoggingConfig) {
	level := slog.LevelInfo
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if isDebug {
		level = slog.LevelDebug
	}

	if lc.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return
	}
	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
}
