package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vietddude/taskwatch/internal/core/config"
	"github.com/vietddude/taskwatch/internal/core/worker"
	redisclient "github.com/vietddude/taskwatch/internal/infra/redis"
	"github.com/vietddude/taskwatch/internal/infra/storage/postgres"
)

var linesCmd = &cobra.Command{
	Use:   "lines SESSION",
	Short: "Print the trace stored for a session by the redis or postgres sink",
	Args:  cobra.ExactArgs(1),
	RunE:  runLines,
}

var clearCmd = &cobra.Command{
	Use:   "clear SESSION",
	Short: "Delete the trace stored for a session by the redis or postgres sink",
	Args:  cobra.ExactArgs(1),
	RunE:  runClear,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete postgres trace lines older than sink.database.retention",
	Args:  cobra.NoArgs,
	RunE:  runPrune,
}

func init() {
	rootCmd.AddCommand(linesCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(pruneCmd)
}

func runLines(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	lines, err := storedLines(ctx, cfg.Sink, args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "SEQ\tLINE")
	for i, line := range lines {
		_, _ = fmt.Fprintf(w, "%d\t%s\n", i+1, line)
	}
	return w.Flush()
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	session := args[0]
	switch cfg.Sink.Type {
	case config.SinkRedis:
		client, err := redisclient.NewClient(cfg.Sink.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		if err := client.Clear(ctx, cfg.Sink.Redis.Prefix, session); err != nil {
			return fmt.Errorf("failed to clear session %s: %w", session, err)
		}
		fmt.Printf("Cleared session %s\n", session)
		return nil
	case config.SinkPostgres:
		id, err := uuid.Parse(session)
		if err != nil {
			return fmt.Errorf("invalid session id: %w", err)
		}
		db, err := postgres.NewDB(ctx, cfg.Sink.Database)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		n, err := db.ClearLines(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d lines of session %s\n", n, session)
		return nil
	default:
		return fmt.Errorf("sink %q does not store sessions", cfg.Sink.Type)
	}
}

func runPrune(cmd *cobra.Command, args []string) error {
	if cfg.Sink.Type != config.SinkPostgres {
		return fmt.Errorf("sink %q has no retention to apply", cfg.Sink.Type)
	}
	if cfg.Sink.Database.Retention <= 0 {
		return errors.New("sink.database.retention is not set")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Sink.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	n, err := worker.NewPruner(db, cfg.Sink.Database.Retention).Prune(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d lines older than %s\n", n, cfg.Sink.Database.Retention)
	return nil
}

func storedLines(ctx context.Context, sc config.SinkConfig, session string) ([]string, error) {
	switch sc.Type {
	case config.SinkRedis:
		client, err := redisclient.NewClient(sc.Redis)
		if err != nil {
			return nil, err
		}
		defer func() { _ = client.Close() }()
		return client.Lines(ctx, sc.Redis.Prefix, session)
	case config.SinkPostgres:
		id, err := uuid.Parse(session)
		if err != nil {
			return nil, fmt.Errorf("invalid session id: %w", err)
		}
		db, err := postgres.NewDB(ctx, sc.Database)
		if err != nil {
			return nil, err
		}
		defer func() { _ = db.Close() }()
		return db.Lines(ctx, id)
	default:
		return nil, fmt.Errorf("sink %q does not store sessions", sc.Type)
	}
}
