package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/taskwatch/internal/plan"
)

var runCmd = &cobra.Command{
	Use:   "run PLAN",
	Short: "Run the tasks of a YAML plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	p, err := plan.Load(args[0])
	if err != nil {
		return err
	}
	return runSession(cmd.Context(), p)
}

// runSession runs p in a new session and stops on SIGINT or SIGTERM.
func runSession(parent context.Context, p *plan.Plan) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("Failed to close sink", "error", err)
		}
	}()

	slog.Debug("Starting plan", "plan", p.Name, "session", s.id)
	err = s.serve(ctx, cfg.Server.Listen, func(ctx context.Context) error {
		return s.runner.Run(ctx, p)
	})
	s.summary()
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("interrupted: %w", ctx.Err())
	}
	return nil
}
