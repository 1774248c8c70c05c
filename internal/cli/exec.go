package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/taskwatch/internal/plan"
)

var execTask plan.Task

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- CMD [ARGS...]",
	Short: "Run a single command as a monitored task",
	Example: `  taskwatch exec --tries 3 --backoff 2s -- curl -fsS https://example.com/health
  taskwatch exec --title "Warm cache" --disposition warn -- ./warm.sh`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	f := execCmd.Flags()
	f.StringVar(&execTask.Title, "title", "", "task title (default is the command line)")
	f.StringVar(&execTask.Level, "level", "always", "task level: debug, verbose, always or quiet")
	f.IntVar(&execTask.Tries, "tries", 0, "number of attempts (default from config)")
	f.StringVar(&execTask.Disposition, "disposition", "", "warn or error once every try failed (default from config)")
	f.DurationVar(&execTask.Backoff, "backoff", 0, "first wait before a retry (default from config)")
	f.DurationVar(&execTask.MaxBackoff, "max-backoff", time.Duration(0), "cap on the wait between retries")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	t := execTask
	t.Args = args
	if t.Title == "" {
		t.Title = strings.Join(args, " ")
	}

	p := &plan.Plan{Name: "exec", Tasks: []plan.Task{t}}
	if err := p.Validate(); err != nil {
		return err
	}
	return runSession(cmd.Context(), p)
}
