package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// DefaultShell runs the run lines of a plan.
const DefaultShell = "/bin/sh"

// stderrTail is how many stderr lines a CommandError keeps.
const stderrTail = 5

// Executor runs one command.
type Executor interface {
	Execute(ctx context.Context, argv []string) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, argv []string) error

func (f ExecutorFunc) Execute(ctx context.Context, argv []string) error {
	return f(ctx, argv)
}

// CommandExecutor runs commands as child processes. The command is killed
// when ctx is done.
type CommandExecutor struct {
	Dir    string
	Env    []string  // appended to the inherited environment
	Stdout io.Writer // nil discards
	Stderr io.Writer // nil discards; the tail is kept for the error either way
}

// CommandError reports a command that could not start or exited non-zero.
// Its message carries the last lines of stderr, one per line.
type CommandError struct {
	Argv     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, "%s: exit status %d", e.Argv[0], e.ExitCode)
	} else {
		fmt.Fprintf(&b, "%s: %v", e.Argv[0], e.Err)
	}
	if e.Stderr != "" {
		b.WriteString("\n")
		b.WriteString(e.Stderr)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func (e *CommandExecutor) Execute(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.Dir
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}
	if e.Stdout != nil {
		cmd.Stdout = e.Stdout
	}

	var stderr bytes.Buffer
	if e.Stderr != nil {
		cmd.Stderr = io.MultiWriter(e.Stderr, &stderr)
	} else {
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	cerr := &CommandError{Argv: argv, ExitCode: -1, Stderr: tail(stderr.String(), stderrTail), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		cerr.ExitCode = exitErr.ExitCode()
	}
	return cerr
}

// tail returns the last n non-empty lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return strings.Join(out, "\n")
}
