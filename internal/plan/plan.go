// Package plan loads YAML task trees and runs them under a monitor.
package plan

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/taskwatch/internal/core/domain"
	"github.com/vietddude/taskwatch/internal/core/task"
)

// Plan is a named tree of tasks.
type Plan struct {
	Name  string `yaml:"name"`
	Tasks []Task `yaml:"tasks"`
}

// Task is one node of a plan. Work runs the command first, then the children
// in order. A failing child fails its parent.
type Task struct {
	Title       string        `yaml:"title"`
	Level       string        `yaml:"level"`       // debug, verbose, always, quiet; empty = always
	Tries       int           `yaml:"tries"`       // 0 = runner default
	Disposition string        `yaml:"disposition"` // warn, error; empty = runner default
	Backoff     time.Duration `yaml:"backoff"`     // first wait before a retry
	MaxBackoff  time.Duration `yaml:"max_backoff"`
	Run         string        `yaml:"run"`  // shell command line
	Args        []string      `yaml:"args"` // argv, run without a shell
	Tasks       []Task        `yaml:"tasks"`
}

// Load reads a plan from a YAML file. Environment variables are expanded.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	p, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a plan.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks every task before anything runs.
func (p *Plan) Validate() error {
	if len(p.Tasks) == 0 {
		return errors.New("plan has no tasks")
	}
	var errs []error
	for i := range p.Tasks {
		errs = p.Tasks[i].validate(fmt.Sprintf("tasks[%d]", i), errs)
	}
	return errors.Join(errs...)
}

func (t *Task) validate(path string, errs []error) []error {
	if !utf8.ValidString(t.Title) {
		errs = append(errs, fmt.Errorf("%s.title is not valid UTF-8", path))
	}
	if t.Level != "" {
		if _, err := domain.ParseLevel(t.Level); err != nil {
			errs = append(errs, fmt.Errorf("%s.level: %w", path, err))
		}
	}
	if t.Disposition != "" {
		if _, err := domain.ParseDisposition(t.Disposition); err != nil {
			errs = append(errs, fmt.Errorf("%s.disposition: %w", path, err))
		}
	}
	if t.Tries < 0 || t.Tries > task.MaxTries {
		errs = append(errs, fmt.Errorf("%s.tries must be between 0 and %d, got %d", path, task.MaxTries, t.Tries))
	}
	if t.Backoff < 0 || t.MaxBackoff < 0 {
		errs = append(errs, fmt.Errorf("%s: backoff must not be negative", path))
	}
	if t.Run != "" && len(t.Args) > 0 {
		errs = append(errs, fmt.Errorf("%s: run and args are mutually exclusive", path))
	}
	for i := range t.Tasks {
		errs = t.Tasks[i].validate(fmt.Sprintf("%s.tasks[%d]", path, i), errs)
	}
	return errs
}

// level returns the task's level, always when unset.
func (t *Task) level() domain.Level {
	if t.Level == "" {
		return domain.LevelAlways
	}
	l, _ := domain.ParseLevel(t.Level)
	return l
}

// argv returns the command to execute, nil when the task has none.
func (t *Task) argv(shell string) []string {
	switch {
	case len(t.Args) > 0:
		return t.Args
	case strings.TrimSpace(t.Run) != "":
		return []string{shell, "-c", t.Run}
	default:
		return nil
	}
}
