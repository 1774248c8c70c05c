package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/taskwatch/internal/core/config"
	"github.com/vietddude/taskwatch/internal/plan"
)

func TestLoadConfig_DefaultWhenAbsent(t *testing.T) {
	t.Chdir(t.TempDir())
	cfgPath = ""

	got, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.SinkStderr, got.Sink.Type)
	assert.Equal(t, "always", got.Monitor.Verbosity)
}

func TestLoadConfig_PicksUpDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfgPath = ""
	t.Cleanup(func() { cfgPath = "" })
	require.NoError(t, os.WriteFile(defaultConfigPath, []byte("monitor:\n  verbosity: debug\n"), 0o644))

	got, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", got.Monitor.Verbosity)
	assert.Equal(t, defaultConfigPath, cfgPath)
}

func TestSession_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	c := config.Default()
	c.Monitor.Name = "cli-test"
	c.Monitor.Verbosity = "verbose"
	c.Monitor.ErrorSymbol = "ERROR"
	c.Sink = config.SinkConfig{Type: config.SinkFile, Path: path, Write: "overwrite"}

	s, err := newSession(context.Background(), c)
	require.NoError(t, err)

	p := &plan.Plan{Tasks: []plan.Task{
		{Title: "Setup", Tasks: []plan.Task{{Title: "Detail", Level: "debug"}}},
		{Title: "Broken", Args: []string{"/nonexistent/taskwatch-binary"}},
	}}
	err = s.runner.Run(context.Background(), p)
	require.Error(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], ": 0 ### Setup"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], ": 1 ### Broken"), lines[1])
	assert.Contains(t, lines[2], ": 1 *** ERROR /nonexistent/taskwatch-binary")

	assert.Equal(t, 1, s.monitor.Errors())
}

func TestMonitorOptions_EmptyMergeSeparator(t *testing.T) {
	empty := ""
	c := config.Default()
	c.Monitor.MergeSeparator = &empty

	assert.Len(t, monitorOptions(c.Monitor), 9)
	c.Monitor.MergeSeparator = nil
	assert.Len(t, monitorOptions(c.Monitor), 8)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "taskwatch dev\n", out.String())
}
