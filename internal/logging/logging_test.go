package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesFileAndConsoleInDev(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer
	logger, closeFn, err := Setup(Options{Dir: dir, Dev: true, Stderr: &console})
	require.NoError(t, err)

	logger.Debug("fetching projects", "count", 3)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "fetching projects")
	assert.Contains(t, string(data), "count=3")
	assert.Contains(t, console.String(), "fetching projects")
}

func TestSetup_ProdSkipsConsoleAndDebug(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	var console bytes.Buffer
	logger, closeFn, err := Setup(Options{Dir: dir, Stderr: &console})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
	assert.Empty(t, console.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN", false))
	assert.Equal(t, slog.LevelInfo, ParseLevel("", false))
	assert.Equal(t, slog.LevelDebug, ParseLevel("", true))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info", true))
}
