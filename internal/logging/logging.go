// Package logging sets up the process-wide slog logger: a rotating file in
// the log directory, plus stderr in the dev environment or when verbose.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file inside the log directory.
const FileName = "app.log"

// Rotation limits. Backups older than a week are removed.
const (
	maxSizeMB  = 10
	maxBackups = 7
	maxAgeDays = 7
)

// Options configures Setup.
type Options struct {
	Dir     string
	Level   string // debug, info, warn, error; empty means info, or debug when Dev
	Dev     bool
	Verbose bool
	// Stderr receives console output; nil means os.Stderr.
	Stderr io.Writer
}

// Setup installs the default slog logger and returns it with a close
// function that flushes the log file.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	const dirMode = 0o750
	if err := os.MkdirAll(opts.Dir, dirMode); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		LocalTime:  true,
	}

	var out io.Writer = file
	if opts.Dev || opts.Verbose {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		out = io.MultiWriter(file, stderr)
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level, opts.Dev),
		AddSource: opts.Dev,
	}))
	slog.SetDefault(logger)
	return logger, file.Close, nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string, dev bool) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	}
	if dev {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
