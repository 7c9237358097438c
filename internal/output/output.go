// Package output handles formatting CLI output as table, JSON, or compact.
package output

import (
	"os"
	"strings"

	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

// Format represents an output format.
type Format int

const (
	// FormatAuto uses the default format (table).
	FormatAuto Format = iota
	// FormatJSON outputs JSON.
	FormatJSON
	// FormatTable outputs a human-readable table.
	FormatTable
	// FormatCompact outputs one-line-per-record compact format.
	FormatCompact
)

// EnvVar selects the output format when no flag is given.
const EnvVar = "TASKDIGEST_OUTPUT"

// Detect picks the format from flags, then the environment. Flags win in
// the order json, compact, table.
func Detect(jsonFlag, tableFlag, compactFlag bool) Format {
	switch {
	case jsonFlag:
		return FormatJSON
	case compactFlag:
		return FormatCompact
	case tableFlag:
		return FormatTable
	}
	if f, ok := ParseFormat(os.Getenv(EnvVar)); ok {
		return f
	}
	return FormatTable
}

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, true
	case "compact", "oneline":
		return FormatCompact, true
	case "table":
		return FormatTable, true
	}
	return FormatAuto, false
}

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCompact:
		return "compact"
	case FormatTable:
		return "table"
	}
	return "auto"
}

// TaskRow is a task prepared for listing: its project resolved and the
// buckets it falls into.
type TaskRow struct {
	task.Task
	Project string   `json:"project"`
	Buckets []string `json:"buckets,omitempty"`
}
