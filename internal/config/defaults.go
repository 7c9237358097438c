// Package config handles taskdigest configuration.
package config

const (
	// ConfigFileName is the name of the config file searched for upward from the working directory.
	ConfigFileName = "taskdigest.yml"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 2

	// DefaultOutputDir is where reports are written, relative to the config directory.
	DefaultOutputDir = "target"
	// DefaultArchiveDir is where previous reports are moved, relative to the output directory.
	DefaultArchiveDir = "archive"
	// DefaultRetention is how long archived reports are kept.
	DefaultRetention = "168h"

	// DefaultCacheTTL is how long a project name mapping stays fresh.
	DefaultCacheTTL = "24h"
	// DefaultSnapshotFile is the on-disk project snapshot, relative to the output directory.
	DefaultSnapshotFile = "notion-projects.json"
	// DefaultHistoryFile is the run history database, relative to the output directory.
	DefaultHistoryFile = "history.db"

	// DefaultDoneStatus is the status name that marks a task complete.
	DefaultDoneStatus = "Done"
	// DefaultHighPriority is the priority level listed in the high-priority section.
	DefaultHighPriority = "High"
	// DefaultOverdueDays is the width of the "recently overdue" window.
	DefaultOverdueDays = 7

	// DefaultTimeout bounds each API request.
	DefaultTimeout = "30s"

	// DefaultSchedule runs the digest every morning at 07:00.
	DefaultSchedule = "0 7 * * *"

	// DefaultLogDir is where the rotating log file lives, relative to the config directory.
	DefaultLogDir = "logs"
	// DefaultLogLevel is the log level outside the dev environment.
	DefaultLogLevel = "info"

	// EnvPrefix is the prefix for environment overrides (TASKDIGEST_REPORT_OUTPUT_DIR, ...).
	EnvPrefix = "TASKDIGEST"
)

// DefaultProperties are the property names of the stock tasks database template.
var DefaultProperties = PropertyNames{
	Title:    "Name",
	Status:   "Status",
	Priority: "Priority",
	Due:      "Due",
	Project:  "Project",
}

// validLogLevels lists accepted log.level values.
var validLogLevels = []string{"debug", "info", "warn", "error"}
