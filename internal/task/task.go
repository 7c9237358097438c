// Package task defines the task and project records fetched from the workspace.
package task

import (
	"strings"

	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
)

// UnknownProject is the display name used when a project id cannot be resolved.
const UnknownProject = "Unknown Project"

// Task is a read-only snapshot of one task record.
type Task struct {
	ID        string     `json:"id" validate:"required"`
	Title     string     `json:"title" validate:"required"`
	URL       string     `json:"url,omitempty" validate:"omitempty,url"`
	Status    string     `json:"status,omitempty"`
	Done      bool       `json:"done"`
	Priority  string     `json:"priority,omitempty"`
	Due       *date.Date `json:"due,omitempty"`
	ProjectID string     `json:"project_id,omitempty"`
}

// Project is a read-only snapshot of one project record.
type Project struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// HasPriority reports whether the task's priority equals level (case-insensitive).
func (t *Task) HasPriority(level string) bool {
	return level != "" && strings.EqualFold(t.Priority, level)
}

// DecodeWarning describes a record that was skipped while decoding a fetch result.
type DecodeWarning struct {
	ID  string // record id, empty if unknown
	Err error
}

// NormalizeID strips dashes and lower-cases a workspace id so that the
// dashed and undashed forms of the same id compare equal.
func NormalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(id), "-", ""))
}
