package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/twiced-technology-gmbh/taskdigest/internal/classify"
	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

func TestDetect(t *testing.T) {
	t.Setenv("TASKDIGEST_OUTPUT", "")
	assert.Equal(t, FormatJSON, Detect(true, true, true))
	assert.Equal(t, FormatCompact, Detect(false, true, true))
	assert.Equal(t, FormatTable, Detect(false, false, false))

	t.Setenv("TASKDIGEST_OUTPUT", "json")
	assert.Equal(t, FormatJSON, Detect(false, false, false))
	assert.Equal(t, FormatTable, Detect(false, true, false))
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat(" Oneline ")
	assert.True(t, ok)
	assert.Equal(t, FormatCompact, f)
	assert.Equal(t, "compact", f.String())

	_, ok = ParseFormat("yaml")
	assert.False(t, ok)
	assert.Equal(t, "auto", FormatAuto.String())
}

func rows() []TaskRow {
	d := date.New(2026, time.October, 16)
	return []TaskRow{{
		Task:    task.Task{ID: "abc", Title: "Pay rent", Status: "Not started", Priority: "High", Due: &d},
		Project: "Home",
		Buckets: []string{classify.BucketHighPriority, classify.BucketDueToday},
	}}
}

func TestTaskCompact(t *testing.T) {
	var buf bytes.Buffer
	TaskCompact(&buf, rows())
	assert.Equal(t, "abc [Not started/High] Pay rent (Home) due:2026-10-16 high-priority,due-today\n", buf.String())
}

func TestTaskTable_NoColor(t *testing.T) {
	DisableColor()
	var buf bytes.Buffer
	TaskTable(&buf, rows())

	out := buf.String()
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Pay rent")
	assert.Contains(t, out, "high-priority,due-today")
	assert.NotContains(t, out, "\x1b[")
}

func TestJSONFlattensTask(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, JSON(&buf, rows()))
	assert.Contains(t, buf.String(), `"title": "Pay rent"`)
	assert.Contains(t, buf.String(), `"project": "Home"`)
	assert.Contains(t, buf.String(), `"due": "2026-10-16"`)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "2d 3h", FormatDuration(51*time.Hour))
	assert.Equal(t, "1h 30m", FormatDuration(90*time.Minute))
}

func TestGroupedCompact(t *testing.T) {
	var buf bytes.Buffer
	GroupedCompact(&buf, classify.GroupedSummary{Field: "bucket", Groups: []classify.GroupSummary{{Key: "overdue", Total: 2}}})
	assert.Equal(t, "bucket: overdue=2\n", buf.String())
}
