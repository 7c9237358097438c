package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskdigest/internal/classify"
	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

func sampleReport() Report {
	today := date.New(2026, time.October, 16)
	lastWeek := today.AddDays(-3)
	high := task.Task{
		ID: "a", Title: "Pay [rent]", URL: "https://www.notion.so/a", Status: "Not started",
		Priority: "High", Due: &today, ProjectID: "p1",
	}
	late := task.Task{ID: "b", Title: "Email Sam", Due: &lastWeek, ProjectID: "gone"}
	return Report{
		GeneratedAt: time.Date(2026, time.October, 16, 7, 5, 9, 0, time.Local),
		Buckets: classify.Buckets{
			HighPriority: []task.Task{high},
			DueToday:     []task.Task{high},
			Overdue:      []task.Task{late},
			OverdueOld:   3,
			NoDue:        1,
		},
		Project: func(id string) string {
			if id == "p1" {
				return "Home"
			}
			return task.UnknownProject
		},
	}
}

func TestMarkdown(t *testing.T) {
	want := `# Task Report (2026-10-16 07:05:09)

## High Priority

- [ ] [Pay \[rent\]](https://www.notion.so/a) (Project: Home), Due: 2026-10-16, Status: Not started

## Due Today

- [ ] [Pay \[rent\]](https://www.notion.so/a) (Project: Home), Due: 2026-10-16, Status: Not started

## Overdue (Last 7 Days)

- [ ] Email Sam (Project: Unknown Project), Due: 2026-10-13

*Note: 3 tasks are overdue for more than 7 days.*

*Note: 1 task has no due date.*
`
	assert.Equal(t, want, string(Markdown(sampleReport())))
}

func TestText(t *testing.T) {
	want := `Task Report (2026-10-16 07:05:09)
=================================

High Priority:
- Pay [rent] (Project: Home), Due: 2026-10-16, Status: Not started
  https://www.notion.so/a

Due Today:
- Pay [rent] (Project: Home), Due: 2026-10-16, Status: Not started
  https://www.notion.so/a

Overdue (Last 7 Days):
- Email Sam (Project: Unknown Project), Due: 2026-10-13

Note: 3 tasks are overdue for more than 7 days.

Note: 1 task has no due date.
`
	assert.Equal(t, want, string(Text(sampleReport())))
}

func TestRender_Deterministic(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, Markdown(r), Markdown(r))
	assert.Equal(t, Text(r), Text(r))
}

func TestRender_EmptySectionsOmitted(t *testing.T) {
	r := Report{GeneratedAt: time.Date(2026, time.October, 16, 7, 0, 0, 0, time.UTC)}
	r.Buckets.NoDue = 4

	md := string(Markdown(r))
	assert.NotContains(t, md, "##")
	assert.Contains(t, md, "*Note: 4 tasks have no due date.*")
	assert.NotContains(t, md, "Nothing due")

	r.Buckets.NoDue = 0
	assert.Contains(t, string(Text(r)), "Nothing due.")
}

func TestRender_CustomWindowAndNilResolver(t *testing.T) {
	r := sampleReport()
	r.OverdueDays = 3
	r.Project = nil

	md := string(Markdown(r))
	assert.Contains(t, md, "## Overdue (Last 3 Days)")
	assert.Contains(t, md, "more than 3 days")
	assert.NotContains(t, md, "Project: Home")
}

func TestRenderFormat(t *testing.T) {
	r := sampleReport()
	got, err := Render(r, FormatText)
	require.NoError(t, err)
	assert.Equal(t, Text(r), got)

	_, err = Render(r, "pdf")
	assert.True(t, clierr.HasCode(err, clierr.InvalidInput))
}

func TestWriter(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := filepath.Join("/work", "target")
	w := NewWriter(fs, dir)

	paths, err := w.Write(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, MarkdownFile), filepath.Join(dir, TextFile)}, paths)

	got, err := Load(fs, dir, FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, Markdown(sampleReport()), got)

	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nowhere", FormatText)
	assert.True(t, clierr.HasCode(err, clierr.ReportNotFound))
}
