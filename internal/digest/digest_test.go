package digest

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskdigest/internal/archive"
	"github.com/twiced-technology-gmbh/taskdigest/internal/classify"
	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
	"github.com/twiced-technology-gmbh/taskdigest/internal/filelock"
	"github.com/twiced-technology-gmbh/taskdigest/internal/history"
	"github.com/twiced-technology-gmbh/taskdigest/internal/logging"
	"github.com/twiced-technology-gmbh/taskdigest/internal/notion"
	"github.com/twiced-technology-gmbh/taskdigest/internal/projects"
	"github.com/twiced-technology-gmbh/taskdigest/internal/report"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

const outDir = "/work/target"

var now = time.Date(2026, time.October, 16, 7, 0, 0, 0, time.UTC)

type fakeSource struct {
	tasks        []task.Task
	warnings     []task.DecodeWarning
	err          error
	projectCalls int
	lastQuery    notion.Query
}

func (f *fakeSource) Tasks(_ context.Context, q notion.Query) ([]task.Task, []task.DecodeWarning, error) {
	f.lastQuery = q
	return f.tasks, f.warnings, f.err
}

func (f *fakeSource) Projects(context.Context) ([]task.Project, error) {
	f.projectCalls++
	return []task.Project{{ID: "p1", Name: "Home"}}, nil
}

type fakeRecorder struct {
	runs []history.Run
	err  error
}

func (f *fakeRecorder) Record(_ context.Context, r history.Run) error {
	f.runs = append(f.runs, r)
	return f.err
}

func due(days int) *date.Date {
	d := date.Of(now).AddDays(days)
	return &d
}

func newRunner(fs afero.Fs, src *fakeSource, rec *fakeRecorder) *Runner {
	clock := func() time.Time { return now }
	return &Runner{
		Source:     src,
		Projects:   projects.New(src, 24*time.Hour, projects.WithClock(clock), projects.WithLogger(logging.Discard())),
		Archive:    archive.New(fs, outDir, filepath.Join(outDir, "archive"), report.FileNames(), archive.WithClock(clock), archive.WithLogger(logging.Discard())),
		Writer:     report.NewWriter(fs, outDir),
		History:    rec,
		Rules:      classify.DefaultOptions(),
		DoneStatus: "Done",
		Now:        clock,
		Log:        logging.Discard(),
	}
}

func sampleTasks() []task.Task {
	return []task.Task{
		{ID: "a", Title: "Pay rent", Priority: "High", Due: due(0), ProjectID: "p1"},
		{ID: "b", Title: "Water plants", Due: due(-2), ProjectID: "zz"},
		{ID: "c", Title: "Someday", Due: nil},
		{ID: "d", Title: "Ancient", Due: due(-30)},
	}
}

func TestRun_WritesReportsAndRecords(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := &fakeSource{tasks: sampleTasks(), warnings: []task.DecodeWarning{{ID: "x", Err: errors.New("no title")}}}
	rec := &fakeRecorder{}
	r := newRunner(fs, src, rec)

	res, err := r.Run(context.Background(), history.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, notion.Query{ExcludeStatus: "Done"}, src.lastQuery)
	assert.Equal(t, classify.Counts{HighPriority: 1, DueToday: 1, Overdue: 1, OverdueOld: 1, NoDue: 1}, res.Counts)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, res.Files, 2)
	assert.Equal(t, 1, src.projectCalls)

	md, err := report.Load(fs, outDir, report.FormatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, string(md), "(Project: Home)")
	assert.Contains(t, string(md), "Water plants (Project: Unknown Project)")

	require.Len(t, rec.runs, 1)
	assert.Equal(t, history.OutcomeOK, rec.runs[0].Outcome)
	assert.Equal(t, res.RunID, rec.runs[0].ID)
	assert.Equal(t, 1, rec.runs[0].Skipped)
}

func TestRun_ArchivesPreviousReports(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := newRunner(fs, &fakeSource{tasks: sampleTasks()}, &fakeRecorder{})
	ctx := context.Background()

	_, err := r.Run(ctx, history.TriggerManual)
	require.NoError(t, err)
	res, err := r.Run(ctx, history.TriggerManual)
	require.NoError(t, err)

	assert.Len(t, res.Archived.Moved, 2)
	exists, _ := afero.Exists(fs, filepath.Join(outDir, "archive", "tasks_report_2026_10_16_070000.md"))
	assert.True(t, exists)
}

func TestRun_FetchFailureLeavesFilesAlone(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(outDir, report.MarkdownFile), []byte("old"), 0o644))
	fetchErr := clierr.Wrap(clierr.FetchFailed, errors.New("timeout"), "querying tasks database")
	rec := &fakeRecorder{}
	r := newRunner(fs, &fakeSource{err: fetchErr}, rec)

	_, err := r.Run(context.Background(), history.TriggerSchedule)
	require.Error(t, err)
	assert.True(t, clierr.HasCode(err, clierr.FetchFailed))

	data, err := afero.ReadFile(fs, filepath.Join(outDir, report.MarkdownFile))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data), "no partial report")

	require.Len(t, rec.runs, 1)
	assert.Equal(t, history.OutcomeFailed, rec.runs[0].Outcome)
	assert.Equal(t, history.TriggerSchedule, rec.runs[0].Trigger)
}

func TestRun_HistoryFailureIsNotFatal(t *testing.T) {
	r := newRunner(afero.NewMemMapFs(), &fakeSource{tasks: sampleTasks()}, &fakeRecorder{err: errors.New("disk full")})

	_, err := r.Run(context.Background(), history.TriggerManual)
	assert.NoError(t, err)
}

func TestRun_LockedByAnotherRun(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".taskdigest.lock")
	held, err := filelock.TryAcquire(lockPath)
	require.NoError(t, err)
	defer held.Release()

	r := newRunner(afero.NewMemMapFs(), &fakeSource{tasks: sampleTasks()}, &fakeRecorder{})
	r.LockPath = lockPath

	_, err = r.Run(context.Background(), history.TriggerManual)
	assert.True(t, clierr.HasCode(err, clierr.RunInProgress))
}

func TestRun_SnapshotAvoidsRefetch(t *testing.T) {
	snapshot := filepath.Join(t.TempDir(), "notion-projects.json")
	ctx := context.Background()

	src := &fakeSource{tasks: sampleTasks()}
	first := newRunner(afero.NewMemMapFs(), src, &fakeRecorder{})
	first.SnapshotPath = snapshot
	_, err := first.Run(ctx, history.TriggerManual)
	require.NoError(t, err)

	second := newRunner(afero.NewMemMapFs(), src, &fakeRecorder{})
	second.SnapshotPath = snapshot
	_, err = second.Run(ctx, history.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 1, src.projectCalls)
}

func TestDryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := newRunner(fs, &fakeSource{tasks: sampleTasks()}, &fakeRecorder{})
	var buf bytes.Buffer

	res, err := r.DryRun(context.Background(), &buf, report.FormatText)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Task Report (2026-10-16 07:00:00)")
	assert.Equal(t, 1, res.Counts.NoDue)
	exists, _ := afero.DirExists(fs, outDir)
	assert.False(t, exists)
}
