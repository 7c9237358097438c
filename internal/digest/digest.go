// Package digest runs the report pipeline: fetch, classify, render, archive
// the previous reports, prune the archive, then write the new reports.
package digest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/taskdigest/internal/archive"
	"github.com/twiced-technology-gmbh/taskdigest/internal/classify"
	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
	"github.com/twiced-technology-gmbh/taskdigest/internal/filelock"
	"github.com/twiced-technology-gmbh/taskdigest/internal/history"
	"github.com/twiced-technology-gmbh/taskdigest/internal/notion"
	"github.com/twiced-technology-gmbh/taskdigest/internal/projects"
	"github.com/twiced-technology-gmbh/taskdigest/internal/report"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

// Recorder stores finished runs.
type Recorder interface {
	Record(ctx context.Context, r history.Run) error
}

// Runner wires the pipeline stages together. Source, Projects, Archive and
// Writer are required; the rest are optional.
type Runner struct {
	Source   notion.Source
	Projects *projects.Cache
	Archive  *archive.Manager
	Writer   *report.Writer
	History  Recorder

	Rules      classify.Options
	DoneStatus string

	// SnapshotPath, if set, persists the project cache between runs.
	SnapshotPath string
	// LockPath, if set, is locked for the duration of Run.
	LockPath string

	Now func() time.Time
	Log *slog.Logger
}

// Result describes a finished run.
type Result struct {
	RunID      string                `json:"run_id"`
	Trigger    string                `json:"trigger"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Counts     classify.Counts       `json:"counts"`
	Buckets    classify.Buckets      `json:"-"`
	Skipped    int                   `json:"skipped"`
	Files      []string              `json:"files,omitempty"`
	Archived   archive.ArchiveResult `json:"archived"`
	Cleaned    archive.CleanupResult `json:"cleaned"`
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// Run executes the full pipeline. A fetch failure aborts before any file is
// touched; archive and cleanup failures are logged and the run continues.
func (r *Runner) Run(ctx context.Context, trigger string) (*Result, error) {
	if r.LockPath != "" {
		lock, err := filelock.TryAcquire(r.LockPath)
		if errors.Is(err, filelock.ErrLocked) {
			return nil, clierr.New(clierr.RunInProgress, "another taskdigest run is writing reports").
				WithDetails(map[string]any{"lock": r.LockPath})
		}
		if err != nil {
			return nil, err
		}
		defer func() { _ = lock.Release() }()
	}

	res := &Result{RunID: uuid.NewString(), Trigger: trigger, StartedAt: r.now()}
	logger := r.log().With("run_id", res.RunID)
	logger.Info("starting run", "trigger", trigger)

	rep, skipped, err := r.Build(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		r.record(ctx, res, err)
		return nil, err
	}
	res.Buckets = rep.Buckets
	res.Counts = rep.Buckets.Counts()
	res.Skipped = skipped

	res.Archived = r.Archive.Archive()
	res.Cleaned = r.Archive.Cleanup()

	files, err := r.Writer.Write(rep)
	if err != nil {
		err = clierr.Wrap(clierr.InternalError, err, "writing reports")
		logger.Error("run failed", "error", err)
		r.record(ctx, res, err)
		return nil, err
	}
	res.Files = files
	r.record(ctx, res, nil)

	logger.Info("task report generated",
		"high_priority", res.Counts.HighPriority,
		"due_today", res.Counts.DueToday,
		"overdue", res.Counts.Overdue,
		"overdue_old", res.Counts.OverdueOld,
		"no_due", res.Counts.NoDue,
		"archived", len(res.Archived.Moved),
		"deleted", len(res.Cleaned.Removed),
	)
	return res, nil
}

// DryRun builds the report and writes it to w in format without touching
// the output directory.
func (r *Runner) DryRun(ctx context.Context, w io.Writer, format string) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Trigger: "dry-run", StartedAt: r.now()}
	rep, skipped, err := r.Build(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := report.Render(rep, format)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(doc); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	res.Buckets = rep.Buckets
	res.Counts = rep.Buckets.Counts()
	res.Skipped = skipped
	res.FinishedAt = r.now()
	return res, nil
}

// Build fetches the open tasks, classifies them and returns the report
// together with the number of records skipped while decoding.
func (r *Runner) Build(ctx context.Context) (report.Report, int, error) {
	generated := r.now()
	today := date.Of(generated)

	tasks, warnings, err := r.Source.Tasks(ctx, notion.Query{ExcludeStatus: r.DoneStatus})
	if err != nil {
		return report.Report{}, 0, err
	}
	for _, w := range warnings {
		r.log().Warn("skipped malformed task", "id", w.ID, "error", w.Err)
	}

	buckets := classify.Classify(tasks, today, r.Rules)
	if err := r.resolveProjects(ctx, buckets); err != nil {
		return report.Report{}, 0, err
	}

	return report.Report{
		GeneratedAt: generated,
		Buckets:     buckets,
		OverdueDays: r.Rules.OverdueDays,
		Project:     r.Projects.Lookup,
	}, len(warnings), nil
}

// resolveProjects makes sure every listed task's project can be named,
// loading the snapshot first and saving it after a reload.
func (r *Runner) resolveProjects(ctx context.Context, b classify.Buckets) error {
	if r.SnapshotPath != "" {
		if err := r.Projects.LoadSnapshot(r.SnapshotPath); err != nil {
			r.log().Warn("ignoring project snapshot", "error", err)
		}
	}

	before := r.Projects.RefreshedAt()
	for _, list := range [][]task.Task{b.HighPriority, b.DueToday, b.Overdue} {
		for i := range list {
			if list[i].ProjectID == "" {
				continue
			}
			if _, err := r.Projects.Name(ctx, list[i].ProjectID); err != nil {
				return err
			}
		}
	}

	if r.SnapshotPath != "" && r.Projects.RefreshedAt().After(before) {
		if err := r.Projects.SaveSnapshot(r.SnapshotPath); err != nil {
			r.log().Warn("saving project snapshot failed", "error", err)
		}
	}
	return nil
}

func (r *Runner) record(ctx context.Context, res *Result, runErr error) {
	res.FinishedAt = r.now()
	if r.History == nil {
		return
	}
	run := history.Run{
		ID:         res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Outcome:    history.OutcomeOK,
		Trigger:    res.Trigger,
		Counts:     res.Counts,
		Skipped:    res.Skipped,
	}
	if runErr != nil {
		run.Outcome = history.OutcomeFailed
		run.Error = runErr.Error()
	}
	// History must never fail a run.
	if err := r.History.Record(context.WithoutCancel(ctx), run); err != nil {
		r.log().Warn("recording run history failed", "run_id", res.RunID, "error", err)
	}
}
