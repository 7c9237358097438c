package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/twiced-technology-gmbh/taskdigest/internal/archive"
	"github.com/twiced-technology-gmbh/taskdigest/internal/classify"
	"github.com/twiced-technology-gmbh/taskdigest/internal/config"
	"github.com/twiced-technology-gmbh/taskdigest/internal/digest"
	"github.com/twiced-technology-gmbh/taskdigest/internal/history"
	"github.com/twiced-technology-gmbh/taskdigest/internal/logging"
	"github.com/twiced-technology-gmbh/taskdigest/internal/notion"
	"github.com/twiced-technology-gmbh/taskdigest/internal/projects"
	"github.com/twiced-technology-gmbh/taskdigest/internal/report"
)

// app holds what a command needs once configuration and logging are set up.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	fs      afero.Fs
	closers []func() error
}

// openApp loads the config and installs the file logger. Commands that talk
// to the workspace pass needCredentials so a missing key fails early.
func openApp(needCredentials bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if needCredentials {
		if err := cfg.RequireCredentials(); err != nil {
			return nil, err
		}
	}

	logger, closeLog, err := logging.Setup(logging.Options{
		Dir:     cfg.LogPath(),
		Level:   cfg.Log.Level,
		Dev:     cfg.IsDev(),
		Verbose: flagVerbose,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", "dir", cfg.Dir(), "env", cfg.Env())
	return &app{cfg: cfg, log: logger, fs: afero.NewOsFs(), closers: []func() error{closeLog}}, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) source() *notion.Client {
	return notion.New(notion.OptionsFromConfig(a.cfg, a.log))
}

func (a *app) projectCache(src projects.Fetcher) *projects.Cache {
	return projects.New(src, a.cfg.CacheTTLDuration(), projects.WithLogger(a.log))
}

func (a *app) snapshotPath() string {
	if !a.cfg.Cache.Snapshot {
		return ""
	}
	return a.cfg.SnapshotPath()
}

func (a *app) archiver() *archive.Manager {
	return archive.New(a.fs, a.cfg.OutputPath(), a.cfg.ArchivePath(), report.FileNames(),
		archive.WithRetention(a.cfg.RetentionDuration()),
		archive.WithLogger(a.log),
	)
}

func (a *app) rules() classify.Options {
	return classify.Options{
		HighPriority: a.cfg.Classify.HighPriority,
		OverdueDays:  a.cfg.Classify.OverdueDays,
	}
}

// openHistory opens the run history database. A nil store means history
// is disabled or could not be opened; runs go on without it.
func (a *app) openHistory(ctx context.Context) *history.Store {
	if !a.cfg.Report.History {
		return nil
	}
	store, err := history.Open(ctx, a.cfg.HistoryPath())
	if err != nil {
		a.log.Warn("run history unavailable", "error", err)
		return nil
	}
	a.closers = append(a.closers, store.Close)
	return store
}

// runner builds the report pipeline, recording runs when withHistory is set.
func (a *app) runner(ctx context.Context, withHistory bool) *digest.Runner {
	src := a.source()
	r := &digest.Runner{
		Source:       src,
		Projects:     a.projectCache(src),
		Archive:      a.archiver(),
		Writer:       report.NewWriter(a.fs, a.cfg.OutputPath()),
		Rules:        a.rules(),
		DoneStatus:   a.cfg.Classify.DoneStatus,
		SnapshotPath: a.snapshotPath(),
		LockPath:     a.cfg.LockPath(),
		Log:          a.log,
	}
	if !withHistory {
		return r
	}
	if store := a.openHistory(ctx); store != nil {
		r.History = store
	}
	return r
}
