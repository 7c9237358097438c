// Package schedule runs the digest repeatedly on a cron expression.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler fires a Job on a standard five-field cron expression. A firing
// that comes while the previous one is still running is skipped.
type Scheduler struct {
	spec  string
	sched cron.Schedule
	job   Job
	log   *slog.Logger
	loc   *time.Location

	running atomic.Bool
	wg      sync.WaitGroup
	runs    atomic.Int64
	skipped atomic.Int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithLocation sets the time zone the expression is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// New parses spec and returns a Scheduler for job.
func New(spec string, job Job, opts ...Option) (*Scheduler, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s := &Scheduler{spec: spec, sched: sched, job: job, log: slog.Default(), loc: time.Local}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Spec returns the cron expression.
func (s *Scheduler) Spec() string { return s.spec }

// Next returns the first firing time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.sched.Next(t.In(s.loc))
}

// Stats returns how many firings ran and how many were skipped.
func (s *Scheduler) Stats() (runs, skipped int64) {
	return s.runs.Load(), s.skipped.Load()
}

// Run blocks until ctx is canceled, firing the job on schedule. If
// immediately is set the job also runs once at start. Run waits for an
// in-flight job before returning.
func (s *Scheduler) Run(ctx context.Context, immediately bool) error {
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(cronLogger{s.log})),
	)
	c.Schedule(s.sched, cron.FuncJob(func() { s.Fire(ctx) }))

	s.log.Info("scheduler started", "spec", s.spec, "next", s.Next(time.Now()))
	if immediately {
		s.Fire(ctx)
	}
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
	return nil
}

// Fire runs the job unless a previous firing is still in progress. It
// reports whether the job ran.
func (s *Scheduler) Fire(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.log.Warn("previous run still in progress, skipping")
		return false
	}
	s.wg.Add(1)
	defer func() {
		s.running.Store(false)
		s.wg.Done()
	}()

	s.runs.Add(1)
	if err := s.job(ctx); err != nil {
		s.log.Error("scheduled run failed", "error", err)
	}
	return true
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
