package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskdigest/internal/classify"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "target", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func run(start time.Time, outcome string) Run {
	return Run{
		ID:         uuid.NewString(),
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Outcome:    outcome,
		Counts:     classify.Counts{HighPriority: 1, DueToday: 2, Overdue: 3, OverdueOld: 4, NoDue: 5},
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.October, 14, 7, 0, 0, 0, time.UTC)

	older := run(base, OutcomeOK)
	newer := run(base.Add(24*time.Hour), OutcomeFailed)
	newer.Error = "querying tasks database: unauthorized"
	newer.Trigger = TriggerSchedule
	require.NoError(t, s.Record(ctx, older))
	require.NoError(t, s.Record(ctx, newer))

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, OutcomeFailed, runs[0].Outcome)
	assert.Equal(t, newer.Error, runs[0].Error)
	assert.Equal(t, TriggerSchedule, runs[0].Trigger)
	assert.Equal(t, older.Counts, runs[1].Counts)
	assert.Equal(t, TriggerManual, runs[1].Trigger)
	assert.True(t, runs[1].StartedAt.Equal(base))
	assert.Equal(t, 1500*time.Millisecond, runs[1].Duration())

	limited, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecord_DuplicateIDFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := run(time.Now(), OutcomeOK)

	require.NoError(t, s.Record(ctx, r))
	assert.Error(t, s.Record(ctx, r))
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.October, 16, 7, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, run(now.Add(-40*24*time.Hour), OutcomeOK)))
	require.NoError(t, s.Record(ctx, run(now.Add(-time.Hour), OutcomeOK)))

	n, err := s.Prune(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, run(time.Now(), OutcomeOK)))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
