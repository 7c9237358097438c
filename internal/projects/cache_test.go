package projects

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

type fakeFetcher struct {
	calls    int
	projects []task.Project
	err      error
}

func (f *fakeFetcher) Projects(context.Context) ([]task.Project, error) {
	f.calls++
	return f.projects, f.err
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(src Fetcher) (*Cache, *clock) {
	clk := &clock{t: time.Date(2026, time.October, 16, 7, 0, 0, 0, time.UTC)}
	return New(src, 24*time.Hour, WithClock(clk.now)), clk
}

func TestName_LoadsOnFirstUse(t *testing.T) {
	src := &fakeFetcher{projects: []task.Project{{ID: "AB-CD", Name: "Home"}}}
	c, clk := newTestCache(src)
	ctx := context.Background()

	assert.True(t, c.Stale())
	name, err := c.Name(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, "Home", name)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, clk.t, c.RefreshedAt())
}

func TestName_NoSecondFetchWithinWindow(t *testing.T) {
	src := &fakeFetcher{projects: []task.Project{{ID: "p1", Name: "Home"}}}
	c, clk := newTestCache(src)
	ctx := context.Background()

	_, err := c.Name(ctx, "p1")
	require.NoError(t, err)

	clk.t = clk.t.Add(23 * time.Hour)
	_, err = c.Name(ctx, "p1")
	require.NoError(t, err)
	clk.t = clk.t.Add(time.Hour) // exactly 24h: still fresh
	_, err = c.Name(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	clk.t = clk.t.Add(time.Second)
	_, err = c.Name(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestName_UnknownIDIsPlaceholder(t *testing.T) {
	c, _ := newTestCache(&fakeFetcher{projects: []task.Project{{ID: "p1", Name: "Home"}}})

	name, err := c.Name(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, task.UnknownProject, name)
	assert.Equal(t, task.UnknownProject, c.Lookup(""))
}

func TestName_EmptyProjectSetCountsAsLoaded(t *testing.T) {
	src := &fakeFetcher{}
	c, _ := newTestCache(src)
	ctx := context.Background()

	_, err := c.Name(ctx, "x")
	require.NoError(t, err)
	_, err = c.Name(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
}

func TestName_RefreshFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	c, _ := newTestCache(&fakeFetcher{err: boom})

	_, err := c.Name(context.Background(), "p1")
	assert.ErrorIs(t, err, boom)
	assert.True(t, c.Stale())
}

func TestRefresh_ReplacesMapping(t *testing.T) {
	src := &fakeFetcher{projects: []task.Project{{ID: "p1", Name: "Old"}}}
	c, _ := newTestCache(src)
	ctx := context.Background()
	require.NoError(t, c.Ensure(ctx))

	src.projects = []task.Project{{ID: "p2", Name: "New"}}
	require.NoError(t, c.Refresh(ctx))

	assert.Equal(t, map[string]string{"p2": "New"}, c.Names())
	assert.Equal(t, 2, src.calls)
}

func TestSnapshot_RoundTripSkipsFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target", "notion-projects.json")
	src := &fakeFetcher{projects: []task.Project{{ID: "p1", Name: "Home"}}}
	first, clk := newTestCache(src)
	ctx := context.Background()
	require.NoError(t, first.Ensure(ctx))
	require.NoError(t, first.SaveSnapshot(path))

	second := New(src, 24*time.Hour, WithClock(func() time.Time { return clk.t.Add(time.Hour) }))
	require.NoError(t, second.LoadSnapshot(path))
	name, err := second.Name(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Home", name)
	assert.Equal(t, 1, src.calls)
}

func TestSnapshot_ReadsZonelessTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notion-projects.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
    "generated_at": "2026-10-10T08:15:00.123456",
    "projects": {"1a2b-3c4d": "Garden"}
}`), 0o600))

	c, _ := newTestCache(&fakeFetcher{})
	require.NoError(t, c.LoadSnapshot(path))

	assert.Equal(t, "Garden", c.Lookup("1a2b3c4d"))
	assert.True(t, c.Stale(), "a six-day-old snapshot must be reloaded")
}

func TestSnapshot_MissingFileIsNotAnError(t *testing.T) {
	c, _ := newTestCache(&fakeFetcher{})
	require.NoError(t, c.LoadSnapshot(filepath.Join(t.TempDir(), "none.json")))
	assert.True(t, c.Stale())
}

func TestSaveSnapshot_NothingLoaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	c, _ := newTestCache(&fakeFetcher{})
	require.NoError(t, c.SaveSnapshot(path))
	assert.NoFileExists(t, path)
}
