package projects

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/twiced-technology-gmbh/taskdigest/internal/filelock"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

// localISO is the zone-less timestamp layout older snapshot files carry.
const localISO = "2006-01-02T15:04:05.999999"

const snapshotFileMode = 0o600

// Snapshot is the on-disk form of the mapping.
type Snapshot struct {
	GeneratedAt string            `json:"generated_at"`
	Projects    map[string]string `json:"projects"`
}

// LoadSnapshot seeds the cache from a snapshot file. A missing file is not
// an error. The snapshot's generation time becomes the refresh time, so an
// old snapshot is still reloaded on first use.
func (c *Cache) LoadSnapshot(path string) error {
	unlock, err := lockFor(path)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := os.ReadFile(path) //nolint:gosec // path from config
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading project snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing project snapshot %s: %w", path, err)
	}
	at, err := parseGeneratedAt(snap.GeneratedAt)
	if err != nil {
		return fmt.Errorf("parsing project snapshot %s: %w", path, err)
	}

	names := make(map[string]string, len(snap.Projects))
	for id, name := range snap.Projects {
		names[task.NormalizeID(id)] = name
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Never replace a mapping that is newer than the file.
	if c.names != nil && !at.After(c.refreshedAt) {
		return nil
	}
	c.set(names, at)
	c.log.Debug("loaded project snapshot", "path", path, "count", len(names), "generated_at", at)
	return nil
}

// SaveSnapshot writes the current mapping to path. It does nothing if the
// mapping was never loaded.
func (c *Cache) SaveSnapshot(path string) error {
	c.mu.Lock()
	if c.names == nil {
		c.mu.Unlock()
		return nil
	}
	snap := Snapshot{
		GeneratedAt: c.refreshedAt.Format(time.RFC3339Nano),
		Projects:    c.names,
	}
	data, err := json.MarshalIndent(snap, "", "    ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding project snapshot: %w", err)
	}

	unlock, err := lockFor(path)
	if err != nil {
		return err
	}
	defer unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, snapshotFileMode); err != nil {
		return fmt.Errorf("writing project snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing project snapshot: %w", err)
	}
	return nil
}

func lockFor(path string) (func(), error) {
	const dirMode = 0o750
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	l, err := filelock.Acquire(path + ".lock")
	if err != nil {
		return nil, fmt.Errorf("locking project snapshot: %w", err)
	}
	return func() { _ = l.Release() }, nil
}

func parseGeneratedAt(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(localISO, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid generated_at %q", s)
	}
	return t, nil
}
