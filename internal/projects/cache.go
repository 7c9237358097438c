// Package projects keeps the project id to name mapping used when rendering
// reports. The mapping is reloaded from the workspace only when it is stale.
package projects

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

// DefaultTTL is how long a loaded mapping stays fresh.
const DefaultTTL = 24 * time.Hour

// Fetcher loads the full project set.
type Fetcher interface {
	Projects(ctx context.Context) ([]task.Project, error)
}

// Cache maps project ids to display names.
type Cache struct {
	src Fetcher
	ttl time.Duration
	now func() time.Time
	log *slog.Logger

	mu          sync.Mutex
	names       map[string]string
	refreshedAt time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for refresh messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// New creates an empty cache backed by src. A non-positive ttl means DefaultTTL.
func New(src Fetcher, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{src: src, ttl: ttl, now: time.Now, log: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name returns the display name for id, reloading the mapping first when it
// is stale. Unknown ids resolve to task.UnknownProject. Only a failed reload
// returns an error.
func (c *Cache) Name(ctx context.Context, id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.staleLocked() {
		if err := c.refreshLocked(ctx); err != nil {
			return "", err
		}
	}
	return c.lookupLocked(id), nil
}

// Ensure reloads the mapping if it is stale.
func (c *Cache) Ensure(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.staleLocked() {
		c.log.Debug("project names are up to date", "refreshed_at", c.refreshedAt)
		return nil
	}
	return c.refreshLocked(ctx)
}

// Refresh reloads the mapping unconditionally.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// Lookup resolves id against the current mapping without reloading.
func (c *Cache) Lookup(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookupLocked(id)
}

// Stale reports whether the next Name call will reload.
func (c *Cache) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.staleLocked()
}

// Names returns a copy of the current mapping.
func (c *Cache) Names() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.names)
}

// RefreshedAt returns when the mapping was last loaded; zero if never.
func (c *Cache) RefreshedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshedAt
}

func (c *Cache) staleLocked() bool {
	return c.names == nil || c.now().Sub(c.refreshedAt) > c.ttl
}

func (c *Cache) lookupLocked(id string) string {
	if name, ok := c.names[task.NormalizeID(id)]; ok {
		return name
	}
	return task.UnknownProject
}

func (c *Cache) refreshLocked(ctx context.Context) error {
	c.log.Info("fetching projects")
	projects, err := c.src.Projects(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[task.NormalizeID(p.ID)] = p.Name
	}
	c.set(names, c.now())
	c.log.Info("project names refreshed", "count", len(names))
	return nil
}

func (c *Cache) set(names map[string]string, at time.Time) {
	c.names = names
	c.refreshedAt = at
}
