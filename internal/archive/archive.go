// Package archive moves previous reports aside under a timestamped name and
// prunes archived reports past their retention. Failures are logged and
// reported in the result, never returned.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// SuffixLayout is the timestamp appended to archived report names.
const SuffixLayout = "2006_01_02_150405"

// DefaultRetention is how long archived reports are kept.
const DefaultRetention = 7 * 24 * time.Hour

const dirMode = 0o750

// Manager archives and prunes the reports of one output directory.
type Manager struct {
	fs        afero.Fs
	srcDir    string
	dir       string
	names     []string
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetention sets how long archived reports are kept.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.retention = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// New returns a Manager that archives the named report files of srcDir into
// dir.
func New(fsys afero.Fs, srcDir, dir string, names []string, opts ...Option) *Manager {
	m := &Manager{
		fs:        fsys,
		srcDir:    srcDir,
		dir:       dir,
		names:     names,
		retention: DefaultRetention,
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.With("component", "archive")
	return m
}

// Dir returns the archive directory.
func (m *Manager) Dir() string { return m.dir }

// Move is one archived file.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Failure is a file that could not be archived or removed.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ArchiveResult summarizes an Archive call.
type ArchiveResult struct {
	Moved  []Move    `json:"moved"`
	Failed []Failure `json:"failed,omitempty"`
}

// CleanupResult summarizes a Cleanup call.
type CleanupResult struct {
	Removed []string  `json:"removed"`
	Kept    int       `json:"kept"`
	Failed  []Failure `json:"failed,omitempty"`
}

// Name returns the archived name of a report file: the stem, an underscore,
// the timestamp, then the original extension.
func Name(file string, at time.Time) string {
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	return stem + "_" + at.Format(SuffixLayout) + ext
}

// Archive moves every existing report file into the archive directory.
// Missing files are skipped.
func (m *Manager) Archive() ArchiveResult {
	res := ArchiveResult{Moved: []Move{}}
	at := m.now()

	for _, name := range m.names {
		src := filepath.Join(m.srcDir, name)
		if _, err := m.fs.Stat(src); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				res.Failed = append(res.Failed, m.failure("stat report", src, err))
			}
			continue
		}
		if err := m.fs.MkdirAll(m.dir, dirMode); err != nil {
			res.Failed = append(res.Failed, m.failure("create archive directory", m.dir, err))
			return res
		}

		dest := m.uniquePath(filepath.Join(m.dir, Name(name, at)))
		if err := m.move(src, dest); err != nil {
			res.Failed = append(res.Failed, m.failure("archive report", src, err))
			continue
		}
		m.log.Info("archived report", "from", src, "to", dest)
		res.Moved = append(res.Moved, Move{From: src, To: dest})
	}
	return res
}

// Cleanup removes archived reports whose modification time is older than
// the retention. Reports archived next to the live ones by older versions
// are swept as well.
func (m *Manager) Cleanup() CleanupResult {
	res := CleanupResult{Removed: []string{}}
	cutoff := m.now().Add(-m.retention)

	entries, err := m.scan()
	if err != nil {
		res.Failed = append(res.Failed, m.failure("list archive", m.dir, err))
	}
	for _, e := range entries {
		if !e.ModTime.Before(cutoff) {
			res.Kept++
			continue
		}
		if err := m.fs.Remove(e.Path); err != nil {
			res.Failed = append(res.Failed, m.failure("delete old report", e.Path, err))
			continue
		}
		m.log.Info("deleted old report", "path", e.Path, "age", e.Age.Round(time.Minute).String())
		res.Removed = append(res.Removed, e.Path)
	}
	return res
}

// Entry is one archived report.
type Entry struct {
	Name    string        `json:"name"`
	Path    string        `json:"path"`
	Size    int64         `json:"size"`
	ModTime time.Time     `json:"modified"`
	Age     time.Duration `json:"age"`
	Expired bool          `json:"expired"`
}

// List returns archived reports, newest first.
func (m *Manager) List() ([]Entry, error) {
	entries, err := m.scan()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModTime.After(entries[j].ModTime)
	})
	return entries, nil
}

func (m *Manager) scan() ([]Entry, error) {
	now := m.now()
	dirs := []string{m.dir}
	if filepath.Clean(m.dir) != filepath.Clean(m.srcDir) {
		dirs = append(dirs, m.srcDir)
	}

	var out []Entry
	var firstErr error
	for _, dir := range dirs {
		infos, err := afero.ReadDir(m.fs, dir)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) && firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, info := range infos {
			if info.IsDir() || !m.isArchived(info.Name()) {
				continue
			}
			age := now.Sub(info.ModTime())
			out = append(out, Entry{
				Name:    info.Name(),
				Path:    filepath.Join(dir, info.Name()),
				Size:    info.Size(),
				ModTime: info.ModTime(),
				Age:     age,
				Expired: age > m.retention,
			})
		}
	}
	return out, firstErr
}

// isArchived reports whether file is a suffixed copy of one of the report
// names. The live report files themselves never match.
func (m *Manager) isArchived(file string) bool {
	for _, name := range m.names {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		if ok, _ := filepath.Match(stem+"_*"+ext, file); ok {
			return true
		}
	}
	return false
}

func (m *Manager) uniquePath(path string) string {
	if _, err := m.fs.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := m.fs.Stat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
	}
}

// move renames src to dest, falling back to copy and delete when the two
// are on different devices. The modification time is preserved either way.
func (m *Manager) move(src, dest string) error {
	if err := m.fs.Rename(src, dest); err == nil {
		return nil
	}
	info, err := m.fs.Stat(src)
	if err != nil {
		return err
	}
	data, err := afero.ReadFile(m.fs, src)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(m.fs, dest, data, info.Mode().Perm()); err != nil {
		return err
	}
	_ = m.fs.Chtimes(dest, info.ModTime(), info.ModTime())
	return m.fs.Remove(src)
}

func (m *Manager) failure(op, path string, err error) Failure {
	m.log.Error(op+" failed", "path", path, "error", err)
	return Failure{Path: path, Error: fmt.Sprintf("%s: %v", op, err)}
}
