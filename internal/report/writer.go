package report

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
)

// Report file names in the output directory.
const (
	MarkdownFile = "tasks_report.md"
	TextFile     = "tasks_report.txt"
)

// Formats accepted by --format.
const (
	FormatMarkdown = "md"
	FormatText     = "txt"
	FormatBoth     = "both"
)

const (
	dirMode  = 0o750
	fileMode = 0o644
)

// FileNames returns both report file names.
func FileNames() []string {
	return []string{MarkdownFile, TextFile}
}

// FileFor returns the report file name for a format.
func FileFor(format string) (string, error) {
	switch format {
	case FormatMarkdown, "markdown":
		return MarkdownFile, nil
	case FormatText, "text":
		return TextFile, nil
	}
	return "", clierr.Newf(clierr.InvalidInput, "invalid format %q; valid: %s, %s", format, FormatMarkdown, FormatText)
}

// Render returns the document for format.
func Render(r Report, format string) ([]byte, error) {
	name, err := FileFor(format)
	if err != nil {
		return nil, err
	}
	if name == MarkdownFile {
		return Markdown(r), nil
	}
	return Text(r), nil
}

// Writer writes rendered reports into a directory.
type Writer struct {
	fs  afero.Fs
	dir string
}

// NewWriter returns a Writer for dir on fs.
func NewWriter(fsys afero.Fs, dir string) *Writer {
	return &Writer{fs: fsys, dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write renders r in both formats and writes the files. It returns the
// written paths.
func (w *Writer) Write(r Report) ([]string, error) {
	docs := []struct {
		name string
		data []byte
	}{
		{MarkdownFile, Markdown(r)},
		{TextFile, Text(r)},
	}

	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		p, err := w.WriteFile(d.name, d.data)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// WriteFile atomically replaces name in the output directory with data.
func (w *Writer) WriteFile(name string, data []byte) (string, error) {
	if err := w.fs.MkdirAll(w.dir, dirMode); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := afero.TempFile(w.fs, w.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = w.fs.Remove(tmpName)
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = w.fs.Remove(tmpName)
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	_ = w.fs.Chmod(tmpName, fileMode)

	dest := filepath.Join(w.dir, name)
	if err := w.fs.Rename(tmpName, dest); err != nil {
		_ = w.fs.Remove(tmpName)
		return "", fmt.Errorf("replacing %s: %w", name, err)
	}
	return dest, nil
}

// Load reads the latest report in format from dir.
func Load(fsys afero.Fs, dir, format string) ([]byte, error) {
	name, err := FileFor(format)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name)
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, clierr.Newf(clierr.ReportNotFound, "no report at %s (run 'taskdigest report' first)", path).
			WithDetails(map[string]any{"path": path})
	}
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	return data, nil
}
