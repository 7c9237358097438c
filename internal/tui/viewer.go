// Package tui implements the terminal report viewer.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"

	"github.com/twiced-technology-gmbh/taskdigest/internal/report"
)

// mode is the report format currently shown.
type mode int

const (
	modeMarkdown mode = iota
	modeText
)

func (m mode) format() string {
	if m == modeText {
		return report.FormatText
	}
	return report.FormatMarkdown
}

// Layout constants.
const (
	viewerChrome = 1 // status bar below the viewport
	tickInterval = 30 * time.Second
)

type keyMap struct {
	Quit   key.Binding
	Toggle key.Binding
	Reload key.Binding
	Top    key.Binding
	Bottom key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		Toggle: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "md/txt")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Top:    key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom: key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	}
}

// RenderFunc turns a Markdown document into terminal output for a width.
type RenderFunc func(md string, width int) (string, error)

// Viewer is the bubbletea model showing the latest report.
type Viewer struct {
	fs     afero.Fs
	dir    string
	render RenderFunc
	keys   keyMap
	now    func() time.Time

	mode     mode
	vp       viewport.Model
	ready    bool
	width    int
	height   int
	docs     map[mode]string
	loadedAt time.Time
	err      error
}

// NewViewer creates a Viewer for the reports in dir. A nil render uses
// glamour with the terminal's auto-detected style.
func NewViewer(fs afero.Fs, dir string, render RenderFunc) *Viewer {
	if render == nil {
		render = func(md string, width int) (string, error) { return RenderMarkdown(md, width, "") }
	}
	v := &Viewer{fs: fs, dir: dir, render: render, keys: defaultKeys(), now: time.Now, docs: map[mode]string{}}
	v.load()
	return v
}

// Dir returns the directory the viewer reads reports from.
func (v *Viewer) Dir() string { return v.dir }

// WatchNames returns the file names whose changes should reload the viewer.
func (v *Viewer) WatchNames() []string { return report.FileNames() }

// Init implements tea.Model.
func (v *Viewer) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (v *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)
	case tea.WindowSizeMsg:
		v.resize(msg.Width, msg.Height)
		return v, nil
	case ReloadMsg:
		v.load()
		v.refresh(false)
		return v, nil
	case TickMsg:
		return v, tickCmd()
	}

	var cmd tea.Cmd
	v.vp, cmd = v.vp.Update(msg)
	return v, cmd
}

// View implements tea.Model.
func (v *Viewer) View() string {
	if !v.ready {
		return "Loading..."
	}
	return v.vp.View() + "\n" + v.statusBar()
}

func (v *Viewer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Toggle):
		v.mode = 1 - v.mode
		v.refresh(true)
		return v, nil
	case key.Matches(msg, v.keys.Reload):
		v.load()
		v.refresh(false)
		return v, nil
	case key.Matches(msg, v.keys.Top):
		v.vp.GotoTop()
		return v, nil
	case key.Matches(msg, v.keys.Bottom):
		v.vp.GotoBottom()
		return v, nil
	}
	var cmd tea.Cmd
	v.vp, cmd = v.vp.Update(msg)
	return v, cmd
}

func (v *Viewer) resize(width, height int) {
	v.width, v.height = width, height
	h := max(height-viewerChrome, 1)
	if !v.ready {
		v.vp = viewport.New(width, h)
		v.ready = true
	} else {
		v.vp.Width = width
		v.vp.Height = h
	}
	v.refresh(false)
}

// load reads both report files. A missing report is shown as an error.
func (v *Viewer) load() {
	v.err = nil
	for _, m := range []mode{modeMarkdown, modeText} {
		data, err := report.Load(v.fs, v.dir, m.format())
		if err != nil {
			v.err = err
			delete(v.docs, m)
			continue
		}
		v.docs[m] = string(data)
	}
	v.loadedAt = v.now()
}

// refresh re-renders the current document into the viewport.
func (v *Viewer) refresh(top bool) {
	if !v.ready {
		return
	}
	v.vp.SetContent(v.content())
	if top {
		v.vp.GotoTop()
	}
}

func (v *Viewer) content() string {
	doc, ok := v.docs[v.mode]
	if !ok {
		return dimStyle.Render("No report yet. Run 'taskdigest report' to generate one.")
	}
	if v.mode == modeText {
		return doc
	}
	out, err := v.render(doc, v.width)
	if err != nil {
		v.err = err
		return doc
	}
	return out
}

func (v *Viewer) statusBar() string {
	name := report.MarkdownFile
	if v.mode == modeText {
		name = report.TextFile
	}
	status := fmt.Sprintf(" %s | loaded %s | %3.f%% | tab:md/txt r:reload q:quit",
		name, v.loadedAt.Format("15:04:05"), v.vp.ScrollPercent()*100) //nolint:mnd // percent
	status = truncate(status, v.width)
	if v.err != nil {
		return errorStyle.Render(truncate("Error: "+v.err.Error(), v.width)) + "\n" + statusBarStyle.Render(status)
	}
	return statusBarStyle.Render(status)
}

// --- Messages ---

// ReloadMsg is sent by the file watcher to trigger a reload.
type ReloadMsg struct{}

// TickMsg is sent periodically so the status bar stays current.
type TickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return TickMsg{} })
}

// --- Styles ---

var (
	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || lipgloss.Width(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 { //nolint:mnd // room for the ellipsis
		return string(r[:min(len(r), maxLen)])
	}
	cut := min(len(r), maxLen-3) //nolint:mnd // room for the ellipsis
	return strings.TrimRight(string(r[:cut]), " ") + "..."
}
