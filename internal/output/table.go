package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/twiced-technology-gmbh/taskdigest/internal/archive"
	"github.com/twiced-technology-gmbh/taskdigest/internal/classify"
	"github.com/twiced-technology-gmbh/taskdigest/internal/digest"
	"github.com/twiced-technology-gmbh/taskdigest/internal/history"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Bucket colors follow the report's urgency order.
	bucketStyles = map[string]lipgloss.Style{
		classify.BucketHighPriority: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		classify.BucketDueToday:     lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		classify.BucketOverdue:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		classify.BucketOverdueOld:   lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		classify.BucketNoDue:        lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}

	priorityStyles = map[string]lipgloss.Style{
		"high":   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		"medium": lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		"low":    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
)

// DisableColor strips all styling from table output.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	okStyle = lipgloss.NewStyle()
	failStyle = lipgloss.NewStyle()
	bucketStyles = map[string]lipgloss.Style{}
	priorityStyles = map[string]lipgloss.Style{}
}

// TaskTable renders task rows as a formatted table.
func TaskTable(w io.Writer, rows []TaskRow) {
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	const pad = 2
	statusW, prioW, titleW, projW, dueW := 8, 10, 7, 9, 12
	for i := range rows {
		r := &rows[i]
		statusW = max(statusW, len(r.Status)+pad)
		prioW = max(prioW, len(r.Priority)+pad)
		titleW = max(titleW, min(len(r.Title)+pad, 50)) //nolint:mnd // max title column width
		projW = max(projW, min(len(r.Project)+pad, 24)) //nolint:mnd // max project column width
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %s",
		titleW, "TITLE", projW, "PROJECT", statusW, "STATUS", prioW, "PRIORITY", dueW, "DUE", "BUCKETS")
	fmt.Fprintln(w, headerStyle.Render(header))

	for i := range rows {
		r := &rows[i]
		due := dimStyle.Render("--")
		if r.Due != nil {
			due = r.Due.String()
		}
		row := fmt.Sprintf("%s %s %s %s %s %s",
			padRight(truncate(r.Title, titleW-pad), titleW),
			padRight(truncate(r.Project, projW-pad), projW),
			padRight(stringOrDash(r.Status), statusW),
			padRight(styledValue(r.Priority, priorityStyles), prioW),
			padRight(due, dueW),
			bucketList(r.Buckets))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// GroupedTable renders task counts per group.
func GroupedTable(w io.Writer, gs classify.GroupedSummary) {
	if len(gs.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "No groups found.")
		return
	}
	keyW := len(gs.Field) + 2
	for _, g := range gs.Groups {
		keyW = max(keyW, lipgloss.Width(g.Key)+2)
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %6s", keyW, strings.ToUpper(gs.Field), "COUNT")))
	for _, g := range gs.Groups {
		fmt.Fprintf(w, "%s %6d\n", padRight(styledValue(g.Key, bucketStyles), keyW), g.Total)
	}
}

// RunSummary renders the outcome of a pipeline run.
func RunSummary(w io.Writer, res *digest.Result) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render("Task report generated"))
	CountsTable(w, res.Counts)
	if res.Skipped > 0 {
		printField(w, "Skipped", fmt.Sprintf("%d malformed records", res.Skipped))
	}
	for _, f := range res.Files {
		printField(w, "Wrote", f)
	}
	printField(w, "Archived", strconv.Itoa(len(res.Archived.Moved)))
	printField(w, "Deleted", strconv.Itoa(len(res.Cleaned.Removed)))
	for _, f := range append(res.Archived.Failed, res.Cleaned.Failed...) {
		printField(w, "Warning", failStyle.Render(f.Error))
	}
}

// CountsTable renders bucket sizes.
func CountsTable(w io.Writer, c classify.Counts) {
	values := []int{c.HighPriority, c.DueToday, c.Overdue, c.OverdueOld, c.NoDue}
	for i, name := range classify.BucketNames() {
		printField(w, styledValue(name, bucketStyles), strconv.Itoa(values[i]))
	}
}

// ArchiveTable renders archived report entries.
func ArchiveTable(w io.Writer, entries []archive.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No archived reports.")
		return
	}
	nameW := 6
	for _, e := range entries {
		nameW = max(nameW, len(e.Name)+2)
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %-17s %8s %s", nameW, "NAME", "MODIFIED", "AGE", "SIZE")))
	for _, e := range entries {
		age := FormatDuration(e.Age)
		if e.Expired {
			age = dimStyle.Render(age)
		}
		fmt.Fprintf(w, "%-*s %-17s %s %d\n", nameW, e.Name, e.ModTime.Format("2006-01-02 15:04"), padLeft(age, 8), e.Size) //nolint:mnd // column width
	}
}

// HistoryTable renders recorded runs.
func HistoryTable(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "No runs recorded.")
		return
	}
	header := fmt.Sprintf("%-8s %-19s %-8s %-9s %8s  %s", "RUN", "STARTED", "OUTCOME", "TRIGGER", "DURATION", "HIGH/TODAY/OVERDUE/OLD/NODUE")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, r := range runs {
		outcome := okStyle.Render(r.Outcome)
		if r.Outcome != history.OutcomeOK {
			outcome = failStyle.Render(r.Outcome)
		}
		c := r.Counts
		fmt.Fprintf(w, "%-8s %-19s %s %-9s %8s  %d/%d/%d/%d/%d\n",
			shortID(r.ID), r.StartedAt.Local().Format("2006-01-02 15:04:05"), padRight(outcome, 8), r.Trigger, //nolint:mnd // column width
			r.Duration().Round(time.Millisecond), c.HighPriority, c.DueToday, c.Overdue, c.OverdueOld, c.NoDue)
		if r.Error != "" {
			fmt.Fprintln(w, "         "+dimStyle.Render(r.Error))
		}
	}
}

// ProjectsTable renders the project id to name mapping, sorted by name.
func ProjectsTable(w io.Writer, names map[string]string, refreshed time.Time) {
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "No projects found.")
		return
	}
	projects := sortedProjects(names)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-34s %s", "ID", "NAME")))
	for _, p := range projects {
		fmt.Fprintf(w, "%-34s %s\n", p.ID, p.Name)
	}
	fmt.Fprintln(w, dimStyle.Render("refreshed "+refreshed.Local().Format("2006-01-02 15:04:05")))
}

func sortedProjects(names map[string]string) []task.Project {
	out := make([]task.Project, 0, len(names))
	for id, name := range names {
		out = append(out, task.Project{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", padRight(label+":", 15), value) //nolint:mnd // label column width
}

// FormatDuration renders a duration as human-readable "Xd Yh" or "Xh Ym".
func FormatDuration(d time.Duration) string {
	const hoursPerDay = 24
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if days > 0 {
		return strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h"
	}
	minutes := int(d.Minutes()) % 60 //nolint:mnd // 60 minutes per hour
	return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func padLeft(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return strings.Repeat(" ", width-visible) + s
}

func truncate(s string, n int) string {
	if len(s) <= n || n < 4 { //nolint:mnd // room for the ellipsis
		return s
	}
	return s[:n-3] + "..."
}

func stringOrDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

func bucketList(buckets []string) string {
	if len(buckets) == 0 {
		return dimStyle.Render("--")
	}
	parts := make([]string, 0, len(buckets))
	for _, b := range buckets {
		parts = append(parts, styledValue(b, bucketStyles))
	}
	return strings.Join(parts, ",")
}

func shortID(id string) string {
	const n = 8
	if len(id) > n {
		return id[:n]
	}
	return id
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[strings.ToLower(s)]; ok {
		return st.Render(s)
	}
	return s
}
