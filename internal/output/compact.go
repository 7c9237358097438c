package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/taskdigest/internal/archive"
	"github.com/twiced-technology-gmbh/taskdigest/internal/classify"
	"github.com/twiced-technology-gmbh/taskdigest/internal/digest"
	"github.com/twiced-technology-gmbh/taskdigest/internal/history"
)

// TaskCompact renders task rows in one-line-per-record compact format.
func TaskCompact(w io.Writer, rows []TaskRow) {
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}
	for i := range rows {
		fmt.Fprintln(w, formatTaskLine(&rows[i]))
	}
}

// GroupedCompact renders group counts on one line.
func GroupedCompact(w io.Writer, gs classify.GroupedSummary) {
	parts := make([]string, 0, len(gs.Groups))
	for _, g := range gs.Groups {
		parts = append(parts, g.Key+"="+strconv.Itoa(g.Total))
	}
	fmt.Fprintln(w, gs.Field+": "+strings.Join(parts, " "))
}

// RunCompact renders a run outcome on one line.
func RunCompact(w io.Writer, res *digest.Result) {
	c := res.Counts
	fmt.Fprintf(w, "run %s: high=%d today=%d overdue=%d old=%d nodue=%d archived=%d deleted=%d\n",
		shortID(res.RunID), c.HighPriority, c.DueToday, c.Overdue, c.OverdueOld, c.NoDue,
		len(res.Archived.Moved), len(res.Cleaned.Removed))
}

// ArchiveCompact renders archived reports one per line.
func ArchiveCompact(w io.Writer, entries []archive.Entry) {
	for _, e := range entries {
		line := e.Name + " age:" + FormatDuration(e.Age)
		if e.Expired {
			line += " expired"
		}
		fmt.Fprintln(w, line)
	}
}

// HistoryCompact renders recorded runs one per line.
func HistoryCompact(w io.Writer, runs []history.Run) {
	for _, r := range runs {
		c := r.Counts
		line := fmt.Sprintf("%s %s %s %d/%d/%d/%d/%d", shortID(r.ID), r.StartedAt.Local().Format("2006-01-02T15:04"),
			r.Outcome, c.HighPriority, c.DueToday, c.Overdue, c.OverdueOld, c.NoDue)
		if r.Error != "" {
			line += " error:" + strconv.Quote(r.Error)
		}
		fmt.Fprintln(w, line)
	}
}

// formatTaskLine builds the one-line representation of a task.
func formatTaskLine(r *TaskRow) string {
	line := r.ID + " [" + r.Status + "/" + r.Priority + "] " + r.Title + " (" + r.Project + ")"
	if r.Due != nil {
		line += " due:" + r.Due.String()
	}
	if len(r.Buckets) > 0 {
		line += " " + strings.Join(r.Buckets, ",")
	}
	return line
}
