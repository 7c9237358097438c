// Package report renders classified tasks as Markdown and plain-text
// documents and writes them to the output directory.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/twiced-technology-gmbh/taskdigest/internal/classify"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

// TimestampLayout is the header timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

// Report is everything a rendered document contains.
type Report struct {
	GeneratedAt time.Time
	Buckets     classify.Buckets
	// OverdueDays is the recently-overdue window used for the section title
	// and notes. Zero means 7.
	OverdueDays int
	// Project resolves a project id to its display name. Nil resolves every
	// id to task.UnknownProject.
	Project func(id string) string
}

type section struct {
	title string
	tasks []task.Task
}

func (r Report) sections() []section {
	return []section{
		{"High Priority", r.Buckets.HighPriority},
		{"Due Today", r.Buckets.DueToday},
		{fmt.Sprintf("Overdue (Last %d Days)", r.window()), r.Buckets.Overdue},
	}
}

func (r Report) window() int {
	if r.OverdueDays < 1 {
		return classify.DefaultOptions().OverdueDays
	}
	return r.OverdueDays
}

func (r Report) title() string {
	return fmt.Sprintf("Task Report (%s)", r.GeneratedAt.Format(TimestampLayout))
}

func (r Report) projectName(id string) string {
	if r.Project == nil {
		return task.UnknownProject
	}
	return r.Project(id)
}

func (r Report) notes() []string {
	var notes []string
	if n := r.Buckets.OverdueOld; n > 0 {
		notes = append(notes, fmt.Sprintf("%s overdue for more than %d days.", countTasks(n), r.window()))
	}
	if n := r.Buckets.NoDue; n > 0 {
		notes = append(notes, fmt.Sprintf("%s no due date.", countHave(n)))
	}
	return notes
}

func countTasks(n int) string {
	if n == 1 {
		return "1 task is"
	}
	return fmt.Sprintf("%d tasks are", n)
}

func countHave(n int) string {
	if n == 1 {
		return "1 task has"
	}
	return fmt.Sprintf("%d tasks have", n)
}

// details is the ", Due: ..., Status: ..." tail shared by both formats.
func (r Report) details(t *task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, " (Project: %s)", r.projectName(t.ProjectID))
	if t.Due != nil {
		fmt.Fprintf(&b, ", Due: %s", t.Due.String())
	}
	if t.Status != "" {
		fmt.Fprintf(&b, ", Status: %s", t.Status)
	}
	return b.String()
}

// Markdown renders r as a Markdown document. Output depends only on r.
func Markdown(r Report) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", r.title())

	for _, s := range r.sections() {
		if len(s.tasks) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n## %s\n\n", s.title)
		for i := range s.tasks {
			t := &s.tasks[i]
			fmt.Fprintf(&buf, "- [ ] %s%s\n", markdownLink(t), r.details(t))
		}
	}

	for _, n := range r.notes() {
		fmt.Fprintf(&buf, "\n*Note: %s*\n", n)
	}
	if r.Buckets.Empty() {
		buf.WriteString("\nNothing due. Enjoy your day.\n")
	}
	return buf.Bytes()
}

// Text renders r as a plain-text document. Output depends only on r.
func Text(r Report) []byte {
	var buf bytes.Buffer
	title := r.title()
	fmt.Fprintf(&buf, "%s\n%s\n", title, strings.Repeat("=", len(title)))

	for _, s := range r.sections() {
		if len(s.tasks) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n%s:\n", s.title)
		for i := range s.tasks {
			t := &s.tasks[i]
			fmt.Fprintf(&buf, "- %s%s\n", t.Title, r.details(t))
			if t.URL != "" {
				fmt.Fprintf(&buf, "  %s\n", t.URL)
			}
		}
	}

	for _, n := range r.notes() {
		fmt.Fprintf(&buf, "\nNote: %s\n", n)
	}
	if r.Buckets.Empty() {
		buf.WriteString("\nNothing due. Enjoy your day.\n")
	}
	return buf.Bytes()
}

var linkEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)

func markdownLink(t *task.Task) string {
	label := linkEscaper.Replace(t.Title)
	if t.URL == "" {
		return label
	}
	return fmt.Sprintf("[%s](%s)", label, t.URL)
}
