package classify

import (
	"sort"
	"strings"

	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

// Sort fields.
const (
	SortFetch    = "fetch"
	SortDue      = "due"
	SortTitle    = "title"
	SortPriority = "priority"
	SortStatus   = "status"
)

// SortFields returns the valid --sort values.
func SortFields() []string {
	return []string{SortFetch, SortDue, SortTitle, SortPriority, SortStatus}
}

// Sort sorts tasks in place by field. Ties keep fetch order. For priority,
// the high level sorts first and tasks without a priority sort last.
func Sort(tasks []task.Task, field string, reverse bool, high string) {
	if field == SortFetch || field == "" {
		if reverse {
			for i, j := 0, len(tasks)-1; i < j; i, j = i+1, j-1 {
				tasks[i], tasks[j] = tasks[j], tasks[i]
			}
		}
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if reverse {
			return compareTasks(&tasks[j], &tasks[i], field, high)
		}
		return compareTasks(&tasks[i], &tasks[j], field, high)
	})
}

func compareTasks(a, b *task.Task, field, high string) bool {
	switch field {
	case SortDue:
		return compareDue(a, b)
	case SortTitle:
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	case SortPriority:
		return priorityRank(a, high) < priorityRank(b, high)
	case SortStatus:
		return strings.ToLower(a.Status) < strings.ToLower(b.Status)
	default:
		return false
	}
}

func priorityRank(t *task.Task, high string) int {
	switch {
	case t.HasPriority(high):
		return 0
	case t.Priority == "":
		return 2 //nolint:mnd // no priority sorts last
	default:
		return 1
	}
}

func compareDue(a, b *task.Task) bool {
	if a.Due == nil && b.Due == nil {
		return false
	}
	if a.Due == nil {
		return false // nil sorts last
	}
	if b.Due == nil {
		return true
	}
	return a.Due.Before(*b.Due)
}
