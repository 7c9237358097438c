package classify

import (
	"slices"
	"strings"

	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

// FilterOptions defines which tasks to include.
type FilterOptions struct {
	Buckets    []string // bucket names; a task matches if it is in any of them
	Statuses   []string // case-insensitive
	Priorities []string // case-insensitive
	Project    string   // case-insensitive match on the resolved project name, or an exact id
	Search     string   // case-insensitive substring match on the title

	IncludeDone bool

	// Today and Rules are used when Buckets is set.
	Today date.Date
	Rules Options
}

// Filter returns tasks matching all specified criteria (AND logic). names
// resolves project ids and may be nil when Project is empty.
func Filter(tasks []task.Task, opts FilterOptions, names func(id string) string) []task.Task {
	var result []task.Task
	for i := range tasks {
		if matches(&tasks[i], opts, names) {
			result = append(result, tasks[i])
		}
	}
	return result
}

func matches(t *task.Task, opts FilterOptions, names func(string) string) bool {
	if t.Done && !opts.IncludeDone {
		return false
	}
	if len(opts.Statuses) > 0 && !containsFold(opts.Statuses, t.Status) {
		return false
	}
	if len(opts.Priorities) > 0 && !containsFold(opts.Priorities, t.Priority) {
		return false
	}
	if opts.Project != "" && !matchesProject(t, opts.Project, names) {
		return false
	}
	if opts.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(opts.Search)) {
		return false
	}
	if len(opts.Buckets) > 0 {
		in := Of(t, opts.Today, opts.Rules)
		if !slices.ContainsFunc(opts.Buckets, func(b string) bool { return slices.Contains(in, b) }) {
			return false
		}
	}
	return true
}

func matchesProject(t *task.Task, project string, names func(string) string) bool {
	if t.ProjectID != "" && t.ProjectID == task.NormalizeID(project) {
		return true
	}
	if names == nil {
		return false
	}
	return strings.EqualFold(names(t.ProjectID), project)
}

func containsFold(slice []string, item string) bool {
	return slices.ContainsFunc(slice, func(s string) bool { return strings.EqualFold(s, item) })
}
