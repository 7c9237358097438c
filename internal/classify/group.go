package classify

import (
	"sort"

	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

// Group-by fields.
const (
	GroupProject  = "project"
	GroupStatus   = "status"
	GroupPriority = "priority"
	GroupBucket   = "bucket"
)

// GroupedSummary holds task counts grouped by a field.
type GroupedSummary struct {
	Field  string         `json:"field"`
	Groups []GroupSummary `json:"groups"`
}

// GroupSummary is one group within a grouped view.
type GroupSummary struct {
	Key   string `json:"key"`
	Total int    `json:"total"`
}

// GroupBy counts open tasks per value of field. A task in several buckets
// is counted in each when grouping by bucket.
func GroupBy(tasks []task.Task, field string, today date.Date, rules Options, names func(string) string) GroupedSummary {
	counts := make(map[string]int)
	for i := range tasks {
		t := &tasks[i]
		if t.Done {
			continue
		}
		for _, key := range groupKeys(t, field, today, rules, names) {
			counts[key]++
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sortGroupKeys(keys, field)

	result := GroupedSummary{Field: field, Groups: make([]GroupSummary, 0, len(keys))}
	for _, k := range keys {
		result.Groups = append(result.Groups, GroupSummary{Key: k, Total: counts[k]})
	}
	return result
}

func groupKeys(t *task.Task, field string, today date.Date, rules Options, names func(string) string) []string {
	switch field {
	case GroupProject:
		if names == nil {
			return []string{t.ProjectID}
		}
		return []string{names(t.ProjectID)}
	case GroupStatus:
		return []string{orNone(t.Status)}
	case GroupPriority:
		return []string{orNone(t.Priority)}
	case GroupBucket:
		return Of(t, today, rules)
	default:
		return []string{"(all)"}
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func sortGroupKeys(keys []string, field string) {
	if field != GroupBucket {
		sort.Strings(keys)
		return
	}
	order := make(map[string]int)
	for i, b := range BucketNames() {
		order[b] = i
	}
	sort.SliceStable(keys, func(i, j int) bool { return order[keys[i]] < order[keys[j]] })
}

// ValidGroupByFields returns the list of valid --group-by field names.
func ValidGroupByFields() []string {
	return []string{GroupProject, GroupStatus, GroupPriority, GroupBucket}
}
