package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

func sample() []task.Task {
	a := mk("a", dueIn(0), "High")
	a.ProjectID = "p1"
	b := mk("b", dueIn(-2), "Low")
	b.Status = "In progress"
	c := mk("c", nil, "")
	c.Title = "Call the bank"
	d := mk("d", dueIn(-1), "High")
	d.Done = true
	return []task.Task{a, b, c, d}
}

func names(id string) string {
	if id == "p1" {
		return "Home"
	}
	return task.UnknownProject
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		opts FilterOptions
		want []string
	}{
		{"open only", FilterOptions{}, []string{"a", "b", "c"}},
		{"include done", FilterOptions{IncludeDone: true}, []string{"a", "b", "c", "d"}},
		{"status", FilterOptions{Statuses: []string{"in progress"}}, []string{"b"}},
		{"priority", FilterOptions{Priorities: []string{"high"}}, []string{"a"}},
		{"project name", FilterOptions{Project: "home"}, []string{"a"}},
		{"project id", FilterOptions{Project: "P-1"}, []string{"a"}},
		{"unknown project", FilterOptions{Project: task.UnknownProject}, []string{"b", "c"}},
		{"search", FilterOptions{Search: "BANK"}, []string{"c"}},
		{"bucket", FilterOptions{Buckets: []string{BucketOverdue, BucketNoDue}, Today: today, Rules: DefaultOptions()}, []string{"b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sample(), tt.opts, names)))
		})
	}
}

func TestSort(t *testing.T) {
	tests := []struct {
		field   string
		reverse bool
		want    []string
	}{
		{SortFetch, false, []string{"a", "b", "c", "d"}},
		{SortFetch, true, []string{"d", "c", "b", "a"}},
		{SortDue, false, []string{"b", "d", "a", "c"}},
		{SortTitle, false, []string{"c", "a", "b", "d"}},
		{SortPriority, false, []string{"a", "d", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			tasks := sample()
			Sort(tasks, tt.field, tt.reverse, "High")
			assert.Equal(t, tt.want, ids(tasks))
		})
	}
}

func TestGroupBy(t *testing.T) {
	g := GroupBy(sample(), GroupBucket, today, DefaultOptions(), names)
	assert.Equal(t, []GroupSummary{
		{Key: BucketHighPriority, Total: 1},
		{Key: BucketDueToday, Total: 1},
		{Key: BucketOverdue, Total: 1},
		{Key: BucketNoDue, Total: 1},
	}, g.Groups)

	g = GroupBy(sample(), GroupProject, today, DefaultOptions(), names)
	assert.Equal(t, []GroupSummary{{Key: "Home", Total: 1}, {Key: task.UnknownProject, Total: 2}}, g.Groups)
}
