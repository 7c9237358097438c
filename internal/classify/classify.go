// Package classify sorts open tasks into the report's urgency buckets and
// provides the filter and sort helpers behind the tasks listing.
package classify

import (
	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

// Bucket names, in report order.
const (
	BucketHighPriority = "high-priority"
	BucketDueToday     = "due-today"
	BucketOverdue      = "overdue"
	BucketOverdueOld   = "overdue-old"
	BucketNoDue        = "no-due"
)

// BucketNames returns every bucket name in report order.
func BucketNames() []string {
	return []string{BucketHighPriority, BucketDueToday, BucketOverdue, BucketOverdueOld, BucketNoDue}
}

// Options holds the classification rules.
type Options struct {
	// HighPriority is the priority level listed under high priority.
	HighPriority string
	// OverdueDays is the width of the recently-overdue window.
	OverdueDays int
}

// DefaultOptions returns the stock rules: "High" priority and a 7 day window.
func DefaultOptions() Options {
	return Options{HighPriority: "High", OverdueDays: 7}
}

func (o Options) window() int {
	if o.OverdueDays < 1 {
		return DefaultOptions().OverdueDays
	}
	return o.OverdueDays
}

// Buckets is a classified task set. The listed buckets keep fetch order and
// may share tasks; the last two are counts only.
type Buckets struct {
	HighPriority []task.Task `json:"high_priority"`
	DueToday     []task.Task `json:"due_today"`
	Overdue      []task.Task `json:"overdue"`
	OverdueOld   int         `json:"overdue_old"`
	NoDue        int         `json:"no_due"`
}

// Counts holds the size of every bucket.
type Counts struct {
	HighPriority int `json:"high_priority"`
	DueToday     int `json:"due_today"`
	Overdue      int `json:"overdue"`
	OverdueOld   int `json:"overdue_old"`
	NoDue        int `json:"no_due"`
}

// Counts returns the bucket sizes.
func (b Buckets) Counts() Counts {
	return Counts{
		HighPriority: len(b.HighPriority),
		DueToday:     len(b.DueToday),
		Overdue:      len(b.Overdue),
		OverdueOld:   b.OverdueOld,
		NoDue:        b.NoDue,
	}
}

// Empty reports whether no task landed in any bucket.
func (b Buckets) Empty() bool {
	return b.Counts() == Counts{}
}

// Classify distributes the open tasks among the buckets relative to today.
// Done tasks are ignored.
func Classify(tasks []task.Task, today date.Date, opts Options) Buckets {
	var b Buckets
	for i := range tasks {
		t := &tasks[i]
		for _, name := range Of(t, today, opts) {
			switch name {
			case BucketHighPriority:
				b.HighPriority = append(b.HighPriority, *t)
			case BucketDueToday:
				b.DueToday = append(b.DueToday, *t)
			case BucketOverdue:
				b.Overdue = append(b.Overdue, *t)
			case BucketOverdueOld:
				b.OverdueOld++
			case BucketNoDue:
				b.NoDue++
			}
		}
	}
	return b
}

// Of returns the names of the buckets t belongs to, in report order.
// A high-priority task due today is in both of those buckets.
func Of(t *task.Task, today date.Date, opts Options) []string {
	if t.Done {
		return nil
	}
	if t.Due == nil {
		return []string{BucketNoDue}
	}

	var names []string
	due := *t.Due
	if t.HasPriority(opts.HighPriority) && !due.After(today) {
		names = append(names, BucketHighPriority)
	}
	cutoff := today.AddDays(-opts.window())
	switch {
	case due.Equal(today):
		names = append(names, BucketDueToday)
	case due.Before(cutoff):
		names = append(names, BucketOverdueOld)
	case due.Before(today):
		names = append(names, BucketOverdue)
	}
	return names
}
