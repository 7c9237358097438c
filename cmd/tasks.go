package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/taskdigest/internal/classify"
	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdigest/internal/date"
	"github.com/twiced-technology-gmbh/taskdigest/internal/notion"
	"github.com/twiced-technology-gmbh/taskdigest/internal/output"
	"github.com/twiced-technology-gmbh/taskdigest/internal/projects"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long:    `Lists tasks from the tasks database with optional filtering, sorting, and grouping.`,
	Args:    cobra.NoArgs,
	RunE:    runTasks,
}

var tasksInspectCmd = &cobra.Command{
	Use:   "inspect PAGE-ID",
	Short: "Print the raw JSON of a task page",
	Long:  `Prints the raw page as returned by the API. Useful for finding property names.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksInspect,
}

func init() {
	tasksCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "buckets":
			name = "bucket"
		case "statuses":
			name = "status"
		case "priorities":
			name = "priority"
		}
		return pflag.NormalizedName(name)
	})
	tasksCmd.Flags().StringSlice("bucket", nil, "filter by bucket ("+strings.Join(classify.BucketNames(), ", ")+")")
	tasksCmd.Flags().StringSlice("status", nil, "filter by status (comma-separated)")
	tasksCmd.Flags().StringSlice("priority", nil, "filter by priority (comma-separated)")
	tasksCmd.Flags().String("project", "", "filter by project name or id")
	tasksCmd.Flags().StringP("search", "s", "", "search task titles (case-insensitive)")
	tasksCmd.Flags().Bool("all", false, "include done tasks")
	tasksCmd.Flags().String("sort", classify.SortDue, "sort field ("+strings.Join(classify.SortFields(), ", ")+")")
	tasksCmd.Flags().BoolP("reverse", "r", false, "reverse sort order")
	tasksCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	tasksCmd.Flags().String("group-by", "", "group results by field ("+strings.Join(classify.ValidGroupByFields(), ", ")+")")
	tasksCmd.AddCommand(tasksInspectCmd)
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, _ []string) error {
	buckets, _ := cmd.Flags().GetStringSlice("bucket")
	statuses, _ := cmd.Flags().GetStringSlice("status")
	priorities, _ := cmd.Flags().GetStringSlice("priority")
	project, _ := cmd.Flags().GetString("project")
	search, _ := cmd.Flags().GetString("search")
	all, _ := cmd.Flags().GetBool("all")
	sortBy, _ := cmd.Flags().GetString("sort")
	reverse, _ := cmd.Flags().GetBool("reverse")
	limit, _ := cmd.Flags().GetInt("limit")
	groupBy, _ := cmd.Flags().GetString("group-by")

	for _, b := range buckets {
		if err := task.ValidateBucket(b, classify.BucketNames()); err != nil {
			return err
		}
	}
	if err := task.ValidateSort(sortBy, classify.SortFields()); err != nil {
		return err
	}
	if groupBy != "" && !slices.Contains(classify.ValidGroupByFields(), groupBy) {
		return clierr.Newf(clierr.InvalidInput, "invalid --group-by field %q; valid: %s",
			groupBy, strings.Join(classify.ValidGroupByFields(), ", "))
	}

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	ctx := commandContext(cmd)

	src := a.source()
	q := notion.Query{}
	if !all {
		q.ExcludeStatus = a.cfg.Classify.DoneStatus
	}
	tasks, warnings, err := src.Tasks(ctx, q)
	if err != nil {
		return err
	}
	printWarnings(warnings)

	cache := a.projectCache(src)
	if err := loadProjectNames(ctx, a, cache, tasks); err != nil {
		return err
	}

	today := date.Today()
	rules := a.rules()
	tasks = classify.Filter(tasks, classify.FilterOptions{
		Buckets:     buckets,
		Statuses:    statuses,
		Priorities:  priorities,
		Project:     project,
		Search:      search,
		IncludeDone: all,
		Today:       today,
		Rules:       rules,
	}, cache.Lookup)

	if groupBy != "" {
		grouped := classify.GroupBy(tasks, groupBy, today, rules, cache.Lookup)
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, grouped)
		}
		if outputFormat() == output.FormatCompact {
			output.GroupedCompact(os.Stdout, grouped)
			return nil
		}
		output.GroupedTable(os.Stdout, grouped)
		return nil
	}

	classify.Sort(tasks, sortBy, reverse, rules.HighPriority)
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}

	rows := make([]output.TaskRow, 0, len(tasks))
	for i := range tasks {
		row := output.TaskRow{Task: tasks[i], Buckets: classify.Of(&tasks[i], today, rules)}
		if tasks[i].ProjectID != "" {
			row.Project = cache.Lookup(tasks[i].ProjectID)
		}
		rows = append(rows, row)
	}
	return outputTaskList(rows)
}

// loadProjectNames fills cache when any task references a project, reusing
// the on-disk snapshot while it is fresh.
func loadProjectNames(ctx context.Context, a *app, cache *projects.Cache, tasks []task.Task) error {
	if !slices.ContainsFunc(tasks, func(t task.Task) bool { return t.ProjectID != "" }) {
		return nil
	}
	path := a.snapshotPath()
	if path != "" {
		if err := cache.LoadSnapshot(path); err != nil {
			a.log.Warn("ignoring project snapshot", "error", err)
		}
	}
	if !cache.Stale() {
		return nil
	}
	if err := cache.Ensure(ctx); err != nil {
		return err
	}
	if path != "" {
		if err := cache.SaveSnapshot(path); err != nil {
			a.log.Warn("saving project snapshot failed", "error", err)
		}
	}
	return nil
}

func outputTaskList(rows []output.TaskRow) error {
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, rows)
	case output.FormatCompact:
		output.TaskCompact(os.Stdout, rows)
	default:
		output.TaskTable(os.Stdout, rows)
	}
	return nil
}

func runTasksInspect(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	raw, err := a.source().Inspect(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(raw))
	return err
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
