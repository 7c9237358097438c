package cmd

import (
	"maps"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdigest/internal/output"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List cached project names",
	Long: `Lists the project id to name mapping used to label tasks. The mapping is
reloaded from the projects database when older than cache.ttl.`,
	Args: cobra.NoArgs,
	RunE: runProjects,
}

var projectsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload project names now",
	Args:  cobra.NoArgs,
	RunE:  runProjectsRefresh,
}

func init() {
	projectsCmd.AddCommand(projectsRefreshCmd)
	rootCmd.AddCommand(projectsCmd)
}

type projectsResult struct {
	RefreshedAt time.Time         `json:"refreshed_at"`
	Projects    map[string]string `json:"projects"`
}

func runProjects(cmd *cobra.Command, _ []string) error {
	return showProjects(cmd, false)
}

func runProjectsRefresh(cmd *cobra.Command, _ []string) error {
	return showProjects(cmd, true)
}

func showProjects(cmd *cobra.Command, force bool) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	ctx := commandContext(cmd)

	cache := a.projectCache(a.source())
	path := a.snapshotPath()
	if path != "" && !force {
		if err := cache.LoadSnapshot(path); err != nil {
			a.log.Warn("ignoring project snapshot", "error", err)
		}
	}

	before := cache.RefreshedAt()
	if force {
		err = cache.Refresh(ctx)
	} else {
		err = cache.Ensure(ctx)
	}
	if err != nil {
		return err
	}
	if path != "" && cache.RefreshedAt().After(before) {
		if err := cache.SaveSnapshot(path); err != nil {
			a.log.Warn("saving project snapshot failed", "error", err)
		}
	}

	names := cache.Names()
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, projectsResult{RefreshedAt: cache.RefreshedAt(), Projects: names})
	case output.FormatCompact:
		for _, id := range slices.Sorted(maps.Keys(names)) {
			output.Messagef(os.Stdout, "%s %s", id, names[id])
		}
	default:
		output.ProjectsTable(os.Stdout, names, cache.RefreshedAt())
	}
	return nil
}
