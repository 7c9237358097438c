package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdigest/internal/config"
	"github.com/twiced-technology-gmbh/taskdigest/internal/output"
)

var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Create a taskdigest.yml",
	Long: `Writes a default taskdigest.yml into DIR (default: the current directory)
and creates the report output directory. Credentials are read from the
environment or a .env file and are never written to the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("tasks-db", "", "tasks database id")
	initCmd.Flags().String("projects-db", "", "projects database id")
	initCmd.Flags().String("output-dir", "", "report output directory")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	cfg, err := config.Init(dir)
	if err != nil {
		return err
	}

	tasksDB, _ := cmd.Flags().GetString("tasks-db")
	projectsDB, _ := cmd.Flags().GetString("projects-db")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if tasksDB != "" || projectsDB != "" || outputDir != "" {
		cfg.Notion.TasksDB = tasksDB
		cfg.Notion.ProjectsDB = projectsDB
		if outputDir != "" {
			cfg.Report.OutputDir = outputDir
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		const dirMode = 0o750
		if err := os.MkdirAll(cfg.OutputPath(), dirMode); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"status": "initialized",
			"dir":    cfg.Dir(),
			"config": cfg.ConfigPath(),
			"output": cfg.OutputPath(),
		})
	}

	output.Messagef(os.Stdout, "Initialized taskdigest in %s", cfg.Dir())
	output.Messagef(os.Stdout, "  Config:  %s", cfg.ConfigPath())
	output.Messagef(os.Stdout, "  Reports: %s", cfg.OutputPath())
	output.Messagef(os.Stdout, "  Hint:    Set NOTION_API_KEY, NOTION_TASKS_DB and NOTION_PROJECTS_DB in .env")
	return nil
}
