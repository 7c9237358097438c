package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdigest/internal/digest"
	"github.com/twiced-technology-gmbh/taskdigest/internal/history"
	"github.com/twiced-technology-gmbh/taskdigest/internal/output"
	"github.com/twiced-technology-gmbh/taskdigest/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate today's task report",
	Long: `Fetches open tasks, archives the previous reports, removes archived
reports past the retention period and writes tasks_report.md and
tasks_report.txt. With --dry-run the report is printed instead of written.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	addReportFlags(reportCmd)
	rootCmd.AddCommand(reportCmd)
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "print the report instead of writing files")
	cmd.Flags().String("format", report.FormatMarkdown, "format printed by --dry-run (md, txt)")
}

func runReport(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	format, _ := cmd.Flags().GetString("format")
	if _, err := report.FileFor(format); err != nil {
		return err
	}

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := commandContext(cmd)

	if dryRun {
		_, err := a.runner(ctx, false).DryRun(ctx, os.Stdout, format)
		return err
	}

	res, err := a.runner(ctx, true).Run(ctx, history.TriggerManual)
	if err != nil {
		return err
	}
	return outputRun(res)
}

func outputRun(res *digest.Result) error {
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, res)
	case output.FormatCompact:
		output.RunCompact(os.Stdout, res)
	default:
		output.RunSummary(os.Stdout, res)
	}
	return nil
}
