package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdigest/internal/archive"
	"github.com/twiced-technology-gmbh/taskdigest/internal/output"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage archived reports",
	Long:  `Lists archived reports, or removes those older than report.retention.`,
	Args:  cobra.NoArgs,
	RunE:  runArchiveList,
}

var archiveListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List archived reports",
	Args:    cobra.NoArgs,
	RunE:    runArchiveList,
}

var archiveCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete archived reports past the retention period",
	Args:  cobra.NoArgs,
	RunE:  runArchiveClean,
}

func init() {
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveCleanCmd)
	rootCmd.AddCommand(archiveCmd)
}

func runArchiveList(_ *cobra.Command, _ []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	entries, err := a.archiver().List()
	if err != nil {
		return err
	}

	switch outputFormat() {
	case output.FormatJSON:
		if entries == nil {
			entries = []archive.Entry{}
		}
		return output.JSON(os.Stdout, entries)
	case output.FormatCompact:
		output.ArchiveCompact(os.Stdout, entries)
	default:
		output.ArchiveTable(os.Stdout, entries)
	}
	return nil
}

func runArchiveClean(_ *cobra.Command, _ []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	res := a.archiver().Cleanup()
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, res)
	}
	output.Messagef(os.Stdout, "Removed %d archived report(s), kept %d", len(res.Removed), res.Kept)
	for _, f := range res.Failed {
		output.Messagef(os.Stderr, "Warning: %s: %s", f.Path, f.Error)
	}
	return nil
}
