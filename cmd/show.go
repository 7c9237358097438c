package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/twiced-technology-gmbh/taskdigest/internal/output"
	"github.com/twiced-technology-gmbh/taskdigest/internal/report"
	"github.com/twiced-technology-gmbh/taskdigest/internal/tui"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the latest report",
	Long: `Prints the most recently written report. Markdown is rendered for the
terminal when stdout is a TTY; use --raw to print the file as is.`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().String("format", report.FormatMarkdown, "report to show (md, txt)")
	showCmd.Flags().Bool("raw", false, "print the file without rendering")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	raw, _ := cmd.Flags().GetBool("raw")
	name, err := report.FileFor(format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := report.Load(afero.NewOsFs(), cfg.OutputPath(), format)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]string{
			"path":    filepath.Join(cfg.OutputPath(), name),
			"content": string(data),
		})
	}

	fd := int(os.Stdout.Fd()) //nolint:gosec // fd fits in int
	if raw || name != report.MarkdownFile || !term.IsTerminal(fd) {
		_, err = os.Stdout.Write(data)
		return err
	}

	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 0
	}
	style := ""
	if flagNoColor || os.Getenv("NO_COLOR") != "" {
		style = "notty"
	}
	rendered, err := tui.RenderMarkdown(string(data), width, style)
	if err != nil {
		return err
	}
	_, err = os.Stdout.WriteString(rendered)
	return err
}
