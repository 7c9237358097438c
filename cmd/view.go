package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdigest/internal/tui"
	"github.com/twiced-technology-gmbh/taskdigest/internal/watcher"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open the report viewer",
	Long: `Opens a scrollable terminal view of the latest report. The view reloads
whenever a new report is written. Press tab to switch between the Markdown
and text reports, q to quit.`,
	Args: cobra.NoArgs,
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	const dirMode = 0o750
	if err := os.MkdirAll(cfg.OutputPath(), dirMode); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	model := tui.NewViewer(afero.NewOsFs(), cfg.OutputPath(), nil)
	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go startViewWatcher(ctx, model, p)

	_, err = p.Run()
	return err
}

func startViewWatcher(ctx context.Context, model *tui.Viewer, p *tea.Program) {
	w, err := watcher.New(model.Dir(), model.WatchNames(), func() {
		p.Send(tui.ReloadMsg{})
	})
	if err != nil {
		slog.Debug("report watcher unavailable", "error", err)
		return // non-fatal: the viewer works without live refresh
	}
	defer func() { _ = w.Close() }()
	w.Run(ctx, nil)
}
