package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdigest/internal/history"
	"github.com/twiced-technology-gmbh/taskdigest/internal/output"
)

const defaultHistoryLimit = 20

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent report runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete run records older than a duration",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", defaultHistoryLimit, "number of runs to show")
	historyPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "remove runs started before now minus this duration") //nolint:mnd // 30 days
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func openStore(cmd *cobra.Command) (*app, *history.Store, error) {
	a, err := openApp(false)
	if err != nil {
		return nil, nil, err
	}
	store, err := history.Open(commandContext(cmd), a.cfg.HistoryPath())
	if err != nil {
		_ = a.Close()
		return nil, nil, fmt.Errorf("opening run history: %w", err)
	}
	a.closers = append(a.closers, store.Close)
	return a, store, nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 1 {
		return clierr.Newf(clierr.InvalidInput, "--limit must be at least 1, got %d", limit)
	}

	a, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	runs, err := store.Recent(commandContext(cmd), limit)
	if err != nil {
		return err
	}

	switch outputFormat() {
	case output.FormatJSON:
		if runs == nil {
			runs = []history.Run{}
		}
		return output.JSON(os.Stdout, runs)
	case output.FormatCompact:
		output.HistoryCompact(os.Stdout, runs)
	default:
		output.HistoryTable(os.Stdout, runs)
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, _ []string) error {
	olderThan, _ := cmd.Flags().GetDuration("older-than")
	if olderThan <= 0 {
		return clierr.Newf(clierr.InvalidInput, "--older-than must be positive, got %s", olderThan)
	}

	a, store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	n, err := store.Prune(commandContext(cmd), time.Now().Add(-olderThan))
	if err != nil {
		return err
	}
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]int64{"removed": n})
	}
	output.Messagef(os.Stdout, "Removed %d run record(s)", n)
	return nil
}
