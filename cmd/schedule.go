package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdigest/internal/config"
	"github.com/twiced-technology-gmbh/taskdigest/internal/history"
	"github.com/twiced-technology-gmbh/taskdigest/internal/output"
	"github.com/twiced-technology-gmbh/taskdigest/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Generate the report on a cron schedule",
	Long: `Runs in the foreground and generates the report whenever the cron
expression fires (config key "schedule", default every day at 07:00).
Stops on SIGINT or SIGTERM after the current run finishes.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().String("spec", "", "cron expression overriding the configured schedule")
	scheduleCmd.Flags().Bool("now", false, "also run once immediately")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	spec, _ := cmd.Flags().GetString("spec")
	now, _ := cmd.Flags().GetBool("now")

	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if spec == "" {
		spec = a.cfg.Schedule
	}
	if spec == "" {
		spec = config.DefaultSchedule
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := a.runner(ctx, true)
	sched, err := schedule.New(spec, func(ctx context.Context) error {
		_, err := runner.Run(ctx, history.TriggerSchedule)
		return err
	}, schedule.WithLogger(a.log))
	if err != nil {
		return clierr.Wrap(clierr.InvalidInput, err, err.Error())
	}

	if outputFormat() != output.FormatJSON {
		output.Messagef(os.Stderr, "Scheduled %q, next run %s. Press Ctrl+C to stop.",
			sched.Spec(), sched.Next(time.Now()).Format("2006-01-02 15:04"))
	}
	if err := sched.Run(ctx, now); err != nil {
		return err
	}

	runs, skipped := sched.Stats()
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]int64{"runs": runs, "skipped": skipped})
	}
	output.Messagef(os.Stderr, "Stopped after %d run(s), %d skipped", runs, skipped)
	return nil
}
