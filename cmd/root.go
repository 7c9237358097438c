// Package cmd implements the taskdigest CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdigest/internal/config"
	"github.com/twiced-technology-gmbh/taskdigest/internal/output"
	"github.com/twiced-technology-gmbh/taskdigest/internal/task"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagConfig  string
	flagEnv     string
	flagEnvFile string
	flagJSON    bool
	flagTable   bool
	flagCompact bool
	flagNoColor bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "taskdigest",
	Short: "Daily digest of open Notion tasks",
	Long: `taskdigest fetches open tasks from a Notion database, sorts them into
high priority, due today and overdue sections, and writes Markdown and text
reports. Previous reports are archived and pruned after a week.
Just run taskdigest to generate today's report.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runReport,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if flagNoColor || os.Getenv("NO_COLOR") != "" {
			output.DisableColor()
		}
		if flagEnv != "" {
			if err := os.Setenv("ENV", flagEnv); err != nil {
				return fmt.Errorf("setting ENV: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to taskdigest.yml")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "", "environment name (dev or prod)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "dotenv file to load instead of .env.dev/.env")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output as table")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "oneline", false, "alias for --compact")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "also log to stderr")
	addReportFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	_, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	// Handle SilentError — exit with code, no output.
	var silent *clierr.SilentError
	if errors.As(err, &silent) {
		os.Exit(silent.Code)
	}

	err = asCLIError(err)

	if outputFormat() == output.FormatJSON {
		var cliErr *clierr.Error
		if errors.As(err, &cliErr) {
			output.JSONError(os.Stdout, cliErr.Code, cliErr.Message, cliErr.Details)
			os.Exit(cliErr.ExitCode())
		}
		// Unknown error — wrap as INTERNAL_ERROR.
		output.JSONError(os.Stdout, clierr.InternalError, err.Error(), nil)
		os.Exit(2) //nolint:mnd // exit code 2 for internal errors
	}

	// Non-JSON mode: print to stderr.
	fmt.Fprintln(os.Stderr, "Error:", err)
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		os.Exit(cliErr.ExitCode())
	}
	os.Exit(1)
}

// asCLIError maps config sentinel errors onto their stable codes.
func asCLIError(err error) error {
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		return err
	}
	switch {
	case errors.Is(err, config.ErrNotFound):
		return clierr.Wrap(clierr.ConfigNotFound, err, err.Error())
	case errors.Is(err, config.ErrInvalid):
		return clierr.Wrap(clierr.InvalidConfig, err, err.Error())
	}
	return err
}

// loadConfig finds and loads the configuration. Without --config the
// directory tree is searched upward; a missing file means defaults.
func loadConfig() (*config.Config, error) {
	return config.Load(config.LoadOptions{File: flagConfig, EnvFile: flagEnvFile})
}

// outputFormat returns the detected output format from flags/env.
func outputFormat() output.Format {
	return output.Detect(flagJSON, flagTable, flagCompact)
}

// printWarnings writes decode warnings to stderr.
func printWarnings(warnings []task.DecodeWarning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: skipping malformed task %s: %v\n", w.ID, w.Err)
	}
}
