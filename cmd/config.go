package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdigest/internal/config"
	"github.com/twiced-technology-gmbh/taskdigest/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify configuration",
	Long:  `View the full configuration, get a specific key, or set a writable value.`,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a config key.
type configAccessor struct {
	get      func(*config.Config) any
	set      func(*config.Config, string) error
	writable bool
}

func stringAccessor(field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get:      func(c *config.Config) any { return *field(c) },
		set:      func(c *config.Config, v string) error { *field(c) = v; return nil },
		writable: true,
	}
}

func boolAccessor(key string, field func(*config.Config) *bool) configAccessor {
	return configAccessor{
		get: func(c *config.Config) any { return *field(c) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return clierr.Newf(clierr.InvalidInput, "invalid %s %q: must be true or false", key, v)
			}
			*field(c) = b
			return nil
		},
		writable: true,
	}
}

// configAccessors returns the accessor table. Durations, the schedule and
// the log level are checked by Validate after set.
func configAccessors() map[string]configAccessor {
	return map[string]configAccessor{
		"version": {
			get: func(c *config.Config) any { return c.Version },
		},
		"env": {
			get: func(c *config.Config) any { return c.Env() },
		},
		"notion.api_key": {
			get: func(c *config.Config) any {
				if c.Notion.APIKey == "" {
					return "(unset)"
				}
				return "(set)"
			},
		},
		"notion.tasks_db":            stringAccessor(func(c *config.Config) *string { return &c.Notion.TasksDB }),
		"notion.projects_db":         stringAccessor(func(c *config.Config) *string { return &c.Notion.ProjectsDB }),
		"notion.timeout":             stringAccessor(func(c *config.Config) *string { return &c.Notion.Timeout }),
		"notion.properties.title":    stringAccessor(func(c *config.Config) *string { return &c.Notion.Properties.Title }),
		"notion.properties.status":   stringAccessor(func(c *config.Config) *string { return &c.Notion.Properties.Status }),
		"notion.properties.priority": stringAccessor(func(c *config.Config) *string { return &c.Notion.Properties.Priority }),
		"notion.properties.due":      stringAccessor(func(c *config.Config) *string { return &c.Notion.Properties.Due }),
		"notion.properties.project":  stringAccessor(func(c *config.Config) *string { return &c.Notion.Properties.Project }),
		"report.output_dir":          stringAccessor(func(c *config.Config) *string { return &c.Report.OutputDir }),
		"report.archive_dir":         stringAccessor(func(c *config.Config) *string { return &c.Report.ArchiveDir }),
		"report.retention":           stringAccessor(func(c *config.Config) *string { return &c.Report.Retention }),
		"report.history":             boolAccessor("report.history", func(c *config.Config) *bool { return &c.Report.History }),
		"classify.done_status":       stringAccessor(func(c *config.Config) *string { return &c.Classify.DoneStatus }),
		"classify.high_priority":     stringAccessor(func(c *config.Config) *string { return &c.Classify.HighPriority }),
		"classify.overdue_days": {
			get: func(c *config.Config) any { return c.Classify.OverdueDays },
			set: func(c *config.Config, v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return clierr.Newf(clierr.InvalidInput,
						"invalid classify.overdue_days %q: must be an integer", v)
				}
				c.Classify.OverdueDays = n
				return nil // validation handles range check
			},
			writable: true,
		},
		"cache.ttl":      stringAccessor(func(c *config.Config) *string { return &c.Cache.TTL }),
		"cache.snapshot": boolAccessor("cache.snapshot", func(c *config.Config) *bool { return &c.Cache.Snapshot }),
		"schedule":       stringAccessor(func(c *config.Config) *string { return &c.Schedule }),
		"log.dir":        stringAccessor(func(c *config.Config) *string { return &c.Log.Dir }),
		"log.level":      stringAccessor(func(c *config.Config) *string { return &c.Log.Level }),
	}
}

// allConfigKeys returns config keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"env",
		"notion.api_key",
		"notion.tasks_db",
		"notion.projects_db",
		"notion.timeout",
		"notion.properties.title",
		"notion.properties.status",
		"notion.properties.priority",
		"notion.properties.due",
		"notion.properties.project",
		"report.output_dir",
		"report.archive_dir",
		"report.retention",
		"report.history",
		"classify.done_status",
		"classify.high_priority",
		"classify.overdue_days",
		"cache.ttl",
		"cache.snapshot",
		"schedule",
		"log.dir",
		"log.level",
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accessors := configAccessors()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(cfg)
		}
		return output.JSON(os.Stdout, m)
	}

	// Table mode: key-value pairs.
	for _, key := range allConfigKeys() {
		val := accessors[key].get(cfg)
		fmt.Fprintf(os.Stdout, "%-28s %v\n", key, formatConfigValue(val))
	}
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key := args[0]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}

	val := acc.get(cfg)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, val)
	}

	fmt.Fprintln(os.Stdout, formatConfigValue(val))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}
	if !acc.writable {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	if err := acc.set(cfg, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": acc.get(cfg)})
	}

	output.Messagef(os.Stdout, "Set %s = %v", key, formatConfigValue(acc.get(cfg)))
	return nil
}

func formatConfigValue(val any) string {
	if s, ok := val.(string); ok && s == "" {
		return "--"
	}
	return fmt.Sprintf("%v", val)
}
