package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
)

const fileMode = 0o600

// Sentinel errors.
var (
	ErrNotFound = errors.New("no taskdigest.yml found (run 'taskdigest init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents the taskdigest configuration.
type Config struct {
	Version  int            `yaml:"version" mapstructure:"version"`
	Notion   NotionConfig   `yaml:"notion" mapstructure:"notion"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Schedule string         `yaml:"schedule,omitempty" mapstructure:"schedule"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`

	// dir is the absolute path of the directory holding the config file (not serialized).
	dir string `yaml:"-"`
	// env is the environment name the config was loaded for (dev or prod).
	env string `yaml:"-"`
}

// NotionConfig holds workspace access settings.
type NotionConfig struct {
	// APIKey is read from the environment only and never written back to disk.
	APIKey     string        `yaml:"-" mapstructure:"api_key"`
	TasksDB    string        `yaml:"tasks_db" mapstructure:"tasks_db"`
	ProjectsDB string        `yaml:"projects_db" mapstructure:"projects_db"`
	Timeout    string        `yaml:"timeout,omitempty" mapstructure:"timeout"`
	Properties PropertyNames `yaml:"properties" mapstructure:"properties"`
}

// PropertyNames maps task fields to database property names.
type PropertyNames struct {
	Title    string `yaml:"title" mapstructure:"title" json:"title"`
	Status   string `yaml:"status" mapstructure:"status" json:"status"`
	Priority string `yaml:"priority" mapstructure:"priority" json:"priority"`
	Due      string `yaml:"due" mapstructure:"due" json:"due"`
	Project  string `yaml:"project" mapstructure:"project" json:"project"`
}

// ReportConfig controls where reports go and how long archives live.
type ReportConfig struct {
	OutputDir  string `yaml:"output_dir" mapstructure:"output_dir"`
	ArchiveDir string `yaml:"archive_dir" mapstructure:"archive_dir"`
	Retention  string `yaml:"retention" mapstructure:"retention"`
	History    bool   `yaml:"history" mapstructure:"history"`
}

// ClassifyConfig holds bucket rules.
type ClassifyConfig struct {
	DoneStatus   string `yaml:"done_status" mapstructure:"done_status"`
	HighPriority string `yaml:"high_priority" mapstructure:"high_priority"`
	OverdueDays  int    `yaml:"overdue_days" mapstructure:"overdue_days"`
}

// CacheConfig controls the project name cache.
type CacheConfig struct {
	TTL      string `yaml:"ttl" mapstructure:"ttl"`
	Snapshot bool   `yaml:"snapshot" mapstructure:"snapshot"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	Dir   string `yaml:"dir" mapstructure:"dir"`
	Level string `yaml:"level,omitempty" mapstructure:"level"`
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	return &Config{
		Version: CurrentVersion,
		Notion: NotionConfig{
			Timeout:    DefaultTimeout,
			Properties: DefaultProperties,
		},
		Report: ReportConfig{
			OutputDir:  DefaultOutputDir,
			ArchiveDir: DefaultArchiveDir,
			Retention:  DefaultRetention,
			History:    true,
		},
		Classify: ClassifyConfig{
			DoneStatus:   DefaultDoneStatus,
			HighPriority: DefaultHighPriority,
			OverdueDays:  DefaultOverdueDays,
		},
		Cache:    CacheConfig{TTL: DefaultCacheTTL, Snapshot: true},
		Schedule: DefaultSchedule,
		Log:      LogConfig{Dir: DefaultLogDir, Level: DefaultLogLevel},
	}
}

// Dir returns the absolute path to the config directory.
func (c *Config) Dir() string {
	return c.dir
}

// SetDir sets the config directory path.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// Env returns the environment name (dev or prod).
func (c *Config) Env() string {
	return c.env
}

// IsDev reports whether the config was loaded for the dev environment.
func (c *Config) IsDev() bool {
	return c.env == EnvDev
}

// ConfigPath returns the absolute path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.dir, ConfigFileName)
}

// OutputPath returns the absolute path to the report output directory.
func (c *Config) OutputPath() string {
	return c.resolve(c.dir, c.Report.OutputDir)
}

// ArchivePath returns the absolute path to the archive directory.
func (c *Config) ArchivePath() string {
	return c.resolve(c.OutputPath(), c.Report.ArchiveDir)
}

// SnapshotPath returns the project snapshot file path.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.OutputPath(), DefaultSnapshotFile)
}

// HistoryPath returns the run history database path.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.OutputPath(), DefaultHistoryFile)
}

// LockPath returns the path of the single-run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.OutputPath(), ".taskdigest.lock")
}

// LogPath returns the absolute path to the log directory.
func (c *Config) LogPath() string {
	return c.resolve(c.dir, c.Log.Dir)
}

func (c *Config) resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// RetentionDuration returns the archive retention, or the default if unparseable.
func (c *Config) RetentionDuration() time.Duration {
	return parseDurationOr(c.Report.Retention, DefaultRetention)
}

// CacheTTLDuration returns the project cache TTL, or the default if unparseable.
func (c *Config) CacheTTLDuration() time.Duration {
	return parseDurationOr(c.Cache.TTL, DefaultCacheTTL)
}

// TimeoutDuration returns the per-request API timeout, or the default if unparseable.
func (c *Config) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Notion.Timeout, DefaultTimeout)
}

func parseDurationOr(s, fallback string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.Report.OutputDir == "" {
		return fmt.Errorf("%w: report.output_dir is required", ErrInvalid)
	}
	if c.Report.ArchiveDir == "" {
		return fmt.Errorf("%w: report.archive_dir is required", ErrInvalid)
	}
	if err := validateDuration("report.retention", c.Report.Retention); err != nil {
		return err
	}
	if err := validateDuration("cache.ttl", c.Cache.TTL); err != nil {
		return err
	}
	if c.Notion.Timeout != "" {
		if err := validateDuration("notion.timeout", c.Notion.Timeout); err != nil {
			return err
		}
	}
	if err := c.validateProperties(); err != nil {
		return err
	}
	if c.Classify.DoneStatus == "" {
		return fmt.Errorf("%w: classify.done_status is required", ErrInvalid)
	}
	if c.Classify.OverdueDays < 1 {
		return fmt.Errorf("%w: classify.overdue_days must be >= 1", ErrInvalid)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("%w: invalid schedule %q: %w", ErrInvalid, c.Schedule, err)
		}
	}
	if c.Log.Level != "" && IndexOf(validLogLevels, strings.ToLower(c.Log.Level)) < 0 {
		return fmt.Errorf("%w: log.level must be one of %s", ErrInvalid, strings.Join(validLogLevels, ", "))
	}
	return nil
}

func validateDuration(key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: invalid %s %q: %w", ErrInvalid, key, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalid, key)
	}
	return nil
}

func (c *Config) validateProperties() error {
	p := c.Notion.Properties
	fields := map[string]string{
		"title":    p.Title,
		"status":   p.Status,
		"priority": p.Priority,
		"due":      p.Due,
		"project":  p.Project,
	}
	for key, v := range fields {
		if v == "" {
			return fmt.Errorf("%w: notion.properties.%s is required", ErrInvalid, key)
		}
	}
	return nil
}

// RequireCredentials checks that everything needed to call the API is set.
// Commands that only read local files skip this check.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.Notion.APIKey == "" {
		missing = append(missing, "NOTION_API_KEY")
	}
	if c.Notion.TasksDB == "" {
		missing = append(missing, "NOTION_TASKS_DB")
	}
	if c.Notion.ProjectsDB == "" {
		missing = append(missing, "NOTION_PROJECTS_DB")
	}
	if len(missing) == 0 {
		return nil
	}
	return clierr.Newf(clierr.MissingCredentials,
		"missing workspace credentials: set %s (environment or .env file)", strings.Join(missing, ", ")).
		WithDetails(map[string]any{"missing": missing})
}

// Save writes the config to its config file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, fileMode)
}

// Init writes a default config file into dir.
func Init(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := NewDefault()
	cfg.SetDir(absDir)

	if _, err := os.Stat(cfg.ConfigPath()); err == nil {
		return nil, clierr.Newf(clierr.AlreadyExists, "config already exists at %s", cfg.ConfigPath()).
			WithDetails(map[string]any{"path": cfg.ConfigPath()})
	}

	const dirMode = 0o750
	if err := os.MkdirAll(cfg.OutputPath(), dirMode); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	return cfg, nil
}

// FindDir walks upward from startDir looking for a directory containing
// taskdigest.yml. Returns the absolute path to that directory.
func FindDir(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dir := absStart
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// IndexOf returns the index of item in slice, or -1 if not found.
func IndexOf(slice []string, item string) int {
	for i, s := range slice {
		if s == item {
			return i
		}
	}
	return -1
}
