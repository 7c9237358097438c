package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment names selected by the ENV variable.
const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// Dir is the directory holding taskdigest.yml. If empty, it is searched
	// upward from the working directory, falling back to the working directory.
	Dir string
	// File is an explicit config file path; overrides Dir.
	File string
	// EnvFile is an explicit dotenv file. If empty, .env.dev is used when
	// ENV is unset or "dev", .env otherwise.
	EnvFile string
}

// Load reads configuration with precedence: environment > dotenv file >
// config file > defaults. A missing config file is not an error.
func Load(opts LoadOptions) (*Config, error) {
	dir, file, err := locate(opts)
	if err != nil {
		return nil, err
	}

	env := currentEnv()
	if err := loadDotenv(dir, opts.EnvFile, env); err != nil {
		return nil, err
	}
	// ENV may have been set by the dotenv file itself.
	env = currentEnv()

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	fileExists := false
	if _, statErr := os.Stat(file); statErr == nil {
		fileExists = true
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", file, err)
		}
	} else if opts.File != "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, opts.File)
	}

	// Migrate old config versions forward before decoding.
	oldVersion := v.GetInt("version")
	if err := migrate(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.dir = dir
	cfg.env = env

	// Persist migrated config so future loads skip re-migration.
	if fileExists && cfg.Version != oldVersion {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func locate(opts LoadOptions) (dir, file string, err error) {
	if opts.File != "" {
		abs, err := filepath.Abs(opts.File)
		if err != nil {
			return "", "", fmt.Errorf("resolving path: %w", err)
		}
		return filepath.Dir(abs), abs, nil
	}

	dir = opts.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("getting working directory: %w", err)
		}
		found, findErr := FindDir(cwd)
		if findErr != nil {
			found = cwd
		}
		dir = found
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", "", fmt.Errorf("resolving path: %w", err)
	}
	return dir, filepath.Join(dir, ConfigFileName), nil
}

func currentEnv() string {
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" || env == EnvDev {
		return EnvDev
	}
	return EnvProd
}

// loadDotenv loads the dotenv file for env. Variables already present in the
// process environment win over the file.
func loadDotenv(dir, explicit, env string) error {
	path := explicit
	if path == "" {
		name := ".env"
		if env == EnvDev {
			name = ".env.dev"
		}
		path = filepath.Join(dir, name)
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && explicit == "" {
		return nil
	}
	return fmt.Errorf("loading env file %s: %w", path, err)
}

func setDefaults(v *viper.Viper) {
	d := NewDefault()
	v.SetDefault("version", d.Version)
	v.SetDefault("notion.timeout", d.Notion.Timeout)
	v.SetDefault("notion.properties.title", d.Notion.Properties.Title)
	v.SetDefault("notion.properties.status", d.Notion.Properties.Status)
	v.SetDefault("notion.properties.priority", d.Notion.Properties.Priority)
	v.SetDefault("notion.properties.due", d.Notion.Properties.Due)
	v.SetDefault("notion.properties.project", d.Notion.Properties.Project)
	v.SetDefault("report.output_dir", d.Report.OutputDir)
	v.SetDefault("report.archive_dir", d.Report.ArchiveDir)
	v.SetDefault("report.retention", d.Report.Retention)
	v.SetDefault("report.history", d.Report.History)
	v.SetDefault("classify.done_status", d.Classify.DoneStatus)
	v.SetDefault("classify.high_priority", d.Classify.HighPriority)
	v.SetDefault("classify.overdue_days", d.Classify.OverdueDays)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.snapshot", d.Cache.Snapshot)
	v.SetDefault("schedule", d.Schedule)
	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("log.level", d.Log.Level)
}

// bindEnv wires TASKDIGEST_* overrides plus the unprefixed NOTION_* names
// used by existing .env files.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("notion.api_key", EnvPrefix+"_NOTION_API_KEY", "NOTION_API_KEY")
	_ = v.BindEnv("notion.tasks_db", EnvPrefix+"_NOTION_TASKS_DB", "NOTION_TASKS_DB")
	_ = v.BindEnv("notion.projects_db", EnvPrefix+"_NOTION_PROJECTS_DB", "NOTION_PROJECTS_DB")
}
