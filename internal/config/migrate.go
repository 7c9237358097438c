package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// migrate upgrades raw config values from their version to CurrentVersion.
// Each migration function transforms the values one version forward.
// Returns nil if no migration is needed (already at current version).
// Returns an error if the config version is newer than what this binary supports.
func migrate(v *viper.Viper) error {
	version := v.GetInt("version")
	if version == CurrentVersion {
		return nil
	}
	if version > CurrentVersion {
		return fmt.Errorf(
			"%w: config version %d is newer than supported version %d (upgrade taskdigest)",
			ErrInvalid, version, CurrentVersion,
		)
	}
	if version < 1 {
		return fmt.Errorf("%w: config version %d is invalid", ErrInvalid, version)
	}

	for version < CurrentVersion {
		fn, ok := migrations[version]
		if !ok {
			return fmt.Errorf("%w: no migration path from version %d", ErrInvalid, version)
		}
		if err := fn(v); err != nil {
			return fmt.Errorf("migrating config from v%d: %w", version, err)
		}
		version = v.GetInt("version")
	}

	return nil
}

// migrations maps each version to the function that migrates it to the next version.
// The migration function must bump "version" after a successful migration.
var migrations = map[int]func(*viper.Viper) error{
	1: migrateV1ToV2,
}

// v1KeyMoves maps flat v1 keys to their nested v2 location.
var v1KeyMoves = map[string]string{
	"tasks_db":     "notion.tasks_db",
	"projects_db":  "notion.projects_db",
	"target_dir":   "report.output_dir",
	"cleanup_days": "report.retention",
}

// migrateV1ToV2 moves the flat database and directory keys under notion/report,
// and converts cleanup_days to a retention duration.
func migrateV1ToV2(v *viper.Viper) error { //nolint:unparam // signature must match migrations map type
	for from, to := range v1KeyMoves {
		if !v.InConfig(from) {
			continue
		}
		if from == "cleanup_days" {
			const hoursPerDay = 24
			v.Set(to, fmt.Sprintf("%dh", v.GetInt(from)*hoursPerDay))
			continue
		}
		v.Set(to, v.GetString(from))
	}
	v.Set("version", 2) //nolint:mnd // target version of this migration
	return nil
}
