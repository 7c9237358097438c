package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiced-technology-gmbh/taskdigest/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdigest/internal/config"
)

func TestConfigAccessors_CoverDisplayKeys(t *testing.T) {
	accessors := configAccessors()
	assert.Len(t, accessors, len(allConfigKeys()))
	for _, key := range allConfigKeys() {
		acc, ok := accessors[key]
		require.True(t, ok, key)
		assert.NotNil(t, acc.get, key)
		if acc.writable {
			assert.NotNil(t, acc.set, key)
		}
	}
}

func TestConfigAccessors_Set(t *testing.T) {
	cfg := config.NewDefault()
	acc := configAccessors()

	require.NoError(t, acc["classify.overdue_days"].set(cfg, "14"))
	assert.Equal(t, 14, cfg.Classify.OverdueDays)

	require.NoError(t, acc["report.history"].set(cfg, "false"))
	assert.False(t, cfg.Report.History)

	require.NoError(t, acc["notion.properties.due"].set(cfg, "Deadline"))
	assert.Equal(t, "Deadline", acc["notion.properties.due"].get(cfg))

	err := acc["classify.overdue_days"].set(cfg, "soon")
	assert.True(t, clierr.HasCode(err, clierr.InvalidInput))

	err = acc["cache.snapshot"].set(cfg, "maybe")
	assert.True(t, clierr.HasCode(err, clierr.InvalidInput))

	assert.False(t, acc["version"].writable)
	assert.False(t, acc["notion.api_key"].writable)
}

func TestConfigAccessors_APIKeyIsMasked(t *testing.T) {
	cfg := config.NewDefault()
	get := configAccessors()["notion.api_key"].get
	assert.Equal(t, "(unset)", get(cfg))
	cfg.Notion.APIKey = "secret_abc"
	assert.Equal(t, "(set)", get(cfg))
}

func TestAsCLIError(t *testing.T) {
	err := asCLIError(fmt.Errorf("loading: %w", config.ErrNotFound))
	assert.True(t, clierr.HasCode(err, clierr.ConfigNotFound))

	err = asCLIError(fmt.Errorf("%w: bad ttl", config.ErrInvalid))
	assert.True(t, clierr.HasCode(err, clierr.InvalidConfig))

	orig := clierr.New(clierr.FetchFailed, "boom")
	assert.Same(t, orig, asCLIError(orig))

	plain := errors.New("plain")
	assert.Equal(t, plain, asCLIError(plain))
}

func TestFormatConfigValue(t *testing.T) {
	assert.Equal(t, "--", formatConfigValue(""))
	assert.Equal(t, "7", formatConfigValue(7))
	assert.Equal(t, "true", formatConfigValue(true))
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"report", "tasks", "projects", "archive", "show", "view", "schedule", "history", "config", "init"}
	for _, name := range want {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}
