package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PivotSentinel/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, "Europe/Berlin", cfg.DataSource.Timezone)
	assert.Equal(t, 0.5, cfg.Pivot.GeneralTolerancePct)
	assert.Equal(t, 0.1, cfg.Pivot.SetupTolerancePct)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.False(t, cfg.TelegramEnabled())

	tfs, err := cfg.TimeFrames()
	require.NoError(t, err)
	assert.Equal(t, model.AllTimeFrames, tfs)

	setup, err := cfg.SetupTimeFrames()
	require.NoError(t, err)
	assert.Equal(t, []model.TimeFrame{model.TimeFrameDay, model.TimeFrameWeek, model.TimeFrameMonth}, setup)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: vstrader
  base_url: http://file
pivot:
  timeframes: [1d, 1w]
cache:
  ttl:
    1d: 1m
telegram:
  bot_token: file-token
  chat_id: 42
`)
	t.Setenv("VSTRADER_BASE_URL", "http://env")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "vstrader", cfg.DataSource.Provider)
	assert.Equal(t, "http://env", cfg.DataSource.BaseURL)
	assert.Equal(t, 3, cfg.Cache.RedisDB)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.True(t, cfg.TelegramEnabled())

	ttls, err := cfg.CacheTTLs()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttls.For(model.TimeFrameDay))
	assert.Equal(t, 15*time.Minute, ttls.For(model.TimeFrameWeek))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"vstrader without url", func(c *Config) { c.DataSource.Provider = "vstrader" }},
		{"bad timeframe", func(c *Config) { c.Pivot.Timeframes = []string{"2h"} }},
		{"bad tolerance", func(c *Config) { c.Pivot.SetupTolerancePct = -1 }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }},
		{"bad ttl", func(c *Config) { c.Cache.TTL = map[string]string{"1d": "soon"} }},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"bad timezone", func(c *Config) { c.DataSource.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)
			tt.mut(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	_, err := Load(writeConfig(t, "pivot: [unclosed"))
	assert.Error(t, err)
}
