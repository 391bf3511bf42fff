package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("USER_ID", "424242")
	t.Setenv("UW_API_KEY", "key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(424242), cfg.Telegram.OwnerID)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "./data.json", cfg.Store.DataPath)
	assert.Equal(t, 10*time.Second, cfg.Poller.CourseDelay)
	assert.Equal(t, 120*time.Second, cfg.Poller.CycleDelay)
	assert.Equal(t, 24*time.Hour, cfg.Terms.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Terms.CurrentTTL)
	assert.Equal(t, 1440*time.Hour, cfg.Terms.Rollover)
	assert.True(t, cfg.HTTP.Enabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FileThenEnv(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: postgres
database:
  url: postgres://localhost/courses
poller:
  course_delay: 3s
  cycle_delay: 1m
redis:
  enabled: true
  port: 6380
`), 0o600))
	t.Setenv("POLL_CYCLE_DELAY", "5m")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/courses", cfg.Database.URL)
	assert.Equal(t, 3*time.Second, cfg.Poller.CourseDelay)
	assert.Equal(t, 5*time.Minute, cfg.Poller.CycleDelay)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, "localhost", cfg.Redis.Host)
}

func TestLoad_BadOwnerID(t *testing.T) {
	t.Setenv("USER_ID", "me")

	_, err := LoadFrom("")
	assert.ErrorContains(t, err, "USER_ID")
}

func TestValidate_ReportsEverything(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = BackendPostgres
	cfg.Observability.LogLevel = "loud"

	err := cfg.Validate()

	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "configuration errors:")
	assert.Contains(t, msg, "BOT_TOKEN is required")
	assert.Contains(t, msg, "USER_ID is required")
	assert.Contains(t, msg, "UW_API_KEY is required")
	assert.Contains(t, msg, "LOG_LEVEL must be one of")
	assert.Contains(t, msg, "DATABASE_URL is required when STORE_BACKEND=postgres")
}

func TestValidateExcept_SkipsTelegram(t *testing.T) {
	cfg := Default()
	cfg.UWaterloo.APIKey = "key"

	assert.NoError(t, cfg.ValidateExcept("Telegram"))
	assert.Error(t, cfg.Validate())
}
