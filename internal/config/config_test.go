package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultStartHour, cfg.Pipeline.StartHour)
	assert.Equal(t, DefaultEndHour, cfg.Pipeline.EndHour)
	assert.Equal(t, DefaultRateLimit, cfg.Pipeline.RateLimit)
	assert.Equal(t, DefaultRateWindowSeconds, cfg.Pipeline.RateWindowSeconds)
	assert.Equal(t, DefaultGovernedPrefixes, cfg.Pipeline.GovernedPrefixes)
	assert.Equal(t, DefaultProtectedPrefixes, cfg.Pipeline.ProtectedPrefixes)
	assert.Equal(t, DefaultAllowedRoles, cfg.Pipeline.AllowedRoles)
	assert.Equal(t, DefaultRequestLogPath, cfg.Pipeline.RequestLogPath)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoad_FileOverridesOnlyWhatItSets(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  start_hour: 0
  rate_limit: 10
database:
  driver: sqlite
  url: "file::memory:"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Pipeline.StartHour, "zero is a valid start hour")
	assert.Equal(t, DefaultEndHour, cfg.Pipeline.EndHour)
	assert.Equal(t, 10, cfg.Pipeline.RateLimit)
	assert.Equal(t, DefaultRateWindowSeconds, cfg.Pipeline.RateWindowSeconds)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_NonPositiveValuesFallBack(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  rate_limit: 0
  rate_window_seconds: -3
  governed_prefixes: []
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultRateLimit, cfg.Pipeline.RateLimit)
	assert.Equal(t, DefaultRateWindowSeconds, cfg.Pipeline.RateWindowSeconds)
	assert.Equal(t, DefaultGovernedPrefixes, cfg.Pipeline.GovernedPrefixes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHAT_ALLOWED_START_HOUR", "7")
	t.Setenv("CHAT_ALLOWED_END_HOUR", "20")
	t.Setenv("RATE_LIMIT", "3")
	t.Setenv("CHAT_URL_PREFIXES", "/chats, /api/rooms")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Pipeline.StartHour)
	assert.Equal(t, 20, cfg.Pipeline.EndHour)
	assert.Equal(t, 3, cfg.Pipeline.RateLimit)
	assert.Equal(t, []string{"/chats", "/api/rooms"}, cfg.Pipeline.GovernedPrefixes)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 4000, cfg.Server.Port, "unparsable env falls back")
}

func TestLoad_RejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, "pipeline:\n  start_hour: 25\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "database:\n  driver: oracle\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "pipeline: [oops"))
	assert.Error(t, err)
}

func TestGetConfig_LoadsOnceFromConfigPath(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
pipeline:
  rate_limit: 7
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("RATE_LIMIT", "")
	t.Setenv("DATABASE_DRIVER", "")

	previous := AppConfig
	AppConfig = nil
	t.Cleanup(func() { AppConfig = previous })

	cfg := GetConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Pipeline.RateLimit)
	assert.Same(t, cfg, GetConfig())
}
