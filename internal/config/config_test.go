package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DASHBOARD_API_URL", "")
	t.Setenv("DASHBOARD_TIMEOUT", "")
	t.Setenv("DASHBOARD_SETTINGS_FILE", "")
	t.Setenv("DASHBOARD_SETTINGS_DSN", "")

	cfg := FromEnv()
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "settings.yaml", filepath.Base(cfg.SettingsFile))
	assert.False(t, cfg.Database.Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DASHBOARD_API_URL", "http://localhost:9000")
	t.Setenv("DASHBOARD_TIMEOUT", "3s")
	t.Setenv("DASHBOARD_SETTINGS_FILE", "/tmp/s.yaml")
	t.Setenv("DASHBOARD_USERNAME", "admin@example.com")

	cfg := FromEnv()
	assert.Equal(t, "http://localhost:9000", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "/tmp/s.yaml", cfg.SettingsFile)
	assert.Equal(t, "admin@example.com", cfg.Username)
}

func TestFromEnvIgnoresBadTimeout(t *testing.T) {
	t.Setenv("DASHBOARD_TIMEOUT", "soon")
	assert.Equal(t, DefaultTimeout, FromEnv().Timeout)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DASHBOARD_API_URL=http://from-dotenv\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// godotenv never overrides variables that are already set.
	os.Unsetenv("DASHBOARD_API_URL")
	t.Cleanup(func() { os.Unsetenv("DASHBOARD_API_URL") })

	assert.Equal(t, "http://from-dotenv", Load().APIURL)
}
