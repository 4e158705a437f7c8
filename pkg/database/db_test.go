package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'UTC'", quoteLiteral("UTC"))
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DASHBOARD_SETTINGS_DSN", "")
	assert.False(t, ConfigFromEnv().Enabled())

	t.Setenv("DASHBOARD_SETTINGS_DSN", "postgres://u:p@localhost/db?sslmode=disable")
	cfg := ConfigFromEnv()
	assert.True(t, cfg.Enabled())
	assert.Equal(t, 2, cfg.MaxConns)
}
