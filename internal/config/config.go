package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/pkg/database"
	"github.com/ovaphlow/pitchfork/dashboard-core-go/pkg/utilities"
)

const (
	DefaultAPIURL  = "https://sm-order-manage.onrender.com"
	DefaultTimeout = 15 * time.Second
)

// Config is everything the dashboard core needs to start a session.
type Config struct {
	APIURL       string
	Timeout      time.Duration
	SettingsFile string
	Database     database.Config
	Log          utilities.Config

	// Username and Password are only used by non-interactive callers (CLI).
	Username string
	Password string
}

// Load reads a .env file when present and then the environment.
// A missing .env is not an error.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads config from environment variables, applying defaults.
func FromEnv() Config {
	cfg := Config{
		APIURL:       os.Getenv("DASHBOARD_API_URL"),
		SettingsFile: os.Getenv("DASHBOARD_SETTINGS_FILE"),
		Database:     database.ConfigFromEnv(),
		Log:          utilities.ConfigFromEnv(),
		Username:     os.Getenv("DASHBOARD_USERNAME"),
		Password:     os.Getenv("DASHBOARD_PASSWORD"),
		Timeout:      DefaultTimeout,
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if v := os.Getenv("DASHBOARD_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if cfg.SettingsFile == "" {
		cfg.SettingsFile = defaultSettingsFile()
	}
	return cfg
}

func defaultSettingsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "dashboard", "settings.yaml")
}
