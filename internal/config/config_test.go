package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_PORT", "ADMIN_API_KEY", "LOG_LEVEL",
	"MONGODB_URI", "MONGODB_DB_NAME", "MONGODB_TIMEOUT",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REPORT_CACHE_TTL",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_REPORT_ID",
	"NOTIFY_WEBHOOK_URL", "EXPIRING_CRON_SCHEDULE", "REPORT_CRON_SCHEDULE",
	"EXPIRING_WINDOW_DAYS", "TIMEZONE",
}

// clearEnv blanks every key so values from the host do not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "costquote", cfg.MongoDB.DBName)
	assert.Equal(t, 10*time.Second, cfg.MongoDB.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 7, cfg.Reporting.ExpiringWindowDays)
	assert.Equal(t, "UTC", cfg.Reporting.Timezone)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even empty ones.
	for _, key := range []string{"APP_PORT", "REDIS_ADDR", "REDIS_DB", "EXPIRING_WINDOW_DAYS"} {
		require.NoError(t, os.Unsetenv(key))
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_PORT=9090\nREDIS_ADDR=localhost:6379\nREDIS_DB=2\nEXPIRING_WINDOW_DAYS=3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, key := range []string{"APP_PORT", "REDIS_ADDR", "REDIS_DB", "EXPIRING_WINDOW_DAYS"} {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 3, cfg.Reporting.ExpiringWindowDays)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"MONGODB_TIMEOUT":      "soon",
		"REDIS_DB":             "zero",
		"EXPIRING_WINDOW_DAYS": "-1",
		"TIMEZONE":             "Mars/Olympus",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestValidateSheetsPairing(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "/tmp/creds.json")

	_, err := Load(missingEnvFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_SHEET_REPORT_ID")

	t.Setenv("GOOGLE_SHEET_REPORT_ID", "sheet-id")
	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)
	assert.True(t, cfg.Sheets.Enabled())
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Validate())
}
