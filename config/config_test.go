package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/propfirm/risk"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, risk.DefaultPlan(), cfg.Plan)
	assert.NoError(t, cfg.Validate())

	d, err := cfg.API.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestValidate(t *testing.T) {
	withPlan := func(mut func(c *Config)) *Config {
		c := Default()
		mut(c)
		return c
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			config: Default(),
		},
		{
			name:    "unknown store",
			config:  withPlan(func(c *Config) { c.Store.Type = "postgres" }),
			wantErr: true,
			errMsg:  "store.type must be 'sqlite' or 'api'",
		},
		{
			name:    "sqlite without path",
			config:  withPlan(func(c *Config) { c.Store.DBPath = "" }),
			wantErr: true,
			errMsg:  "store.db_path required",
		},
		{
			name:    "api without url",
			config:  withPlan(func(c *Config) { c.Store.Type = "api" }),
			wantErr: true,
			errMsg:  "api.base_url required",
		},
		{
			name: "api store",
			config: withPlan(func(c *Config) {
				c.Store.Type = "api"
				c.API.BaseURL = "https://platform.example.com/api"
			}),
		},
		{
			name:    "bad timeout",
			config:  withPlan(func(c *Config) { c.API.Timeout = "soon" }),
			wantErr: true,
			errMsg:  "api.timeout",
		},
		{
			name:    "bad log level",
			config:  withPlan(func(c *Config) { c.Log.Level = "loud" }),
			wantErr: true,
			errMsg:  "log.level must be one of",
		},
		{
			name:    "zero daily loss",
			config:  withPlan(func(c *Config) { c.Plan.DailyLossLimitPercent = 0 }),
			wantErr: true,
			errMsg:  "daily_loss_limit_percent must be positive",
		},
		{
			name:    "bad timezone",
			config:  withPlan(func(c *Config) { c.Timezone = "Mars/Olympus" }),
			wantErr: true,
			errMsg:  "unknown timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Plan = risk.Plan{ProfitTargetPercent: 8, DailyLossLimitPercent: 4, MaxDrawdownPercent: 8}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unterminated"), 0644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PROPFIRM_STORE", "api")
	t.Setenv("PROPFIRM_API_URL", "http://localhost:8080")
	t.Setenv("PROPFIRM_API_TOKEN", "secret")
	t.Setenv("PROPFIRM_LOG_LEVEL", "debug")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, "api", cfg.Store.Type)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "./propfirm.sqlite", cfg.Store.DBPath)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvDotenv(t *testing.T) {
	for _, k := range []string{"PROPFIRM_DB", "PROPFIRM_TIMEZONE"} {
		k := k
		require.NoError(t, os.Unsetenv(k))
		t.Cleanup(func() { _ = os.Unsetenv(k) })
	}
	// process env beats the file
	t.Setenv("PROPFIRM_API_TIMEOUT", "5s")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"PROPFIRM_DB=/var/lib/propfirm/journal.db\nPROPFIRM_TIMEZONE=America/New_York\nPROPFIRM_API_TIMEOUT=90s\n"), 0600))

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(path))

	assert.Equal(t, "/var/lib/propfirm/journal.db", cfg.Store.DBPath)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, "5s", cfg.API.Timeout)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("PROPFIRM_DB", filepath.Join(t.TempDir(), "x.db"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Contains(t, cfg.Store.DBPath, "x.db")
}
