package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	m, err := NewManager()
	require.NoError(t, err)
	return m
}

func TestNewManagerDefaults(t *testing.T) {
	m := newTestManager(t)
	cfg := m.GetConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "sqlite", cfg.Review.Driver)
	assert.Equal(t, "redis://localhost:6379", cfg.Cache.RedisURL)
	assert.Equal(t, 3, cfg.Engine.PredictorAgreement)
	assert.InDelta(t, 0.05, cfg.Engine.BA1MinFrequency, 1e-12)
	assert.InDelta(t, 5e-5, cfg.Engine.PM2DominantCutoff, 1e-12)
	assert.Empty(t, cfg.Engine.DisabledCodes)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, m.Validate())
	assert.False(t, m.IsProduction())
}

func TestManagerEnvironmentOverride(t *testing.T) {
	t.Setenv("ACMG_ENGINE_SERVER_PORT", "9090")
	t.Setenv("ACMG_ENGINE_LOGGING_LEVEL", "debug")

	m := newTestManager(t)
	cfg := m.GetConfig()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.NoError(t, m.Validate())
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"missing database host", func(c *Config) { c.Database.Host = "" }},
		{"missing database name", func(c *Config) { c.Database.Database = "" }},
		{"unknown review driver", func(c *Config) { c.Review.Driver = "mysql" }},
		{"sqlite driver without path", func(c *Config) { c.Review.Path = "" }},
		{"postgres driver without dsn", func(c *Config) { c.Review.Driver = "postgres" }},
		{"missing redis url", func(c *Config) { c.Cache.RedisURL = "" }},
		{"missing frequency provider", func(c *Config) { c.Providers.Frequency.BaseURL = "" }},
		{"inverted frequency bands", func(c *Config) { c.Engine.BS1MinFrequency = 0.1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			tt.mutate(m.GetConfig())
			assert.Error(t, m.Validate())
		})
	}
}

func TestGetDatabaseConnectionString(t *testing.T) {
	m := newTestManager(t)
	m.GetConfig().Database.Password = "secret"

	dsn := m.GetDatabaseConnectionString()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=acmg_engine")
	assert.Contains(t, dsn, "password=secret")
	assert.Contains(t, dsn, "sslmode=disable")
}
