// Package config loads deployment configuration from file, environment and
// defaults using Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete deployment configuration.
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Review      ReviewConfig    `mapstructure:"review"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Providers   ProvidersConfig `mapstructure:"providers"`
	Engine      EngineConfig    `mapstructure:"engine"`
	Logging     LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig configures the PostgreSQL audit store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ReviewConfig configures the review-queue store. Driver is "sqlite" for
// single-node deployments or "postgres" for shared ones.
type ReviewConfig struct {
	Driver string `mapstructure:"driver"`
	// Path is the SQLite database file, used when Driver is "sqlite".
	Path string `mapstructure:"path"`
	// DSN is the PostgreSQL connection string, used when Driver is "postgres".
	DSN string `mapstructure:"dsn"`
}

// CacheConfig configures the Redis lookup cache and the in-process LRU.
type CacheConfig struct {
	RedisURL   string        `mapstructure:"redis_url"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	LocalSize  int           `mapstructure:"local_size"`
}

// ProviderConfig configures one external annotation client.
type ProviderConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
}

// ProvidersConfig groups the external annotation clients.
type ProvidersConfig struct {
	Frequency   ProviderConfig `mapstructure:"frequency"`
	Predictions ProviderConfig `mapstructure:"predictions"`
}

// EngineConfig configures the classification engine itself.
type EngineConfig struct {
	// DisabledCodes lists evidence codes whose assigners are inactive in
	// this deployment, e.g. because their data source is not wired.
	DisabledCodes []string `mapstructure:"disabled_codes"`

	PM2DominantCutoff  float64 `mapstructure:"pm2_dominant_cutoff"`
	PM2RecessiveCutoff float64 `mapstructure:"pm2_recessive_cutoff"`
	PM2DefaultCutoff   float64 `mapstructure:"pm2_default_cutoff"`
	BA1MinFrequency    float64 `mapstructure:"ba1_min_frequency"`
	BS1MinFrequency    float64 `mapstructure:"bs1_min_frequency"`
	PredictorAgreement int     `mapstructure:"predictor_agreement"`
	SpliceHighImpact   float64 `mapstructure:"splice_high_impact"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Manager loads and validates the configuration.
type Manager struct {
	config *Config
}

// NewManager creates a configuration manager and loads configuration from
// file, environment variables and defaults.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/acmg-evidence-engine/")

	viper.SetEnvPrefix("ACMG_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars suffice.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	viper.SetDefault("environment", "development")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "acmg_engine")
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")

	viper.SetDefault("review.driver", "sqlite")
	viper.SetDefault("review.path", "./data/review.db")
	viper.SetDefault("review.dsn", "")

	viper.SetDefault("cache.redis_url", "redis://localhost:6379")
	viper.SetDefault("cache.default_ttl", "24h")
	viper.SetDefault("cache.local_size", 1024)

	viper.SetDefault("providers.frequency.base_url", "https://gnomad.broadinstitute.org/api")
	viper.SetDefault("providers.frequency.timeout", "30s")
	viper.SetDefault("providers.frequency.rate_limit", 10)

	viper.SetDefault("providers.predictions.base_url", "https://rest.ensembl.org")
	viper.SetDefault("providers.predictions.timeout", "30s")
	viper.SetDefault("providers.predictions.rate_limit", 10)

	viper.SetDefault("engine.disabled_codes", []string{})
	viper.SetDefault("engine.pm2_dominant_cutoff", 5e-5)
	viper.SetDefault("engine.pm2_recessive_cutoff", 1e-3)
	viper.SetDefault("engine.pm2_default_cutoff", 1e-4)
	viper.SetDefault("engine.ba1_min_frequency", 0.05)
	viper.SetDefault("engine.bs1_min_frequency", 0.01)
	viper.SetDefault("engine.predictor_agreement", 3)
	viper.SetDefault("engine.splice_high_impact", 0.2)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Validate checks the loaded configuration for deployment mistakes.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if config.Database.Username == "" {
		return fmt.Errorf("database username is required")
	}

	switch config.Review.Driver {
	case "sqlite":
		if config.Review.Path == "" {
			return fmt.Errorf("review store path is required for the sqlite driver")
		}
	case "postgres":
		if config.Review.DSN == "" {
			return fmt.Errorf("review store DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid review store driver: %s", config.Review.Driver)
	}

	if config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required")
	}

	if config.Providers.Frequency.BaseURL == "" {
		return fmt.Errorf("frequency provider base URL is required")
	}
	if config.Providers.Predictions.BaseURL == "" {
		return fmt.Errorf("predictions provider base URL is required")
	}

	if config.Engine.BA1MinFrequency <= config.Engine.BS1MinFrequency {
		return fmt.Errorf("ba1_min_frequency must exceed bs1_min_frequency")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// GetDatabaseConnectionString returns the PostgreSQL connection string for
// the audit store.
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
}

// IsProduction reports whether the deployment runs in production mode.
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}
