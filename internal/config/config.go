// Package config loads the server configuration from the environment and,
// optionally, from a .env or config.yaml file. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"trailerpos/internal/core/security"
)

// Config is the complete server configuration.
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	JWT       JWTConfig
	OrderLock string

	// DefaultStore is the store code used when a request names none
	DefaultStore string
}

// AppConfig holds general settings.
type AppConfig struct {
	Env      string // development, staging, production
	LogLevel string
}

// IsDevelopment reports whether the app runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr returns host:port.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig selects where snapshots are persisted.
// A non-empty DatabaseURL selects Postgres; otherwise snapshots are files
// in the SnapshotPath directory.
type StorageConfig struct {
	DatabaseURL      string
	SnapshotPath     string
	AutosaveInterval time.Duration

	// Retain is how many snapshots are kept
	Retain int
}

// UsesPostgres reports whether snapshots go to Postgres.
func (c StorageConfig) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

// JWTConfig holds the token settings.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

const insecureSecret = "change-me-in-production"

// Load reads the configuration. Files are optional.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.MergeInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.MergeInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("read config.yaml: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_HOST", "127.0.0.1")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SNAPSHOT_PATH", "data/snapshots")
	v.SetDefault("AUTOSAVE_INTERVAL", "5m")
	v.SetDefault("SNAPSHOT_RETAIN", 20)
	v.SetDefault("JWT_SECRET", insecureSecret)
	v.SetDefault("JWT_TTL", "12h")
	v.SetDefault("ORDER_LOCK", "never")
	v.SetDefault("DEFAULT_STORE", "T1")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		Storage: StorageConfig{
			DatabaseURL:      strings.TrimSpace(v.GetString("DATABASE_URL")),
			SnapshotPath:     strings.TrimSpace(v.GetString("SNAPSHOT_PATH")),
			AutosaveInterval: v.GetDuration("AUTOSAVE_INTERVAL"),
			Retain:           v.GetInt("SNAPSHOT_RETAIN"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		OrderLock:    v.GetString("ORDER_LOCK"),
		DefaultStore: v.GetString("DEFAULT_STORE"),
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would only fail later at runtime.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT %d out of range", c.HTTP.Port)
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.AutosaveInterval() < 0 {
		return errors.New("AUTOSAVE_INTERVAL cannot be negative")
	}
	if c.Storage.Retain < 1 {
		return errors.New("SNAPSHOT_RETAIN must be at least 1")
	}
	if !c.Storage.UsesPostgres() && c.Storage.SnapshotPath == "" {
		return errors.New("either DATABASE_URL or SNAPSHOT_PATH is required")
	}
	if c.App.Env == "production" && c.JWT.Secret == insecureSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if _, err := c.LockPolicy(); err != nil {
		return fmt.Errorf("ORDER_LOCK: %w", err)
	}
	return nil
}

// AutosaveInterval is the period between snapshots; zero disables autosave.
func (c *Config) AutosaveInterval() time.Duration {
	return c.Storage.AutosaveInterval
}

// LockPolicy parses ORDER_LOCK.
func (c *Config) LockPolicy() (security.OrderLockPolicy, error) {
	return security.ParseOrderLockPolicy(c.OrderLock)
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}
