// Package config loads doit-engine configuration from config.yaml with
// environment variable overrides. Secrets (passwords, signing keys) must only
// come from environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for doit-engine.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// FrontendHost is the base URL used when building invitation links.
	FrontendHost string `yaml:"frontend_host" env:"FRONTEND_HOST" env-default:"http://localhost:5173"`

	Auth        AuthConfig        `yaml:"auth"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Invitations InvitationsConfig `yaml:"invitations"`
	Cache       CacheConfig       `yaml:"cache"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// JWTSecret signs and verifies bearer tokens (HMAC). Secret - env only.
	JWTSecret string `yaml:"-" env:"JWT_SECRET"`

	// TokenTTLHours is the validity window for issued tokens.
	TokenTTLHours int `yaml:"token_ttl_hours" env:"AUTH_TOKEN_TTL_HOURS" env-default:"72"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"doit"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"doit_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// URL builds a postgres connection string from the config.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// RedisConfig holds Redis configuration for the listing cache. An empty host
// disables caching entirely.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// SMTPConfig holds outbound mail configuration. An empty host disables
// sending; notification emails are best-effort either way.
type SMTPConfig struct {
	Host      string `yaml:"host" env:"SMTP_HOST" env-default:""`
	Port      int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User      string `yaml:"user" env:"SMTP_USER" env-default:""`
	Password  string `yaml:"-" env:"SMTP_PASSWORD"` // Secret - not in YAML
	FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME" env-default:"DOit"`
	FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL" env-default:"noreply@doit.app"`
	StartTLS  bool   `yaml:"starttls" env:"SMTP_STARTTLS" env-default:"true"`
}

// Enabled reports whether outbound mail is configured.
func (c *SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// InvitationsConfig holds invitation lifecycle settings.
type InvitationsConfig struct {
	// ExpiryDays is how long an invitation token stays redeemable.
	ExpiryDays int `yaml:"expiry_days" env:"INVITATION_EXPIRY_DAYS" env-default:"7"`
}

// CacheConfig holds listing-cache settings.
type CacheConfig struct {
	// ListTTLSeconds bounds staleness of cached list results. There is no
	// write invalidation; expiry is the only correction mechanism.
	ListTTLSeconds int `yaml:"list_ttl_seconds" env:"CACHE_LIST_TTL_SECONDS" env-default:"30"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. If config.yaml is absent, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}
