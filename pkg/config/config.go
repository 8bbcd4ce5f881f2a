// Package config holds the environment-driven configuration for the service.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DbConfig is the PostgreSQL connection configuration
type DbConfig struct {
	Host     string `env:"AURORA_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"AURORA_PG_PORT" env-default:"5432"`
	Database string `env:"AURORA_PG_DATABASE" env-default:"aurora_db"`
	User     string `env:"AURORA_PG_USER" env-default:"aurora"`
	Password string `env:"AURORA_PG_PASSWORD" env-default:"pwd"`
}

// ToDatabaseURL builds a pgx connection string
func (d DbConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		d.User, d.Password, d.Host, d.Port, d.Database)
}

// JwtConfig carries the dual signing secrets and token lifetimes. The two
// secrets must differ so access and refresh tokens are never interchangeable.
type JwtConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET" env-default:"very-secure-access-secret"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET" env-default:"very-secure-refresh-secret"`
	AccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" env-default:"15m"`
	RefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" env-default:"168h"`
	CookieSecure  bool          `env:"COOKIE_SECURE" env-default:"false"`
}

// ServerConfig is the HTTP listener configuration
type ServerConfig struct {
	Host string `env:"AURORA_HTTP_HOST" env-default:"localhost"`
	Port uint16 `env:"AURORA_HTTP_PORT" env-default:"4000"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CacheConfig configures the in-process revocation cache
type CacheConfig struct {
	Enabled         bool          `env:"REVOCATION_CACHE_ENABLED" env-default:"true"`
	CleanupInterval time.Duration `env:"REVOCATION_CACHE_CLEANUP_INTERVAL" env-default:"5m"`
}

// HousekeepingConfig configures the background purge loop
type HousekeepingConfig struct {
	Interval       time.Duration `env:"HOUSEKEEPING_INTERVAL" env-default:"1h"`
	AuditRetention time.Duration `env:"AUDIT_RETENTION" env-default:"8760h"`
}

// Config is the aggregate service configuration
type Config struct {
	Db           DbConfig
	Jwt          JwtConfig
	Server       ServerConfig
	Cache        CacheConfig
	Housekeeping HousekeepingConfig
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	config := &Config{}
	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return config, nil
}
