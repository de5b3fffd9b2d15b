// Package config defines the top-level configuration for the pamsika
// marketplace backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by PAMSIKA_* environment
// variables.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Redis       RedisConfig       `toml:"redis"`
	Postgres    PostgresConfig    `toml:"postgres"`
	S3          S3Config          `toml:"s3"`
	Marketplace MarketplaceConfig `toml:"marketplace"`
	LogLevel    string            `toml:"log_level"`
}

// ServerConfig holds the HTTP/WebSocket server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"` // if empty, authentication is disabled
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters for the durable
// profile store.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for offer images.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// MarketplaceConfig holds negotiation-engine parameters.
type MarketplaceConfig struct {
	DefaultRadiusKm float64 `toml:"default_radius_km"`
	OfferTTLHours   int     `toml:"offer_ttl_hours"`
	SeedSampleData  bool    `toml:"seed_sample_data"`
}

// Validate checks the configuration for obvious misconfiguration. It returns
// the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if strings.TrimSpace(c.Postgres.DSN) == "" && strings.TrimSpace(c.Postgres.Host) == "" {
		return fmt.Errorf("config: postgres.dsn or postgres.host is required")
	}
	if strings.TrimSpace(c.S3.Bucket) == "" {
		return fmt.Errorf("config: s3.bucket is required")
	}
	if c.Marketplace.DefaultRadiusKm <= 0 {
		return fmt.Errorf("config: marketplace.default_radius_km must be positive")
	}
	if c.Marketplace.OfferTTLHours <= 0 {
		return fmt.Errorf("config: marketplace.offer_ttl_hours must be positive")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Defaults returns the built-in configuration used when fields are absent
// from the TOML file.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"*"},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "pamsika",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "pamsika-images",
			ForcePathStyle: true,
		},
		Marketplace: MarketplaceConfig{
			DefaultRadiusKm: 5.0,
			OfferTTLHours:   24,
			SeedSampleData:  false,
		},
		LogLevel: "info",
	}
}
