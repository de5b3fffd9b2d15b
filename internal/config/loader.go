package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PAMSIKA_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PAMSIKA_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setInt(&cfg.Server.Port, "PAMSIKA_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "PAMSIKA_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "PAMSIKA_SERVER_API_KEY")

	setStr(&cfg.Redis.Addr, "PAMSIKA_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PAMSIKA_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PAMSIKA_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PAMSIKA_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PAMSIKA_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PAMSIKA_REDIS_TLS_ENABLED")

	setStr(&cfg.Postgres.DSN, "PAMSIKA_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "PAMSIKA_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PAMSIKA_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "PAMSIKA_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PAMSIKA_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PAMSIKA_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PAMSIKA_POSTGRES_SSLMODE")
	setBool(&cfg.Postgres.RunMigrations, "PAMSIKA_POSTGRES_RUN_MIGRATIONS")

	setStr(&cfg.S3.Endpoint, "PAMSIKA_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PAMSIKA_S3_REGION")
	setStr(&cfg.S3.Bucket, "PAMSIKA_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PAMSIKA_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PAMSIKA_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PAMSIKA_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PAMSIKA_S3_FORCE_PATH_STYLE")

	setFloat64(&cfg.Marketplace.DefaultRadiusKm, "PAMSIKA_MARKETPLACE_DEFAULT_RADIUS_KM")
	setInt(&cfg.Marketplace.OfferTTLHours, "PAMSIKA_MARKETPLACE_OFFER_TTL_HOURS")
	setBool(&cfg.Marketplace.SeedSampleData, "PAMSIKA_MARKETPLACE_SEED_SAMPLE_DATA")

	setStr(&cfg.LogLevel, "PAMSIKA_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := parts[:0]
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		*dst = out
	}
}
