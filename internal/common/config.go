package common

import (
	"errors"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Auth     AuthConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string        `env:"DB_URL"`
	MaxConns        int32         `env:"DB_MAX_CONNS" env-default:"20"`
	MinConns        int32         `env:"DB_MIN_CONNS" env-default:"5"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" env-default:"30m"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" env-default:"5m"`
	DialTimeout     time.Duration `env:"DB_DIAL_TIMEOUT" env-default:"3s"`
}

// ServerConfig holds HTTP server-related configuration
type ServerConfig struct {
	Addr            string        `env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// StorageConfig holds object storage configuration (S3 / MinIO compatible)
type StorageConfig struct {
	Endpoint        string        `env:"S3_ENDPOINT"`
	Region          string        `env:"S3_REGION" env-default:"eu-central-1"`
	AccessKeyID     string        `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY"`
	Bucket          string        `env:"S3_BUCKET" env-default:"receipts"`
	SignedURLTTL    time.Duration `env:"S3_SIGNED_URL_TTL" env-default:"1h"`
}

// RedisConfig holds session store configuration
type RedisConfig struct {
	URL string `env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
}

// AuthConfig holds authentication-related configuration
type AuthConfig struct {
	SessionTTL time.Duration `env:"SESSION_TTL" env-default:"24h"`
}

// LoadConfig loads configuration from ./config/.env when present, falling
// back to process environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig("./config/.env", &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
		return nil, err
	}
	return &cfg, nil
}
