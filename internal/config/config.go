package config

import (
	"fmt"
	"os"
	"time"
)

// Backend names for the record store.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Backend     string // RECORDD_BACKEND ("postgres" or "redis", default "postgres")
	DatabaseURL string // RECORDD_DATABASE_URL (required for the postgres backend)
	RedisURL    string // RECORDD_REDIS_URL (required for the redis backend)
	HTTPAddr    string // RECORDD_HTTP_ADDR (default ":8080")
	NATSURL     string // RECORDD_NATS_URL (optional, empty = no events)
	AuthToken   string // RECORDD_AUTH_TOKEN (optional, empty = auth disabled)
	SeedFile    string // RECORDD_SEED_FILE (optional TOML fixtures loaded at startup)

	// Export settings
	ExportInterval   time.Duration // RECORDD_EXPORT_INTERVAL (default 3m; 0 = disabled)
	ExportS3Bucket   string        // RECORDD_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string        // RECORDD_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        // RECORDD_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string        // RECORDD_EXPORT_S3_KEY (default "recordd/backup.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		Backend:          envOrDefault("RECORDD_BACKEND", BackendPostgres),
		DatabaseURL:      os.Getenv("RECORDD_DATABASE_URL"),
		RedisURL:         os.Getenv("RECORDD_REDIS_URL"),
		HTTPAddr:         envOrDefault("RECORDD_HTTP_ADDR", ":8080"),
		NATSURL:          os.Getenv("RECORDD_NATS_URL"),
		AuthToken:        os.Getenv("RECORDD_AUTH_TOKEN"),
		SeedFile:         os.Getenv("RECORDD_SEED_FILE"),
		ExportS3Bucket:   os.Getenv("RECORDD_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("RECORDD_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("RECORDD_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Key:      envOrDefault("RECORDD_EXPORT_S3_KEY", "recordd/backup.jsonl"),
	}

	switch c.Backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("RECORDD_DATABASE_URL is required for the postgres backend")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return nil, fmt.Errorf("RECORDD_REDIS_URL is required for the redis backend")
		}
	default:
		return nil, fmt.Errorf("RECORDD_BACKEND: unknown backend %q", c.Backend)
	}

	intervalStr := envOrDefault("RECORDD_EXPORT_INTERVAL", "3m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("RECORDD_EXPORT_INTERVAL: %w", err)
		}
		c.ExportInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
