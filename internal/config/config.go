package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string

	MeiliSearchHost string
	MeiliMasterKey  string

	JWTSecret string

	// Minimum gap between event-triggered badge evaluations. Evaluations
	// landing inside the window are dropped, not queued.
	BadgeCooldownWindow time.Duration
	// TTL of the cached badge catalog in Redis.
	BadgeCatalogTTL time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	var err error
	cfg.BadgeCooldownWindow, err = time.ParseDuration(getEnv("BADGE_COOLDOWN_WINDOW", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BADGE_COOLDOWN_WINDOW: %w", err)
	}
	cfg.BadgeCatalogTTL, err = time.ParseDuration(getEnv("BADGE_CATALOG_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid BADGE_CATALOG_TTL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
