package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all settings the service reads from the environment.
type Config struct {
	AppEnv        string
	Port          string
	DatabaseURL   string
	RedisURL      string
	SessionSecret string
	LogLevel      string
	LogFormat     string

	// HotGravity is the decay exponent of the hot feed ranking. Higher
	// values bury old posts faster. The exact constant is a tunable, not a
	// fixed law.
	HotGravity float64

	// FeedMaxLimit caps the page size a client may request.
	FeedMaxLimit int

	// UnreadCacheTTL bounds the staleness of the Redis-cached unread
	// notification count. The unread endpoint is a polling contract;
	// a few seconds of staleness is acceptable.
	UnreadCacheTTL time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	var err error
	cfg.HotGravity, err = getEnvFloat("HOT_GRAVITY", 1.8)
	if err != nil {
		return nil, err
	}
	if cfg.HotGravity <= 0 {
		return nil, fmt.Errorf("HOT_GRAVITY must be positive, got %v", cfg.HotGravity)
	}

	cfg.FeedMaxLimit, err = getEnvInt("FEED_MAX_LIMIT", 100)
	if err != nil {
		return nil, err
	}
	if cfg.FeedMaxLimit < 1 {
		return nil, fmt.Errorf("FEED_MAX_LIMIT must be at least 1, got %d", cfg.FeedMaxLimit)
	}

	ttlSeconds, err := getEnvInt("UNREAD_CACHE_TTL_SECONDS", 10)
	if err != nil {
		return nil, err
	}
	if ttlSeconds < 1 {
		return nil, fmt.Errorf("UNREAD_CACHE_TTL_SECONDS must be at least 1, got %d", ttlSeconds)
	}
	cfg.UnreadCacheTTL = time.Duration(ttlSeconds) * time.Second

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}
