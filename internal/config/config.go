// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"pod-tracker/internal/catalog"
)

// Config holds settings shared by the server, worker and scheduler.
type Config struct {
	DatabaseURL      string
	Port             string
	RedisAddr        string
	TelegramBotToken string
	BaseURL          string
	LogLevel         string
	SyncBatchSize    int
	SyncSchedule     string
	SyncRateLimit    float64
	SyncRateBurst    int
	MaxPodcasts      int
	OTLPEndpoint     string
	OTLPInsecure     bool
}

// Load reads .env (when present) and the process environment.
// It returns whether a .env file was loaded so callers can log it.
func Load() (*Config, bool, error) {
	loaded := godotenv.Load() == nil

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Port:             getEnv("PORT", "8080"),
		RedisAddr:        getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		BaseURL:          strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		SyncSchedule:     getEnv("SYNC_SCHEDULE", "@every 1h"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.SyncBatchSize, err = getInt("SYNC_BATCH_SIZE", catalog.DefaultBatchSize); err != nil {
		return nil, loaded, err
	}
	if cfg.SyncBatchSize < 1 {
		return nil, loaded, fmt.Errorf("SYNC_BATCH_SIZE must be positive, got %d", cfg.SyncBatchSize)
	}
	if cfg.SyncRateBurst, err = getInt("SYNC_RATE_BURST", 3); err != nil {
		return nil, loaded, err
	}
	if cfg.MaxPodcasts, err = getInt("MAX_PODCASTS_PER_USER", 50); err != nil {
		return nil, loaded, err
	}
	if cfg.SyncRateLimit, err = getFloat("SYNC_RATE_LIMIT", 0.1); err != nil {
		return nil, loaded, err
	}
	if cfg.OTLPInsecure, err = getBool("OTEL_INSECURE", false); err != nil {
		return nil, loaded, err
	}
	return cfg, loaded, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
