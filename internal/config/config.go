package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Storage
	DBPath string

	// Export engine
	ExportWorkers int
	ExportTimeout time.Duration

	// Scheduler
	SchedulerEnabled      bool
	SchedulerInterval     time.Duration
	SchedulerStartupDelay time.Duration

	// Publishing webhook
	PublishURL   string
	PublishToken string

	// Request limits
	MaxBodyBytes int64
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		APIKey: os.Getenv("STATIOND_API_KEY"),

		DBPath: envOr("STATIOND_DB_PATH", "station.db"),

		ExportWorkers: envInt("EXPORT_WORKERS", 4),
		ExportTimeout: envDuration("EXPORT_TIMEOUT", 2*time.Minute),

		SchedulerEnabled:      envBool("SCHEDULER_ENABLED", true),
		SchedulerInterval:     envDuration("SCHEDULER_INTERVAL", 30*time.Second),
		SchedulerStartupDelay: envDuration("SCHEDULER_STARTUP_DELAY", 5*time.Second),

		PublishURL:   os.Getenv("PUBLISH_URL"),
		PublishToken: os.Getenv("PUBLISH_TOKEN"),

		MaxBodyBytes: envInt64("MAX_BODY_BYTES", 10485760), // 10MB
	}

	if cfg.ExportWorkers <= 0 {
		cfg.ExportWorkers = 4
	}
	if cfg.ExportTimeout <= 0 {
		cfg.ExportTimeout = 2 * time.Minute
	}
	if cfg.SchedulerInterval <= 0 {
		cfg.SchedulerInterval = 30 * time.Second
	}
	if cfg.SchedulerStartupDelay < 0 {
		cfg.SchedulerStartupDelay = 5 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10485760
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("STATIOND_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("STATIOND_DB_PATH is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
