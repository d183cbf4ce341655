package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "TahweelPay"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultCarrierBaseURL = "https://app.example-carrier.iq"
	defaultPollInterval   = 30 * time.Second
	defaultSweepInterval  = 10 * time.Minute
	defaultSessionTTL     = 15 * time.Minute
	defaultPendingTTL     = time.Hour
	defaultDedupeTTL      = 7 * 24 * time.Hour
	defaultPollPageSize   = 50
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// Carrier integration.
	CarrierBaseURL string
	StorePhone     string // fallback receiving number when no gateway channel is enabled
	PollInterval   time.Duration
	PollPageSize   int
	SweepInterval  time.Duration
	SessionTTL     time.Duration
	PendingTTL     time.Duration
	DedupeTTL      time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		CarrierBaseURL: getEnv("CARRIER_BASE_URL", defaultCarrierBaseURL),
		StorePhone:     os.Getenv("STORE_PHONE"),
		PollInterval:   defaultPollInterval,
		PollPageSize:   defaultPollPageSize,
		SweepInterval:  defaultSweepInterval,
		SessionTTL:     defaultSessionTTL,
		PendingTTL:     defaultPendingTTL,
		DedupeTTL:      defaultDedupeTTL,
	}

	durations := []struct {
		envVar string
		dst    *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
		{"POLL_INTERVAL", &cfg.PollInterval},
		{"SWEEP_INTERVAL", &cfg.SweepInterval},
		{"SESSION_TTL", &cfg.SessionTTL},
		{"PENDING_TTL", &cfg.PendingTTL},
		{"DEDUPE_TTL", &cfg.DedupeTTL},
	}
	for _, d := range durations {
		if v := os.Getenv(d.envVar); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.envVar, err)
			}
			*d.dst = parsed
		}
	}

	if v := os.Getenv("POLL_PAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return Config{}, fmt.Errorf("invalid POLL_PAGE_SIZE: %q", v)
		}
		cfg.PollPageSize = size
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
