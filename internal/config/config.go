package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the tutoring service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	BrainProvider string

	GeminiAPIKey       string
	GeminiBaseURL      string
	GeminiTextModel    string
	GeminiTTSModel     string
	GeminiTemperature  float64
	GeminiDefaultVoice string

	RetryMaxRetries int
	RetryDelay      time.Duration

	StoreDriver   string
	DatabaseURL   string
	RedisURL      string
	RedisTTL      time.Duration
	StoreBoltPath string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "aimaster"),
		AllowAnyOrigin:   false,
		BrainProvider:    strings.ToLower(envOrDefault("BRAIN_PROVIDER", "auto")),
		GeminiAPIKey:     stringsTrimSpace("GEMINI_API_KEY"),
		GeminiBaseURL:    envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiTextModel:  envOrDefault("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiTTSModel:   envOrDefault("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		// Per-persona voices override this; it only covers unknown teachers.
		GeminiDefaultVoice:       envOrDefault("GEMINI_DEFAULT_VOICE", "Kore"),
		GeminiTemperature:        0.7,
		RetryMaxRetries:          2,
		RetryDelay:               2 * time.Second,
		StoreDriver:              strings.ToLower(envOrDefault("STORE_DRIVER", "auto")),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		RedisURL:                 stringsTrimSpace("REDIS_URL"),
		RedisTTL:                 30 * 24 * time.Hour,
		StoreBoltPath:            stringsTrimSpace("STORE_BOLT_PATH"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.GeminiTemperature, err = floatFromEnv("GEMINI_TEMPERATURE", cfg.GeminiTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.RetryMaxRetries, err = intFromEnv("RETRY_MAX_RETRIES", cfg.RetryMaxRetries)
	if err != nil {
		return Config{}, err
	}
	cfg.RetryDelay, err = durationFromEnv("RETRY_DELAY", cfg.RetryDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.RedisTTL, err = durationFromEnv("REDIS_TTL", cfg.RedisTTL)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	switch cfg.BrainProvider {
	case "auto", "gemini", "mock":
	default:
		return Config{}, fmt.Errorf("BRAIN_PROVIDER must be one of auto, gemini, mock")
	}
	if cfg.BrainProvider == "gemini" && cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY is required when BRAIN_PROVIDER=gemini")
	}
	if cfg.GeminiTemperature < 0 || cfg.GeminiTemperature > 2 {
		return Config{}, fmt.Errorf("GEMINI_TEMPERATURE must be within [0, 2]")
	}
	if cfg.RetryMaxRetries < 0 {
		return Config{}, fmt.Errorf("RETRY_MAX_RETRIES must be >= 0")
	}
	if cfg.RetryDelay < 0 {
		return Config{}, fmt.Errorf("RETRY_DELAY must be >= 0")
	}
	switch cfg.StoreDriver {
	case "auto", "memory", "bolt", "redis", "postgres":
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be one of auto, memory, bolt, redis, postgres")
	}

	return cfg, nil
}

// UseGemini reports whether the real backend should be wired.
func (c Config) UseGemini() bool {
	switch c.BrainProvider {
	case "gemini":
		return true
	case "mock":
		return false
	default:
		return c.GeminiAPIKey != ""
	}
}

func envOrDefault(key, fallback string) string {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
