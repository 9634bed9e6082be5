package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.BrainProvider != "auto" || cfg.UseGemini() {
		t.Fatalf("BrainProvider = %q, UseGemini() = %v, want auto without gemini", cfg.BrainProvider, cfg.UseGemini())
	}
	if cfg.RetryMaxRetries != 2 || cfg.RetryDelay != 2*time.Second {
		t.Fatalf("retry = %d/%v, want 2/2s", cfg.RetryMaxRetries, cfg.RetryDelay)
	}
	if cfg.GeminiTemperature != 0.7 {
		t.Fatalf("GeminiTemperature = %v, want 0.7", cfg.GeminiTemperature)
	}
	if cfg.StoreDriver != "auto" || cfg.RedisTTL != 30*24*time.Hour {
		t.Fatalf("store = %q/%v", cfg.StoreDriver, cfg.RedisTTL)
	}
}

func TestLoadAutoUsesGeminiWhenKeyPresent(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GEMINI_API_KEY", "  secret  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GeminiAPIKey != "secret" {
		t.Fatalf("GeminiAPIKey = %q, want trimmed value", cfg.GeminiAPIKey)
	}
	if !cfg.UseGemini() {
		t.Fatalf("UseGemini() = false, want true")
	}

	t.Setenv("BRAIN_PROVIDER", "MOCK")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UseGemini() {
		t.Fatalf("UseGemini() = true with BRAIN_PROVIDER=mock")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("GEMINI_TEMPERATURE", "1.25")
	t.Setenv("RETRY_MAX_RETRIES", "0")
	t.Setenv("RETRY_DELAY", "500ms")
	t.Setenv("APP_ALLOW_ANY_ORIGIN", "yes")
	t.Setenv("STORE_DRIVER", "bolt")
	t.Setenv("STORE_BOLT_PATH", "/tmp/aimaster.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GeminiTemperature != 1.25 || cfg.RetryMaxRetries != 0 || cfg.RetryDelay != 500*time.Millisecond {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.AllowAnyOrigin || cfg.StoreDriver != "bolt" || cfg.StoreBoltPath != "/tmp/aimaster.db" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key, value, want string
	}{
		{"BRAIN_PROVIDER", "openai", "BRAIN_PROVIDER"},
		{"GEMINI_TEMPERATURE", "hot", "GEMINI_TEMPERATURE"},
		{"GEMINI_TEMPERATURE", "3", "GEMINI_TEMPERATURE"},
		{"RETRY_MAX_RETRIES", "-1", "RETRY_MAX_RETRIES"},
		{"RETRY_DELAY", "soon", "RETRY_DELAY"},
		{"STORE_DRIVER", "sqlite", "STORE_DRIVER"},
		{"APP_SESSION_INACTIVITY_TIMEOUT", "1s", "APP_SESSION_INACTIVITY_TIMEOUT"},
		{"APP_ALLOW_ANY_ORIGIN", "maybe", "APP_ALLOW_ANY_ORIGIN"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load() error = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestLoadGeminiRequiresKey(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("BRAIN_PROVIDER", "gemini")
	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want missing key error")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"BRAIN_PROVIDER",
		"GEMINI_API_KEY",
		"GEMINI_BASE_URL",
		"GEMINI_TEXT_MODEL",
		"GEMINI_TTS_MODEL",
		"GEMINI_TEMPERATURE",
		"GEMINI_DEFAULT_VOICE",
		"RETRY_MAX_RETRIES",
		"RETRY_DELAY",
		"STORE_DRIVER",
		"DATABASE_URL",
		"REDIS_URL",
		"REDIS_TTL",
		"STORE_BOLT_PATH",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
