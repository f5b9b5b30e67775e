package app

import (
	"testing"
	"time"

	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "AI_PROVIDER", "AI_LANGUAGE", "ACCESS_TOKEN_TTL", "CORS_ALLOWED_ORIGINS", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.Nop())
	if cfg.Port != "8080" {
		t.Fatalf("Port: want=8080 got=%s", cfg.Port)
	}
	if cfg.AIProvider != "gemini" {
		t.Fatalf("AIProvider: want=gemini got=%s", cfg.AIProvider)
	}
	if cfg.AILanguage != "Spanish" {
		t.Fatalf("AILanguage: want=Spanish got=%s", cfg.AILanguage)
	}
	if cfg.AccessTokenTTL != 24*time.Hour {
		t.Fatalf("AccessTokenTTL: want=24h got=%s", cfg.AccessTokenTTL)
	}
	if cfg.AllowedOrigins != nil || cfg.Redis.Addr != "" {
		t.Fatalf("optional settings should be empty: %+v %+v", cfg.AllowedOrigins, cfg.Redis)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("AI_TEMPERATURE", "0.2")
	t.Setenv("AI_TIMEOUT_SECONDS", "30")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://edubot.example.com, https://admin.example.com")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api-key=abc")

	cfg := LoadConfig(logger.Nop())
	if cfg.AIProvider != "openai" || cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("provider: got=%s model=%s", cfg.AIProvider, cfg.OpenAI.Model)
	}
	if cfg.OpenAI.Temperature != 0.2 || cfg.Gemini.Temperature != 0.2 {
		t.Fatalf("temperature: got=%v/%v", cfg.OpenAI.Temperature, cfg.Gemini.Temperature)
	}
	if cfg.AITimeout != 30*time.Second {
		t.Fatalf("AITimeout: want=30s got=%s", cfg.AITimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://admin.example.com" {
		t.Fatalf("AllowedOrigins: got=%v", cfg.AllowedOrigins)
	}
	if cfg.Otel.Headers["x-api-key"] != "abc" {
		t.Fatalf("otel headers: got=%v", cfg.Otel.Headers)
	}
}
