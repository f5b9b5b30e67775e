package app

import (
	"strings"
	"time"

	"github.com/yungbote/edubot-backend/internal/ai/gateway"
	"github.com/yungbote/edubot-backend/internal/data/cache"
	"github.com/yungbote/edubot-backend/internal/data/db"
	"github.com/yungbote/edubot-backend/internal/observability"
	"github.com/yungbote/edubot-backend/internal/platform/envutil"
	"github.com/yungbote/edubot-backend/internal/platform/gemini"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
	"github.com/yungbote/edubot-backend/internal/platform/openai"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port string

	DB    db.Config
	Redis cache.RedisConfig
	// ConversationCacheTTL is ignored when Redis.Addr is empty.
	ConversationCacheTTL time.Duration

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	AIProvider       string
	Gemini           gemini.Config
	OpenAI           openai.Config
	AITimeout        time.Duration
	AILanguage       string
	FallbackFeedback string

	AllowedOrigins []string
	MetricsEnabled bool
	Otel           observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	temperature := float32(envutil.Float("AI_TEMPERATURE", 0.7, log))
	maxRetries := envutil.Int("AI_MAX_RETRIES", 4, log)

	cfg := Config{
		Port: envutil.String("PORT", "8080", log),
		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres, log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "edubot", log),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "edubot.db", log),
			MaxOpenConns:     envutil.Int("DB_MAX_OPEN_CONNS", 20, log),
			MaxIdleConns:     envutil.Int("DB_MAX_IDLE_CONNS", 5, log),
		},
		Redis: cache.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", "", log),
			Password: envutil.String("REDIS_PASSWORD", "", log),
			DB:       envutil.Int("REDIS_DB", 0, log),
		},
		ConversationCacheTTL: envutil.Seconds("CONVERSATION_CACHE_TTL", 30*time.Minute, log),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", defaultJWTSecret, log),
		AccessTokenTTL: envutil.Seconds("ACCESS_TOKEN_TTL", 24*time.Hour, log),

		AIProvider: strings.ToLower(envutil.String("AI_PROVIDER", gemini.ProviderName, log)),
		Gemini: gemini.Config{
			APIKey:      envutil.String("GEMINI_API_KEY", "", log),
			Model:       envutil.String("GEMINI_MODEL", gemini.DefaultModel, log),
			Temperature: temperature,
			MaxRetries:  maxRetries,
		},
		OpenAI: openai.Config{
			APIKey:      envutil.String("OPENAI_API_KEY", "", log),
			BaseURL:     envutil.String("OPENAI_BASE_URL", "", log),
			Model:       envutil.String("OPENAI_MODEL", openai.DefaultModel, log),
			Temperature: temperature,
			MaxRetries:  maxRetries,
		},
		AITimeout:        envutil.Seconds("AI_TIMEOUT_SECONDS", 120*time.Second, log),
		AILanguage:       envutil.String("AI_LANGUAGE", gateway.DefaultLanguage, log),
		FallbackFeedback: envutil.String("FALLBACK_FEEDBACK", "", log),

		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil, log),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true, log),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "edubot", log),
			Environment: envutil.String("APP_ENV", "development", log),
			Version:     envutil.String("APP_VERSION", "dev", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true, log),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log)),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1.0, log),
		},
	}
	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set; using the insecure development default")
	}
	return cfg
}
