package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/edubot-backend/internal/ai/gateway"
	"github.com/yungbote/edubot-backend/internal/data/cache"
	"github.com/yungbote/edubot-backend/internal/platform/gemini"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
	"github.com/yungbote/edubot-backend/internal/platform/openai"
)

type Clients struct {
	// Redis is nil when REDIS_ADDR is unset.
	Redis    *goredis.Client
	Provider gateway.Provider
	closers  []func() error
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		c.Redis = rdb
		c.closers = append(c.closers, rdb.Close)
	} else {
		log.Info("REDIS_ADDR not set; conversation cache disabled")
	}

	// AI provider
	switch cfg.AIProvider {
	case gemini.ProviderName:
		client, err := gemini.New(ctx, log, cfg.Gemini)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init gemini client: %w", err)
		}
		c.Provider = client
		c.closers = append(c.closers, client.Close)
	case openai.ProviderName:
		client, err := openai.New(log, cfg.OpenAI)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		c.Provider = client
	default:
		c.Close()
		return Clients{}, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AIProvider)
	}
	log.Info("AI provider ready", "provider", c.Provider.Name())
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
}
