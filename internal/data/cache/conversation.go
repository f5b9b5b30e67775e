package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

const (
	conversationKeyPrefix  = "edubot:conversation:"
	DefaultConversationTTL = 30 * time.Minute
)

// ConversationCache holds JSON snapshots of conversations keyed by id. A miss
// returns (nil, nil).
type ConversationCache interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	Set(ctx context.Context, conv *domain.Conversation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type redisConversationCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewRedisConversationCache(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) ConversationCache {
	if ttl <= 0 {
		ttl = DefaultConversationTTL
	}
	return &redisConversationCache{log: log.With("cache", "ConversationCache"), rdb: rdb, ttl: ttl}
}

func ConversationKey(id uuid.UUID) string {
	return conversationKeyPrefix + id.String()
}

func (c *redisConversationCache) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	raw, err := c.rdb.Get(ctx, ConversationKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return DecodeConversation(raw)
}

func (c *redisConversationCache) Set(ctx context.Context, conv *domain.Conversation) error {
	raw, err := EncodeConversation(conv)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, ConversationKey(conv.ID), raw, c.ttl).Err()
}

func (c *redisConversationCache) Delete(ctx context.Context, id uuid.UUID) error {
	return c.rdb.Del(ctx, ConversationKey(id)).Err()
}

func EncodeConversation(conv *domain.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("nil conversation")
	}
	return json.Marshal(conv)
}

func DecodeConversation(raw []byte) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	if conv.ID == uuid.Nil {
		return nil, fmt.Errorf("cache decode: missing id")
	}
	return &conv, nil
}
