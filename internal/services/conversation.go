package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/edubot-backend/internal/data/cache"
	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

const (
	DefaultConversationTitle = "New Chat"
	conversationListLimit    = 50
)

// ConversationService owns conversation state: NEW (in memory only) until the
// first Persist, ACTIVE afterwards, DELETED once the owner deletes it.
// Concurrent Persist calls on the same id are last-writer-wins.
type ConversationService interface {
	// GetOrCreate loads the caller's conversation or starts a new, unsaved one.
	// A session id owned by another user is treated as a miss.
	GetOrCreate(ctx context.Context, sessionID string, userID uuid.UUID, defaultTitle string) (*domain.Conversation, error)
	Append(conv *domain.Conversation, msg domain.Message)
	Persist(ctx context.Context, conv *domain.Conversation) error
	List(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Conversation, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type conversationService struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  repos.ConversationRepo
	cache cache.ConversationCache
	now   func() time.Time
}

// NewConversationService accepts a nil cache.
func NewConversationService(db *gorm.DB, log *logger.Logger, repo repos.ConversationRepo, convCache cache.ConversationCache) ConversationService {
	return &conversationService{
		db:    db,
		log:   log.With("service", "ConversationService"),
		repo:  repo,
		cache: convCache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *conversationService) GetOrCreate(ctx context.Context, sessionID string, userID uuid.UUID, defaultTitle string) (*domain.Conversation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	id, err := uuid.Parse(strings.TrimSpace(sessionID))
	if err != nil {
		id = uuid.Nil
	}
	if id != uuid.Nil {
		conv, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if conv != nil {
			if conv.UserID == userID {
				return conv, nil
			}
			s.log.Warn("Session id belongs to another user; starting new conversation", "session_id", id, "user_id", userID)
			id = uuid.Nil
		}
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	title := strings.TrimSpace(defaultTitle)
	if title == "" {
		title = DefaultConversationTitle
	}
	now := s.now()
	return &domain.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Messages:  []domain.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *conversationService) load(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	if s.cache != nil {
		conv, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warn("Conversation cache read failed", "session_id", id, "error", err)
		} else if conv != nil {
			return conv, nil
		}
	}
	conv, err := s.repo.GetByID(dbctx.Of(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv != nil {
		s.cacheSet(ctx, conv)
	}
	return conv, nil
}

func (s *conversationService) Append(conv *domain.Conversation, msg domain.Message) {
	AppendMessage(conv, msg, s.now())
}

// AppendMessage adds msg and moves UpdatedAt to max(now, UpdatedAt).
func AppendMessage(conv *domain.Conversation, msg domain.Message, now time.Time) {
	if conv == nil {
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	conv.Messages = append(conv.Messages, msg)
	if now.After(conv.UpdatedAt) {
		conv.UpdatedAt = now
	}
}

// Persist replaces the stored conversation, or creates it. Repeating it with
// the same state yields the same row.
func (s *conversationService) Persist(ctx context.Context, conv *domain.Conversation) error {
	if conv == nil {
		return fmt.Errorf("nil conversation")
	}
	conv.Version++
	if err := s.repo.Upsert(dbctx.Of(ctx), conv); err != nil {
		conv.Version--
		if errors.Is(err, repos.ErrConversationNotOwned) {
			return forbidden("conversation_forbidden", "conversation")
		}
		return fmt.Errorf("persist conversation: %w", err)
	}
	s.cacheSet(ctx, conv)
	return nil
}

func (s *conversationService) List(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	rows, err := s.repo.ListByUser(dbctx.Of(ctx), userID, conversationListLimit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	out := make([]*domain.ConversationSummary, 0, len(rows))
	for _, c := range rows {
		out = append(out, &domain.ConversationSummary{
			ID:           c.ID,
			Title:        c.Title,
			MessageCount: len(c.Messages),
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return out, nil
}

func (s *conversationService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, notFound("conversation_not_found", "conversation")
	}
	if conv.UserID != userID {
		return nil, forbidden("conversation_forbidden", "conversation")
	}
	return conv, nil
}

func (s *conversationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.DeleteForUser(dbctx.Of(ctx), userID, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if !ok {
		return notFound("conversation_not_found", "conversation")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, id); err != nil {
			s.log.Warn("Conversation cache evict failed", "session_id", id, "error", err)
		}
	}
	return nil
}

func (s *conversationService) cacheSet(ctx context.Context, conv *domain.Conversation) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, conv); err != nil {
		s.log.Warn("Conversation cache write failed", "session_id", conv.ID, "error", err)
	}
}
