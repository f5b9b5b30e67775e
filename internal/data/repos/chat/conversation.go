package chat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

// ErrNotOwned means the id is already stored under another user.
var ErrNotOwned = errors.New("conversation owned by another user")

type ConversationRepo interface {
	Upsert(dbc dbctx.Context, conv *types.Conversation) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error)
	DeleteForUser(dbc dbctx.Context, userID, id uuid.UUID) (bool, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

// Upsert replaces the stored row keyed by id, or inserts it. Ownership never
// moves: a row stored under another user is left alone and ErrNotOwned returned.
func (r *conversationRepo) Upsert(dbc dbctx.Context, conv *types.Conversation) error {
	if conv == nil {
		return fmt.Errorf("nil conversation")
	}
	if conv.ID == uuid.Nil {
		return fmt.Errorf("missing conversation id")
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "messages", "version", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "conversation.user_id = excluded.user_id"},
			}},
		}).
		Create(conv)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Warn("Upsert skipped; conversation owned by another user", "session_id", conv.ID, "user_id", conv.UserID)
		return ErrNotOwned
	}
	return nil
}

// GetByID returns (nil, nil) on a miss.
func (r *conversationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Conversation
	if err := dbc.DB(r.db).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *conversationRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.Conversation
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) DeleteForUser(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return false, fmt.Errorf("missing user_id or id")
	}
	res := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.Conversation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
