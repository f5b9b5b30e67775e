package lesson

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

// ScoreUpdate is applied to a single owner-scoped lesson record.
type ScoreUpdate struct {
	Score    int
	Total    int
	Feedback string
}

type LessonRecordRepo interface {
	Create(dbc dbctx.Context, rows []*types.LessonRecord) ([]*types.LessonRecord, error)
	GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.LessonRecord, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LessonSummary, error)
	ListAssigned(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LessonSummary, error)
	ListByGeneration(dbc dbctx.Context, generationID uuid.UUID) ([]*types.LessonRecord, error)
	DeleteForUser(dbc dbctx.Context, userID, id uuid.UUID) (bool, error)
	UpdateScoreForUser(dbc dbctx.Context, userID, id uuid.UUID, upd ScoreUpdate) (bool, error)
}

type lessonRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRecordRepo(db *gorm.DB, baseLog *logger.Logger) LessonRecordRepo {
	return &lessonRecordRepo{db: db, log: baseLog.With("repo", "LessonRecordRepo")}
}

var summaryColumns = []string{"id", "user_id", "assigned_by", "topic", "source", "score", "status", "timestamp"}

func (r *lessonRecordRepo) Create(dbc dbctx.Context, rows []*types.LessonRecord) ([]*types.LessonRecord, error) {
	if len(rows) == 0 {
		return []*types.LessonRecord{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetForUser returns (nil, nil) when the record is missing or owned by someone else.
func (r *lessonRecordRepo) GetForUser(dbc dbctx.Context, userID, id uuid.UUID) (*types.LessonRecord, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, fmt.Errorf("missing user_id or id")
	}
	var out []*types.LessonRecord
	if err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *lessonRecordRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LessonSummary, error) {
	return r.listSummaries(dbc, userID, limit, false)
}

func (r *lessonRecordRepo) ListAssigned(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LessonSummary, error) {
	return r.listSummaries(dbc, userID, limit, true)
}

func (r *lessonRecordRepo) listSummaries(dbc dbctx.Context, userID uuid.UUID, limit int, assignedOnly bool) ([]*types.LessonSummary, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	q := dbc.DB(r.db).
		Model(&types.LessonRecord{}).
		Select(summaryColumns).
		Where("user_id = ?", userID)
	if assignedOnly {
		q = q.Where("assigned_by IS NOT NULL")
	}
	var out []*types.LessonSummary
	if err := q.Order("timestamp DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonRecordRepo) ListByGeneration(dbc dbctx.Context, generationID uuid.UUID) ([]*types.LessonRecord, error) {
	if generationID == uuid.Nil {
		return nil, fmt.Errorf("missing generation_id")
	}
	var out []*types.LessonRecord
	if err := dbc.DB(r.db).
		Where("generation_id = ?", generationID).
		Order("timestamp ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonRecordRepo) DeleteForUser(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return false, fmt.Errorf("missing user_id or id")
	}
	res := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.LessonRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateScoreForUser only touches a record owned by userID; false means no row matched.
func (r *lessonRecordRepo) UpdateScoreForUser(dbc dbctx.Context, userID, id uuid.UUID, upd ScoreUpdate) (bool, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return false, fmt.Errorf("missing user_id or id")
	}
	res := dbc.DB(r.db).
		Model(&types.LessonRecord{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"score":    upd.Score,
			"total":    upd.Total,
			"status":   types.LessonStatusCompleted,
			"feedback": upd.Feedback,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
