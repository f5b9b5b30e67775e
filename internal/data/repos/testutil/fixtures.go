package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/edubot-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, role types.Role) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Username: email,
		Password: "pw",
		Role:     role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, topic string) *types.LessonRecord {
	tb.Helper()
	r := &types.LessonRecord{
		ID:           uuid.New(),
		UserID:       ownerID,
		GenerationID: uuid.New(),
		Topic:        topic,
		Source:       types.LessonSourceText,
		Content:      "content",
		Quiz: []types.QuizQuestion{{
			Question:    "q?",
			Options:     []string{"A) a", "B) b", "C) c", "D) d"},
			Answer:      "A) a",
			Explanation: "because",
		}},
		Status: types.LessonStatusPending,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return r
}
