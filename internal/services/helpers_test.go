package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/data/repos/testutil"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/ctxutil"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
)

const validQuizJSON = `[
 {"question":"What drives evaporation?","options":["A) Sun","B) Moon","C) Wind","D) Rock"],"answer":"A) Sun","explanation":"Solar heat."},
 {"question":"What forms clouds?","options":["A) Dust","B) Condensation","C) Salt","D) Ice"],"answer":"B) Condensation","explanation":"Vapor cools."}
]`

type fixture struct {
	db      *gorm.DB
	users   repos.UserRepo
	lessons repos.LessonRecordRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &fixture{
		db:      db,
		users:   repos.NewUserRepo(db, log),
		lessons: repos.NewLessonRecordRepo(db, log),
	}
}

func (f *fixture) seedUser(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), f.db, email, role)
}

func (f *fixture) lessonsOf(t *testing.T, userID uuid.UUID) []*domain.LessonSummary {
	t.Helper()
	rows, err := f.lessons.ListByUser(dbctx.Of(context.Background()), userID, 100)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	return rows
}

func asUser(u *domain.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
	})
}

// countingUserRepo records how many email lookups reach the repo.
type countingUserRepo struct {
	repos.UserRepo
	lookups atomic.Int64
}

func (c *countingUserRepo) GetByEmail(dbc dbctx.Context, email string) (*domain.User, error) {
	c.lookups.Add(1)
	return c.UserRepo.GetByEmail(dbc, email)
}
