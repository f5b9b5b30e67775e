package lesson

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/edubot-backend/internal/data/repos/testutil"
	types "github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
)

func TestLessonRecordRepoOwnerScoping(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewLessonRecordRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(ctx)

	u1 := testutil.SeedUser(t, ctx, db, "u1@x", types.RoleStudent)
	u2 := testutil.SeedUser(t, ctx, db, "u2@x", types.RoleStudent)
	theirs := testutil.SeedLesson(t, ctx, db, u2.ID, "Volcanoes")

	ok, err := repo.UpdateScoreForUser(dbc, u1.ID, theirs.ID, ScoreUpdate{Score: 5, Total: 5, Feedback: "nice"})
	if err != nil {
		t.Fatalf("UpdateScoreForUser: %v", err)
	}
	if ok {
		t.Fatalf("UpdateScoreForUser: foreign record must not match")
	}
	if got, _ := repo.GetForUser(dbc, u1.ID, theirs.ID); got != nil {
		t.Fatalf("GetForUser: foreign record leaked")
	}
	if deleted, _ := repo.DeleteForUser(dbc, u1.ID, theirs.ID); deleted {
		t.Fatalf("DeleteForUser: foreign record deleted")
	}

	ok, err = repo.UpdateScoreForUser(dbc, u2.ID, theirs.ID, ScoreUpdate{Score: 4, Total: 5, Feedback: "good"})
	if err != nil || !ok {
		t.Fatalf("UpdateScoreForUser owner: ok=%v err=%v", ok, err)
	}
	got, err := repo.GetForUser(dbc, u2.ID, theirs.ID)
	if err != nil || got == nil {
		t.Fatalf("GetForUser owner: err=%v", err)
	}
	if got.Score == nil || *got.Score != 4 || got.Status != types.LessonStatusCompleted || got.Feedback != "good" {
		t.Fatalf("GetForUser owner: unexpected record %+v", got)
	}
	if len(got.Quiz) != 1 || !got.Quiz[0].HasAnswer() {
		t.Fatalf("GetForUser owner: quiz not round-tripped: %+v", got.Quiz)
	}
}

func TestLessonRecordRepoListing(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewLessonRecordRepo(db, testutil.Logger(t))
	dbc := dbctx.Of(ctx)

	teacher := testutil.SeedUser(t, ctx, db, "t@x", types.RoleTeacher)
	student := testutil.SeedUser(t, ctx, db, "s@x", types.RoleStudent)

	gen := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	rows := []*types.LessonRecord{
		{UserID: student.ID, GenerationID: uuid.New(), Topic: "own", Timestamp: base},
		{UserID: student.ID, AssignedBy: &teacher.ID, GenerationID: gen, Topic: "assigned", Timestamp: base.Add(time.Minute)},
		{UserID: teacher.ID, GenerationID: gen, Topic: "assigned", Timestamp: base.Add(time.Minute)},
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	hist, err := repo.ListByUser(dbc, student.ID, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(hist) != 2 || hist[0].Topic != "assigned" || hist[1].Topic != "own" {
		t.Fatalf("ListByUser: want newest first, got %+v", hist)
	}
	if hist[1].Status != types.LessonStatusPending {
		t.Fatalf("ListByUser: default status want=pending got=%s", hist[1].Status)
	}

	assigned, err := repo.ListAssigned(dbc, student.ID, 0)
	if err != nil || len(assigned) != 1 || assigned[0].AssignedBy == nil || *assigned[0].AssignedBy != teacher.ID {
		t.Fatalf("ListAssigned: err=%v rows=%+v", err, assigned)
	}

	byGen, err := repo.ListByGeneration(dbc, gen)
	if err != nil || len(byGen) != 2 {
		t.Fatalf("ListByGeneration: err=%v len=%d", err, len(byGen))
	}

	deleted, err := repo.DeleteForUser(dbc, student.ID, rows[0].ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteForUser: deleted=%v err=%v", deleted, err)
	}
	deleted, err = repo.DeleteForUser(dbc, student.ID, rows[0].ID)
	if err != nil || deleted {
		t.Fatalf("DeleteForUser twice: deleted=%v err=%v", deleted, err)
	}
}
