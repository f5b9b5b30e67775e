package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/data/repos/testutil"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/dbctx"
)

func TestDistributeReportsEveryRecipient(t *testing.T) {
	f := newFixture(t)
	teacher := f.seedUser(t, "teacher@school.edu", domain.RoleTeacher)
	a := f.seedUser(t, "a@x.com", domain.RoleStudent)
	svc := NewDistributionService(testutil.Logger(t), f.users, f.lessons, nil)

	id, report, err := svc.Distribute(context.Background(), DistributeInput{
		Content:          "The water cycle...",
		Quiz:             domain.Quiz{{Question: "q", Options: []string{"A) 1", "B) 2", "C) 3", "D) 4"}, Answer: "A) 1", Explanation: "e"}},
		Topic:            "Pasted text",
		Source:           domain.LessonSourceText,
		CreatorID:        teacher.ID,
		CreatorEmail:     teacher.Email,
		RecipientEmails:  []string{" A@x.com ", "b@x.com", "a@x.com", "TEACHER@school.edu", ""},
		CreatorIsTeacher: true,
	})
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if !reflect.DeepEqual(report.Assigned, []string{"a@x.com"}) {
		t.Fatalf("Assigned: want=[a@x.com] got=%v", report.Assigned)
	}
	if !reflect.DeepEqual(report.NotFound, []string{"b@x.com"}) {
		t.Fatalf("NotFound: want=[b@x.com] got=%v", report.NotFound)
	}

	own := f.lessonsOf(t, teacher.ID)
	if len(own) != 1 || own[0].ID != id || own[0].AssignedBy != nil {
		t.Fatalf("creator copy: got=%+v", own)
	}
	theirs := f.lessonsOf(t, a.ID)
	if len(theirs) != 1 || theirs[0].AssignedBy == nil || *theirs[0].AssignedBy != teacher.ID {
		t.Fatalf("recipient copy: got=%+v", theirs)
	}
	if theirs[0].ID == id {
		t.Fatalf("recipient copy shares the creator's id")
	}
	for _, rec := range []*domain.LessonSummary{own[0], theirs[0]} {
		if rec.Status != domain.LessonStatusPending || rec.Score != nil {
			t.Fatalf("new copy: want status=pending score=nil got status=%s score=%v", rec.Status, rec.Score)
		}
	}
}

// flakyUserRepo fails lookups for one email.
type flakyUserRepo struct {
	repos.UserRepo
	failFor string
}

func (r *flakyUserRepo) GetByEmail(dbc dbctx.Context, email string) (*domain.User, error) {
	if email == r.failFor {
		return nil, errors.New("directory unavailable")
	}
	return r.UserRepo.GetByEmail(dbc, email)
}

func TestDistributeLookupFailureIsNotFound(t *testing.T) {
	f := newFixture(t)
	teacher := f.seedUser(t, "teacher@school.edu", domain.RoleTeacher)
	a := f.seedUser(t, "a@x.com", domain.RoleStudent)
	f.seedUser(t, "boom@x.com", domain.RoleStudent)
	users := &flakyUserRepo{UserRepo: f.users, failFor: "boom@x.com"}
	svc := NewDistributionService(testutil.Logger(t), users, f.lessons, nil)

	_, report, err := svc.Distribute(context.Background(), DistributeInput{
		Content:          "text",
		Topic:            "t",
		CreatorID:        teacher.ID,
		CreatorEmail:     teacher.Email,
		RecipientEmails:  []string{"a@x.com", "boom@x.com", "b@x.com"},
		CreatorIsTeacher: true,
	})
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if !reflect.DeepEqual(report.Assigned, []string{"a@x.com"}) {
		t.Fatalf("Assigned: want=[a@x.com] got=%v", report.Assigned)
	}
	if !reflect.DeepEqual(report.NotFound, []string{"boom@x.com", "b@x.com"}) {
		t.Fatalf("NotFound: want=[boom@x.com b@x.com] got=%v", report.NotFound)
	}
	if got := len(f.lessonsOf(t, a.ID)); got != 1 {
		t.Fatalf("recipient copies: want=1 got=%d", got)
	}
	if got := len(f.lessonsOf(t, teacher.ID)); got != 1 {
		t.Fatalf("creator copies: want=1 got=%d", got)
	}
}

func TestDistributeIgnoresRecipientsForStudents(t *testing.T) {
	f := newFixture(t)
	student := f.seedUser(t, "s@school.edu", domain.RoleStudent)
	f.seedUser(t, "a@x.com", domain.RoleStudent)
	users := &countingUserRepo{UserRepo: f.users}
	svc := NewDistributionService(testutil.Logger(t), users, f.lessons, nil)

	_, report, err := svc.Distribute(context.Background(), DistributeInput{
		Content:         "text",
		Topic:           "t",
		CreatorID:       student.ID,
		CreatorEmail:    student.Email,
		RecipientEmails: []string{"a@x.com"},
	})
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if len(report.Assigned) != 0 || len(report.NotFound) != 0 {
		t.Fatalf("report: want empty got=%+v", report)
	}
	if n := users.lookups.Load(); n != 0 {
		t.Fatalf("lookups: want=0 got=%d", n)
	}
	if got := len(f.lessonsOf(t, student.ID)); got != 1 {
		t.Fatalf("creator copies: want=1 got=%d", got)
	}
}

func TestSplitEmails(t *testing.T) {
	got := SplitEmails("a@x.com, b@x.com;c@x.com\n d@x.com")
	want := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitEmails: want=%v got=%v", want, got)
	}
}
