package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/data/repos/testutil"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/apierr"
)

func newConversationService(t *testing.T) (ConversationService, *fixture) {
	t.Helper()
	f := newFixture(t)
	log := testutil.Logger(t)
	return NewConversationService(f.db, log, repos.NewConversationRepo(f.db, log), nil), f
}

func TestAppendMessageKeepsUpdatedAtMonotonic(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	conv := &domain.Conversation{UpdatedAt: start}

	AppendMessage(conv, domain.Message{Role: domain.MessageRoleUser, Content: "hi"}, start.Add(time.Minute))
	if !conv.UpdatedAt.Equal(start.Add(time.Minute)) {
		t.Fatalf("UpdatedAt: want=%s got=%s", start.Add(time.Minute), conv.UpdatedAt)
	}
	// A skewed clock must not move UpdatedAt backwards.
	AppendMessage(conv, domain.Message{Role: domain.MessageRoleModel, Content: "hello"}, start)
	if !conv.UpdatedAt.Equal(start.Add(time.Minute)) {
		t.Fatalf("UpdatedAt went backwards: got=%s", conv.UpdatedAt)
	}
	if len(conv.Messages) != 2 || conv.Messages[1].Timestamp.IsZero() {
		t.Fatalf("messages: got=%+v", conv.Messages)
	}
}

func TestGetOrCreateReusesUnknownSessionID(t *testing.T) {
	svc, f := newConversationService(t)
	u := f.seedUser(t, "ana@school.edu", domain.RoleStudent)
	id := uuid.New()

	conv, err := svc.GetOrCreate(context.Background(), id.String(), u.ID, "Water cycle")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if conv.ID != id || conv.Title != "Water cycle" || len(conv.Messages) != 0 {
		t.Fatalf("new conversation: got=%+v", conv)
	}

	fresh, err := svc.GetOrCreate(context.Background(), "not-a-uuid", u.ID, "")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if fresh.ID == uuid.Nil || fresh.Title != DefaultConversationTitle {
		t.Fatalf("fresh conversation: got=%+v", fresh)
	}
}

func TestGetOrCreateIgnoresForeignSession(t *testing.T) {
	svc, f := newConversationService(t)
	owner := f.seedUser(t, "owner@school.edu", domain.RoleStudent)
	other := f.seedUser(t, "other@school.edu", domain.RoleStudent)
	ctx := context.Background()

	conv, err := svc.GetOrCreate(ctx, "", owner.ID, "mine")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	svc.Append(conv, domain.Message{Role: domain.MessageRoleUser, Content: "secret"})
	if err := svc.Persist(ctx, conv); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, err := svc.GetOrCreate(ctx, conv.ID.String(), other.ID, "theirs")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if got.ID == conv.ID || len(got.Messages) != 0 || got.UserID != other.ID {
		t.Fatalf("foreign session leaked: got=%+v", got)
	}

	_, err = svc.Get(ctx, other.ID, conv.ID)
	if ae := apierr.As(err); ae == nil || ae.Status != 403 || !errors.Is(err, ErrForbidden) {
		t.Fatalf("Get foreign: want 403 got=%v", err)
	}
}

func TestPersistRacingAdoptersKeepFirstOwner(t *testing.T) {
	svc, f := newConversationService(t)
	ana := f.seedUser(t, "ana@school.edu", domain.RoleStudent)
	bo := f.seedUser(t, "bo@school.edu", domain.RoleStudent)
	ctx := context.Background()
	id := uuid.New().String()

	first, err := svc.GetOrCreate(ctx, id, ana.ID, "ana")
	if err != nil {
		t.Fatalf("GetOrCreate ana: %v", err)
	}
	second, err := svc.GetOrCreate(ctx, id, bo.ID, "bo")
	if err != nil {
		t.Fatalf("GetOrCreate bo: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("both callers should adopt the unknown id")
	}

	if err := svc.Persist(ctx, first); err != nil {
		t.Fatalf("Persist ana: %v", err)
	}
	err = svc.Persist(ctx, second)
	if ae := apierr.As(err); ae == nil || ae.Status != 403 || !errors.Is(err, ErrForbidden) {
		t.Fatalf("Persist bo: want 403 got=%v", err)
	}
	if second.Version != 0 {
		t.Fatalf("Version after rejected persist: want=0 got=%d", second.Version)
	}

	got, err := svc.Get(ctx, ana.ID, first.ID)
	if err != nil || got.Title != "ana" {
		t.Fatalf("owner copy: err=%v got=%+v", err, got)
	}
}

func TestPersistIsIdempotentUpsert(t *testing.T) {
	svc, f := newConversationService(t)
	u := f.seedUser(t, "ana@school.edu", domain.RoleStudent)
	ctx := context.Background()

	conv, _ := svc.GetOrCreate(ctx, "", u.ID, "t")
	svc.Append(conv, domain.Message{Role: domain.MessageRoleUser, Content: "one"})
	for i := 0; i < 2; i++ {
		if err := svc.Persist(ctx, conv); err != nil {
			t.Fatalf("Persist #%d: %v", i, err)
		}
	}

	list, err := svc.List(ctx, u.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].MessageCount != 1 {
		t.Fatalf("List: want one row with one message got=%+v", list)
	}
	loaded, err := svc.Get(ctx, u.ID, conv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.Version != 2 {
		t.Fatalf("Version: want=2 got=%d", loaded.Version)
	}

	if err := svc.Delete(ctx, u.ID, conv.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, u.ID, conv.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: want ErrNotFound got=%v", err)
	}
}
