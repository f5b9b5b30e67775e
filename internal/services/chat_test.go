package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/edubot-backend/internal/ai/gateway/gatewaytest"
	"github.com/yungbote/edubot-backend/internal/data/repos"
	"github.com/yungbote/edubot-backend/internal/data/repos/testutil"
	"github.com/yungbote/edubot-backend/internal/domain"
)

func newChatService(t *testing.T, p *gatewaytest.Provider) (ChatService, ConversationService, *fixture) {
	t.Helper()
	f := newFixture(t)
	log := testutil.Logger(t)
	convs := NewConversationService(f.db, log, repos.NewConversationRepo(f.db, log), nil)
	return NewChatService(log, convs, gatewaytest.New(t, p)), convs, f
}

func TestChatSendContinuesSession(t *testing.T) {
	p := gatewaytest.Static("Evaporation turns water into vapor.")
	chat, convs, f := newChatService(t, p)
	u := f.seedUser(t, "ana@school.edu", domain.RoleStudent)
	ctx := context.Background()

	first, err := chat.Send(ctx, u.ID, "What is evaporation?", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	second, err := chat.Send(ctx, u.ID, "And condensation?", first.SessionID.String())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("session: want=%s got=%s", first.SessionID, second.SessionID)
	}

	conv, err := convs.Get(ctx, u.ID, first.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(conv.Messages) != 4 {
		t.Fatalf("messages: want=4 got=%d", len(conv.Messages))
	}
	if conv.Title != "What is evaporation?" {
		t.Fatalf("title: got=%q", conv.Title)
	}
	last := p.Calls()[len(p.Calls())-1]
	if !strings.Contains(last.Prompt, "What is evaporation?") || !strings.Contains(last.Prompt, "And condensation?") {
		t.Fatalf("history missing from prompt: %q", last.Prompt)
	}
}

func TestChatSendApologizesOnGatewayFailure(t *testing.T) {
	chat, convs, f := newChatService(t, gatewaytest.Failing(errors.New("connection reset")))
	u := f.seedUser(t, "ana@school.edu", domain.RoleStudent)

	reply, err := chat.Send(context.Background(), u.ID, "hello", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply.Response != ChatApology {
		t.Fatalf("response: want apology got=%q", reply.Response)
	}
	conv, err := convs.Get(context.Background(), u.ID, reply.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(conv.Messages) != 2 || conv.Messages[1].Content != ChatApology {
		t.Fatalf("apology not stored: %+v", conv.Messages)
	}
}

func TestChatSendRejectsEmptyMessage(t *testing.T) {
	chat, _, f := newChatService(t, gatewaytest.Static("x"))
	u := f.seedUser(t, "ana@school.edu", domain.RoleStudent)
	if _, err := chat.Send(context.Background(), u.ID, "   ", ""); err == nil {
		t.Fatalf("Send: want error for empty message")
	}
}

func TestAutoTitle(t *testing.T) {
	if got := AutoTitle("  short  "); got != "short" {
		t.Fatalf("AutoTitle: got=%q", got)
	}
	long := strings.Repeat("é", 45)
	got := AutoTitle(long)
	if got != strings.Repeat("é", 40)+"..." {
		t.Fatalf("AutoTitle: got=%q", got)
	}
}
