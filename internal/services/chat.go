package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yungbote/edubot-backend/internal/ai/gateway"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/apierr"
	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

const (
	autoTitleRunes  = 40
	maxMessageRunes = 8000
	// ChatApology is returned in place of a model reply when the gateway fails.
	ChatApology = "Sorry, I'm having trouble answering right now. Please try again in a moment."
)

type ChatReply struct {
	Response  string    `json:"response"`
	SessionID uuid.UUID `json:"session_id"`
}

type ChatService interface {
	Send(ctx context.Context, userID uuid.UUID, message, sessionID string) (*ChatReply, error)
}

type chatService struct {
	log           *logger.Logger
	conversations ConversationService
	ai            *gateway.Gateway
}

func NewChatService(log *logger.Logger, conversations ConversationService, ai *gateway.Gateway) ChatService {
	return &chatService{log: log.With("service", "ChatService"), conversations: conversations, ai: ai}
}

// Send runs one turn: load or start the session, ask the model with the
// recent history, then persist both messages.
func (cs *chatService) Send(ctx context.Context, userID uuid.UUID, message, sessionID string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apierr.BadRequest("empty_message", "message is required")
	}
	if utf8.RuneCountInString(message) > maxMessageRunes {
		return nil, apierr.BadRequest("message_too_long", "message exceeds %d characters", maxMessageRunes)
	}
	conv, err := cs.conversations.GetOrCreate(ctx, sessionID, userID, AutoTitle(message))
	if err != nil {
		return nil, err
	}
	cs.conversations.Append(conv, domain.Message{Role: domain.MessageRoleUser, Content: message})

	reply, err := cs.ai.Chat(ctx, conv.Messages)
	if err != nil {
		cs.log.Warn("Chat reply failed; sending apology", "session_id", conv.ID, "error", err)
		reply = ChatApology
	}
	cs.conversations.Append(conv, domain.Message{Role: domain.MessageRoleModel, Content: reply})

	if err := cs.conversations.Persist(ctx, conv); err != nil {
		return nil, err
	}
	return &ChatReply{Response: reply, SessionID: conv.ID}, nil
}

// AutoTitle is the first 40 runes of the opening message, with "..." when cut.
func AutoTitle(message string) string {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) <= autoTitleRunes {
		return message
	}
	return string([]rune(message)[:autoTitleRunes]) + "..."
}
