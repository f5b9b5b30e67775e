package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/edubot-backend/internal/http/response"
	"github.com/yungbote/edubot-backend/internal/platform/ctxutil"
	"github.com/yungbote/edubot-backend/internal/services"
)

type ChatHandler struct {
	chat          services.ChatService
	conversations services.ConversationService
}

func NewChatHandler(chat services.ChatService, conversations services.ConversationService) *ChatHandler {
	return &ChatHandler{chat: chat, conversations: conversations}
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not signed in"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/chat/send
// body: { "message": "...", "session_id": "..." }
func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	reply, err := h.chat.Send(c.Request.Context(), userID, req.Message, req.SessionID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, reply)
}

// GET /api/chat/history
func (h *ChatHandler) ListSessions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	list, err := h.conversations.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, list)
}

// GET /api/chat/history/:id
func (h *ChatHandler) GetSession(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	conv, err := h.conversations.Get(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, conv)
}

// DELETE /api/chat/history/:id
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.conversations.Delete(c.Request.Context(), userID, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "conversation deleted"})
}
