package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jucity/ai-manager-backend/internal/apierr"
	"github.com/jucity/ai-manager-backend/internal/services"
)

type ChatHandler struct {
	chat services.ChatService
}

func NewChatHandler(chat services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatMessageRequest struct {
	ParkSlug  string     `json:"park_slug" binding:"required"`
	Channel   string     `json:"channel"`
	UserID    *string    `json:"user_id"`
	SessionID *uuid.UUID `json:"session_id"`
	Message   string     `json:"message" binding:"required"`
}

// POST /v1/chat/message
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	if req.Channel == "" {
		req.Channel = "web"
	}

	res, err := h.chat.HandleMessage(c.Request.Context(), services.ChatInput{
		ParkSlug:  req.ParkSlug,
		Channel:   req.Channel,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Message:   req.Message,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"reply":      res.Reply,
		"session_id": res.SessionID,
		"trace_id":   res.TraceID,
	})
}
