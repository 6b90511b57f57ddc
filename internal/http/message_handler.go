package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-llm/internal/service"
)

// MessageHandler expone la puerta de entrada de texto libre.
type MessageHandler struct {
	logger     *zap.Logger
	messageSvc *service.MessageService
}

func NewMessageHandler(logger *zap.Logger, messageSvc *service.MessageService) *MessageHandler {
	return &MessageHandler{logger: logger, messageSvc: messageSvc}
}

// Post maneja POST /message.
func (h *MessageHandler) Post(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		CharacterID string `json:"character_id" binding:"required"`
		Content     string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid-argument"})
		return
	}

	reply, err := h.messageSvc.Handle(c.Request.Context(), claims.UserID, req.CharacterID, req.Content)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}
