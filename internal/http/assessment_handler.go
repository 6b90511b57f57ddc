package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-llm/internal/service"
)

// AssessmentHandler expone la maquina de estados del inventario.
type AssessmentHandler struct {
	logger        *zap.Logger
	assessmentSvc *service.AssessmentService
}

func NewAssessmentHandler(logger *zap.Logger, assessmentSvc *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{logger: logger, assessmentSvc: assessmentSvc}
}

// NextQuestion maneja GET /assessment/question.
func (h *AssessmentHandler) NextQuestion(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	characterID := c.Query("character_id")
	if characterID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid-argument", "message": "character_id required"})
		return
	}

	question, completed, err := h.assessmentSvc.NextQuestion(c.Request.Context(), claims.UserID, characterID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"question": question, "completed": completed})
}

// SubmitAnswer maneja POST /assessment/answer.
func (h *AssessmentHandler) SubmitAnswer(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		CharacterID string `json:"character_id" binding:"required"`
		Value       int    `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid submit answer request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid-argument"})
		return
	}

	result, err := h.assessmentSvc.SubmitAnswer(c.Request.Context(), claims.UserID, req.CharacterID, req.Value)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
