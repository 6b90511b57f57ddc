package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-llm/internal/domain"
)

// respondError traduce la taxonomia de errores del dominio a codigos HTTP.
// Cualquier error no mapeado es un internal generico; el detalle queda en logs.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var genErr *domain.GenerationError

	switch {
	case errors.Is(err, domain.ErrInvalidAnswer):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid-argument", "message": "value must be between 1 and 5"})
	case errors.Is(err, domain.ErrNoPendingQuestion):
		c.JSON(http.StatusNotFound, gin.H{"error": "not-found", "message": "no pending question"})
	case errors.Is(err, domain.ErrAssessmentCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "failed-precondition", "message": "assessment already completed"})
	case errors.Is(err, domain.ErrProfileNotReady):
		c.JSON(http.StatusNotFound, gin.H{"error": "not-found", "message": "personality profile not ready"})
	case errors.Is(err, domain.ErrCharacterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not-found", "message": "character not found"})
	case errors.Is(err, domain.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission-denied", "message": "character not owned by caller"})
	case errors.Is(err, domain.ErrQuotaExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "resource-exhausted", "message": "free content quota exceeded"})
	case errors.As(err, &genErr):
		if logger != nil {
			logger.Error("generation failed", zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": "content generation failed"})
	default:
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
