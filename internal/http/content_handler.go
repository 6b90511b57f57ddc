package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/service"
)

// ContentHandler expone el cache de contenido generado y las estadisticas.
type ContentHandler struct {
	logger     *zap.Logger
	contentSvc *service.ContentService
	statsSvc   *service.StatsService
	assessment *service.AssessmentService
}

func NewContentHandler(
	logger *zap.Logger,
	contentSvc *service.ContentService,
	statsSvc *service.StatsService,
	assessment *service.AssessmentService,
) *ContentHandler {
	return &ContentHandler{
		logger:     logger,
		contentSvc: contentSvc,
		statsSvc:   statsSvc,
		assessment: assessment,
	}
}

// FetchOrGenerate maneja POST /content.
func (h *ContentHandler) FetchOrGenerate(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		CharacterID string            `json:"character_id" binding:"required"`
		ContentType string            `json:"content_type" binding:"required"`
		Parameters  map[string]string `json:"parameters"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid content request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid-argument"})
		return
	}
	if !domain.ValidContentType(req.ContentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid-argument", "message": "unknown content type"})
		return
	}

	result, err := h.contentSvc.FetchOrGenerate(c.Request.Context(), claims.UserID, req.CharacterID, req.ContentType, req.Parameters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"artifact_id": result.Artifact.ID,
		"payload":     result.Artifact.Payload,
		"cache_hit":   result.CacheHit,
		"usage_count": result.Artifact.UsageCount,
	})
}

// RateArtifact maneja POST /content/:id/rating.
func (h *ContentHandler) RateArtifact(c *gin.Context) {
	if _, ok := GetAuthClaims(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		Rating int `json:"rating" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid-argument"})
		return
	}

	if err := h.contentSvc.RateArtifact(c.Request.Context(), c.Param("id"), req.Rating); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ProfileStats maneja GET /stats/profile.
func (h *ContentHandler) ProfileStats(c *gin.Context) {
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

	scores, ready, err := h.assessment.Scores(c.Request.Context(), claims.UserID, characterID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !ready {
		respondError(c, h.logger, domain.ErrProfileNotReady)
		return
	}

	signature := service.Signature(scores, "")
	share, err := h.statsSvc.ProfileShare(c.Request.Context(), signature)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"signature":     signature,
		"scores":        scores,
		"share_percent": share,
	})
}
