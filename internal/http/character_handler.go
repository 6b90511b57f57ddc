package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/repository"
)

// CharacterHandler expone el CRUD minimo de personajes.
type CharacterHandler struct {
	logger     *zap.Logger
	characters repository.CharacterRepository
}

func NewCharacterHandler(logger *zap.Logger, characters repository.CharacterRepository) *CharacterHandler {
	return &CharacterHandler{logger: logger, characters: characters}
}

// Create maneja POST /characters.
func (h *CharacterHandler) Create(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		Name      string `json:"name" binding:"required"`
		Archetype string `json:"archetype"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create character request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid-argument"})
		return
	}

	character := domain.Character{
		ID:        uuid.NewString(),
		UserID:    claims.UserID,
		Name:      req.Name,
		Archetype: req.Archetype,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.characters.Create(c.Request.Context(), character); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"character": character})
}

// List maneja GET /characters.
func (h *CharacterHandler) List(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	characters, err := h.characters.ListByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"characters": characters})
}
