package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/repository"
)

// scoresProvider entrega los scores vigentes de un par (usuario, personaje).
type scoresProvider interface {
	Scores(ctx context.Context, userID, characterID string) (domain.TraitScores, bool, error)
}

// generator es el pipeline de generacion visto desde el cache manager.
type generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (json.RawMessage, error)
}

// QuotaLimiter limita el allotment gratuito por consumidor.
type QuotaLimiter interface {
	Allow(key string) bool
}

// ContentService administra el cache de artefactos generados, keyed por
// (firma, tipo). Prefiere reusar el artefacto mas usado que el consumidor no
// haya visto; solo genera en miss. No serializa generaciones concurrentes:
// dos artefactos casi simultaneos para una firma son una carrera benigna que
// el orden por popularidad resuelve solo.
type ContentService struct {
	artifactRepo  repository.ArtifactRepository
	viewedRepo    repository.ViewedRepository
	characterRepo repository.CharacterRepository
	scores        scoresProvider
	pipeline      generator
	quota         QuotaLimiter
	logger        *zap.Logger
	now           func() time.Time
}

func NewContentService(
	artifactRepo repository.ArtifactRepository,
	viewedRepo repository.ViewedRepository,
	characterRepo repository.CharacterRepository,
	scores scoresProvider,
	pipeline generator,
	quota QuotaLimiter,
	logger *zap.Logger,
) *ContentService {
	return &ContentService{
		artifactRepo:  artifactRepo,
		viewedRepo:    viewedRepo,
		characterRepo: characterRepo,
		scores:        scores,
		pipeline:      pipeline,
		quota:         quota,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ContentResult es la respuesta de FetchOrGenerate.
type ContentResult struct {
	Artifact domain.CachedArtifact `json:"artifact"`
	CacheHit bool                  `json:"cache_hit"`
}

// FetchOrGenerate devuelve un artefacto para el consumidor: el cacheado mas
// popular que no haya visto, o uno recien generado. El id servido se anota en
// el historial del consumidor, que nunca se achica, para no repetir contenido.
func (s *ContentService) FetchOrGenerate(ctx context.Context, userID, characterID, contentType string, params map[string]string) (ContentResult, error) {
	character, err := s.characterRepo.GetByID(ctx, characterID)
	if err != nil {
		return ContentResult{}, err
	}
	if character.UserID != userID {
		return ContentResult{}, domain.ErrNotOwner
	}

	traitScores, ready, err := s.scores.Scores(ctx, userID, characterID)
	if err != nil {
		return ContentResult{}, err
	}
	if !ready {
		return ContentResult{}, domain.ErrProfileNotReady
	}

	if s.quota != nil && !s.quota.Allow(userID) {
		return ContentResult{}, domain.ErrQuotaExceeded
	}

	signature := Signature(traitScores, "")

	artifacts, err := s.artifactRepo.ListBySignature(ctx, signature, contentType)
	if err != nil {
		return ContentResult{}, fmt.Errorf("list artifacts: %w", err)
	}

	viewed, err := s.viewedRepo.ListIDs(ctx, userID, characterID)
	if err != nil {
		return ContentResult{}, fmt.Errorf("list viewed: %w", err)
	}

	now := s.now()
	for _, artifact := range artifacts {
		if _, seen := viewed[artifact.ID]; seen {
			continue
		}
		// Hit: el increment es atomico en el store; si falla igual servimos.
		if err := s.artifactRepo.IncrementUsage(ctx, artifact.ID, now); err != nil {
			if s.logger != nil {
				s.logger.Warn("usage increment failed", zap.String("artifact_id", artifact.ID), zap.Error(err))
			}
		} else {
			artifact.UsageCount++
			artifact.LastUsedAt = now
		}
		if err := s.viewedRepo.Append(ctx, userID, characterID, artifact.ID, now); err != nil {
			return ContentResult{}, fmt.Errorf("append viewed: %w", err)
		}
		return ContentResult{Artifact: artifact, CacheHit: true}, nil
	}

	// Miss: ningun artefacto sin ver (incluido el caso de cero artefactos).
	payload, err := s.pipeline.Generate(ctx, domain.GenerationRequest{
		ContentType: contentType,
		Signature:   signature,
		Parameters:  withCharacterName(params, character.Name),
	})
	if err != nil {
		return ContentResult{}, err
	}

	artifact := domain.CachedArtifact{
		ID:          uuid.NewString(),
		Signature:   signature,
		ContentType: contentType,
		Payload:     payload,
		UsageCount:  1,
		CreatedAt:   now,
		LastUsedAt:  now,
	}
	if err := s.artifactRepo.Insert(ctx, artifact); err != nil {
		return ContentResult{}, fmt.Errorf("insert artifact: %w", err)
	}
	if err := s.viewedRepo.Append(ctx, userID, characterID, artifact.ID, now); err != nil {
		return ContentResult{}, fmt.Errorf("append viewed: %w", err)
	}

	return ContentResult{Artifact: artifact, CacheHit: false}, nil
}

// Prewarm genera y persiste un artefacto para (firma, tipo) solo si no existe
// ninguno. Lo usa el fan-out de etapas; no toca historiales ni cuotas.
func (s *ContentService) Prewarm(ctx context.Context, signature, contentType string, params map[string]string) error {
	artifacts, err := s.artifactRepo.ListBySignature(ctx, signature, contentType)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}
	if len(artifacts) > 0 {
		return nil
	}

	payload, err := s.pipeline.Generate(ctx, domain.GenerationRequest{
		ContentType: contentType,
		Signature:   signature,
		Parameters:  params,
	})
	if err != nil {
		return err
	}

	now := s.now()
	return s.artifactRepo.Insert(ctx, domain.CachedArtifact{
		ID:          uuid.NewString(),
		Signature:   signature,
		ContentType: contentType,
		Payload:     payload,
		UsageCount:  0,
		CreatedAt:   now,
		LastUsedAt:  now,
	})
}

// RateArtifact acumula una calificacion 1-5 sobre un artefacto servido.
func (s *ContentService) RateArtifact(ctx context.Context, artifactID string, rating int) error {
	if rating < 1 || rating > 5 {
		return domain.ErrInvalidAnswer
	}
	return s.artifactRepo.AddRating(ctx, artifactID, rating)
}

func withCharacterName(params map[string]string, name string) map[string]string {
	if name == "" {
		return params
	}
	out := make(map[string]string, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	if _, ok := out["character_name"]; !ok {
		out["character_name"] = name
	}
	return out
}
