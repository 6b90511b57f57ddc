package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"companion-llm/internal/domain"
)

var ErrArtifactNotFound = errors.New("artifact not found")

type ArtifactRepository interface {
	// ListBySignature devuelve los artefactos de (firma, tipo) ordenados por
	// usage_count descendente, para concentrar el reuso en los mas populares.
	ListBySignature(ctx context.Context, signature, contentType string) ([]domain.CachedArtifact, error)
	Insert(ctx context.Context, artifact domain.CachedArtifact) error
	// IncrementUsage suma 1 en la fila; el increment es atomico en el store,
	// nunca read-modify-write en el cliente.
	IncrementUsage(ctx context.Context, id string, usedAt time.Time) error
	AddRating(ctx context.Context, id string, rating int) error
}

type PgArtifactRepository struct {
	pool *pgxpool.Pool
}

func NewPgArtifactRepository(pool *pgxpool.Pool) *PgArtifactRepository {
	return &PgArtifactRepository{pool: pool}
}

func (r *PgArtifactRepository) ListBySignature(ctx context.Context, signature, contentType string) ([]domain.CachedArtifact, error) {
	const query = `
		SELECT id, signature, content_type, payload, usage_count, rating_sum, rating_count, created_at, last_used_at
		FROM cached_artifacts
		WHERE signature = $1 AND content_type = $2
		ORDER BY usage_count DESC, created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, signature, contentType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []domain.CachedArtifact
	for rows.Next() {
		var a domain.CachedArtifact
		if err := rows.Scan(
			&a.ID,
			&a.Signature,
			&a.ContentType,
			&a.Payload,
			&a.UsageCount,
			&a.RatingSum,
			&a.RatingCount,
			&a.CreatedAt,
			&a.LastUsedAt,
		); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return artifacts, nil
}

func (r *PgArtifactRepository) Insert(ctx context.Context, artifact domain.CachedArtifact) error {
	const query = `
		INSERT INTO cached_artifacts (id, signature, content_type, payload, usage_count, rating_sum, rating_count, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		artifact.ID,
		artifact.Signature,
		artifact.ContentType,
		artifact.Payload,
		artifact.UsageCount,
		artifact.RatingSum,
		artifact.RatingCount,
		artifact.CreatedAt,
		artifact.LastUsedAt,
	)
	return err
}

func (r *PgArtifactRepository) IncrementUsage(ctx context.Context, id string, usedAt time.Time) error {
	const query = `
		UPDATE cached_artifacts
		SET usage_count = usage_count + 1, last_used_at = $2
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, usedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrArtifactNotFound
	}
	return nil
}

func (r *PgArtifactRepository) AddRating(ctx context.Context, id string, rating int) error {
	const query = `
		UPDATE cached_artifacts
		SET rating_sum = rating_sum + $2, rating_count = rating_count + 1
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, rating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrArtifactNotFound
	}
	return nil
}
