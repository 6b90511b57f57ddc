package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ViewedRepository guarda el historial append-only de artefactos ya servidos
// a un par (usuario, personaje). Nunca se borra ni se achica.
type ViewedRepository interface {
	ListIDs(ctx context.Context, userID, characterID string) (map[string]struct{}, error)
	Append(ctx context.Context, userID, characterID, artifactID string, viewedAt time.Time) error
}

type PgViewedRepository struct {
	pool *pgxpool.Pool
}

func NewPgViewedRepository(pool *pgxpool.Pool) *PgViewedRepository {
	return &PgViewedRepository{pool: pool}
}

func (r *PgViewedRepository) ListIDs(ctx context.Context, userID, characterID string) (map[string]struct{}, error) {
	const query = `
		SELECT artifact_id
		FROM viewed_history
		WHERE user_id = $1 AND character_id = $2
	`

	rows, err := r.pool.Query(ctx, query, userID, characterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *PgViewedRepository) Append(ctx context.Context, userID, characterID, artifactID string, viewedAt time.Time) error {
	// ON CONFLICT DO NOTHING: re-servir el mismo id en una carrera benigna
	// no debe fallar el request.
	const query = `
		INSERT INTO viewed_history (user_id, character_id, artifact_id, viewed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, character_id, artifact_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, userID, characterID, artifactID, viewedAt)
	return err
}
