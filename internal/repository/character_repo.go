package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"companion-llm/internal/domain"
)

type CharacterRepository interface {
	Create(ctx context.Context, character domain.Character) error
	GetByID(ctx context.Context, id string) (domain.Character, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Character, error)
}

type PgCharacterRepository struct {
	pool *pgxpool.Pool
}

func NewPgCharacterRepository(pool *pgxpool.Pool) *PgCharacterRepository {
	return &PgCharacterRepository{pool: pool}
}

func (r *PgCharacterRepository) Create(ctx context.Context, character domain.Character) error {
	const query = `
		INSERT INTO characters (id, user_id, name, archetype, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		character.ID,
		character.UserID,
		character.Name,
		character.Archetype,
		character.CreatedAt,
	)
	return err
}

func (r *PgCharacterRepository) GetByID(ctx context.Context, id string) (domain.Character, error) {
	const query = `
		SELECT id, user_id, name, archetype, created_at
		FROM characters
		WHERE id = $1
	`
	var c domain.Character
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Archetype,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Character{}, domain.ErrCharacterNotFound
	}
	return c, err
}

func (r *PgCharacterRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Character, error) {
	const query = `
		SELECT id, user_id, name, archetype, created_at
		FROM characters
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var characters []domain.Character
	for rows.Next() {
		var c domain.Character
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Archetype, &c.CreatedAt); err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return characters, nil
}
