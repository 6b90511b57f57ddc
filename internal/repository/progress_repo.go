package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"companion-llm/internal/domain"
)

// ErrProgressNotFound indica que el par (usuario, personaje) no tiene avance aun.
var ErrProgressNotFound = errors.New("assessment progress not found")

type ProgressRepository interface {
	Get(ctx context.Context, userID, characterID string) (domain.AssessmentProgress, error)
	Save(ctx context.Context, progress domain.AssessmentProgress) error
}

type PgProgressRepository struct {
	pool *pgxpool.Pool
}

func NewPgProgressRepository(pool *pgxpool.Pool) *PgProgressRepository {
	return &PgProgressRepository{pool: pool}
}

func (r *PgProgressRepository) Get(ctx context.Context, userID, characterID string) (domain.AssessmentProgress, error) {
	const query = `
		SELECT user_id, character_id, answered, current_question_id, completed, final_scores, updated_at
		FROM assessment_progress
		WHERE user_id = $1 AND character_id = $2
	`
	var (
		p               domain.AssessmentProgress
		answeredRaw     []byte
		currentQuestion *string
		finalScoresRaw  []byte
	)
	err := r.pool.QueryRow(ctx, query, userID, characterID).Scan(
		&p.UserID,
		&p.CharacterID,
		&answeredRaw,
		&currentQuestion,
		&p.Completed,
		&finalScoresRaw,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AssessmentProgress{}, ErrProgressNotFound
	}
	if err != nil {
		return domain.AssessmentProgress{}, err
	}

	if len(answeredRaw) > 0 {
		// AnsweredQuestion.UnmarshalJSON detecta el encoding historico corrupto
		// de timestamps; se propaga tal cual para que el servicio resetee.
		if err := json.Unmarshal(answeredRaw, &p.Answered); err != nil {
			if errors.Is(err, domain.ErrCorruptedProgress) {
				return domain.AssessmentProgress{}, fmt.Errorf("decode answered: %w", err)
			}
			return domain.AssessmentProgress{}, fmt.Errorf("decode answered: %w", domain.ErrCorruptedProgress)
		}
	}
	if currentQuestion != nil {
		p.CurrentQuestionID = *currentQuestion
	}
	if len(finalScoresRaw) > 0 {
		var scores domain.TraitScores
		if err := json.Unmarshal(finalScoresRaw, &scores); err != nil {
			return domain.AssessmentProgress{}, fmt.Errorf("decode final scores: %w", domain.ErrCorruptedProgress)
		}
		p.FinalScores = &scores
	}
	return p, nil
}

func (r *PgProgressRepository) Save(ctx context.Context, progress domain.AssessmentProgress) error {
	const query = `
		INSERT INTO assessment_progress (user_id, character_id, answered, current_question_id, completed, final_scores, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, character_id)
		DO UPDATE SET
			answered = EXCLUDED.answered,
			current_question_id = EXCLUDED.current_question_id,
			completed = EXCLUDED.completed,
			final_scores = EXCLUDED.final_scores,
			updated_at = EXCLUDED.updated_at
	`

	answered := progress.Answered
	if answered == nil {
		answered = []domain.AnsweredQuestion{}
	}
	answeredRaw, err := json.Marshal(answered)
	if err != nil {
		return fmt.Errorf("encode answered: %w", err)
	}

	var currentQuestion *string
	if progress.CurrentQuestionID != "" {
		currentQuestion = &progress.CurrentQuestionID
	}

	var finalScoresRaw []byte
	if progress.FinalScores != nil {
		finalScoresRaw, err = json.Marshal(progress.FinalScores)
		if err != nil {
			return fmt.Errorf("encode final scores: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx, query,
		progress.UserID,
		progress.CharacterID,
		answeredRaw,
		currentQuestion,
		progress.Completed,
		finalScoresRaw,
		progress.UpdatedAt,
	)
	return err
}
