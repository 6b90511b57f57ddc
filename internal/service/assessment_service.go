package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/repository"
)

// ContentPrewarmer genera y persiste un artefacto para (firma, tipo) si aun no
// existe ninguno. Best-effort: lo dispara el fan-out de etapas.
type ContentPrewarmer interface {
	Prewarm(ctx context.Context, signature, contentType string, params map[string]string) error
}

// CompletionRecorder registra una evaluacion completada para estadisticas
// globales. Fire-and-forget.
type CompletionRecorder interface {
	RecordCompletion(signature string)
}

// stageContent lista explicitamente los trabajos de generacion que dispara
// cada etapa. Cada trabajo corre y reintenta de forma independiente.
var stageContent = map[int][]string{
	domain.StagePreliminary:  {domain.ContentTypeAnalysis},
	domain.StageIntermediate: {domain.ContentTypeNarrative},
	domain.StageFinal:        {domain.ContentTypeAnalysis, domain.ContentTypeGroupChat},
}

// AssessmentService es la maquina de estados del inventario de personalidad:
// NotStarted -> AwaitingAnswer -> ... -> Completed (terminal).
type AssessmentService struct {
	progressRepo repository.ProgressRepository
	prewarmer    ContentPrewarmer
	stats        CompletionRecorder
	logger       *zap.Logger
	now          func() time.Time

	// stageJobTimeout acota cada trabajo de fan-out desacoplado del request.
	stageJobTimeout time.Duration
}

func NewAssessmentService(
	progressRepo repository.ProgressRepository,
	prewarmer ContentPrewarmer,
	stats CompletionRecorder,
	logger *zap.Logger,
) *AssessmentService {
	return &AssessmentService{
		progressRepo:    progressRepo,
		prewarmer:       prewarmer,
		stats:           stats,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
		stageJobTimeout: 90 * time.Second,
	}
}

// SetPrewarmer inyecta el generador de contenido despues de construir ambos
// servicios; assessment y cache se referencian mutuamente.
func (s *AssessmentService) SetPrewarmer(p ContentPrewarmer) {
	s.prewarmer = p
}

// SubmitResult es el resultado observable de registrar una respuesta.
type SubmitResult struct {
	NextQuestion   *domain.Question   `json:"next_question,omitempty"`
	Completed      bool               `json:"completed"`
	StageCompleted int                `json:"stage_completed,omitempty"`
	Scores         domain.TraitScores `json:"scores"`
}

// NextQuestion devuelve la pregunta pendiente, creando el avance en la primera
// interaccion. completed=true cuando el inventario esta agotado.
func (s *AssessmentService) NextQuestion(ctx context.Context, userID, characterID string) (*domain.Question, bool, error) {
	progress, err := s.loadOrInit(ctx, userID, characterID)
	if err != nil {
		return nil, false, err
	}
	if progress.Completed {
		return nil, true, nil
	}

	if progress.CurrentQuestionID != "" {
		if q, ok := QuestionByID(progress.CurrentQuestionID); ok {
			return &q, false, nil
		}
		// Pregunta activa desconocida: forma historica invalida, mismo
		// tratamiento que la corrupcion de timestamps.
		progress = s.resetRecord(userID, characterID)
	}

	next := nextUnanswered(&progress)
	if next == nil {
		// Inventario agotado sin marca de completado; congelar aqui.
		scores := runningScores(progress.Answered)
		progress.Completed = true
		progress.FinalScores = &scores
		progress.CurrentQuestionID = ""
		progress.UpdatedAt = s.now()
		if err := s.progressRepo.Save(ctx, progress); err != nil {
			return nil, false, fmt.Errorf("save progress: %w", err)
		}
		return nil, true, nil
	}

	progress.CurrentQuestionID = next.ID
	progress.UpdatedAt = s.now()
	if err := s.progressRepo.Save(ctx, progress); err != nil {
		return nil, false, fmt.Errorf("save progress: %w", err)
	}
	return next, false, nil
}

// SubmitAnswer valida y registra una respuesta 1-5 sobre la pregunta pendiente,
// recalcula los scores corrientes y cruza umbrales de etapa exactamente una vez
// por conteo (20/50/100). En 100 congela finalScores y pasa a Completed.
func (s *AssessmentService) SubmitAnswer(ctx context.Context, userID, characterID string, value int) (SubmitResult, error) {
	if value < 1 || value > 5 {
		return SubmitResult{}, domain.ErrInvalidAnswer
	}

	progress, err := s.loadOrInit(ctx, userID, characterID)
	if err != nil {
		return SubmitResult{}, err
	}
	if progress.Completed {
		return SubmitResult{}, domain.ErrAssessmentCompleted
	}
	if progress.CurrentQuestionID == "" {
		return SubmitResult{}, domain.ErrNoPendingQuestion
	}

	question, ok := QuestionByID(progress.CurrentQuestionID)
	if !ok {
		progress = s.resetRecord(userID, characterID)
		next := nextUnanswered(&progress)
		progress.CurrentQuestionID = next.ID
		progress.UpdatedAt = s.now()
		if err := s.progressRepo.Save(ctx, progress); err != nil {
			return SubmitResult{}, fmt.Errorf("save progress: %w", err)
		}
		return SubmitResult{NextQuestion: next, Scores: runningScores(nil)}, nil
	}

	now := s.now()
	progress.Answered = append(progress.Answered, domain.AnsweredQuestion{
		QuestionID: question.ID,
		Trait:      question.Trait,
		Reversed:   question.Reversed,
		Value:      value,
		AnsweredAt: now.UnixMilli(),
	})
	progress.CurrentQuestionID = ""

	scores := runningScores(progress.Answered)
	count := len(progress.Answered)

	stage := 0
	for _, threshold := range domain.StageThresholds {
		if count == threshold {
			stage = threshold
		}
	}

	result := SubmitResult{StageCompleted: stage, Scores: scores}

	if count >= domain.InventorySize {
		progress.Completed = true
		progress.FinalScores = &scores
	} else {
		next := nextUnanswered(&progress)
		if next != nil {
			progress.CurrentQuestionID = next.ID
			result.NextQuestion = next
		} else {
			progress.Completed = true
			progress.FinalScores = &scores
		}
	}
	result.Completed = progress.Completed

	progress.UpdatedAt = now
	if err := s.progressRepo.Save(ctx, progress); err != nil {
		return SubmitResult{}, fmt.Errorf("save progress: %w", err)
	}

	if stage != 0 {
		s.fanOutStage(stage, scores)
	}

	return result, nil
}

// Scores devuelve los scores del avance: finales si completo, corrientes si no.
// ready=false mientras no se haya cruzado la primera etapa, porque la firma
// aun no es representativa.
func (s *AssessmentService) Scores(ctx context.Context, userID, characterID string) (domain.TraitScores, bool, error) {
	progress, err := s.loadOrInit(ctx, userID, characterID)
	if err != nil {
		return domain.TraitScores{}, false, err
	}
	if progress.Completed && progress.FinalScores != nil {
		return *progress.FinalScores, true, nil
	}
	if len(progress.Answered) < domain.StagePreliminary {
		return domain.TraitScores{}, false, nil
	}
	return runningScores(progress.Answered), true, nil
}

// loadOrInit obtiene el avance, creando uno vacio en la primera interaccion y
// reseteando registros corruptos en lugar de intentar reparacion parcial.
func (s *AssessmentService) loadOrInit(ctx context.Context, userID, characterID string) (domain.AssessmentProgress, error) {
	progress, err := s.progressRepo.Get(ctx, userID, characterID)
	switch {
	case err == nil:
		return progress, nil
	case errors.Is(err, repository.ErrProgressNotFound):
		return s.resetRecord(userID, characterID), nil
	case errors.Is(err, domain.ErrCorruptedProgress):
		if s.logger != nil {
			s.logger.Warn("resetting corrupted assessment progress",
				zap.String("user_id", userID),
				zap.String("character_id", characterID),
			)
		}
		fresh := s.resetRecord(userID, characterID)
		if saveErr := s.progressRepo.Save(ctx, fresh); saveErr != nil {
			return domain.AssessmentProgress{}, fmt.Errorf("reset corrupted progress: %w", saveErr)
		}
		return fresh, nil
	default:
		return domain.AssessmentProgress{}, fmt.Errorf("get progress: %w", err)
	}
}

func (s *AssessmentService) resetRecord(userID, characterID string) domain.AssessmentProgress {
	return domain.AssessmentProgress{
		UserID:      userID,
		CharacterID: characterID,
		UpdatedAt:   s.now(),
	}
}

// fanOutStage encola los trabajos de generacion de la etapa, cada uno en su
// propio goroutine con deadline propio, desacoplado del request que lo causo.
// Los fallos se loguean y nunca llegan al caller.
func (s *AssessmentService) fanOutStage(stage int, scores domain.TraitScores) {
	signature := Signature(scores, "")

	if stage == domain.StageFinal && s.stats != nil {
		s.stats.RecordCompletion(signature)
	}

	if s.prewarmer == nil {
		return
	}
	for _, contentType := range stageContent[stage] {
		contentType := contentType
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.stageJobTimeout)
			defer cancel()
			if err := s.prewarmer.Prewarm(ctx, signature, contentType, nil); err != nil {
				if s.logger != nil {
					s.logger.Warn("stage prewarm failed",
						zap.Int("stage", stage),
						zap.String("signature", signature),
						zap.String("content_type", contentType),
						zap.Error(err),
					)
				}
			}
		}()
	}
}

// nextUnanswered selecciona la primera pregunta del inventario que no este en
// la lista de respondidas; nil cuando el inventario se agoto.
func nextUnanswered(progress *domain.AssessmentProgress) *domain.Question {
	answered := progress.AnsweredIDs()
	for _, q := range QuestionInventory {
		if _, done := answered[q.ID]; !done {
			question := q
			return &question
		}
	}
	return nil
}

// runningScores calcula la media aritmetica por rasgo en escala 1-5.
// Items reversed puntuan 6 - valor; rasgos sin respuestas quedan en 3.0.
func runningScores(answered []domain.AnsweredQuestion) domain.TraitScores {
	sums := make(map[string]float64, len(domain.TraitOrder))
	counts := make(map[string]int, len(domain.TraitOrder))
	for _, a := range answered {
		effective := float64(a.Value)
		if a.Reversed {
			effective = 6 - effective
		}
		sums[a.Trait] += effective
		counts[a.Trait]++
	}

	var scores domain.TraitScores
	for _, trait := range domain.TraitOrder {
		if counts[trait] == 0 {
			scores.Set(trait, 3.0)
			continue
		}
		scores.Set(trait, sums[trait]/float64(counts[trait]))
	}
	return scores
}
