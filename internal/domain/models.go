package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Nombres de rasgo en orden canonico O, C, E, A, N.
const (
	TraitOpenness          = "openness"
	TraitConscientiousness = "conscientiousness"
	TraitExtraversion      = "extraversion"
	TraitAgreeableness     = "agreeableness"
	TraitNeuroticism       = "neuroticism"
)

// TraitOrder fija el orden de concatenacion para firmas y reportes.
var TraitOrder = []string{
	TraitOpenness,
	TraitConscientiousness,
	TraitExtraversion,
	TraitAgreeableness,
	TraitNeuroticism,
}

// TraitScores son los cinco valores continuos del modelo Big Five, en [1.0, 5.0].
type TraitScores struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// Get devuelve el valor del rasgo nombrado; 0 si el nombre no existe.
func (s TraitScores) Get(trait string) float64 {
	switch trait {
	case TraitOpenness:
		return s.Openness
	case TraitConscientiousness:
		return s.Conscientiousness
	case TraitExtraversion:
		return s.Extraversion
	case TraitAgreeableness:
		return s.Agreeableness
	case TraitNeuroticism:
		return s.Neuroticism
	}
	return 0
}

// Set asigna el valor del rasgo nombrado.
func (s *TraitScores) Set(trait string, v float64) {
	switch trait {
	case TraitOpenness:
		s.Openness = v
	case TraitConscientiousness:
		s.Conscientiousness = v
	case TraitExtraversion:
		s.Extraversion = v
	case TraitAgreeableness:
		s.Agreeableness = v
	case TraitNeuroticism:
		s.Neuroticism = v
	}
}

// Question es una entrada del inventario fijo de evaluacion.
type Question struct {
	ID       string `json:"id"`
	Trait    string `json:"trait"`
	Reversed bool   `json:"reversed"`
	Text     string `json:"text"`
}

// AnsweredQuestion registra una respuesta Likert 1-5 ya emitida.
// AnsweredAt viaja como epoch millis; un encoding no numerico marca el
// registro completo como corrupto (ver ErrCorruptedProgress).
type AnsweredQuestion struct {
	QuestionID string `json:"question_id"`
	Trait      string `json:"trait"`
	Reversed   bool   `json:"reversed"`
	Value      int    `json:"value"`
	AnsweredAt int64  `json:"answered_at"`
}

// UnmarshalJSON rechaza timestamps con el encoding historico no numerico.
func (a *AnsweredQuestion) UnmarshalJSON(data []byte) error {
	type raw struct {
		QuestionID string          `json:"question_id"`
		Trait      string          `json:"trait"`
		Reversed   bool            `json:"reversed"`
		Value      int             `json:"value"`
		AnsweredAt json.RawMessage `json:"answered_at"`
	}
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	var ts int64
	if err := json.Unmarshal(r.AnsweredAt, &ts); err != nil {
		return fmt.Errorf("answered_at not numeric: %w", ErrCorruptedProgress)
	}
	a.QuestionID = r.QuestionID
	a.Trait = r.Trait
	a.Reversed = r.Reversed
	a.Value = r.Value
	a.AnsweredAt = ts
	return nil
}

// Umbrales de etapa: conteos de respuestas, no identidades de pregunta.
const (
	StagePreliminary  = 20
	StageIntermediate = 50
	StageFinal        = 100

	InventorySize = 100
)

// StageThresholds en orden ascendente.
var StageThresholds = []int{StagePreliminary, StageIntermediate, StageFinal}

// AssessmentProgress es el avance de un par (usuario, personaje) por el inventario.
type AssessmentProgress struct {
	UserID            string             `json:"user_id"`
	CharacterID       string             `json:"character_id"`
	Answered          []AnsweredQuestion `json:"answered"`
	CurrentQuestionID string             `json:"current_question_id,omitempty"`
	Completed         bool               `json:"completed"`
	FinalScores       *TraitScores       `json:"final_scores,omitempty"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// AnsweredIDs devuelve el set de preguntas ya respondidas.
func (p *AssessmentProgress) AnsweredIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(p.Answered))
	for _, a := range p.Answered {
		ids[a.QuestionID] = struct{}{}
	}
	return ids
}

// Tipos de contenido generado y cacheado por firma.
const (
	ContentTypeAnalysis  = "trait_analysis"
	ContentTypeNarrative = "narrative_detail"
	ContentTypeGroupChat = "group_discussion"
)

// ValidContentType reporta si el tipo es uno de los soportados.
func ValidContentType(ct string) bool {
	switch ct {
	case ContentTypeAnalysis, ContentTypeNarrative, ContentTypeGroupChat:
		return true
	}
	return false
}

// CachedArtifact es una unidad de contenido generado, reutilizable entre
// consumidores que comparten firma.
type CachedArtifact struct {
	ID          string          `json:"id"`
	Signature   string          `json:"signature"`
	ContentType string          `json:"content_type"`
	Payload     json.RawMessage `json:"payload"`
	UsageCount  int             `json:"usage_count"`
	RatingSum   int             `json:"rating_sum"`
	RatingCount int             `json:"rating_count"`
	CreatedAt   time.Time       `json:"created_at"`
	LastUsedAt  time.Time       `json:"last_used_at"`
}

// GenerationRequest es el contexto efimero de una invocacion del pipeline.
type GenerationRequest struct {
	ContentType string
	Signature   string
	Parameters  map[string]string
}

// Character es el companion propiedad de un usuario.
type Character struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Archetype string    `json:"archetype,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
