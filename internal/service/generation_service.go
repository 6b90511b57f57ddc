package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"companion-llm/internal/domain"
	"companion-llm/internal/llm"
)

// Payloads estructurados por tipo de contenido. El pipeline valida la salida
// del LLM contra estos esquemas antes de persistir nada.

type AnalysisPayload struct {
	Headline    string   `json:"headline"`
	Summary     string   `json:"summary"`
	Strengths   []string `json:"strengths"`
	GrowthAreas []string `json:"growth_areas"`
}

type NarrativePayload struct {
	Backstory   string   `json:"backstory"`
	Quirks      []string `json:"quirks"`
	SpeechStyle string   `json:"speech_style"`
}

type GroupChatPayload struct {
	Topic        string          `json:"topic"`
	Participants []string        `json:"participants"`
	Turns        []GroupChatTurn `json:"turns"`
}

type GroupChatTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// GenerationService invoca el LLM externo con retry/backoff exponencial y
// validacion estricta de salida. No persiste; eso es del cache manager.
type GenerationService struct {
	llmClient llm.LLMClient
	logger    *zap.Logger

	maxAttempts    int
	baseDelay      time.Duration
	attemptTimeout time.Duration
	overallTimeout time.Duration
}

func NewGenerationService(llmClient llm.LLMClient, logger *zap.Logger) *GenerationService {
	return &GenerationService{
		llmClient:      llmClient,
		logger:         logger,
		maxAttempts:    3,
		baseDelay:      500 * time.Millisecond,
		attemptTimeout: 45 * time.Second,
		overallTimeout: 2 * time.Minute,
	}
}

// Generate construye el prompt del tipo pedido, llama al LLM y parsea la
// respuesta como JSON del esquema correspondiente. Reintenta fallos
// transitorios (error de servicio o salida imparseable) hasta maxAttempts con
// backoff que se duplica por intento. Al agotar, devuelve *GenerationError.
func (s *GenerationService) Generate(ctx context.Context, req domain.GenerationRequest) (json.RawMessage, error) {
	if !domain.ValidContentType(req.ContentType) {
		return nil, &domain.GenerationError{
			ContentType: req.ContentType,
			Cause:       fmt.Errorf("unknown content type %q", req.ContentType),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.overallTimeout)
	defer cancel()

	prompt := buildPrompt(req)

	var lastErr error
	delay := s.baseDelay
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		payload, err := s.attempt(ctx, prompt, req.ContentType)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		if s.logger != nil {
			s.logger.Warn("generation attempt failed",
				zap.String("content_type", req.ContentType),
				zap.String("signature", req.Signature),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		if ctx.Err() != nil || attempt == s.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, &domain.GenerationError{
		ContentType: req.ContentType,
		Attempts:    s.maxAttempts,
		Cause:       lastErr,
	}
}

func (s *GenerationService) attempt(ctx context.Context, prompt, contentType string) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	raw, err := s.llmClient.Generate(attemptCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm generate: %w", err)
	}

	cleaned := cleanLLMJSONResponse(raw)
	obj := extractFirstJSONObject(cleaned)
	if obj == "" {
		return nil, fmt.Errorf("no json object in llm response")
	}

	return parsePayload(contentType, obj)
}

// parsePayload valida el objeto contra el esquema del tipo y lo re-serializa
// normalizado, descartando campos extra que el LLM haya inventado.
func parsePayload(contentType, obj string) (json.RawMessage, error) {
	switch contentType {
	case domain.ContentTypeAnalysis:
		var p AnalysisPayload
		if err := json.Unmarshal([]byte(obj), &p); err != nil {
			return nil, fmt.Errorf("parse analysis payload: %w", err)
		}
		if strings.TrimSpace(p.Summary) == "" || len(p.Strengths) == 0 {
			return nil, fmt.Errorf("analysis payload missing summary or strengths")
		}
		return json.Marshal(p)
	case domain.ContentTypeNarrative:
		var p NarrativePayload
		if err := json.Unmarshal([]byte(obj), &p); err != nil {
			return nil, fmt.Errorf("parse narrative payload: %w", err)
		}
		if strings.TrimSpace(p.Backstory) == "" {
			return nil, fmt.Errorf("narrative payload missing backstory")
		}
		return json.Marshal(p)
	case domain.ContentTypeGroupChat:
		var p GroupChatPayload
		if err := json.Unmarshal([]byte(obj), &p); err != nil {
			return nil, fmt.Errorf("parse group chat payload: %w", err)
		}
		if len(p.Participants) < 2 || len(p.Turns) == 0 {
			return nil, fmt.Errorf("group chat payload needs 2+ participants and 1+ turns")
		}
		return json.Marshal(p)
	}
	return nil, fmt.Errorf("unknown content type %q", contentType)
}

// describeSignature expande los niveles de la firma a texto para el prompt.
func describeSignature(signature string) string {
	levels := map[byte]string{'L': "low", 'M': "moderate", 'H': "high"}
	if idx := strings.IndexByte(signature, '_'); idx >= 0 {
		signature = signature[:idx]
	}

	var parts []string
	for i, trait := range domain.TraitOrder {
		level := "moderate"
		if i < len(signature) {
			if l, ok := levels[signature[i]]; ok {
				level = l
			}
		}
		parts = append(parts, fmt.Sprintf("%s: %s", trait, level))
	}
	return strings.Join(parts, ", ")
}

func buildPrompt(req domain.GenerationRequest) string {
	profile := describeSignature(req.Signature)
	topic := req.Parameters["topic"]
	name := req.Parameters["character_name"]
	if name == "" {
		name = "the companion"
	}

	var b strings.Builder
	b.WriteString("You are a writing engine for a companion-character app. ")
	b.WriteString("The user's Big Five profile is: ")
	b.WriteString(profile)
	b.WriteString(".\n\n")

	switch req.ContentType {
	case domain.ContentTypeAnalysis:
		b.WriteString(`Write a warm, concrete personality analysis for this profile.
Return ONLY a JSON object:
{"headline": "...", "summary": "...", "strengths": ["..."], "growth_areas": ["..."]}`)
	case domain.ContentTypeNarrative:
		b.WriteString("Invent narrative detail for ")
		b.WriteString(name)
		b.WriteString(`, tuned to resonate with this profile.
Return ONLY a JSON object:
{"backstory": "...", "quirks": ["..."], "speech_style": "..."}`)
	case domain.ContentTypeGroupChat:
		b.WriteString("Write a short simulated discussion between three friends")
		if topic != "" {
			b.WriteString(" about ")
			b.WriteString(topic)
		}
		b.WriteString(`, in a tone this profile would enjoy.
Return ONLY a JSON object:
{"topic": "...", "participants": ["...", "..."], "turns": [{"speaker": "...", "text": "..."}]}`)
	}

	b.WriteString("\n\nNo prose outside the JSON. No markdown fences.")
	return b.String()
}
