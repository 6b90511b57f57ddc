package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"companion-llm/internal/domain"
	"companion-llm/internal/llm"
)

const validAnalysisJSON = `{"headline":"Steady explorer","summary":"Curious but grounded.","strengths":["curiosity"],"growth_areas":["routine"]}`

func newTestGenerationService(client llm.LLMClient) *GenerationService {
	svc := NewGenerationService(client, nil)
	svc.baseDelay = time.Millisecond
	svc.attemptTimeout = time.Second
	svc.overallTimeout = 5 * time.Second
	return svc
}

func TestGenerateSucceedsOnThirdAttempt(t *testing.T) {
	mock := &llm.MockClient{Script: []llm.MockStep{
		{Err: errors.New("transient 500")},
		{Response: "not json at all"},
		{Response: "```json\n" + validAnalysisJSON + "\n```"},
	}}
	svc := newTestGenerationService(mock)

	payload, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ContentType: domain.ContentTypeAnalysis,
		Signature:   "HHLLL",
	})
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if mock.Calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", mock.Calls())
	}

	var parsed AnalysisPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("payload not valid json: %v", err)
	}
	if parsed.Summary != "Curious but grounded." {
		t.Fatalf("unexpected payload: %+v", parsed)
	}
}

func TestGenerateExhaustsRetries(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("service down")}
	svc := newTestGenerationService(mock)

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ContentType: domain.ContentTypeAnalysis,
		Signature:   "MMMMM",
	})

	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Attempts != 3 || genErr.ContentType != domain.ContentTypeAnalysis {
		t.Fatalf("unexpected error detail: %+v", genErr)
	}
	if mock.Calls() != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", mock.Calls())
	}
}

func TestGenerateRejectsSchemaViolations(t *testing.T) {
	// JSON bien formado pero sin campos requeridos: cuenta como fallo transitorio.
	mock := &llm.MockClient{Response: `{"headline":"x"}`}
	svc := newTestGenerationService(mock)

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ContentType: domain.ContentTypeAnalysis,
		Signature:   "MMMMM",
	})
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError for schema violation, got %v", err)
	}
}

func TestGenerateGroupChatValidation(t *testing.T) {
	good := `{"topic":"weekend plans","participants":["Ana","Leo","Sam"],"turns":[{"speaker":"Ana","text":"hey"}]}`
	mock := &llm.MockClient{Response: good}
	svc := newTestGenerationService(mock)

	payload, err := svc.Generate(context.Background(), domain.GenerationRequest{
		ContentType: domain.ContentTypeGroupChat,
		Signature:   "HHLLL",
		Parameters:  map[string]string{"topic": "weekend plans"},
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	var parsed GroupChatPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("payload not valid json: %v", err)
	}
	if len(parsed.Participants) != 3 || len(parsed.Turns) != 1 {
		t.Fatalf("unexpected payload: %+v", parsed)
	}
}

func TestGenerateUnknownContentType(t *testing.T) {
	mock := &llm.MockClient{Response: validAnalysisJSON}
	svc := newTestGenerationService(mock)

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{ContentType: "haiku"})
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if mock.Calls() != 0 {
		t.Fatalf("unknown type must not reach the llm")
	}
}

func TestBuildPromptMentionsProfileLevels(t *testing.T) {
	prompt := buildPrompt(domain.GenerationRequest{
		ContentType: domain.ContentTypeAnalysis,
		Signature:   "HHLLL",
	})
	for _, want := range []string{"openness: high", "conscientiousness: high", "extraversion: low", "agreeableness: low", "neuroticism: low"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
