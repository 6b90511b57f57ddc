package service

import (
	"context"
	"encoding/json"
	"testing"

	"companion-llm/internal/domain"
)

type staticSchedule struct{ events []ScheduleEvent }

func (s *staticSchedule) UpcomingEvents(_ context.Context, _ string) ([]ScheduleEvent, error) {
	return s.events, nil
}

func newMessageFixture(t *testing.T) (*MessageService, *AssessmentService) {
	t.Helper()

	progressRepo := newMemProgressRepo()
	assessment := NewAssessmentService(progressRepo, nil, nil, nil)

	artifacts := newMemArtifactRepo()
	viewed := newMemViewedRepo()
	characters := &memCharacterRepo{characters: map[string]domain.Character{
		"char-1": {ID: "char-1", UserID: "user-a", Name: "Mira"},
	}}
	gen := &countingGenerator{payload: json.RawMessage(`{"topic":"t","participants":["a","b"],"turns":[{"speaker":"a","text":"hi"}]}`)}
	content := NewContentService(artifacts, viewed, characters, assessment, gen, &fixedQuota{allow: true}, nil)

	schedule := &staticSchedule{events: []ScheduleEvent{{Title: "dentist", StartsAt: "2026-09-02T10:00:00Z"}}}
	chat := NewDisabledChatProvider("tell me more")
	return NewMessageService(assessment, content, schedule, chat, nil), assessment
}

func TestHandleNumericAnswerFeedsAssessment(t *testing.T) {
	svc, assessment := newMessageFixture(t)

	if _, _, err := assessment.NextQuestion(context.Background(), "user-a", "char-1"); err != nil {
		t.Fatalf("next question: %v", err)
	}

	reply, err := svc.Handle(context.Background(), "user-a", "char-1", " 4 ")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply.Intent != "numeric_answer" || reply.Answer == nil {
		t.Fatalf("expected routed answer, got %+v", reply)
	}
	if reply.Answer.NextQuestion == nil {
		t.Fatalf("expected a follow-up question")
	}
}

func TestHandleNumericWithoutPendingFallsBackToChat(t *testing.T) {
	svc, _ := newMessageFixture(t)

	reply, err := svc.Handle(context.Background(), "user-a", "char-1", "4")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply.Intent != "free_chat" || reply.Text != "tell me more" {
		t.Fatalf("expected chat fallback, got %+v", reply)
	}
}

func TestHandleDataQuery(t *testing.T) {
	svc, _ := newMessageFixture(t)

	reply, err := svc.Handle(context.Background(), "user-a", "char-1", "what do I have scheduled today?")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply.Intent != "data_query" || len(reply.Schedule) != 1 || reply.Schedule[0].Title != "dentist" {
		t.Fatalf("expected schedule reply, got %+v", reply)
	}
}

func TestHandleLowInformation(t *testing.T) {
	svc, _ := newMessageFixture(t)

	reply, err := svc.Handle(context.Background(), "user-a", "char-1", "...")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply.Intent != "low_information" || reply.Text == "" {
		t.Fatalf("expected re-prompt, got %+v", reply)
	}
}

func TestHandleTopicRequestRequiresProfile(t *testing.T) {
	svc, _ := newMessageFixture(t)

	// Sin etapa cruzada no hay firma: el pedido de tema falla con not-ready.
	_, err := svc.Handle(context.Background(), "user-a", "char-1", "do you have something to talk about?")
	if err == nil {
		t.Fatalf("expected ErrProfileNotReady")
	}
}
