package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"companion-llm/internal/domain"
	"companion-llm/internal/repository"
)

type memProgressRepo struct {
	mu      sync.Mutex
	records map[string]domain.AssessmentProgress
	getErr  error
	saveErr error
	saves   int
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{records: make(map[string]domain.AssessmentProgress)}
}

func progressKey(userID, characterID string) string { return userID + "/" + characterID }

func (r *memProgressRepo) Get(_ context.Context, userID, characterID string) (domain.AssessmentProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		err := r.getErr
		r.getErr = nil
		return domain.AssessmentProgress{}, err
	}
	p, ok := r.records[progressKey(userID, characterID)]
	if !ok {
		return domain.AssessmentProgress{}, repository.ErrProgressNotFound
	}
	return p, nil
}

func (r *memProgressRepo) Save(_ context.Context, progress domain.AssessmentProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.records[progressKey(progress.UserID, progress.CharacterID)] = progress
	return nil
}

type prewarmRecorder struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
}

func newPrewarmRecorder(expected int) *prewarmRecorder {
	return &prewarmRecorder{done: make(chan struct{}, expected)}
}

func (p *prewarmRecorder) Prewarm(_ context.Context, signature, contentType string, _ map[string]string) error {
	p.mu.Lock()
	p.calls = append(p.calls, signature+":"+contentType)
	p.mu.Unlock()
	p.done <- struct{}{}
	return nil
}

func (p *prewarmRecorder) wait(t *testing.T, n int) []string {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for prewarm call %d", i+1)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

type completionRecorder struct {
	mu         sync.Mutex
	signatures []string
}

func (c *completionRecorder) RecordCompletion(signature string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signatures = append(c.signatures, signature)
}

func answerAll(t *testing.T, svc *AssessmentService, userID, characterID string, value int, total int) []int {
	t.Helper()
	var stages []int
	for i := 0; i < total; i++ {
		q, completed, err := svc.NextQuestion(context.Background(), userID, characterID)
		if err != nil {
			t.Fatalf("next question %d: %v", i, err)
		}
		if completed {
			t.Fatalf("inventory exhausted early at %d", i)
		}
		if q == nil {
			t.Fatalf("nil question at %d", i)
		}
		result, err := svc.SubmitAnswer(context.Background(), userID, characterID, value)
		if err != nil {
			t.Fatalf("submit answer %d: %v", i, err)
		}
		if result.StageCompleted != 0 {
			stages = append(stages, result.StageCompleted)
		}
	}
	return stages
}

func TestSubmitAnswerValidation(t *testing.T) {
	repo := newMemProgressRepo()
	svc := NewAssessmentService(repo, nil, nil, nil)

	for _, v := range []int{0, -1, 6, 100} {
		if _, err := svc.SubmitAnswer(context.Background(), "u1", "c1", v); !errors.Is(err, domain.ErrInvalidAnswer) {
			t.Fatalf("value %d: expected ErrInvalidAnswer, got %v", v, err)
		}
	}
	if repo.saves != 0 {
		t.Fatalf("validation failure must not mutate state, got %d saves", repo.saves)
	}
}

func TestSubmitAnswerWithoutPendingQuestion(t *testing.T) {
	repo := newMemProgressRepo()
	svc := NewAssessmentService(repo, nil, nil, nil)

	if _, err := svc.SubmitAnswer(context.Background(), "u1", "c1", 3); !errors.Is(err, domain.ErrNoPendingQuestion) {
		t.Fatalf("expected ErrNoPendingQuestion, got %v", err)
	}
}

func TestStageTwentyRunningScores(t *testing.T) {
	// Escenario: 20 respuestas en 3 -> etapa 20 una sola vez, scores 3.0.
	repo := newMemProgressRepo()
	svc := NewAssessmentService(repo, nil, nil, nil)

	stages := answerAll(t, svc, "u1", "c1", 3, 20)
	if len(stages) != 1 || stages[0] != domain.StagePreliminary {
		t.Fatalf("expected single stage 20, got %v", stages)
	}

	p := repo.records[progressKey("u1", "c1")]
	scores := runningScores(p.Answered)
	for _, trait := range domain.TraitOrder {
		if scores.Get(trait) != 3.0 {
			t.Fatalf("trait %s: expected 3.0, got %v", trait, scores.Get(trait))
		}
	}
}

func TestFullInventoryStagesExactlyOnce(t *testing.T) {
	repo := newMemProgressRepo()
	recorder := &completionRecorder{}
	svc := NewAssessmentService(repo, nil, recorder, nil)

	stages := answerAll(t, svc, "u1", "c1", 5, domain.InventorySize)
	want := []int{20, 50, 100}
	if len(stages) != len(want) {
		t.Fatalf("expected stages %v, got %v", want, stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("expected stages %v, got %v", want, stages)
		}
	}

	p := repo.records[progressKey("u1", "c1")]
	if !p.Completed || p.FinalScores == nil {
		t.Fatalf("expected completed progress with frozen scores, got %+v", p)
	}
	if p.CurrentQuestionID != "" {
		t.Fatalf("completed progress must have no pending question")
	}
	if len(recorder.signatures) != 1 {
		t.Fatalf("expected one completion recorded, got %v", recorder.signatures)
	}

	// Terminal: no hay mas preguntas ni respuestas.
	if _, completed, err := svc.NextQuestion(context.Background(), "u1", "c1"); err != nil || !completed {
		t.Fatalf("expected terminal completed state, got completed=%v err=%v", completed, err)
	}
	if _, err := svc.SubmitAnswer(context.Background(), "u1", "c1", 3); !errors.Is(err, domain.ErrAssessmentCompleted) {
		t.Fatalf("expected ErrAssessmentCompleted, got %v", err)
	}
}

func TestAnsweredListMonotonicAndUnique(t *testing.T) {
	repo := newMemProgressRepo()
	svc := NewAssessmentService(repo, nil, nil, nil)

	lastLen := 0
	for i := 0; i < 40; i++ {
		if _, _, err := svc.NextQuestion(context.Background(), "u1", "c1"); err != nil {
			t.Fatalf("next question: %v", err)
		}
		if _, err := svc.SubmitAnswer(context.Background(), "u1", "c1", 1+i%5); err != nil {
			t.Fatalf("submit: %v", err)
		}
		p := repo.records[progressKey("u1", "c1")]
		if len(p.Answered) < lastLen {
			t.Fatalf("answered list shrank: %d -> %d", lastLen, len(p.Answered))
		}
		lastLen = len(p.Answered)
	}

	p := repo.records[progressKey("u1", "c1")]
	seen := make(map[string]struct{})
	for _, a := range p.Answered {
		if _, dup := seen[a.QuestionID]; dup {
			t.Fatalf("question %q answered twice", a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
	}
}

func TestStageThresholdIsCountNotIdentity(t *testing.T) {
	// 19 respuestas pre-cargadas de cualquier subconjunto: la respuesta 20
	// cruza la etapa sin importar que preguntas fueron.
	repo := newMemProgressRepo()
	svc := NewAssessmentService(repo, nil, nil, nil)

	var answered []domain.AnsweredQuestion
	for i := len(QuestionInventory) - 19; i < len(QuestionInventory); i++ {
		q := QuestionInventory[i]
		answered = append(answered, domain.AnsweredQuestion{
			QuestionID: q.ID, Trait: q.Trait, Reversed: q.Reversed, Value: 4, AnsweredAt: time.Now().UnixMilli(),
		})
	}
	repo.records[progressKey("u1", "c1")] = domain.AssessmentProgress{
		UserID: "u1", CharacterID: "c1", Answered: answered, CurrentQuestionID: QuestionInventory[0].ID,
	}

	result, err := svc.SubmitAnswer(context.Background(), "u1", "c1", 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.StageCompleted != domain.StagePreliminary {
		t.Fatalf("expected stage 20, got %d", result.StageCompleted)
	}
}

func TestNextQuestionSkipsAnswered(t *testing.T) {
	repo := newMemProgressRepo()
	svc := NewAssessmentService(repo, nil, nil, nil)

	q1, _, err := svc.NextQuestion(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, err := svc.SubmitAnswer(context.Background(), "u1", "c1", 4); err != nil {
		t.Fatalf("submit: %v", err)
	}
	q2, _, err := svc.NextQuestion(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if q1.ID == q2.ID {
		t.Fatalf("expected a new question, got %q twice", q1.ID)
	}
}

func TestCorruptedProgressResetsInventory(t *testing.T) {
	repo := newMemProgressRepo()
	repo.getErr = fmt.Errorf("decode answered: %w", domain.ErrCorruptedProgress)
	svc := NewAssessmentService(repo, nil, nil, nil)

	// El caller no ve el error: recibe la primera pregunta de un avance fresco.
	q, completed, err := svc.NextQuestion(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("expected silent reset, got %v", err)
	}
	if completed || q == nil || q.ID != QuestionInventory[0].ID {
		t.Fatalf("expected first inventory question after reset, got %+v completed=%v", q, completed)
	}
	p := repo.records[progressKey("u1", "c1")]
	if len(p.Answered) != 0 {
		t.Fatalf("reset record must have empty answered list")
	}
}

func TestStageFanOutTriggersPrewarm(t *testing.T) {
	repo := newMemProgressRepo()
	prewarmer := newPrewarmRecorder(1)
	svc := NewAssessmentService(repo, prewarmer, nil, nil)

	answerAll(t, svc, "u1", "c1", 3, 20)

	calls := prewarmer.wait(t, 1)
	if calls[0] != "MMMMM:"+domain.ContentTypeAnalysis {
		t.Fatalf("expected analysis prewarm for MMMMM, got %v", calls)
	}
}

func TestRunningScoresReversedItems(t *testing.T) {
	answered := []domain.AnsweredQuestion{
		{QuestionID: "o01", Trait: domain.TraitOpenness, Reversed: false, Value: 5},
		{QuestionID: "o02", Trait: domain.TraitOpenness, Reversed: true, Value: 1},
	}
	scores := runningScores(answered)
	if scores.Openness != 5.0 {
		t.Fatalf("reversed item should score 6-1=5, mean 5.0, got %v", scores.Openness)
	}
	if scores.Neuroticism != 3.0 {
		t.Fatalf("unanswered trait defaults to 3.0, got %v", scores.Neuroticism)
	}
}
