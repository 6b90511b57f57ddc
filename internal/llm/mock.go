package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real.
// Si Script esta presente, cada llamada consume el paso siguiente; si no,
// siempre devuelve Response/Err.
type MockClient struct {
	Response string
	Err      error
	Script   []MockStep

	mu      sync.Mutex
	calls   int
	Prompts []string
}

type MockStep struct {
	Response string
	Err      error
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prompts = append(m.Prompts, prompt)
	call := m.calls
	m.calls++
	if len(m.Script) > 0 {
		step := m.Script[len(m.Script)-1]
		if call < len(m.Script) {
			step = m.Script[call]
		}
		return step.Response, step.Err
	}
	return m.Response, m.Err
}

// Calls devuelve cuantas veces se invoco Generate.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
