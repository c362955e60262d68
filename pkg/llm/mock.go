package llm

import (
	"context"
	"sync"
)

// Mock is a Generator for tests.
type Mock struct {
	// GenerateFunc is called by Generate. Nil returns Response.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	// Response is returned when GenerateFunc is nil.
	Response string

	mu      sync.Mutex
	prompts []string
}

// NewMock creates a mock that answers with response.
func NewMock(response string) *Mock {
	return &Mock{Response: response}
}

// WithError returns a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{GenerateFunc: func(context.Context, string) (string, error) {
		return "", err
	}}
}

// Name returns "mock".
func (m *Mock) Name() string { return "mock" }

// Generate records prompt and answers.
func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	fn := m.GenerateFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, prompt)
	}
	return m.Response, nil
}

// Prompts returns every prompt received.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Calls returns how many times Generate ran.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

var _ Generator = (*Mock)(nil)
