package live

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/teslashibe/go-jarvis/pkg/audio"
)

// MockProvider is an in-process Provider for tests.
type MockProvider struct {
	// ConnectErr, if set, is returned by Connect.
	ConnectErr error

	mu       sync.Mutex
	sessions []*MockSession
	configs  []Config
}

// NewMock creates a mock provider.
func NewMock() *MockProvider {
	return &MockProvider{}
}

// Name returns "mock".
func (p *MockProvider) Name() string { return "mock" }

// Connect records cfg and returns a MockSession wired to cb.
func (p *MockProvider) Connect(ctx context.Context, cfg Config, cb Callbacks) (Session, error) {
	if p.ConnectErr != nil {
		return nil, p.ConnectErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &MockSession{id: uuid.NewString(), cb: cb}
	p.mu.Lock()
	p.sessions = append(p.sessions, s)
	p.configs = append(p.configs, cfg)
	p.mu.Unlock()
	cb.Open()
	return s, nil
}

// Last returns the most recent session and its config.
func (p *MockProvider) Last() (*MockSession, Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) == 0 {
		return nil, Config{}
	}
	return p.sessions[len(p.sessions)-1], p.configs[len(p.configs)-1]
}

// Connects returns how many sessions were opened.
func (p *MockProvider) Connects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// MockSession records outbound traffic and lets tests inject inbound
// messages.
type MockSession struct {
	id string
	cb Callbacks

	// SendErr, if set, is returned by SendAudio.
	SendErr error

	mu        sync.Mutex
	sent      []audio.Blob
	responses []ToolResponse
	closed    bool
}

// ID returns the session id.
func (s *MockSession) ID() string { return s.id }

// SendAudio records blob.
func (s *MockSession) SendAudio(_ context.Context, blob audio.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.SendErr != nil {
		return s.SendErr
	}
	s.sent = append(s.sent, blob)
	return nil
}

// SendToolResponse records responses.
func (s *MockSession) SendToolResponse(_ context.Context, responses []ToolResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.responses = append(s.responses, responses...)
	return nil
}

// Close marks the session closed and fires OnClose once.
func (s *MockSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.cb.Close()
	return nil
}

// Emit delivers msg as if it came from the service.
func (s *MockSession) Emit(msg Message) {
	s.cb.Message(msg)
}

// Fail delivers a transport error.
func (s *MockSession) Fail(err error) {
	s.cb.Fail(err)
}

// Sent returns the recorded audio frames.
func (s *MockSession) Sent() []audio.Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audio.Blob(nil), s.sent...)
}

// ToolResponses returns the recorded tool responses.
func (s *MockSession) ToolResponses() []ToolResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ToolResponse(nil), s.responses...)
}

// Closed reports whether Close was called.
func (s *MockSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var (
	_ Provider = (*MockProvider)(nil)
	_ Session  = (*MockSession)(nil)
)

func init() {
	Register("mock", func(Options) (Provider, error) { return NewMock(), nil })
}
