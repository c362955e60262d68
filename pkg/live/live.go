package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/teslashibe/go-jarvis/pkg/audio"
)

// Common errors returned by providers and sessions.
var (
	ErrNotConnected    = errors.New("live: session not connected")
	ErrClosed          = errors.New("live: session closed")
	ErrMissingAPIKey   = errors.New("live: missing API key")
	ErrUnknownProvider = errors.New("live: unknown provider")
)

// Config describes the session to open.
type Config struct {
	// Model is the native-audio model name.
	Model string
	// Voice is a prebuilt voice name such as "Charon" or "Kore".
	Voice string
	// SystemInstruction is the full system prompt.
	SystemInstruction string
	// Tools are declared to the model at setup.
	Tools []Tool
	// InputTranscription and OutputTranscription request live captions of
	// both sides of the conversation.
	InputTranscription  bool
	OutputTranscription bool
}

// Message is one event received from the service. Several fields may be
// set on the same message.
type Message struct {
	// Audio is raw PCM16 response audio; MIMEType carries its rate.
	Audio    []byte
	MIMEType string

	InputTranscription  string
	OutputTranscription string

	TurnComplete  bool
	Interrupted   bool
	SetupComplete bool

	ToolCalls []ToolCall
}

// HasAudio reports whether the message carries response audio.
func (m Message) HasAudio() bool { return len(m.Audio) > 0 }

// Callbacks receive session events. Any may be nil.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(Message)
	OnError   func(error)
	OnClose   func()
}

// Open fires OnOpen.
func (c Callbacks) Open() {
	if c.OnOpen != nil {
		c.OnOpen()
	}
}

// Message fires OnMessage.
func (c Callbacks) Message(m Message) {
	if c.OnMessage != nil {
		c.OnMessage(m)
	}
}

// Fail fires OnError.
func (c Callbacks) Fail(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

// Close fires OnClose.
func (c Callbacks) Close() {
	if c.OnClose != nil {
		c.OnClose()
	}
}

// Session is an open realtime session.
type Session interface {
	// ID identifies the session in logs.
	ID() string

	// SendAudio sends one encoded microphone frame.
	SendAudio(ctx context.Context, blob audio.Blob) error

	// SendToolResponse returns tool results to the model.
	SendToolResponse(ctx context.Context, responses []ToolResponse) error

	// Close ends the session. It is safe to call more than once.
	Close() error
}

// Provider opens sessions.
type Provider interface {
	// Name returns the registry name, e.g. "genai".
	Name() string

	// Connect opens a session. OnOpen fires before Connect returns.
	Connect(ctx context.Context, cfg Config, cb Callbacks) (Session, error)
}

// Options configure a provider.
type Options struct {
	APIKey     string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Factory creates a Provider.
type Factory func(opts Options) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a provider available by name. Bundled providers call it
// from init.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New creates the named provider.
func New(name string, opts Options) (Provider, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return f(opts)
}

// Providers lists the registered provider names.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
