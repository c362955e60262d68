// Package bundled provides the concrete live session providers.
//
// "genai" speaks to Gemini Live through the official SDK. "socket" is a
// thin client over the raw BidiGenerateContent WebSocket for setups where
// the SDK's transport is unwanted.
package bundled

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/teslashibe/go-jarvis/pkg/audio"
	"github.com/teslashibe/go-jarvis/pkg/live"
)

// GenAI opens sessions with the google.golang.org/genai Live API.
type GenAI struct {
	client *genai.Client
	logger *slog.Logger
}

// NewGenAI creates the SDK-backed provider.
func NewGenAI(opts live.Options) (*GenAI, error) {
	if opts.APIKey == "" {
		return nil, live.ErrMissingAPIKey
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("live/genai: create client: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GenAI{client: client, logger: logger.With("component", "live.genai")}, nil
}

// Name returns "genai".
func (g *GenAI) Name() string { return "genai" }

// Connect opens a Live session and starts its receive loop.
func (g *GenAI) Connect(ctx context.Context, cfg live.Config, cb live.Callbacks) (live.Session, error) {
	sess, err := g.client.Live.Connect(ctx, cfg.Model, connectConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("live/genai: connect: %w", err)
	}

	s := &genaiSession{
		id:     uuid.NewString(),
		sess:   sess,
		cb:     cb,
		logger: g.logger,
	}
	s.logger.Info("session opened", "session", s.id, "model", cfg.Model, "voice", cfg.Voice)
	cb.Open()
	go s.receive()
	return s, nil
}

func connectConfig(cfg live.Config) *genai.LiveConnectConfig {
	c := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
	}
	if cfg.Voice != "" {
		c.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}
	if cfg.SystemInstruction != "" {
		c.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(cfg.SystemInstruction)},
		}
	}
	if cfg.InputTranscription {
		c.InputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if cfg.OutputTranscription {
		c.OutputAudioTranscription = &genai.AudioTranscriptionConfig{}
	}
	if len(cfg.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(cfg.Tools))
		for _, t := range cfg.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toolSchema(t),
			})
		}
		c.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return c
}

func toolSchema(t live.Tool) *genai.Schema {
	s := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(t.Params)),
	}
	for _, p := range t.Params {
		s.Properties[p.Name] = &genai.Schema{
			Type:        schemaType(p.Type),
			Description: p.Description,
			Enum:        p.Enum,
		}
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

func schemaType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

type genaiSession struct {
	id     string
	sess   *genai.Session
	cb     live.Callbacks
	logger *slog.Logger

	// genai writes straight to one websocket; writes must not interleave.
	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

func (s *genaiSession) ID() string { return s.id }

func (s *genaiSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *genaiSession) SendAudio(ctx context.Context, blob audio.Blob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.isClosed() {
		return live.ErrClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.sess.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{MIMEType: blob.MIMEType, Data: blob.Data},
	})
}

func (s *genaiSession) SendToolResponse(ctx context.Context, responses []live.ToolResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.isClosed() {
		return live.ErrClosed
	}
	frs := make([]*genai.FunctionResponse, 0, len(responses))
	for _, r := range responses {
		frs = append(frs, &genai.FunctionResponse{ID: r.ID, Name: r.Name, Response: r.Result})
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.sess.SendToolResponse(genai.LiveToolResponseInput{FunctionResponses: frs})
}

func (s *genaiSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.sess.Close()
	s.logger.Info("session closed", "session", s.id)
	return err
}

func (s *genaiSession) receive() {
	defer s.cb.Close()
	for {
		msg, err := s.sess.Receive()
		if err != nil {
			if !s.isClosed() {
				s.cb.Fail(fmt.Errorf("live/genai: receive: %w", err))
			}
			return
		}
		if msg.GoAway != nil {
			s.logger.Warn("server going away", "session", s.id)
		}
		out := fromServerMessage(msg)
		if out.SetupComplete {
			s.logger.Debug("setup complete", "session", s.id)
		}
		s.cb.Message(out)
	}
}

func fromServerMessage(m *genai.LiveServerMessage) live.Message {
	var out live.Message
	if m == nil {
		return out
	}
	out.SetupComplete = m.SetupComplete != nil

	if sc := m.ServerContent; sc != nil {
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				if p == nil || p.InlineData == nil {
					continue
				}
				if !strings.HasPrefix(p.InlineData.MIMEType, "audio/") {
					continue
				}
				out.Audio = append(out.Audio, p.InlineData.Data...)
				out.MIMEType = p.InlineData.MIMEType
			}
		}
		if sc.InputTranscription != nil {
			out.InputTranscription = sc.InputTranscription.Text
		}
		if sc.OutputTranscription != nil {
			out.OutputTranscription = sc.OutputTranscription.Text
		}
		out.TurnComplete = sc.TurnComplete
		out.Interrupted = sc.Interrupted
	}

	if tc := m.ToolCall; tc != nil {
		for _, fc := range tc.FunctionCalls {
			if fc == nil {
				continue
			}
			out.ToolCalls = append(out.ToolCalls, live.ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
	}
	return out
}

var (
	_ live.Provider = (*GenAI)(nil)
	_ live.Session  = (*genaiSession)(nil)
)

func init() {
	live.Register("genai", func(opts live.Options) (live.Provider, error) {
		return NewGenAI(opts)
	})
}
