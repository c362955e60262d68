package bundled

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-jarvis/pkg/audio"
	"github.com/teslashibe/go-jarvis/pkg/live"
)

// DefaultSocketEndpoint is the Gemini Live WebSocket endpoint.
const DefaultSocketEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Socket opens sessions over the raw BidiGenerateContent WebSocket.
type Socket struct {
	// Endpoint is the WebSocket URL, without the key parameter.
	Endpoint string

	apiKey string
	logger *slog.Logger
	dialer *websocket.Dialer
}

// NewSocket creates the raw WebSocket provider.
func NewSocket(opts live.Options) (*Socket, error) {
	if opts.APIKey == "" {
		return nil, live.ErrMissingAPIKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Socket{
		Endpoint: DefaultSocketEndpoint,
		apiKey:   opts.APIKey,
		logger:   logger.With("component", "live.socket"),
		dialer:   newDialer(opts.HTTPClient),
	}, nil
}

// newDialer copies proxy, TLS and dial settings from the shared client's
// transport so WebSocket dials behave like the REST clients.
func newDialer(client *http.Client) *websocket.Dialer {
	d := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	if client == nil {
		return d
	}
	t, ok := client.Transport.(*http.Transport)
	if !ok {
		return d
	}
	d.Proxy = t.Proxy
	d.NetDialContext = t.DialContext
	if t.TLSClientConfig != nil {
		d.TLSClientConfig = t.TLSClientConfig.Clone()
	}
	if t.TLSHandshakeTimeout > 0 {
		d.HandshakeTimeout = t.TLSHandshakeTimeout
	}
	return d
}

// Name returns "socket".
func (p *Socket) Name() string { return "socket" }

// Connect dials the endpoint, sends the setup message and starts reading.
func (p *Socket) Connect(ctx context.Context, cfg live.Config, cb live.Callbacks) (live.Session, error) {
	u, err := url.Parse(p.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("live/socket: bad endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", p.apiKey)
	u.RawQuery = q.Encode()

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	ws, _, err := p.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("live/socket: failed to connect: %w", err)
	}

	s := &socketSession{
		id:     uuid.NewString(),
		ws:     ws,
		cb:     cb,
		logger: p.logger,
	}
	if err := s.sendJSON(setupMessage(cfg)); err != nil {
		ws.Close()
		return nil, fmt.Errorf("live/socket: failed to configure session: %w", err)
	}

	s.logger.Info("session opened", "session", s.id, "model", cfg.Model)
	cb.Open()
	go s.handleMessages()
	return s, nil
}

// setupMessage builds the first client message.
func setupMessage(cfg live.Config) map[string]any {
	model := cfg.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}

	generation := map[string]any{
		"response_modalities": []string{"AUDIO"},
	}
	if cfg.Voice != "" {
		generation["speech_config"] = map[string]any{
			"voice_config": map[string]any{
				"prebuilt_voice_config": map[string]any{
					"voice_name": cfg.Voice,
				},
			},
		}
	}

	setup := map[string]any{
		"model":             model,
		"generation_config": generation,
	}
	if cfg.SystemInstruction != "" {
		setup["system_instruction"] = map[string]any{
			"parts": []map[string]any{
				{"text": cfg.SystemInstruction},
			},
		}
	}
	if cfg.InputTranscription {
		setup["input_audio_transcription"] = map[string]any{}
	}
	if cfg.OutputTranscription {
		setup["output_audio_transcription"] = map[string]any{}
	}
	if len(cfg.Tools) > 0 {
		decls := make([]map[string]any, 0, len(cfg.Tools))
		for _, t := range cfg.Tools {
			decls = append(decls, map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Schema(),
			})
		}
		setup["tools"] = []map[string]any{
			{"function_declarations": decls},
		}
	}
	return map[string]any{"setup": setup}
}

type socketSession struct {
	id     string
	ws     *websocket.Conn
	cb     live.Callbacks
	logger *slog.Logger

	wsMu sync.Mutex

	mu     sync.RWMutex
	closed bool
}

func (s *socketSession) ID() string { return s.id }

func (s *socketSession) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// SendAudio sends one PCM16 frame as realtime input.
func (s *socketSession) SendAudio(ctx context.Context, blob audio.Blob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.isClosed() {
		return live.ErrClosed
	}
	return s.sendJSON(map[string]any{
		"realtime_input": map[string]any{
			"audio": map[string]any{
				"data":      blob.Base64(),
				"mime_type": blob.MIMEType,
			},
		},
	})
}

// SendToolResponse returns function results to the model.
func (s *socketSession) SendToolResponse(ctx context.Context, responses []live.ToolResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.isClosed() {
		return live.ErrClosed
	}
	frs := make([]map[string]any, 0, len(responses))
	for _, r := range responses {
		frs = append(frs, map[string]any{
			"id":       r.ID,
			"name":     r.Name,
			"response": r.Result,
		})
	}
	return s.sendJSON(map[string]any{
		"tool_response": map[string]any{
			"function_responses": frs,
		},
	})
}

func (s *socketSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.wsMu.Lock()
	s.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.wsMu.Unlock()
	return s.ws.Close()
}

// handleMessages reads until the socket fails or is closed.
func (s *socketSession) handleMessages() {
	defer s.cb.Close()
	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			if !s.isClosed() && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.cb.Fail(fmt.Errorf("live/socket: read: %w", err))
			}
			return
		}

		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			s.logger.Debug("failed to parse message", "session", s.id, "error", err)
			continue
		}
		msg, ok := parseServerMessage(raw)
		if !ok {
			s.logger.Debug("ignored message", "session", s.id, "keys", keys(raw))
			continue
		}
		s.cb.Message(msg)
	}
}

// parseServerMessage maps one decoded server message. It reports false for
// messages with nothing the session consumes.
func parseServerMessage(raw map[string]any) (live.Message, bool) {
	var msg live.Message
	handled := false

	if _, ok := raw["setupComplete"]; ok {
		msg.SetupComplete = true
		handled = true
	}

	if content, ok := raw["serverContent"].(map[string]any); ok {
		handled = true
		if modelTurn, ok := content["modelTurn"].(map[string]any); ok {
			parts, _ := modelTurn["parts"].([]any)
			for _, part := range parts {
				partMap, ok := part.(map[string]any)
				if !ok {
					continue
				}
				inline, ok := partMap["inlineData"].(map[string]any)
				if !ok {
					continue
				}
				mime, _ := inline["mimeType"].(string)
				if !strings.HasPrefix(mime, "audio/pcm") {
					continue
				}
				data, _ := inline["data"].(string)
				pcm, err := audio.Decode(data)
				if err != nil || len(pcm) == 0 {
					continue
				}
				msg.Audio = append(msg.Audio, pcm...)
				msg.MIMEType = mime
			}
		}
		if t, ok := content["inputTranscription"].(map[string]any); ok {
			msg.InputTranscription, _ = t["text"].(string)
		}
		if t, ok := content["outputTranscription"].(map[string]any); ok {
			msg.OutputTranscription, _ = t["text"].(string)
		}
		msg.TurnComplete, _ = content["turnComplete"].(bool)
		msg.Interrupted, _ = content["interrupted"].(bool)
	}

	if toolCall, ok := raw["toolCall"].(map[string]any); ok {
		handled = true
		calls, _ := toolCall["functionCalls"].([]any)
		for _, fc := range calls {
			fcMap, ok := fc.(map[string]any)
			if !ok {
				continue
			}
			call := live.ToolCall{}
			call.ID, _ = fcMap["id"].(string)
			call.Name, _ = fcMap["name"].(string)
			call.Args, _ = fcMap["args"].(map[string]any)
			msg.ToolCalls = append(msg.ToolCalls, call)
		}
	}

	return msg, handled
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// sendJSON writes one message. Writes are serialized.
func (s *socketSession) sendJSON(v any) error {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	return s.ws.WriteJSON(v)
}

var (
	_ live.Provider = (*Socket)(nil)
	_ live.Session  = (*socketSession)(nil)
)

func init() {
	live.Register("socket", func(opts live.Options) (live.Provider, error) {
		return NewSocket(opts)
	})
}
