package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-jarvis/pkg/audio"
	"github.com/teslashibe/go-jarvis/pkg/audioio"
	"github.com/teslashibe/go-jarvis/pkg/hub"
)

const (
	bridgeWriteWait   = 10 * time.Second
	bridgeMaxMessage  = 1 << 20
	bridgeStreamDepth = 16
)

var errBridgeClosed = errors.New("web: bridge closed")

// Control event types sent to the browser as JSON text frames.
const (
	EventStatus = "status"
	EventClear  = "clear"
	EventEnded  = "ended"
	EventError  = "error"
)

// controlEvent is an outbound JSON frame on /ws/conversation.
type controlEvent struct {
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
	Muted  bool   `json:"muted,omitempty"`
	Error  string `json:"error,omitempty"`
}

// controlMessage is an inbound JSON frame: {"type":"mute","muted":true}
// or {"type":"end"}.
type controlMessage struct {
	Type  string `json:"type"`
	Muted bool   `json:"muted"`
}

// bridge carries one browser's audio over a websocket. Binary frames in
// are PCM16 microphone audio, binary frames out are PCM16 playback audio,
// and text frames carry control events both ways.
type bridge struct {
	id     string
	conn   hub.Conn
	wmu    sync.Mutex
	source *remoteSource
	sink   *remoteSink
	logger *slog.Logger
}

func newBridge(conn hub.Conn, inputRate, outputRate int, logger *slog.Logger) *bridge {
	b := &bridge{
		id:     uuid.NewString(),
		conn:   conn,
		logger: logger,
	}
	b.source = newRemoteSource(audioio.Config{SampleRate: inputRate, Channels: 1})
	b.sink = &remoteSink{
		cfg:  audioio.Config{SampleRate: outputRate, Channels: 1},
		send: b.writeBinary,
		clear: func() error {
			return b.writeJSON(controlEvent{Type: EventClear})
		},
	}
	return b
}

func (b *bridge) devices() Devices {
	return Devices{Owner: b.id, Source: b.source, Sink: b.sink}
}

func (b *bridge) write(kind int, data []byte) error {
	b.wmu.Lock()
	defer b.wmu.Unlock()
	_ = b.conn.SetWriteDeadline(time.Now().Add(bridgeWriteWait))
	return b.conn.WriteMessage(kind, data)
}

func (b *bridge) writeBinary(data []byte) error {
	return b.write(websocket.BinaryMessage, data)
}

func (b *bridge) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.write(websocket.TextMessage, data)
}

// readLoop feeds microphone frames to the source and control messages to
// onControl until the connection fails. The source stream ends with it.
func (b *bridge) readLoop(onControl func(controlMessage)) {
	defer b.source.Stop()
	b.conn.SetReadLimit(bridgeMaxMessage)
	for {
		kind, data, err := b.conn.ReadMessage()
		if err != nil {
			b.logger.Debug("bridge read ended", "bridge", b.id, "error", err)
			return
		}
		switch kind {
		case websocket.BinaryMessage:
			b.source.push(audio.BytesToSamples(data))
		case websocket.TextMessage:
			var msg controlMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				b.logger.Warn("bad control message", "bridge", b.id, "error", err)
				continue
			}
			onControl(msg)
		}
	}
}

// close sends a close frame and releases the connection.
func (b *bridge) close() {
	_ = b.write(websocket.CloseMessage, []byte{})
	_ = b.conn.Close()
}

// remoteSource is an audioio.Source fed from the network.
type remoteSource struct {
	cfg    audioio.Config
	stream chan audioio.AudioChunk

	mu       sync.Mutex
	running  bool
	stopped  bool
	closed   bool
	chunks   atomic.Int64
	samples  atomic.Int64
	overruns atomic.Int64
}

func newRemoteSource(cfg audioio.Config) *remoteSource {
	return &remoteSource{cfg: cfg, stream: make(chan audioio.AudioChunk, bridgeStreamDepth)}
}

func (s *remoteSource) push(samples []int16) {
	if len(samples) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.stopped {
		return
	}
	select {
	case s.stream <- audioio.AudioChunk{Samples: samples, SampleRate: s.cfg.SampleRate, Channels: 1}:
		s.chunks.Add(1)
		s.samples.Add(int64(len(samples)))
	default:
		s.overruns.Add(1)
	}
}

func (s *remoteSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.stopped {
		return errBridgeClosed
	}
	s.running = true
	return nil
}

func (s *remoteSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if !s.stopped {
		s.stopped = true
		close(s.stream)
	}
	return nil
}

func (s *remoteSource) Read(ctx context.Context) (audioio.AudioChunk, error) {
	select {
	case <-ctx.Done():
		return audioio.AudioChunk{}, ctx.Err()
	case chunk, ok := <-s.stream:
		if !ok {
			return audioio.AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

func (s *remoteSource) Stream() <-chan audioio.AudioChunk { return s.stream }

func (s *remoteSource) Config() audioio.Config { return s.cfg }

func (s *remoteSource) Name() string { return "websocket" }

func (s *remoteSource) Close() error {
	_ = s.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *remoteSource) Stats() audioio.SourceStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return audioio.SourceStats{
		ChunksRead:  s.chunks.Load(),
		SamplesRead: s.samples.Load(),
		Overruns:    s.overruns.Load(),
		Running:     running,
		Backend:     s.Name(),
	}
}

// remoteSink is an audioio.Sink that writes to the network. Close only
// stops writes; the connection outlives the session so the ended event
// can still be delivered.
type remoteSink struct {
	cfg   audioio.Config
	send  func([]byte) error
	clear func() error

	mu      sync.Mutex
	running bool
	chunks  int64
	samples int64
	clears  int64
}

func (s *remoteSink) Start(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	return nil
}

func (s *remoteSink) Stop() error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *remoteSink) Write(ctx context.Context, chunk audioio.AudioChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	running := s.running
	if running {
		s.chunks++
		s.samples += int64(len(chunk.Samples))
	}
	s.mu.Unlock()
	if !running {
		return nil
	}
	return s.send(audio.SamplesToBytes(chunk.Samples))
}

func (s *remoteSink) Flush(ctx context.Context) error { return nil }

func (s *remoteSink) Clear() error {
	s.mu.Lock()
	running := s.running
	s.clears++
	s.mu.Unlock()
	if !running {
		return nil
	}
	return s.clear()
}

func (s *remoteSink) Config() audioio.Config { return s.cfg }

func (s *remoteSink) Name() string { return "websocket" }

func (s *remoteSink) Close() error { return s.Stop() }

func (s *remoteSink) Stats() audioio.SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return audioio.SinkStats{
		ChunksWritten:  s.chunks,
		SamplesWritten: s.samples,
		Running:        s.running,
		Backend:        s.Name(),
		Clears:         s.clears,
	}
}
