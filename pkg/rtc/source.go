package rtc

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-jarvis/pkg/audio"
	"github.com/teslashibe/go-jarvis/pkg/audioio"
)

// Source is the browser microphone: decoded Opus, resampled to the input
// rate and cut into fixed frames.
type Source struct {
	cfg       audioio.Config
	decoder   Decoder
	converter *audio.Converter

	mu      sync.Mutex
	running bool
	closed  bool
	stream  chan audioio.AudioChunk
	framer  *framer
	pcm     []int16

	packets  atomic.Int64
	overruns atomic.Int64
	dropped  atomic.Int64
}

func newSource(cfg Config, dec Decoder) (*Source, error) {
	conv, err := audio.NewConverter(OpusRate, cfg.InputRate)
	if err != nil {
		return nil, err
	}
	acfg := audioio.DefaultConfig()
	acfg.SampleRate = cfg.InputRate
	acfg.FrameSize = cfg.FrameSize
	return &Source{
		cfg:       acfg,
		decoder:   dec,
		converter: conv,
		stream:    make(chan audioio.AudioChunk, 16),
		framer:    newFramer(cfg.FrameSize),
		pcm:       make([]int16, maxDecodedFrame),
	}, nil
}

// Start marks the source as capturing. Packets received before Start are
// discarded.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrPeerClosed
	}
	s.running = true
	return nil
}

// Stop halts capture and closes the stream.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		close(s.stream)
	}
	return nil
}

// Read returns the next frame, or io.EOF once stopped.
func (s *Source) Read(ctx context.Context) (audioio.AudioChunk, error) {
	select {
	case <-ctx.Done():
		return audioio.AudioChunk{}, ctx.Err()
	case chunk, ok := <-s.Stream():
		if !ok {
			return audioio.AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Stream returns the frame channel.
func (s *Source) Stream() <-chan audioio.AudioChunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// Config returns the frame format.
func (s *Source) Config() audioio.Config { return s.cfg }

// Name returns "webrtc".
func (s *Source) Name() string { return "webrtc" }

// Close stops the source for good.
func (s *Source) Close() error {
	_ = s.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Stats reports packet counters.
func (s *Source) Stats() audioio.SourceStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return audioio.SourceStats{
		ChunksRead: s.packets.Load(),
		Overruns:   s.overruns.Load(),
		Running:    running,
		Backend:    s.Name(),
	}
}

// handlePacket decodes one Opus payload and emits any complete frames.
func (s *Source) handlePacket(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.packets.Add(1)

	n, err := s.decoder.Decode(payload, s.pcm)
	if err != nil {
		s.dropped.Add(1)
		return
	}
	resampled, err := s.converter.Process(s.pcm[:n])
	if err != nil {
		s.dropped.Add(1)
		return
	}
	for _, frame := range s.framer.push(resampled) {
		chunk := audioio.AudioChunk{Samples: frame, SampleRate: s.cfg.SampleRate, Channels: 1}
		select {
		case s.stream <- chunk:
		default:
			s.overruns.Add(1)
		}
	}
}

var _ audioio.SourceWithStats = (*Source)(nil)
