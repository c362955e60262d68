package rtc

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"

	"github.com/teslashibe/go-jarvis/pkg/audio"
	"github.com/teslashibe/go-jarvis/pkg/audioio"
)

// rtpWriter is the local track the sink writes to.
type rtpWriter interface {
	WriteRTP(p *rtp.Packet) error
}

// Sink is the browser speaker: response audio resampled to 48 kHz and
// sent as 20 ms Opus packets. The playback scheduler already paces
// writes, so the sink sends as soon as a frame is complete.
type Sink struct {
	cfg       audioio.Config
	encoder   Encoder
	converter *audio.Converter
	track     rtpWriter

	mu      sync.Mutex
	running bool
	framer  *framer
	packets *packetizer
	payload []byte

	written atomic.Int64
	samples atomic.Int64
	clears  atomic.Int64
}

func newSink(cfg Config, enc Encoder, track rtpWriter) (*Sink, error) {
	conv, err := audio.NewConverter(cfg.OutputRate, OpusRate)
	if err != nil {
		return nil, err
	}
	acfg := audioio.DefaultOutputConfig()
	acfg.SampleRate = cfg.OutputRate
	return &Sink{
		cfg:       acfg,
		encoder:   enc,
		converter: conv,
		track:     track,
		framer:    newFramer(OpusFrame),
		packets:   newPacketizer(),
		payload:   make([]byte, maxOpusPacket),
	}, nil
}

// Start enables writes.
func (s *Sink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	return nil
}

// Stop disables writes and drops any partial frame.
func (s *Sink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.framer.reset()
	return nil
}

// Write encodes chunk and sends every complete frame.
func (s *Sink) Write(ctx context.Context, chunk audioio.AudioChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}

	resampled, err := s.converter.Process(chunk.Samples)
	if err != nil {
		return err
	}
	for _, frame := range s.framer.push(resampled) {
		n, err := s.encoder.Encode(frame, s.payload)
		if err != nil {
			return err
		}
		payload := make([]byte, n)
		copy(payload, s.payload[:n])
		if err := s.track.WriteRTP(s.packets.packet(payload, len(frame))); err != nil {
			return err
		}
		s.written.Add(1)
	}
	s.samples.Add(int64(len(chunk.Samples)))
	return nil
}

// Flush is a no-op; packets leave on Write.
func (s *Sink) Flush(ctx context.Context) error { return nil }

// Clear drops the partial frame. Packets already sent are played by the
// browser's jitter buffer.
func (s *Sink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framer.reset()
	s.clears.Add(1)
	return nil
}

// Config returns the accepted format.
func (s *Sink) Config() audioio.Config { return s.cfg }

// Name returns "webrtc".
func (s *Sink) Name() string { return "webrtc" }

// Close stops the sink.
func (s *Sink) Close() error { return s.Stop() }

// Stats reports packet counters.
func (s *Sink) Stats() audioio.SinkStats {
	s.mu.Lock()
	running := s.running
	buffered := int64(s.framer.pending())
	s.mu.Unlock()
	return audioio.SinkStats{
		ChunksWritten:   s.written.Load(),
		SamplesWritten:  s.samples.Load(),
		Running:         running,
		Backend:         s.Name(),
		BufferedSamples: buffered,
		Clears:          s.clears.Load(),
	}
}

var _ audioio.Sink = (*Sink)(nil)
