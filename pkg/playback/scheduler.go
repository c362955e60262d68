// Package playback queues decoded response audio for gapless output.
//
// Buffers are chained on a "next start time" watermark: each buffer starts
// at max(watermark, now) and pushes the watermark forward by its own
// duration. A pump feeds the sink slightly ahead of real time so gain
// changes and interruptions take effect within one slice.
package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-jarvis/pkg/audio"
	"github.com/teslashibe/go-jarvis/pkg/audioio"
)

// Defaults for the pump.
const (
	DefaultLead  = 120 * time.Millisecond
	DefaultSlice = 20 * time.Millisecond
)

// Source is one scheduled buffer.
type Source struct {
	ID    int
	Start time.Duration
	End   time.Duration

	buf     *audio.Buffer
	written int // frames already handed to the sink
}

// Config configures a Scheduler.
type Config struct {
	// SampleRate is the output context rate; buffers at other rates are rejected.
	SampleRate int
	// Lead is how far ahead of the clock audio is written to the sink.
	Lead time.Duration
	// Slice is the pump interval.
	Slice time.Duration
	// Now returns the context clock. Nil uses wall time since Open.
	Now func() time.Duration
	// OnIdle fires when the last active source ends or is interrupted.
	OnIdle func()
	Logger *slog.Logger
}

// Scheduler is the output audio context: a watermark, a gain and the set
// of active sources feeding one sink.
type Scheduler struct {
	cfg  Config
	sink audioio.Sink

	mu      sync.Mutex
	opened  time.Time
	next    time.Duration
	gain    float32
	sources []*Source
	nextID  int
	closed  bool
	gen     int // bumped by clear; batches built under an older gen are dropped

	// writeMu orders sink writes against sink clears.
	writeMu sync.Mutex

	stopPump context.CancelFunc
	pumpDone chan struct{}
}

// New creates a scheduler over sink. Call Open before Schedule.
func New(sink audioio.Sink, cfg Config) *Scheduler {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.OutputSampleRate
	}
	if cfg.Lead <= 0 {
		cfg.Lead = DefaultLead
	}
	if cfg.Slice <= 0 {
		cfg.Slice = DefaultSlice
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Scheduler{cfg: cfg, sink: sink, gain: 1}
	if s.cfg.Now == nil {
		s.cfg.Now = func() time.Duration { return time.Since(s.opened) }
	}
	return s
}

// Open starts the sink and the pump. The context clock starts at zero.
func (s *Scheduler) Open(ctx context.Context) error {
	if err := s.sink.Start(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.opened = time.Now()
	s.closed = false
	pumpCtx, cancel := context.WithCancel(ctx)
	s.stopPump = cancel
	s.pumpDone = make(chan struct{})
	done := s.pumpDone
	s.mu.Unlock()

	go s.run(pumpCtx, done)
	return nil
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.Slice)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Pump(ctx)
		}
	}
}

// Schedule queues buf at max(watermark, now) and advances the watermark.
func (s *Scheduler) Schedule(buf *audio.Buffer) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Now()
	start := s.next
	if now > start {
		start = now
	}
	src := &Source{
		ID:    s.nextID,
		Start: start,
		End:   start + buf.Duration(),
		buf:   buf,
	}
	s.nextID++
	s.next = src.End
	s.sources = append(s.sources, src)
	return src
}

// Pump writes every due slice to the sink and retires sources whose end
// time has passed. The background pump calls it; tests may call it directly.
func (s *Scheduler) Pump(ctx context.Context) {
	s.mu.Lock()
	now := s.cfg.Now()
	horizon := now + s.cfg.Lead
	gain := s.gain
	rate := s.cfg.SampleRate
	gen := s.gen

	var chunks []audioio.AudioChunk
	for _, src := range s.sources {
		if src.Start > horizon {
			break
		}
		due := int(int64(horizon-src.Start) * int64(rate) / int64(time.Second))
		if total := src.buf.Frames(); due > total {
			due = total
		}
		if due <= src.written {
			continue
		}
		part := &audio.Buffer{SampleRate: src.buf.SampleRate, Channels: make([][]float32, len(src.buf.Channels))}
		for ch := range src.buf.Channels {
			part.Channels[ch] = src.buf.Channels[ch][src.written:due]
		}
		src.written = due
		chunks = append(chunks, audioio.AudioChunk{
			Samples:    part.PCM16(gain),
			SampleRate: src.buf.SampleRate,
			Channels:   len(src.buf.Channels),
		})
	}

	ended := s.retireLocked(now)
	idle := ended && len(s.sources) == 0
	s.mu.Unlock()

	for _, c := range chunks {
		if !s.writeChunk(ctx, gen, c) {
			break
		}
	}
	if idle && s.cfg.OnIdle != nil {
		s.cfg.OnIdle()
	}
}

// writeChunk hands c to the sink unless a clear has happened since the
// batch was built.
func (s *Scheduler) writeChunk(ctx context.Context, gen int, c audioio.AudioChunk) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	stale := s.gen != gen
	s.mu.Unlock()
	if stale {
		return false
	}
	if err := s.sink.Write(ctx, c); err != nil {
		s.cfg.Logger.Debug("playback write failed", "error", err)
		return false
	}
	return true
}

// retireLocked drops sources that have finished playing.
func (s *Scheduler) retireLocked(now time.Duration) bool {
	kept := s.sources[:0]
	ended := false
	for _, src := range s.sources {
		if src.End <= now && src.written >= src.buf.Frames() {
			ended = true
			continue
		}
		kept = append(kept, src)
	}
	for i := len(kept); i < len(s.sources); i++ {
		s.sources[i] = nil
	}
	s.sources = kept
	return ended
}

// Interrupt stops every active source, discards audio already handed to
// the sink and resets the watermark to zero. It returns how many sources
// were stopped.
func (s *Scheduler) Interrupt() int {
	n := s.clear()
	if n > 0 && s.cfg.OnIdle != nil {
		s.cfg.OnIdle()
	}
	return n
}

func (s *Scheduler) clear() int {
	s.mu.Lock()
	n := len(s.sources)
	s.sources = nil
	s.next = 0
	s.gen++
	s.mu.Unlock()

	s.writeMu.Lock()
	err := s.sink.Clear()
	s.writeMu.Unlock()
	if err != nil {
		s.cfg.Logger.Debug("playback clear failed", "error", err)
	}
	return n
}

// SetMuted sets the output gain to exactly 0 (muted) or 1.
func (s *Scheduler) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if muted {
		s.gain = 0
	} else {
		s.gain = 1
	}
}

// Gain returns the current output gain.
func (s *Scheduler) Gain() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gain
}

// Watermark returns the scheduled end of the last queued buffer.
func (s *Scheduler) Watermark() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Active returns the number of sources not yet finished.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

// Close stops all playback, stops the pump and closes the sink.
// It does not fire OnIdle.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stop, done := s.stopPump, s.pumpDone
	s.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	s.clear()
	s.sink.Stop()
	return s.sink.Close()
}
