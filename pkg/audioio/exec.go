package audioio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// execCommands returns the raw PCM record and play tools for an OS.
func execCommands(goos string) (rec, play string) {
	switch goos {
	case "linux":
		return "arecord", "aplay"
	case "darwin":
		return "rec", "play"
	default:
		return "", ""
	}
}

// execArgs builds the argument list for a record or play tool.
func execArgs(goos string, cfg Config) []string {
	rate := strconv.Itoa(cfg.SampleRate)
	ch := strconv.Itoa(cfg.Channels)
	if goos == "darwin" {
		// SoX: "-" is stdin/stdout.
		return []string{"-q", "-t", "raw", "-b", "16", "-e", "signed-integer", "-r", rate, "-c", ch, "-"}
	}
	args := []string{"-q", "-t", "raw", "-f", "S16_LE", "-r", rate, "-c", ch}
	if cfg.Device != "" {
		args = append(args, "-D", cfg.Device)
	}
	return args
}

// ExecSource captures PCM16 from a record subprocess's stdout.
type ExecSource struct {
	cfg    Config
	logger *slog.Logger
	name   string

	mu       sync.Mutex
	running  bool
	closed   bool
	cmd      *exec.Cmd
	streamCh chan AudioChunk

	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

// NewExecSource creates a subprocess-backed source.
func NewExecSource(cfg Config, logger *slog.Logger) (*ExecSource, error) {
	rec, _ := execCommands(runtime.GOOS)
	if rec == "" {
		return nil, fmt.Errorf("audioio: no capture tool for %s", runtime.GOOS)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecSource{
		cfg:      cfg,
		logger:   logger,
		name:     rec,
		streamCh: make(chan AudioChunk, 16),
	}, nil
}

// Start launches the capture process. A missing tool or a denied device
// fails here.
func (s *ExecSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.name, execArgs(runtime.GOOS, s.cfg)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("audioio: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audioio: start %s: %w", s.name, err)
	}

	s.cmd = cmd
	s.running = true
	s.streamCh = make(chan AudioChunk, 16)
	go s.readLoop(stdout, s.streamCh)

	s.logger.Info("capture started", "tool", s.name, "sample_rate", s.cfg.SampleRate, "frame", s.cfg.BufferSize())
	return nil
}

func (s *ExecSource) readLoop(r io.Reader, out chan AudioChunk) {
	defer close(out)

	buf := make([]byte, s.cfg.BufferBytes())
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Debug("capture read ended", "error", err)
			}
			return
		}
		var chunk AudioChunk
		chunk.FromBytes(buf, s.cfg.SampleRate, s.cfg.Channels)
		select {
		case out <- chunk:
			s.chunksRead.Add(1)
			s.samplesRead.Add(int64(len(chunk.Samples)))
		default:
			s.overruns.Add(1)
		}
	}
}

// Stop kills the capture process. The stream channel closes once the
// reader drains.
func (s *ExecSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	s.cmd = nil
	s.logger.Info("capture stopped", "tool", s.name)
	return nil
}

// Read reads the next chunk.
func (s *ExecSource) Read(ctx context.Context) (AudioChunk, error) {
	s.mu.Lock()
	ch := s.streamCh
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return AudioChunk{}, ctx.Err()
	case chunk, ok := <-ch:
		if !ok {
			return AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Stream returns the chunk channel.
func (s *ExecSource) Stream() <-chan AudioChunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamCh
}

// Config returns the audio configuration.
func (s *ExecSource) Config() Config { return s.cfg }

// Name returns "exec".
func (s *ExecSource) Name() string { return string(BackendExec) }

// Close stops capture; the source cannot be restarted.
func (s *ExecSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.Stop()
}

// Stats returns source statistics.
func (s *ExecSource) Stats() SourceStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return SourceStats{
		ChunksRead:  s.chunksRead.Load(),
		SamplesRead: s.samplesRead.Load(),
		Overruns:    s.overruns.Load(),
		Running:     running,
		Backend:     string(BackendExec),
	}
}

var _ SourceWithStats = (*ExecSource)(nil)

// ExecSink plays PCM16 by piping it into a play subprocess's stdin.
// Clear kills the process, dropping whatever it had buffered; the next
// Write starts a fresh one.
type ExecSink struct {
	cfg    Config
	logger *slog.Logger
	name   string

	mu      sync.Mutex
	ctx     context.Context
	running bool
	closed  bool
	cmd     *exec.Cmd
	stdin   io.WriteCloser

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64
	clears         atomic.Int64
}

// NewExecSink creates a subprocess-backed sink.
func NewExecSink(cfg Config, logger *slog.Logger) (*ExecSink, error) {
	_, play := execCommands(runtime.GOOS)
	if play == "" {
		return nil, fmt.Errorf("audioio: no playback tool for %s", runtime.GOOS)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecSink{cfg: cfg, logger: logger, name: play}, nil
}

// Start arms the sink. The process itself starts on first Write.
func (s *ExecSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	s.ctx = ctx
	s.running = true
	return nil
}

func (s *ExecSink) startProcessLocked() error {
	cmd := exec.CommandContext(s.ctx, s.name, execArgs(runtime.GOOS, s.cfg)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("audioio: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audioio: start %s: %w", s.name, err)
	}
	s.cmd = cmd
	s.stdin = stdin
	return nil
}

func (s *ExecSink) killLocked() {
	if s.stdin != nil {
		s.stdin.Close()
		s.stdin = nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	s.cmd = nil
}

// Write pipes a chunk to the player.
func (s *ExecSink) Write(ctx context.Context, chunk AudioChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.running {
		return io.ErrClosedPipe
	}
	if s.stdin == nil {
		if err := s.startProcessLocked(); err != nil {
			return err
		}
	}
	if _, err := s.stdin.Write(chunk.Bytes()); err != nil {
		// Player died; restart on the next write.
		s.killLocked()
		return fmt.Errorf("audioio: write to %s: %w", s.name, err)
	}
	s.chunksWritten.Add(1)
	s.samplesWritten.Add(int64(len(chunk.Samples)))
	return nil
}

// Flush closes stdin and waits for the player to drain.
func (s *ExecSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	cmd, stdin := s.cmd, s.stdin
	s.cmd, s.stdin = nil, nil
	s.mu.Unlock()

	if stdin == nil {
		return nil
	}
	stdin.Close()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-ctx.Done():
		cmd.Process.Kill()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Clear drops buffered audio by killing the player.
func (s *ExecSink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killLocked()
	s.clears.Add(1)
	return nil
}

// Stop halts playback.
func (s *ExecSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.killLocked()
	return nil
}

// Config returns the audio configuration.
func (s *ExecSink) Config() Config { return s.cfg }

// Name returns "exec".
func (s *ExecSink) Name() string { return string(BackendExec) }

// Close releases resources.
func (s *ExecSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Stop()
}

// Stats returns sink statistics.
func (s *ExecSink) Stats() SinkStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return SinkStats{
		ChunksWritten:  s.chunksWritten.Load(),
		SamplesWritten: s.samplesWritten.Load(),
		Running:        running,
		Backend:        string(BackendExec),
		Clears:         s.clears.Load(),
	}
}

var _ SinkWithStats = (*ExecSink)(nil)
