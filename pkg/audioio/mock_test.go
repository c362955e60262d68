package audioio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.FrameSize = 0
	cfg.BufferDuration = 10 * time.Millisecond
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SampleRate != 16000 || cfg.BufferSize() != 4096 {
		t.Errorf("capture = %d Hz x %d, want 16000 x 4096", cfg.SampleRate, cfg.BufferSize())
	}
	if cfg.ChunkDuration() != 256*time.Millisecond {
		t.Errorf("ChunkDuration = %v, want 256ms", cfg.ChunkDuration())
	}

	out := DefaultOutputConfig()
	if out.SampleRate != 24000 {
		t.Errorf("output rate = %d, want 24000", out.SampleRate)
	}
	if out.BufferSize() != 480 {
		t.Errorf("output BufferSize = %d, want 480", out.BufferSize())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"zero rate", func(c *Config) { c.SampleRate = 0 }, true},
		{"zero channels", func(c *Config) { c.Channels = 0 }, true},
		{"negative frame", func(c *Config) { c.FrameSize = -1 }, true},
		{"no frame no duration", func(c *Config) { c.FrameSize = 0; c.BufferDuration = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMockSource_StartStop(t *testing.T) {
	src := NewMockSource(fastConfig(), nil)
	defer src.Close()

	ctx := context.Background()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Second Start failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("Second Stop failed: %v", err)
	}
}

func TestMockSource_Read(t *testing.T) {
	cfg := fastConfig()
	src := NewMockSource(cfg, nil)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	chunk, err := src.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(chunk.Samples) != cfg.BufferSize()*cfg.Channels {
		t.Errorf("Expected %d samples, got %d", cfg.BufferSize()*cfg.Channels, len(chunk.Samples))
	}
	if chunk.SampleRate != cfg.SampleRate {
		t.Errorf("Expected sample rate %d, got %d", cfg.SampleRate, chunk.SampleRate)
	}
}

func TestMockSource_SineWave(t *testing.T) {
	src := NewMockSource(fastConfig(), nil, WithSineWave(440, 0.5))
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	chunk, err := src.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	hasNonZero := false
	for _, s := range chunk.Samples {
		if s != 0 {
			hasNonZero = true
			break
		}
	}
	if !hasNonZero {
		t.Error("Expected non-zero samples from sine wave generator")
	}
}

func TestMockSource_Manual(t *testing.T) {
	src := NewMockSource(fastConfig(), nil, WithManual())
	defer src.Close()

	if src.Emit(AudioChunk{Samples: []int16{1}}) {
		t.Error("Emit before Start should fail")
	}

	ctx := context.Background()
	src.Start(ctx)
	if !src.Emit(AudioChunk{Samples: []int16{1, 2, 3}, SampleRate: 16000, Channels: 1}) {
		t.Fatal("Emit after Start should succeed")
	}
	chunk, err := src.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunk.Samples) != 3 {
		t.Errorf("got %d samples, want 3", len(chunk.Samples))
	}

	src.Stop()
	if _, err := src.Read(ctx); err != io.EOF {
		t.Errorf("Read after Stop: got %v, want io.EOF", err)
	}
}

func TestMockSource_StartError(t *testing.T) {
	denied := errors.New("permission denied")
	src := NewMockSource(fastConfig(), nil, WithStartError(denied))
	if err := src.Start(context.Background()); !errors.Is(err, denied) {
		t.Errorf("Start: got %v, want %v", err, denied)
	}
}

func TestMockSource_Close(t *testing.T) {
	src := NewMockSource(fastConfig(), nil)

	ctx := context.Background()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := src.Start(ctx); err != io.ErrClosedPipe {
		t.Errorf("Expected ErrClosedPipe after close, got: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
}

func TestMockSink_WriteClear(t *testing.T) {
	sink := NewMockSink(DefaultOutputConfig(), nil)
	defer sink.Close()

	ctx := context.Background()
	chunk := AudioChunk{Samples: make([]int16, 480), SampleRate: 24000, Channels: 1}

	if err := sink.Write(ctx, chunk); err == nil {
		t.Error("Expected error when writing to non-running sink")
	}

	if err := sink.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	sink.Write(ctx, chunk)
	sink.Write(ctx, chunk)

	if got := len(sink.Buffered()); got != 2 {
		t.Errorf("Buffered = %d, want 2", got)
	}

	if err := sink.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	stats := sink.Stats()
	if stats.ChunksWritten != 2 {
		t.Errorf("ChunksWritten = %d, want 2", stats.ChunksWritten)
	}
	if stats.BufferedSamples != 0 {
		t.Errorf("BufferedSamples = %d after Clear", stats.BufferedSamples)
	}
	if stats.Clears != 1 {
		t.Errorf("Clears = %d, want 1", stats.Clears)
	}
}

func TestAudioChunk_Bytes(t *testing.T) {
	chunk := AudioChunk{Samples: []int16{0x0102, 0x0304, -1}, SampleRate: 24000, Channels: 1}

	b := chunk.Bytes()
	if len(b) != 6 {
		t.Errorf("Expected 6 bytes, got %d", len(b))
	}
	if b[0] != 0x02 || b[1] != 0x01 {
		t.Errorf("First sample not encoded correctly: %v", b[0:2])
	}

	var back AudioChunk
	back.FromBytes(b, 24000, 1)
	if back.Samples[2] != -1 {
		t.Errorf("Third sample incorrect: got %d, expected -1", back.Samples[2])
	}
}

func TestAudioChunk_Float32(t *testing.T) {
	mono := AudioChunk{Samples: []int16{16384, -16384}, SampleRate: 16000, Channels: 1}
	f := mono.Float32()
	if len(f) != 2 || f[0] != 0.5 || f[1] != -0.5 {
		t.Errorf("mono Float32 = %v", f)
	}

	stereo := AudioChunk{Samples: []int16{16384, 0, -16384, 0}, SampleRate: 16000, Channels: 2}
	f = stereo.Float32()
	if len(f) != 2 || f[1] != -0.5 {
		t.Errorf("stereo Float32 = %v", f)
	}
}

func TestAudioChunk_Duration(t *testing.T) {
	chunk := AudioChunk{Samples: make([]int16, 480), SampleRate: 24000, Channels: 1}
	if d := chunk.Duration(); d < 0.019 || d > 0.021 {
		t.Errorf("Expected duration ~0.02, got %f", d)
	}
}

func TestExecArgs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = "plughw:1,0"

	linux := execArgs("linux", cfg)
	want := []string{"-q", "-t", "raw", "-f", "S16_LE", "-r", "16000", "-c", "1", "-D", "plughw:1,0"}
	if len(linux) != len(want) {
		t.Fatalf("linux args = %v", linux)
	}
	for i := range want {
		if linux[i] != want[i] {
			t.Errorf("linux arg %d = %q, want %q", i, linux[i], want[i])
		}
	}

	darwin := execArgs("darwin", cfg)
	if darwin[len(darwin)-1] != "-" {
		t.Errorf("darwin args should end with stdin/stdout marker: %v", darwin)
	}

	if rec, play := execCommands("windows"); rec != "" || play != "" {
		t.Error("windows should have no exec tools")
	}
}
