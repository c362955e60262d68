// Package audioio provides audio capture and playback devices.
//
// Backends:
//   - exec - arecord/aplay (Linux) or SoX rec/play (macOS) subprocesses
//   - mock - synthetic audio for CI and tests
//
// Remote devices (a browser over WebSocket or WebRTC) implement the same
// Source and Sink interfaces in the packages that own those transports.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects exec where a known capture tool exists, mock otherwise.
	BackendAuto Backend = "auto"
	// BackendExec shells out to the platform's raw PCM record/play tools.
	BackendExec Backend = "exec"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate is the audio sample rate in Hz.
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels is the number of audio channels.
	Channels int `yaml:"channels" json:"channels"`

	// FrameSize is the number of samples per channel in one chunk.
	// When zero, BufferDuration decides.
	FrameSize int `yaml:"frame_size" json:"frame_size"`

	// BufferDuration is the length of one chunk when FrameSize is zero.
	BufferDuration time.Duration `yaml:"buffer_duration" json:"buffer_duration"`

	// Device is the platform-specific device identifier, e.g. "plughw:1,0".
	// Empty uses the system default.
	Device string `yaml:"device" json:"device"`
}

// DefaultConfig returns the capture configuration used for the voice session:
// 16 kHz mono in 4096-sample frames.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     16000,
		Channels:       1,
		FrameSize:      4096,
		BufferDuration: 20 * time.Millisecond,
	}
}

// DefaultOutputConfig returns the playback configuration: 24 kHz mono.
func DefaultOutputConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRate = 24000
	cfg.FrameSize = 0
	return cfg
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.FrameSize < 0 {
		return fmt.Errorf("frame_size must not be negative, got %d", c.FrameSize)
	}
	if c.FrameSize == 0 && c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	return nil
}

// BufferSize returns the number of samples per channel in one chunk.
func (c *Config) BufferSize() int {
	if c.FrameSize > 0 {
		return c.FrameSize
	}
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// ChunkDuration returns the wall-clock length of one chunk.
func (c *Config) ChunkDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.BufferSize()) * time.Second / time.Duration(c.SampleRate)
}

// BufferBytes returns the size of a buffer in bytes (int16 samples).
func (c *Config) BufferBytes() int {
	return c.BufferSize() * c.Channels * 2
}
