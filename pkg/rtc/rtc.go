// Package rtc bridges a browser's microphone and speaker to the assistant
// over WebRTC.
//
// The browser sends an SDP offer carrying one Opus audio track. The Peer
// answers with its own Opus track and exposes the pair as an
// audioio.Source (16 kHz PCM16 frames decoded from the browser) and an
// audioio.Sink (24 kHz response audio encoded back to the browser), so a
// conversation.Controller can use a remote browser exactly like local
// devices.
//
// Opus itself is pluggable through Codec; package rtc/opus provides the
// libopus implementation.
package rtc

import (
	"errors"
	"log/slog"
)

// Opus runs at 48 kHz; 20 ms frames are the WebRTC default.
const (
	OpusRate        = 48000
	OpusFrame       = 960
	OpusPayloadType = 111
	maxOpusPacket   = 1275
	maxDecodedFrame = 5760 // 120 ms at 48 kHz
)

// Errors returned by the bridge.
var (
	ErrNoCodec     = errors.New("rtc: opus codec is required")
	ErrInvalidSDP  = errors.New("rtc: offer is empty")
	ErrPeerClosed  = errors.New("rtc: peer closed")
	ErrNoAudioSent = errors.New("rtc: offer has no audio track")
)

// Encoder turns 48 kHz mono PCM16 frames into Opus packets.
type Encoder interface {
	Encode(pcm []int16, data []byte) (int, error)
}

// Decoder turns Opus packets into 48 kHz mono PCM16.
type Decoder interface {
	Decode(data []byte, pcm []int16) (int, error)
}

// Codec creates the Opus encoder and decoder for one peer.
type Codec interface {
	NewEncoder(sampleRate, channels int) (Encoder, error)
	NewDecoder(sampleRate, channels int) (Decoder, error)
}

// Config configures a Peer.
type Config struct {
	// Codec is required.
	Codec Codec

	// InputRate and FrameSize shape the frames handed to the conversation:
	// 16 kHz, 4096 samples by default.
	InputRate int
	FrameSize int

	// OutputRate is the rate of audio written to the sink, 24 kHz by default.
	OutputRate int

	// ICEServers are STUN/TURN URLs. Empty is fine on a LAN.
	ICEServers []string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.InputRate <= 0 {
		c.InputRate = 16000
	}
	if c.FrameSize <= 0 {
		c.FrameSize = 4096
	}
	if c.OutputRate <= 0 {
		c.OutputRate = 24000
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
