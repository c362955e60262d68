// Package audio converts between float sample frames and the PCM16 wire
// format spoken by the realtime voice service.
//
// Outbound frames are mono float32 in [-1, 1], encoded as little-endian
// signed 16-bit PCM with a "audio/pcm;rate=N" MIME type. Inbound frames
// are the same PCM16 layout, usually base64 wrapped, and are decoded into
// a playable Buffer.
package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Wire sample rates.
const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000
)

// MIMEPrefix is the MIME type prefix for raw PCM16 audio.
const MIMEPrefix = "audio/pcm;rate="

// ErrOddLength is returned when PCM16 data has a dangling byte.
var ErrOddLength = errors.New("audio: PCM16 data has odd length")

// Blob is an encoded audio frame ready to send.
type Blob struct {
	// Data is little-endian PCM16.
	Data []byte
	// MIMEType is e.g. "audio/pcm;rate=16000".
	MIMEType string
}

// Base64 returns the data in standard base64, as carried in JSON messages.
func (b Blob) Base64() string {
	return base64.StdEncoding.EncodeToString(b.Data)
}

// MIMEType returns the PCM MIME type for a sample rate.
func MIMEType(sampleRate int) string {
	return MIMEPrefix + strconv.Itoa(sampleRate)
}

// ParseRate extracts the sample rate from a PCM MIME type.
// It returns def for "audio/pcm" without a rate.
func ParseRate(mimeType string, def int) (int, error) {
	if !strings.HasPrefix(mimeType, "audio/pcm") {
		return 0, fmt.Errorf("audio: unsupported MIME type %q", mimeType)
	}
	_, rate, ok := strings.Cut(mimeType, "rate=")
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(rate))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("audio: bad rate in %q", mimeType)
	}
	return n, nil
}

// CreateBlob encodes a float frame as PCM16 at sampleRate.
func CreateBlob(frame []float32, sampleRate int) Blob {
	return Blob{
		Data:     SamplesToBytes(Float32ToInt16(frame)),
		MIMEType: MIMEType(sampleRate),
	}
}

// Encode returns base64 of raw bytes.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode returns the raw bytes of a base64 string.
func Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("audio: decode base64: %w", err)
	}
	return b, nil
}

// Buffer is decoded, playable audio, one float slice per channel.
type Buffer struct {
	Channels   [][]float32
	SampleRate int
}

// DecodeBuffer reconstructs a Buffer from interleaved PCM16 bytes.
func DecodeBuffer(data []byte, sampleRate, channels int) (*Buffer, error) {
	if len(data)%2 != 0 {
		return nil, ErrOddLength
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("audio: invalid format %d Hz x %d", sampleRate, channels)
	}

	samples := BytesToSamples(data)
	frames := len(samples) / channels
	buf := &Buffer{
		Channels:   make([][]float32, channels),
		SampleRate: sampleRate,
	}
	for ch := range buf.Channels {
		out := make([]float32, frames)
		for i := 0; i < frames; i++ {
			out[i] = float32(samples[i*channels+ch]) / 32768.0
		}
		buf.Channels[ch] = out
	}
	return buf, nil
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// PCM16 interleaves the buffer back to PCM16, scaled by gain.
func (b *Buffer) PCM16(gain float32) []int16 {
	n := b.Frames()
	chs := len(b.Channels)
	out := make([]int16, n*chs)
	for i := 0; i < n; i++ {
		for ch := 0; ch < chs; ch++ {
			out[i*chs+ch] = floatToInt16(b.Channels[ch][i] * gain)
		}
	}
	return out
}
