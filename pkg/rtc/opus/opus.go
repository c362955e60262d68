// Package opus provides the libopus codec for package rtc.
package opus

import (
	"gopkg.in/hraban/opus.v2"

	"github.com/teslashibe/go-jarvis/pkg/rtc"
)

// Codec creates libopus encoders and decoders tuned for speech.
type Codec struct{}

// NewEncoder returns a VoIP-mode encoder.
func (Codec) NewEncoder(sampleRate, channels int) (rtc.Encoder, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppVoIP)
	if err != nil {
		return nil, err
	}
	return enc, nil
}

// NewDecoder returns a decoder.
func (Codec) NewDecoder(sampleRate, channels int) (rtc.Decoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return dec, nil
}

var _ rtc.Codec = Codec{}
