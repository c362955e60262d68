package audio

import (
	"fmt"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Converter resamples a continuous mono PCM16 stream. Filter state carries
// across calls, so feed it consecutive chunks of one stream only.
type Converter struct {
	from, to int

	mu        sync.Mutex
	resampler resampling.Resampler
}

// NewConverter creates a mono stream converter from one rate to another.
// Equal rates give a pass-through converter.
func NewConverter(from, to int) (*Converter, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("audio: invalid rates %d -> %d", from, to)
	}
	c := &Converter{from: from, to: to}
	if from == to {
		return c, nil
	}
	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("audio: create resampler: %w", err)
	}
	c.resampler = r
	return c, nil
}

// Rates returns the input and output sample rates.
func (c *Converter) Rates() (from, to int) {
	return c.from, c.to
}

// Process resamples one chunk. The output may be shorter or longer than the
// ideal ratio while the filter primes.
func (c *Converter) Process(in []int16) ([]int16, error) {
	if c.resampler == nil || len(in) == 0 {
		return in, nil
	}

	input := make([]float64, len(in))
	for i, s := range in {
		input[i] = float64(s) / 32768.0
	}

	c.mu.Lock()
	output, err := c.resampler.Process(input)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("audio: resample: %w", err)
	}

	out := make([]int16, len(output))
	for i, s := range output {
		out[i] = floatToInt16(float32(s))
	}
	return out, nil
}
