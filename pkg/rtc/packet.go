package rtc

import (
	"math/rand/v2"

	"github.com/pion/rtp"
)

// framer slices a continuous sample stream into fixed-size frames.
type framer struct {
	size int
	buf  []int16
}

func newFramer(size int) *framer {
	return &framer{size: size, buf: make([]int16, 0, size*2)}
}

// push appends samples and returns every complete frame.
func (f *framer) push(samples []int16) [][]int16 {
	f.buf = append(f.buf, samples...)
	var frames [][]int16
	for len(f.buf) >= f.size {
		frame := make([]int16, f.size)
		copy(frame, f.buf[:f.size])
		frames = append(frames, frame)
		f.buf = f.buf[f.size:]
	}
	// Compact so the backing array does not grow without bound.
	if cap(f.buf) > f.size*8 {
		f.buf = append(make([]int16, 0, f.size*2), f.buf...)
	}
	return frames
}

// pending returns how many samples are waiting for a full frame.
func (f *framer) pending() int { return len(f.buf) }

// reset drops partial samples.
func (f *framer) reset() { f.buf = f.buf[:0] }

// packetizer stamps Opus payloads with RTP sequence numbers and timestamps.
type packetizer struct {
	ssrc      uint32
	seq       uint16
	timestamp uint32
}

func newPacketizer() *packetizer {
	return &packetizer{
		ssrc:      rand.Uint32(),
		seq:       uint16(rand.Uint32()),
		timestamp: rand.Uint32(),
	}
}

// packet wraps payload, which encodes samples of audio at 48 kHz.
func (p *packetizer) packet(payload []byte, samples int) *rtp.Packet {
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    OpusPayloadType,
			SequenceNumber: p.seq,
			Timestamp:      p.timestamp,
			SSRC:           p.ssrc,
		},
		Payload: payload,
	}
	p.seq++
	p.timestamp += uint32(samples)
	return pkt
}
