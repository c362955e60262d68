package live

import (
	"strconv"
	"sync"
	"time"
)

// Metrics counts traffic on one session.
type Metrics struct {
	Started time.Time `json:"started"`

	FramesSent    int64 `json:"framesSent"`
	FramesDropped int64 `json:"framesDropped"`
	BytesSent     int64 `json:"bytesSent"`

	AudioChunksIn int64 `json:"audioChunksIn"`
	Turns         int64 `json:"turns"`
	Interruptions int64 `json:"interruptions"`
	ToolCalls     int64 `json:"toolCalls"`

	// FirstAudio is the delay from the last input transcription of a turn
	// to the first response audio chunk, for the most recent turn.
	FirstAudio time.Duration `json:"firstAudio"`
}

// MetricsCollector accumulates Metrics. It is safe for concurrent use.
type MetricsCollector struct {
	mu        sync.Mutex
	m         Metrics
	heardAt   time.Time
	audioSeen bool
	now       func() time.Time
}

// NewMetricsCollector creates a collector starting now.
func NewMetricsCollector() *MetricsCollector {
	c := &MetricsCollector{now: time.Now}
	c.m.Started = c.now()
	return c
}

// FrameSent records an outbound audio frame.
func (c *MetricsCollector) FrameSent(bytes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.FramesSent++
	c.m.BytesSent += int64(bytes)
}

// FrameDropped records an outbound frame that was discarded.
func (c *MetricsCollector) FrameDropped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.FramesDropped++
}

// Observe updates counters from an inbound message.
func (c *MetricsCollector) Observe(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if msg.InputTranscription != "" {
		c.heardAt = now
		c.audioSeen = false
	}
	if msg.HasAudio() {
		c.m.AudioChunksIn++
		if !c.audioSeen && !c.heardAt.IsZero() {
			c.m.FirstAudio = now.Sub(c.heardAt)
			c.audioSeen = true
		}
	}
	if msg.TurnComplete {
		c.m.Turns++
	}
	if msg.Interrupted {
		c.m.Interruptions++
	}
	c.m.ToolCalls += int64(len(msg.ToolCalls))
}

// Snapshot returns a copy of the counters.
func (c *MetricsCollector) Snapshot() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}

// String summarises the counters on one line.
func (m Metrics) String() string {
	return formatDuration(m.FirstAudio) + " first audio | " +
		strconv.FormatInt(m.FramesSent, 10) + " sent | " +
		strconv.FormatInt(m.FramesDropped, 10) + " dropped | " +
		strconv.FormatInt(m.Turns, 10) + " turns"
}
