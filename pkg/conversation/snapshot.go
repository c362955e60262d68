package conversation

import (
	"sync"
	"time"

	"github.com/teslashibe/go-jarvis/pkg/aura"
	"github.com/teslashibe/go-jarvis/pkg/live"
	"github.com/teslashibe/go-jarvis/pkg/status"
	"github.com/teslashibe/go-jarvis/pkg/transcript"
)

// Status is the session status shown to the user.
type Status = status.Status

// Session statuses.
const (
	Idle       = status.Idle
	Listening  = status.Listening
	Processing = status.Processing
	Speaking   = status.Speaking
	Error      = status.Error
)

// Snapshot is a point-in-time copy of the controller's visible state.
type Snapshot struct {
	SessionID  string             `json:"sessionId,omitempty"`
	Status     Status             `json:"status"`
	Connected  bool               `json:"connected"`
	Muted      bool               `json:"muted"`
	Banner     string             `json:"error,omitempty"`
	Transcript []transcript.Entry `json:"transcript"`
	Aura       aura.Visual        `json:"aura"`
	Playback   PlaybackState      `json:"playback"`
	Metrics    live.Metrics       `json:"metrics"`
}

// PlaybackState describes queued response audio.
type PlaybackState struct {
	Active    int           `json:"active"`
	Watermark time.Duration `json:"watermark"`
	Gain      float32       `json:"gain"`
}

// subscribers fans snapshots out to listeners. Slow listeners miss
// intermediate snapshots rather than blocking the publisher.
type subscribers struct {
	mu     sync.Mutex
	next   int
	chans  map[int]chan Snapshot
	closed bool
}

func (s *subscribers) add(buffer int) (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Snapshot, buffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	if s.chans == nil {
		s.chans = make(map[int]chan Snapshot)
	}
	id := s.next
	s.next++
	s.chans[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.chans[id]; ok {
				delete(s.chans, id)
				close(c)
			}
		})
	}
}

func (s *subscribers) publish(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.chans {
		select {
		case ch <- snap:
		default:
			// Replace the stale value so the listener sees the latest state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (s *subscribers) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.chans {
		delete(s.chans, id)
		close(ch)
	}
}
