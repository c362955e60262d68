package conversation

import (
	"context"
	"log/slog"

	"github.com/teslashibe/go-jarvis/pkg/audio"
	"github.com/teslashibe/go-jarvis/pkg/live"
)

// DefaultSendBuffer is the number of captured frames that may wait for the
// sender before new frames are dropped.
const DefaultSendBuffer = 64

// sender forwards captured frames to the session in capture order. Frames
// offered while the queue is full, or after the session starts closing,
// are dropped and counted.
type sender struct {
	sess    live.Session
	queue   chan audio.Blob
	metrics *live.MetricsCollector
	logger  *slog.Logger
}

func newSender(sess live.Session, size int, metrics *live.MetricsCollector, logger *slog.Logger) *sender {
	if size <= 0 {
		size = DefaultSendBuffer
	}
	return &sender{
		sess:    sess,
		queue:   make(chan audio.Blob, size),
		metrics: metrics,
		logger:  logger,
	}
}

// offer queues blob without blocking. It reports whether the frame was kept.
func (s *sender) offer(ctx context.Context, blob audio.Blob) bool {
	if ctx.Err() != nil {
		s.metrics.FrameDropped()
		return false
	}
	select {
	case s.queue <- blob:
		return true
	default:
		s.metrics.FrameDropped()
		return false
	}
}

// run drains the queue until ctx is cancelled. Frames still queued at that
// point are abandoned.
func (s *sender) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case <-s.queue:
					s.metrics.FrameDropped()
				default:
					return
				}
			}
		case blob := <-s.queue:
			if err := s.sess.SendAudio(ctx, blob); err != nil {
				s.metrics.FrameDropped()
				s.logger.Debug("send audio frame", "error", err)
				continue
			}
			s.metrics.FrameSent(len(blob.Data))
		}
	}
}
