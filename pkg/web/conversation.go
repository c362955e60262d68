package web

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-jarvis/pkg/conversation"
	"github.com/teslashibe/go-jarvis/pkg/hub"
	"github.com/teslashibe/go-jarvis/pkg/rtc"
)

// OfferRequest is the body of POST /api/rtc/offer.
type OfferRequest struct {
	SDP  string `json:"sdp"`
	Type string `json:"type"`
}

// AnswerResponse carries the SDP answer back to the browser.
type AnswerResponse struct {
	ID   string `json:"id"`
	SDP  string `json:"sdp"`
	Type string `json:"type"`
}

func (s *Server) rates() (input, output int) {
	input, output = s.cfg.Session.InputRate, s.cfg.Session.OutputRate
	if input <= 0 {
		input = 16000
	}
	if output <= 0 {
		output = 24000
	}
	return input, output
}

// handleStatusWS streams snapshots to a status client.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)
	if client == nil {
		_ = c.Close()
		return
	}
	client.Run()
}

// handleConversationWS runs one conversation over the socket. The session
// ends when the client sends {"type":"end"}, disconnects, or the session
// fails.
func (s *Server) handleConversationWS(c *websocket.Conn) {
	in, out := s.rates()
	b := newBridge(c, in, out, s.logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		b.readLoop(func(msg controlMessage) { s.handleControl(msg) })
		cancel()
	}()

	s.logger.Info("conversation client attached", "bridge", b.id, "remote", c.RemoteAddr().String())
	var last conversation.Status = -1
	var lastMuted bool
	err := s.converse(ctx, b.devices(), func(snap conversation.Snapshot) {
		if snap.Status == last && snap.Muted == lastMuted {
			return
		}
		last, lastMuted = snap.Status, snap.Muted
		_ = b.writeJSON(controlEvent{Type: EventStatus, Status: snap.Status.String(), Muted: snap.Muted})
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("conversation ended", "bridge", b.id, "error", err)
		_ = b.writeJSON(controlEvent{Type: EventError, Error: err.Error()})
	}
	_ = b.writeJSON(controlEvent{Type: EventEnded})
	b.close()
}

func (s *Server) handleControl(msg controlMessage) {
	var err error
	switch msg.Type {
	case "mute":
		err = s.conv.SetMuted(msg.Muted)
	case "end":
		err = s.conv.Disconnect(context.Background())
	default:
		s.logger.Debug("unknown control message", "type", msg.Type)
	}
	if err != nil {
		s.logger.Warn("control message failed", "type", msg.Type, "error", err)
	}
}

// handleRTCOffer answers a WebRTC offer and starts a conversation over the
// peer's Opus tracks. The conversation ends with the peer.
func (s *Server) handleRTCOffer(c *fiber.Ctx) error {
	var req OfferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.Type != "" && req.Type != "offer" {
		return fiber.NewError(fiber.StatusBadRequest, "expected an SDP offer")
	}
	if _, busy := s.attached(); busy {
		return fiber.NewError(fiber.StatusConflict, ErrBusy.Error())
	}

	cfg := s.cfg.RTC
	cfg.InputRate, cfg.OutputRate = s.rates()
	if cfg.Logger == nil {
		cfg.Logger = s.cfg.Logger
	}
	peer, err := rtc.NewPeer(req.SDP, cfg)
	switch {
	case errors.Is(err, rtc.ErrNoCodec):
		return fiber.NewError(fiber.StatusNotImplemented, err.Error())
	case errors.Is(err, rtc.ErrInvalidSDP), errors.Is(err, rtc.ErrNoAudioSent):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		return err
	}

	s.mu.Lock()
	s.peers[peer.ID()] = peer
	s.mu.Unlock()
	go s.runPeer(peer)

	return c.JSON(AnswerResponse{ID: peer.ID(), SDP: peer.Answer(), Type: "answer"})
}

func (s *Server) runPeer(peer *rtc.Peer) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-peer.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	d := Devices{Owner: peer.ID(), Source: peer.Source(), Sink: peer.Sink()}
	if err := s.converse(ctx, d, nil); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("webrtc conversation ended", "peer", peer.ID(), "error", err)
	}

	_ = peer.Close()
	s.mu.Lock()
	delete(s.peers, peer.ID())
	s.mu.Unlock()
}
