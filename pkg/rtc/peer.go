package rtc

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
)

// Peer is one browser connection.
type Peer struct {
	id     string
	pc     *webrtc.PeerConnection
	source *Source
	sink   *Sink
	answer string
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewPeer answers a browser's SDP offer. It blocks until ICE gathering
// completes so the answer carries every candidate.
func NewPeer(offerSDP string, cfg Config) (*Peer, error) {
	if cfg.Codec == nil {
		return nil, ErrNoCodec
	}
	if strings.TrimSpace(offerSDP) == "" {
		return nil, ErrInvalidSDP
	}
	if !strings.Contains(offerSDP, "m=audio") {
		return nil, ErrNoAudioSent
	}
	cfg.defaults()

	dec, err := cfg.Codec.NewDecoder(OpusRate, 1)
	if err != nil {
		return nil, fmt.Errorf("rtc: opus decoder: %w", err)
	}
	enc, err := cfg.Codec.NewEncoder(OpusRate, 1)
	if err != nil {
		return nil, fmt.Errorf("rtc: opus encoder: %w", err)
	}

	var servers []webrtc.ICEServer
	if len(cfg.ICEServers) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: cfg.ICEServers})
	}
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: servers})
	if err != nil {
		return nil, fmt.Errorf("rtc: create peer connection: %w", err)
	}

	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: OpusRate, Channels: 2},
		"audio",
		"jarvis",
	)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("rtc: create audio track: %w", err)
	}
	sender, err := pc.AddTrack(track)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("rtc: add track: %w", err)
	}

	source, err := newSource(cfg, dec)
	if err != nil {
		pc.Close()
		return nil, err
	}
	sink, err := newSink(cfg, enc, track)
	if err != nil {
		pc.Close()
		return nil, err
	}

	p := &Peer{
		id:     uuid.NewString(),
		pc:     pc,
		source: source,
		sink:   sink,
		done:   make(chan struct{}),
	}
	p.logger = cfg.Logger.With("component", "rtc", "peer", p.id)

	// RTCP must be drained for interceptors to work.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()

	pc.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if remote.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		p.logger.Info("remote track", "codec", remote.Codec().MimeType)
		go p.readTrack(remote)
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		p.logger.Info("connection state", "state", state.String())
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed, webrtc.PeerConnectionStateDisconnected:
			p.Close()
		}
	})

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}); err != nil {
		pc.Close()
		return nil, fmt.Errorf("rtc: set remote description: %w", err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("rtc: create answer: %w", err)
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("rtc: set local description: %w", err)
	}
	<-gathered

	p.answer = pc.LocalDescription().SDP
	return p, nil
}

func (p *Peer) readTrack(track *webrtc.TrackRemote) {
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			p.logger.Debug("track read ended", "error", err)
			return
		}
		p.source.handlePacket(pkt.Payload)
	}
}

// ID returns the peer id.
func (p *Peer) ID() string { return p.id }

// Answer returns the SDP answer for the browser.
func (p *Peer) Answer() string { return p.answer }

// Source returns the browser microphone.
func (p *Peer) Source() *Source { return p.source }

// Sink returns the browser speaker.
func (p *Peer) Sink() *Sink { return p.sink }

// Done is closed when the connection ends.
func (p *Peer) Done() <-chan struct{} { return p.done }

// Close tears down the connection. It is safe to call more than once.
func (p *Peer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		_ = p.source.Close()
		_ = p.sink.Close()
		err = p.pc.Close()
		close(p.done)
	})
	return err
}
