// Package aura maps the session status to the assistant's animated orb.
//
// Sizes are in quarter-rem units (the outer glow of an idle orb is 64,
// i.e. 16rem). The particle layers fade out rather than vanish: processing
// particles linger for 500ms after the session stops listening or
// processing, speaking particles for 1s after speech ends.
package aura

import (
	"sync"
	"time"

	"github.com/teslashibe/go-jarvis/pkg/status"
)

// Particle counts and linger times.
const (
	ProcessingParticles = 15
	SpeakingParticles   = 20

	ProcessingLinger = 500 * time.Millisecond
	SpeakingLinger   = 1000 * time.Millisecond
)

// Tint is the colour family of the orb.
type Tint string

const (
	Gold Tint = "gold"
	Red  Tint = "red"
)

// Layer is one particle layer. Opacity is 1 while the status holds and 0
// while the layer lingers and fades.
type Layer struct {
	Particles int     `json:"particles"`
	Opacity   float64 `json:"opacity"`
}

// Visual describes the orb for one frame.
type Visual struct {
	Outer      int    `json:"outer"`
	Inner      int    `json:"inner"`
	Pulse      bool   `json:"pulse"`
	Center     bool   `json:"center"`
	Tint       Tint   `json:"tint"`
	Processing *Layer `json:"processing,omitempty"`
	Speaking   *Layer `json:"speaking,omitempty"`
}

func processingLike(s status.Status) bool {
	return s == status.Processing || s == status.Listening
}

// For returns the visual for a status, without lingering layers.
func For(s status.Status) Visual {
	v := Visual{Outer: 64, Inner: 32, Center: true, Tint: Gold}
	switch {
	case s == status.Idle:
		v.Pulse = true
	case processingLike(s):
		v.Outer, v.Inner = 72, 36
		v.Processing = &Layer{Particles: ProcessingParticles, Opacity: 1}
	case s == status.Speaking:
		v.Outer, v.Inner = 80, 40
		v.Speaking = &Layer{Particles: SpeakingParticles, Opacity: 1}
	case s == status.Error:
		v.Tint = Red
	}
	return v
}

// Tracker follows status changes and keeps particle layers alive for their
// linger period after the status moves on.
type Tracker struct {
	now func() time.Time

	mu              sync.Mutex
	current         status.Status
	processingUntil time.Time
	speakingUntil   time.Time
}

// NewTracker returns a tracker in the idle state. A nil now uses time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now, current: status.Idle}
}

// Observe records a status change.
func (t *Tracker) Observe(s status.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.current
	now := t.now()
	if processingLike(prev) && !processingLike(s) {
		t.processingUntil = now.Add(ProcessingLinger)
	}
	if prev == status.Speaking && s != status.Speaking {
		t.speakingUntil = now.Add(SpeakingLinger)
	}
	t.current = s
}

// Visual returns the orb for the current status, including lingering layers.
func (t *Tracker) Visual() Visual {
	t.mu.Lock()
	defer t.mu.Unlock()

	v := For(t.current)
	now := t.now()
	if v.Processing == nil && now.Before(t.processingUntil) {
		v.Processing = &Layer{Particles: ProcessingParticles, Opacity: 0}
	}
	if v.Speaking == nil && now.Before(t.speakingUntil) {
		v.Speaking = &Layer{Particles: SpeakingParticles, Opacity: 0}
	}
	return v
}

// Status returns the last observed status.
func (t *Tracker) Status() status.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
