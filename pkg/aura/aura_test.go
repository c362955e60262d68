package aura

import (
	"testing"
	"time"

	"github.com/teslashibe/go-jarvis/pkg/status"
)

func TestFor(t *testing.T) {
	tests := []struct {
		s            status.Status
		outer, inner int
		pulse        bool
		processing   bool
		speaking     bool
		tint         Tint
	}{
		{status.Idle, 64, 32, true, false, false, Gold},
		{status.Listening, 72, 36, false, true, false, Gold},
		{status.Processing, 72, 36, false, true, false, Gold},
		{status.Speaking, 80, 40, false, false, true, Gold},
		{status.Error, 64, 32, false, false, false, Red},
	}
	for _, tt := range tests {
		t.Run(tt.s.String(), func(t *testing.T) {
			v := For(tt.s)
			if v.Outer != tt.outer || v.Inner != tt.inner {
				t.Errorf("sizes = %d/%d, want %d/%d", v.Outer, v.Inner, tt.outer, tt.inner)
			}
			if v.Pulse != tt.pulse {
				t.Errorf("Pulse = %v, want %v", v.Pulse, tt.pulse)
			}
			if (v.Processing != nil) != tt.processing {
				t.Errorf("processing layer = %v", v.Processing)
			}
			if (v.Speaking != nil) != tt.speaking {
				t.Errorf("speaking layer = %v", v.Speaking)
			}
			if !v.Center {
				t.Error("center point must always be shown")
			}
			if v.Tint != tt.tint {
				t.Errorf("Tint = %s, want %s", v.Tint, tt.tint)
			}
		})
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time            { return c.t }
func (c *fakeClock) advance(d time.Duration)   { c.t = c.t.Add(d) }

func TestProcessingLinger(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	tr := NewTracker(clk.now)

	tr.Observe(status.Listening)
	tr.Observe(status.Idle)

	v := tr.Visual()
	if v.Processing == nil {
		t.Fatal("processing particles should linger after leaving listening")
	}
	if v.Processing.Opacity != 0 {
		t.Errorf("lingering layer opacity = %v, want 0 (fading)", v.Processing.Opacity)
	}

	clk.advance(499 * time.Millisecond)
	if tr.Visual().Processing == nil {
		t.Error("still within 500ms linger")
	}

	clk.advance(time.Millisecond)
	if tr.Visual().Processing != nil {
		t.Error("processing particles should be gone after 500ms")
	}
}

func TestSpeakingLinger(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	tr := NewTracker(clk.now)

	tr.Observe(status.Speaking)
	tr.Observe(status.Listening)

	v := tr.Visual()
	if v.Speaking == nil || v.Speaking.Opacity != 0 {
		t.Fatalf("speaking layer = %+v, want lingering", v.Speaking)
	}
	if v.Processing == nil || v.Processing.Opacity != 1 {
		t.Errorf("listening should show live processing particles")
	}

	clk.advance(999 * time.Millisecond)
	if tr.Visual().Speaking == nil {
		t.Error("still within 1s linger")
	}
	clk.advance(time.Millisecond)
	if tr.Visual().Speaking != nil {
		t.Error("speaking particles should be gone after 1s")
	}
}

func TestListeningToProcessingDoesNotLinger(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	tr := NewTracker(clk.now)

	tr.Observe(status.Listening)
	tr.Observe(status.Processing)
	tr.Observe(status.Speaking)

	v := tr.Visual()
	if v.Processing == nil {
		t.Fatal("leaving processing for speaking should linger processing particles")
	}
	clk.advance(time.Second)
	tr.Observe(status.Speaking)
	if tr.Visual().Processing != nil {
		t.Error("linger should have expired")
	}
	if tr.Status() != status.Speaking {
		t.Errorf("Status = %v", tr.Status())
	}
}
