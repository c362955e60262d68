package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-jarvis/pkg/audio"
)

func TestRegistry(t *testing.T) {
	p, err := New("mock", Options{})
	if err != nil {
		t.Fatalf("New(mock) error = %v", err)
	}
	if p.Name() != "mock" {
		t.Errorf("Name() = %q", p.Name())
	}

	if _, err := New("carrier-pigeon", Options{}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("New(unknown) error = %v, want ErrUnknownProvider", err)
	}

	found := false
	for _, n := range Providers() {
		if n == "mock" {
			found = true
		}
	}
	if !found {
		t.Errorf("Providers() = %v, missing mock", Providers())
	}
}

func TestToolSchema(t *testing.T) {
	tool := Tool{
		Name: "add_task",
		Params: []Param{
			{Name: "text", Type: "string", Required: true},
			{Name: "room", Type: "string", Enum: []string{"a", "b"}},
		},
	}
	s := tool.Schema()
	if s["type"] != "object" {
		t.Errorf("type = %v", s["type"])
	}
	props := s["properties"].(map[string]any)
	if len(props) != 2 {
		t.Fatalf("properties = %v", props)
	}
	req, _ := s["required"].([]string)
	if len(req) != 1 || req[0] != "text" {
		t.Errorf("required = %v", req)
	}
	room := props["room"].(map[string]any)
	if enum, _ := room["enum"].([]string); len(enum) != 2 {
		t.Errorf("enum = %v", room["enum"])
	}
}

func TestMockSession(t *testing.T) {
	p := NewMock()
	var opened, closed int
	var got []Message
	sess, err := p.Connect(context.Background(), Config{Voice: "Kore"}, Callbacks{
		OnOpen:    func() { opened++ },
		OnMessage: func(m Message) { got = append(got, m) },
		OnClose:   func() { closed++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	if opened != 1 {
		t.Errorf("OnOpen fired %d times", opened)
	}
	ms, cfg := p.Last()
	if cfg.Voice != "Kore" {
		t.Errorf("config voice = %q", cfg.Voice)
	}

	blob := audio.CreateBlob([]float32{0, 0.5}, audio.InputSampleRate)
	if err := sess.SendAudio(context.Background(), blob); err != nil {
		t.Fatal(err)
	}
	ms.Emit(Message{TurnComplete: true})
	if len(got) != 1 || !got[0].TurnComplete {
		t.Errorf("messages = %+v", got)
	}

	sess.Close()
	sess.Close()
	if closed != 1 {
		t.Errorf("OnClose fired %d times, want 1", closed)
	}
	if err := sess.SendAudio(context.Background(), blob); !errors.Is(err, ErrClosed) {
		t.Errorf("SendAudio after close = %v, want ErrClosed", err)
	}
	if n := len(ms.Sent()); n != 1 {
		t.Errorf("Sent() = %d frames, want 1", n)
	}
}

func TestMetricsCollector(t *testing.T) {
	c := NewMetricsCollector()
	base := time.Unix(100, 0)
	now := base
	c.now = func() time.Time { return now }

	c.FrameSent(8192)
	c.FrameSent(8192)
	c.FrameDropped()

	c.Observe(Message{InputTranscription: "hello"})
	now = now.Add(300 * time.Millisecond)
	c.Observe(Message{Audio: []byte{0, 0}})
	now = now.Add(100 * time.Millisecond)
	c.Observe(Message{Audio: []byte{0, 0}})
	c.Observe(Message{TurnComplete: true, Interrupted: true})

	m := c.Snapshot()
	if m.FramesSent != 2 || m.BytesSent != 16384 || m.FramesDropped != 1 {
		t.Errorf("send counters = %+v", m)
	}
	if m.AudioChunksIn != 2 || m.Turns != 1 || m.Interruptions != 1 {
		t.Errorf("receive counters = %+v", m)
	}
	if m.FirstAudio != 300*time.Millisecond {
		t.Errorf("FirstAudio = %v, want 300ms", m.FirstAudio)
	}
}
