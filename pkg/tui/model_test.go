package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teslashibe/go-jarvis/internal/log"
	"github.com/teslashibe/go-jarvis/pkg/aura"
	"github.com/teslashibe/go-jarvis/pkg/conversation"
	"github.com/teslashibe/go-jarvis/pkg/home"
	"github.com/teslashibe/go-jarvis/pkg/llm"
	"github.com/teslashibe/go-jarvis/pkg/store"
	"github.com/teslashibe/go-jarvis/pkg/tasksync"
	"github.com/teslashibe/go-jarvis/pkg/transcript"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

type fakeSession struct {
	mu          sync.Mutex
	snap        conversation.Snapshot
	connects    int
	disconnects int
	connectErr  error
}

func (f *fakeSession) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		f.snap.Status = conversation.Error
		f.snap.Banner = conversation.ErrorBanner
		return f.connectErr
	}
	f.snap.Connected = true
	f.snap.Status = conversation.Listening
	return nil
}

func (f *fakeSession) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	f.snap.Connected = false
	f.snap.Status = conversation.Idle
	return nil
}

func (f *fakeSession) SetMuted(muted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.Muted = muted
	return nil
}

func (f *fakeSession) Snapshot() conversation.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

type fakePusher struct{ calls int }

func (p *fakePusher) Push(context.Context) (tasksync.Result, error) {
	p.calls++
	return tasksync.Result{Created: 2, Updated: 1}, nil
}

func newTestModel(t *testing.T) (Model, *fakeSession, *home.Home) {
	t.Helper()
	h := home.New(store.NewMemory(), llm.NewMock("Onward."),
		home.WithClock(func() time.Time { return testNow }), home.WithLogger(log.Discard()))
	sess := &fakeSession{}
	m := New(Options{Home: h, Session: sess, Now: func() time.Time { return testNow }})
	m.width, m.height = 100, 40

	dash, err := h.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	updated, _ := m.Update(DashboardMsg{Dashboard: dash})
	return updated.(Model), sess, h
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs the resulting command, feeding its message
// back into the model.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	updated, cmd := m.Update(key(k))
	m = updated.(Model)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			updated, _ = m.Update(msg)
			m = updated.(Model)
		}
	}
	return m
}

func TestNewModel(t *testing.T) {
	m := New(Options{})
	if m.Screen() != ScreenHome {
		t.Errorf("screen = %v, want home", m.Screen())
	}
	if !m.transcriptLive {
		t.Error("new model should follow the transcript")
	}
	if m.View() != "Initializing..." {
		t.Errorf("View() before size = %q", m.View())
	}
}

func TestRouter(t *testing.T) {
	m, sess, _ := newTestModel(t)

	m = press(t, m, "c")
	if m.Screen() != ScreenConversation {
		t.Fatalf("screen after initiate = %v", m.Screen())
	}
	if sess.connects != 1 {
		t.Errorf("connects = %d, want 1", sess.connects)
	}

	// A snapshot from before the session opened does not end it.
	updated, _ := m.Update(SnapshotMsg{Snapshot: conversation.Snapshot{Status: conversation.Processing}})
	m = updated.(Model)
	if m.Screen() != ScreenConversation {
		t.Fatal("routed home before the session opened")
	}

	updated, _ = m.Update(SnapshotMsg{Snapshot: conversation.Snapshot{Status: conversation.Listening, Connected: true}})
	m = updated.(Model)
	if m.Screen() != ScreenConversation {
		t.Fatal("left conversation while connected")
	}

	updated, _ = m.Update(SnapshotMsg{Snapshot: conversation.Snapshot{Status: conversation.Idle}})
	m = updated.(Model)
	if m.Screen() != ScreenHome {
		t.Errorf("screen after session end = %v, want home", m.Screen())
	}
}

func TestEndConversation(t *testing.T) {
	m, sess, _ := newTestModel(t)
	m = press(t, m, "c")
	updated, _ := m.Update(SnapshotMsg{Snapshot: sess.Snapshot()})
	m = updated.(Model)

	m = press(t, m, "e")
	if sess.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", sess.disconnects)
	}
	if m.Screen() != ScreenHome {
		t.Errorf("screen after end = %v, want home", m.Screen())
	}
}

func TestConnectError(t *testing.T) {
	m, sess, _ := newTestModel(t)
	sess.connectErr = errors.New("microphone denied")

	m = press(t, m, "c")
	if m.Screen() != ScreenConversation {
		t.Errorf("screen = %v, want conversation", m.Screen())
	}
	if m.errorMessage != conversation.ErrorBanner {
		t.Errorf("error = %q", m.errorMessage)
	}

	// A snapshot from the failed attempt must not bounce the view.
	updated, _ := m.Update(SnapshotMsg{Snapshot: sess.Snapshot()})
	m = updated.(Model)
	if m.Screen() != ScreenConversation {
		t.Errorf("screen after snapshot = %v, want conversation", m.Screen())
	}
	if !strings.Contains(m.View(), conversation.ErrorBanner) {
		t.Error("conversation view does not show the banner")
	}

	m = press(t, m, "e")
	if m.Screen() != ScreenHome {
		t.Errorf("screen after end = %v, want home", m.Screen())
	}
}

func TestMuteKey(t *testing.T) {
	m, sess, _ := newTestModel(t)
	m = press(t, m, "c")

	m = press(t, m, "m")
	if !sess.Snapshot().Muted || !m.snap.Muted {
		t.Fatal("mute key did not mute")
	}
	if !strings.Contains(m.View(), "MUTED") {
		t.Error("view missing MUTED badge")
	}
	m = press(t, m, "m")
	if sess.Snapshot().Muted {
		t.Error("second press did not unmute")
	}
}

func TestAddTaskInput(t *testing.T) {
	m, _, h := newTestModel(t)

	m = press(t, m, "a")
	for _, k := range []string{"B", "u", "y", " ", "m", "i", "l", "k", "x", "backspace"} {
		m = press(t, m, k)
	}
	if m.buffer != "Buy milk" {
		t.Fatalf("buffer = %q", m.buffer)
	}
	m = press(t, m, "enter")
	if m.input != inputNone {
		t.Error("still in input mode")
	}

	tasks, err := h.Tasks(context.Background())
	if err != nil {
		t.Fatalf("Tasks() error = %v", err)
	}
	if len(tasks) != 3 || tasks[2].Text != "Buy milk" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestToggleAndDeleteTask(t *testing.T) {
	m, _, h := newTestModel(t)
	ctx := context.Background()

	m = press(t, m, "j")
	m = press(t, m, " ")
	tasks, _ := h.Tasks(ctx)
	if !tasks[1].Completed {
		t.Errorf("task 2 not toggled: %+v", tasks[1])
	}

	press(t, m, "d")
	tasks, _ = h.Tasks(ctx)
	if len(tasks) != 1 || tasks[0].ID != 1 {
		t.Errorf("tasks after delete = %+v", tasks)
	}
}

func TestMemoryEditor(t *testing.T) {
	m, _, h := newTestModel(t)

	m = press(t, m, "e")
	if m.input != inputMemory || m.panel != PanelMemory {
		t.Fatalf("input = %v panel = %v", m.input, m.panel)
	}
	for _, k := range []string{"T", "o", "n", "y"} {
		m = press(t, m, k)
	}
	m = press(t, m, "enter")
	if m.feedback != home.MemoryUpdated {
		t.Errorf("feedback = %q", m.feedback)
	}
	if mem, _ := h.Memory(context.Background()); mem != "Tony" {
		t.Errorf("memory = %q", mem)
	}

	m = press(t, m, "x")
	if m.feedback != home.MemoryCleared {
		t.Errorf("feedback after clear = %q", m.feedback)
	}
}

func TestFeedbackExpiry(t *testing.T) {
	m, _, _ := newTestModel(t)

	updated, _ := m.Update(ActionResultMsg{Feedback: "first"})
	m = updated.(Model)
	updated, _ = m.Update(ActionResultMsg{Feedback: "second"})
	m = updated.(Model)

	updated, _ = m.Update(ClearFeedbackMsg{Seq: m.feedbackSeq - 1})
	m = updated.(Model)
	if m.feedback != "second" {
		t.Errorf("stale expiry cleared feedback: %q", m.feedback)
	}
	updated, _ = m.Update(ClearFeedbackMsg{Seq: m.feedbackSeq})
	m = updated.(Model)
	if m.feedback != "" {
		t.Errorf("feedback = %q, want cleared", m.feedback)
	}
}

func TestSmartHomeAndVoice(t *testing.T) {
	m, _, h := newTestModel(t)

	m = press(t, m, "tab")
	m = press(t, m, "tab")
	if m.panel != PanelSmartHome {
		t.Fatalf("panel = %v", m.panel)
	}
	m = press(t, m, " ")
	if h.SmartHome().LivingRoomLights {
		t.Error("living room lights still on")
	}
	m = press(t, m, "j")
	m = press(t, m, "j")
	m = press(t, m, " ")
	if h.SmartHome().Music != home.MusicPaused {
		t.Errorf("music = %q", h.SmartHome().Music)
	}

	m = press(t, m, "v")
	if v, _ := h.Voice(context.Background()); v != "Kore" {
		t.Errorf("voice = %q, want Kore", v)
	}
	_ = m
}

func TestPushTasks(t *testing.T) {
	m, _, _ := newTestModel(t)
	p := &fakePusher{}

	m = press(t, m, "s")
	if m.feedback != "" {
		t.Error("push without a pusher should do nothing")
	}

	m.tasks = p
	m = press(t, m, "s")
	if p.calls != 1 {
		t.Errorf("push calls = %d", p.calls)
	}
	if m.feedback != "Synced: 2 new, 1 updated." {
		t.Errorf("feedback = %q", m.feedback)
	}
}

func TestHomeView(t *testing.T) {
	m, _, _ := newTestModel(t)
	updated, _ := m.Update(QuoteMsg{Quote: "Onward."})
	m = updated.(Model)

	view := m.View()
	for _, want := range []string{
		"J.A.R.V.I.S.",
		"Good Morning, Sir.",
		"Saturday, March 14, 2026",
		"72°F Sunny",
		"Onward.",
		"TASKS (1 open)",
		"Deploy Mark III upgrades",
		"SMART HOME  70°F",
		"Charon (Standard Male)",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("home view missing %q", want)
		}
	}
}

func TestConversationView(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.screen = ScreenConversation
	updated, _ := m.Update(SnapshotMsg{Snapshot: conversation.Snapshot{
		Status:    conversation.Speaking,
		Connected: true,
		Aura:      aura.For(conversation.Speaking),
		Transcript: []transcript.Entry{
			{ID: 0, Speaker: transcript.User, Text: "What time is it?", Final: true},
			{ID: 1, Speaker: transcript.Jarvis, Text: "It is 9:26, Sir.", Final: false},
		},
	}})
	m = updated.(Model)

	view := m.View()
	for _, want := range []string{"SPEAKING", "USER", "What time is it?", "JARVIS", "It is 9:26, Sir.", "End Conversation", "✦"} {
		if !strings.Contains(view, want) {
			t.Errorf("conversation view missing %q", want)
		}
	}
}

func TestRenderAura(t *testing.T) {
	tests := []struct {
		name    string
		status  conversation.Status
		want    string
		wantNot string
	}{
		{"idle", conversation.Idle, "•", "✦"},
		{"listening", conversation.Listening, "·", "✦"},
		{"speaking", conversation.Speaking, "✦", "·"},
		{"error", conversation.Error, "•", "✦"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := aura.For(tt.status)
			out := renderAura(v, 0)
			if !strings.Contains(out, tt.want) {
				t.Errorf("aura missing %q:\n%s", tt.want, out)
			}
			if strings.Contains(out, tt.wantNot) {
				t.Errorf("aura has unexpected %q:\n%s", tt.wantNot, out)
			}
			if rows := len(strings.Split(out, "\n")); rows != auraHeight(v) {
				t.Errorf("rows = %d, want %d", rows, auraHeight(v))
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, []string{""}},
		{"short", 10, []string{"short"}},
		{"one two three four", 9, []string{"one two", "three", "four"}},
	}
	for _, tt := range tests {
		got := wrapText(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}
