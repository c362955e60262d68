package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teslashibe/go-jarvis/pkg/conversation"
	"github.com/teslashibe/go-jarvis/pkg/home"
)

const tickInterval = 250 * time.Millisecond

// DashboardMsg carries freshly loaded widget state.
type DashboardMsg struct {
	Dashboard home.Dashboard
	Err       error
}

// QuoteMsg carries the daily quote.
type QuoteMsg struct {
	Quote string
}

// TickMsg drives the clock and the aura animation.
type TickMsg time.Time

// SnapshotMsg carries a controller snapshot.
type SnapshotMsg struct {
	Snapshot conversation.Snapshot
}

// SnapshotsClosedMsg is sent when the controller stops publishing.
type SnapshotsClosedMsg struct{}

// ConnectResultMsg reports the outcome of Connect.
type ConnectResultMsg struct {
	Err error
}

// DisconnectResultMsg reports the outcome of Disconnect.
type DisconnectResultMsg struct {
	Snapshot conversation.Snapshot
	Err      error
}

// ActionResultMsg reports a widget action. Feedback is shown briefly and
// the dashboard is reloaded.
type ActionResultMsg struct {
	Feedback string
	Err      error
}

// ClearFeedbackMsg expires a feedback message.
type ClearFeedbackMsg struct {
	Seq int
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func loadDashboardCmd(h *home.Home) tea.Cmd {
	return func() tea.Msg {
		dash, err := h.Dashboard(context.Background())
		return DashboardMsg{Dashboard: dash, Err: err}
	}
}

func quoteCmd(h *home.Home) tea.Cmd {
	return func() tea.Msg {
		return QuoteMsg{Quote: h.Quote(context.Background())}
	}
}

// waitSnapshotCmd reads the next snapshot from the subscription.
func waitSnapshotCmd(ch <-chan conversation.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return SnapshotsClosedMsg{}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

func connectCmd(s Session) tea.Cmd {
	return func() tea.Msg {
		return ConnectResultMsg{Err: s.Connect(context.Background())}
	}
}

func disconnectCmd(s Session) tea.Cmd {
	return func() tea.Msg {
		err := s.Disconnect(context.Background())
		return DisconnectResultMsg{Snapshot: s.Snapshot(), Err: err}
	}
}

func muteCmd(s Session, muted bool) tea.Cmd {
	return func() tea.Msg {
		if err := s.SetMuted(muted); err != nil {
			return ActionResultMsg{Err: err}
		}
		return SnapshotMsg{Snapshot: s.Snapshot()}
	}
}

// actionCmd runs a widget action off the UI goroutine.
func actionCmd(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		feedback, err := fn(context.Background())
		return ActionResultMsg{Feedback: feedback, Err: err}
	}
}

func clearFeedbackCmd(seq int) tea.Cmd {
	return tea.Tick(home.FeedbackTTL, func(time.Time) tea.Msg {
		return ClearFeedbackMsg{Seq: seq}
	})
}
