// Package tui is the terminal front end: a home screen with the local
// widgets and a conversation screen with the aura and live transcript.
// Only the screen selector is held here; all state comes from the home
// widgets and the conversation controller.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teslashibe/go-jarvis/pkg/conversation"
	"github.com/teslashibe/go-jarvis/pkg/home"
	"github.com/teslashibe/go-jarvis/pkg/tasksync"
)

// Screen is the view selected by the router.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenConversation
)

func (s Screen) String() string {
	if s == ScreenConversation {
		return "conversation"
	}
	return "home"
}

// Panel is the home widget with keyboard focus.
type Panel int

const (
	PanelTasks Panel = iota
	PanelMemory
	PanelSmartHome
	PanelVoice
	panelCount
)

type inputMode int

const (
	inputNone inputMode = iota
	inputTask
	inputMemory
)

// Session is the conversation controller as seen by the UI.
type Session interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	SetMuted(muted bool) error
	Snapshot() conversation.Snapshot
}

// Pusher copies the task list somewhere else.
type Pusher interface {
	Push(ctx context.Context) (tasksync.Result, error)
}

// Options configures the model.
type Options struct {
	Home    *home.Home
	Session Session

	// Snapshots is the controller subscription.
	Snapshots <-chan conversation.Snapshot

	// Tasks enables pushing the task list. Optional.
	Tasks Pusher

	Now func() time.Time
}

// Model is the root bubbletea model.
type Model struct {
	home    *home.Home
	session Session
	snaps   <-chan conversation.Snapshot
	tasks   Pusher
	now     func() time.Time

	screen Screen
	width  int
	height int
	frame  int

	// Home screen
	dash        home.Dashboard
	loaded      bool
	quote       string
	panel       Panel
	taskCursor  int
	smartCursor int
	input       inputMode
	buffer      string
	feedback    string
	feedbackSeq int

	// Conversation screen
	snap             conversation.Snapshot
	sawConnected     bool
	transcriptScroll int
	transcriptLive   bool

	errorMessage string
}

// New creates the model on the home screen.
func New(opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Model{
		home:           opts.Home,
		session:        opts.Session,
		snaps:          opts.Snapshots,
		tasks:          opts.Tasks,
		now:            opts.Now,
		screen:         ScreenHome,
		transcriptLive: true,
	}
}

// Screen returns the current view.
func (m Model) Screen() Screen { return m.screen }

// Init loads the dashboard and quote and starts listening for snapshots.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadDashboardCmd(m.home),
		quoteCmd(m.home),
		waitSnapshotCmd(m.snaps),
		tickCmd(),
	)
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		m.frame++
		if m.screen == ScreenConversation && m.session != nil {
			// The aura lingers between snapshots.
			return m.applySnapshot(m.session.Snapshot()), tickCmd()
		}
		return m, tickCmd()

	case DashboardMsg:
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			return m, nil
		}
		m.dash = msg.Dashboard
		m.loaded = true
		if m.taskCursor >= len(m.dash.Tasks) {
			m.taskCursor = max(0, len(m.dash.Tasks)-1)
		}
		return m, nil

	case QuoteMsg:
		m.quote = msg.Quote
		return m, nil

	case SnapshotMsg:
		prev := m.screen
		m = m.applySnapshot(msg.Snapshot)
		cmds := []tea.Cmd{waitSnapshotCmd(m.snaps)}
		if prev == ScreenConversation && m.screen == ScreenHome {
			cmds = append(cmds, loadDashboardCmd(m.home))
		}
		return m, tea.Batch(cmds...)

	case SnapshotsClosedMsg:
		m.snaps = nil
		return m, nil

	case ConnectResultMsg:
		// A failed connect stays on the conversation screen with the banner
		// until the user ends it.
		if msg.Err != nil {
			m.errorMessage = conversation.ErrorBanner
			m.sawConnected = false
		}
		return m, nil

	case DisconnectResultMsg:
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
		}
		prev := m.screen
		m = m.applySnapshot(msg.Snapshot)
		if prev == ScreenConversation && !msg.Snapshot.Connected {
			m.screen = ScreenHome
			m.sawConnected = false
			return m, loadDashboardCmd(m.home)
		}
		return m, nil

	case ActionResultMsg:
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			return m, loadDashboardCmd(m.home)
		}
		m.errorMessage = ""
		if msg.Feedback == "" {
			return m, loadDashboardCmd(m.home)
		}
		m.feedback = msg.Feedback
		m.feedbackSeq++
		return m, tea.Batch(loadDashboardCmd(m.home), clearFeedbackCmd(m.feedbackSeq))

	case ClearFeedbackMsg:
		if msg.Seq == m.feedbackSeq {
			m.feedback = ""
		}
		return m, nil
	}

	return m, nil
}

// applySnapshot records snap and routes back home once an open session
// has ended.
func (m Model) applySnapshot(snap conversation.Snapshot) Model {
	m.snap = snap
	if snap.Banner != "" {
		m.errorMessage = snap.Banner
	}
	if snap.Connected {
		m.sawConnected = true
		if snap.Banner == "" && m.errorMessage == conversation.ErrorBanner {
			m.errorMessage = ""
		}
	}
	if m.screen == ScreenConversation && m.sawConnected && !snap.Connected {
		m.screen = ScreenHome
		m.sawConnected = false
	}
	if m.transcriptLive {
		m.transcriptScroll = m.maxTranscriptScroll()
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == KeyCtrlC {
		return m.quit()
	}
	if m.screen == ScreenConversation {
		return m.handleConversationKey(msg)
	}
	return m.handleHomeKey(msg)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.session != nil && m.snap.Connected {
		return m, tea.Sequence(disconnectCmd(m.session), tea.Quit)
	}
	return m, tea.Quit
}

// initiate switches to the conversation screen, which connects at once.
func (m Model) initiate() (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	m.screen = ScreenConversation
	m.sawConnected = false
	m.errorMessage = ""
	m.transcriptLive = true
	m.transcriptScroll = 0
	return m, connectCmd(m.session)
}

// View renders the current screen.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	var sections []string
	if m.screen == ScreenConversation {
		sections = m.conversationView()
	} else {
		sections = m.homeView()
	}
	return strings.Join(sections, "\n")
}

func (m Model) divider() string {
	return DividerStyle.Render(strings.Repeat("─", m.width))
}
