package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teslashibe/go-jarvis/pkg/conversation"
	"github.com/teslashibe/go-jarvis/pkg/transcript"
)

func (m Model) handleConversationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit:
		return m.quit()

	case KeyMute:
		return m, muteCmd(m.session, !m.snap.Muted)

	case KeyEnd, KeyEsc:
		return m, disconnectCmd(m.session)

	case KeyUp, KeyK:
		m.transcriptLive = false
		if m.transcriptScroll > 0 {
			m.transcriptScroll--
		}
		return m, nil

	case KeyDown, KeyJ:
		maxScroll := m.maxTranscriptScroll()
		m.transcriptScroll++
		if m.transcriptScroll >= maxScroll {
			m.transcriptScroll = maxScroll
			m.transcriptLive = true
		}
		return m, nil
	}
	return m, nil
}

func (m Model) conversationView() []string {
	status := StatusStyle.Render(m.snap.Status.String())
	if m.snap.Status == conversation.Error {
		status = ErrorStyle.Render(m.snap.Status.String())
	}
	head := TitleStyle.Render("J.A.R.V.I.S.") + "  " + status
	if m.snap.Muted {
		head += "  " + MutedBadgeStyle.Render("MUTED")
	}

	sections := []string{head, ""}
	for _, line := range strings.Split(renderAura(m.snap.Aura, m.frame), "\n") {
		sections = append(sections, center(line, m.width))
	}
	sections = append(sections, m.divider())
	sections = append(sections, m.renderTranscript()...)
	sections = append(sections, m.divider())
	if m.errorMessage != "" {
		sections = append(sections, ErrorStyle.Render(m.errorMessage))
	}

	mute := "Mute"
	if m.snap.Muted {
		mute = "Unmute"
	}
	sections = append(sections, footer("m", mute, "e", "End Conversation", "↑↓", "Scroll", "q", "Quit"))
	return sections
}

// transcriptLines renders every entry, wrapped to the screen width.
func (m Model) transcriptLines() []string {
	width := max(20, m.width-10)
	var out []string
	for _, e := range m.snap.Transcript {
		label := UserLabelStyle.Render("USER   ")
		if e.Speaker == transcript.Jarvis {
			label = JarvisLabelStyle.Render("JARVIS ")
		}
		wrapped := wrapText(e.Text, width)
		first := wrapped[0]
		if !e.Final {
			first = PartialTextStyle.Render(first)
		}
		out = append(out, "  "+label+first)
		for _, wl := range wrapped[1:] {
			if !e.Final {
				wl = PartialTextStyle.Render(wl)
			}
			out = append(out, "         "+wl)
		}
	}
	return out
}

func (m Model) transcriptVisibleLines() int {
	if m.height == 0 {
		return 10
	}
	// header(2) + aura + dividers(2) + error(1) + footer(1)
	reserved := 6 + auraHeight(m.snap.Aura)
	return max(3, m.height-reserved)
}

func (m Model) maxTranscriptScroll() int {
	total := len(m.transcriptLines())
	visible := m.transcriptVisibleLines()
	if total <= visible {
		return 0
	}
	return total - visible
}

func (m Model) renderTranscript() []string {
	lines := m.transcriptLines()
	height := m.transcriptVisibleLines()
	if len(lines) == 0 {
		hint := "  Listening..."
		if !m.snap.Connected {
			hint = "  Connecting..."
		}
		lines = []string{DimStyle.Render(hint)}
	}

	start := m.transcriptScroll
	if m.transcriptLive {
		start = max(0, len(lines)-height)
	}
	start = min(max(start, 0), len(lines))
	end := min(start+height, len(lines))

	out := append([]string(nil), lines[start:end]...)
	for len(out) < height {
		out = append(out, "")
	}
	return out
}
