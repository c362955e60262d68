package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teslashibe/go-jarvis/pkg/home"
)

// smartItems are the rows of the smart-home panel.
var smartItems = []string{home.RoomLivingRoom, home.RoomWorkshop, "music"}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input != inputNone {
		return m.handleInput(msg)
	}

	switch msg.String() {
	case KeyQuit:
		return m.quit()

	case KeyStart, KeyEnter:
		return m.initiate()

	case KeyTab:
		m.panel = (m.panel + 1) % panelCount
		return m, nil

	case KeyDown, KeyJ:
		m.moveCursor(1)
		return m, nil

	case KeyUp, KeyK:
		m.moveCursor(-1)
		return m, nil

	case KeySpace:
		return m, m.activate()

	case KeyAdd:
		m.panel = PanelTasks
		m.input = inputTask
		m.buffer = ""
		return m, nil

	case KeyDelete:
		if m.panel != PanelTasks || len(m.dash.Tasks) == 0 {
			return m, nil
		}
		id := m.dash.Tasks[m.taskCursor].ID
		h := m.home
		return m, actionCmd(func(ctx context.Context) (string, error) {
			return "", h.DeleteTask(ctx, id)
		})

	case KeyEdit:
		m.panel = PanelMemory
		m.input = inputMemory
		m.buffer = m.dash.Memory
		return m, nil

	case KeyClear:
		if m.panel != PanelMemory {
			return m, nil
		}
		return m, actionCmd(m.home.ClearMemory)

	case KeyVoice:
		return m, m.cycleVoice()

	case KeyPush:
		if m.tasks == nil {
			return m, nil
		}
		p := m.tasks
		return m, actionCmd(func(ctx context.Context) (string, error) {
			res, err := p.Push(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Synced: %d new, %d updated.", res.Created, res.Updated), nil
		})
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	switch m.panel {
	case PanelTasks:
		if n := len(m.dash.Tasks); n > 0 {
			m.taskCursor = min(max(m.taskCursor+delta, 0), n-1)
		}
	case PanelSmartHome:
		m.smartCursor = min(max(m.smartCursor+delta, 0), len(smartItems)-1)
	}
}

// activate toggles whatever the focused panel has selected.
func (m Model) activate() tea.Cmd {
	h := m.home
	switch m.panel {
	case PanelTasks:
		if len(m.dash.Tasks) == 0 {
			return nil
		}
		id := m.dash.Tasks[m.taskCursor].ID
		return actionCmd(func(ctx context.Context) (string, error) {
			_, err := h.ToggleTask(ctx, id)
			return "", err
		})
	case PanelSmartHome:
		item := smartItems[m.smartCursor]
		return actionCmd(func(context.Context) (string, error) {
			if item == "music" {
				h.ToggleMusic()
				return "", nil
			}
			_, err := h.ToggleLights(item)
			return "", err
		})
	case PanelVoice:
		return m.cycleVoice()
	}
	return nil
}

func (m Model) cycleVoice() tea.Cmd {
	voices := home.Voices()
	next := voices[0].Name
	for i, v := range voices {
		if v.Name == m.dash.Voice {
			next = voices[(i+1)%len(voices)].Name
		}
	}
	h := m.home
	return actionCmd(func(ctx context.Context) (string, error) {
		return "", h.SetVoice(ctx, next)
	})
}

func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input = inputNone
		m.buffer = ""
		return m, nil

	case tea.KeyEnter:
		text, mode := m.buffer, m.input
		m.input = inputNone
		m.buffer = ""
		h := m.home
		if mode == inputMemory {
			return m, actionCmd(func(ctx context.Context) (string, error) {
				return h.SaveMemory(ctx, text)
			})
		}
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		return m, actionCmd(func(ctx context.Context) (string, error) {
			_, err := h.AddTask(ctx, text)
			return "", err
		})

	case tea.KeyBackspace:
		if r := []rune(m.buffer); len(r) > 0 {
			m.buffer = string(r[:len(r)-1])
		}
		return m, nil

	case tea.KeySpace:
		m.buffer += " "
		return m, nil

	case tea.KeyRunes:
		m.buffer += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m Model) homeView() []string {
	now := m.now()
	header := home.HeaderAt(now)

	title := TitleStyle.Render("J.A.R.V.I.S.")
	right := DimStyle.Render(header.Date + "  " + header.Time + "  " + header.Weather)
	sections := []string{
		padRight(title, m.width-len([]rune(header.Date+header.Time+header.Weather))-4) + right,
		GreetingStyle.Render(home.Greeting(now)),
	}
	if m.quote != "" {
		sections = append(sections, QuoteStyle.Render("“"+m.quote+"”"))
	}
	sections = append(sections, m.divider())

	if !m.loaded {
		sections = append(sections, DimStyle.Render("  Loading..."))
	} else {
		sections = append(sections,
			m.renderTasks(),
			"",
			m.renderMemory(),
			"",
			m.renderSmartHome(),
			"",
			m.renderVoice(),
		)
	}

	sections = append(sections, m.divider())
	if m.input != inputNone {
		label := "New task: "
		if m.input == inputMemory {
			label = "Memory: "
		}
		sections = append(sections, label+InputStyle.Render(m.buffer+"▌"))
	}
	if m.feedback != "" {
		sections = append(sections, FeedbackStyle.Render(m.feedback))
	}
	if m.errorMessage != "" {
		sections = append(sections, ErrorStyle.Render(m.errorMessage))
	}
	sections = append(sections, m.homeFooter())
	return sections
}

func (m Model) panelTitle(p Panel, text string) string {
	if m.panel == p {
		return PanelTitleActiveStyle.Render("▸ " + text)
	}
	return PanelTitleStyle.Render("  " + text)
}

func (m Model) renderTasks() string {
	open := 0
	for _, t := range m.dash.Tasks {
		if !t.Completed {
			open++
		}
	}
	lines := []string{m.panelTitle(PanelTasks, fmt.Sprintf("TASKS (%d open)", open))}
	if len(m.dash.Tasks) == 0 {
		lines = append(lines, DimStyle.Render("    No tasks."))
	}
	for i, t := range m.dash.Tasks {
		box := "[ ]"
		text := t.Text
		if t.Completed {
			box = "[x]"
			text = DoneStyle.Render(text)
		}
		line := "    " + box + " " + text
		if m.panel == PanelTasks && i == m.taskCursor {
			line = SelectedStyle.Render("  > "+box+" ") + text
		}
		lines = append(lines, truncate(line, max(m.width, 20)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMemory() string {
	lines := []string{m.panelTitle(PanelMemory, "MEMORY MATRIX")}
	if m.dash.Memory == "" {
		lines = append(lines, DimStyle.Render("    Empty."))
	} else {
		for _, l := range wrapText(m.dash.Memory, max(20, m.width-6)) {
			lines = append(lines, "    "+l)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSmartHome() string {
	sh := m.dash.SmartHome
	onOff := func(on bool) string {
		if on {
			return OnStyle.Render("ON")
		}
		return OffStyle.Render("OFF")
	}
	music := OffStyle.Render(sh.Music)
	if sh.Music == home.MusicPlaying {
		music = OnStyle.Render(sh.Music)
	}
	rows := []string{
		"Living Room Lights  " + onOff(sh.LivingRoomLights),
		"Workshop Lights     " + onOff(sh.WorkshopLights),
		"Music               " + music,
	}
	lines := []string{m.panelTitle(PanelSmartHome, fmt.Sprintf("SMART HOME  %d°F", sh.ThermostatF))}
	for i, r := range rows {
		prefix := "    "
		if m.panel == PanelSmartHome && i == m.smartCursor {
			prefix = SelectedStyle.Render("  > ")
		}
		lines = append(lines, prefix+r)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderVoice() string {
	var parts []string
	for _, v := range m.dash.Voices {
		label := v.Name + " (" + v.Label + ")"
		if v.Name == m.dash.Voice {
			parts = append(parts, SelectedStyle.Render("● "+label))
		} else {
			parts = append(parts, DimStyle.Render("○ "+label))
		}
	}
	return m.panelTitle(PanelVoice, "VOICE") + "\n    " + strings.Join(parts, "   ")
}

func (m Model) homeFooter() string {
	if m.input != inputNone {
		return footer("Enter", "Save", "Esc", "Cancel")
	}
	pairs := []string{"c", "Initiate", "Tab", "Panel", "Space", "Toggle", "a", "Add", "d", "Delete", "e", "Memory", "x", "Clear", "v", "Voice"}
	if m.tasks != nil {
		pairs = append(pairs, "s", "Sync")
	}
	pairs = append(pairs, "q", "Quit")
	return footer(pairs...)
}
