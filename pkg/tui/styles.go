package tui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorGold    = lipgloss.Color("#F5B700")
	ColorAmber   = lipgloss.Color("#FFD36E")
	ColorRed     = lipgloss.Color("#FF3B30")
	ColorCyan    = lipgloss.Color("#00E5FF")
	ColorGreen   = lipgloss.Color("#00FF88")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGold)

	GreetingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	QuoteStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(ColorAmber)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	PanelTitleActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorGold)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorGold).
			Bold(true)

	DoneStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Strikethrough(true)

	OnStyle = lipgloss.NewStyle().
		Foreground(ColorGreen).
		Bold(true)

	OffStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FeedbackStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	UserLabelStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	JarvisLabelStyle = lipgloss.NewStyle().
				Foreground(ColorGold).
				Bold(true)

	PartialTextStyle = lipgloss.NewStyle().
				Foreground(ColorAmber)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorGold).
			Bold(true)

	MutedBadgeStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	InputStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Background(ColorDimGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorGold).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)
)
