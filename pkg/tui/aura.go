package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/teslashibe/go-jarvis/pkg/aura"
)

type cell int

const (
	cellEmpty cell = iota
	cellRing
	cellCore
	cellProcessing
	cellSpeaking
)

// auraRadius maps the outer size (quarter-rem units) to terminal rows.
func auraRadius(v aura.Visual) int {
	return max(3, v.Outer/16)
}

func auraHeight(v aura.Visual) int {
	return 2*(auraRadius(v)+1) + 1
}

// renderAura draws the orb as text. Columns are doubled so the circle
// looks round in a terminal.
func renderAura(v aura.Visual, frame int) string {
	r := auraRadius(v)
	outer := r + 1
	rows, cols := 2*outer+1, 4*outer+1
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
	}

	core := float64(v.Inner) / 16 / 2
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			dx := float64(x-2*outer) / 2
			dy := float64(y - outer)
			d := math.Hypot(dx, dy)
			switch {
			case math.Abs(d-float64(r)) < 0.5:
				grid[y][x] = cellRing
			case v.Center && d <= core:
				grid[y][x] = cellCore
			}
		}
	}

	place := func(l *aura.Layer, kind cell, speed float64) {
		if l == nil {
			return
		}
		for i := 0; i < l.Particles; i++ {
			angle := 2*math.Pi*float64(i)/float64(l.Particles) + float64(frame)*speed
			x := 2*outer + int(math.Round(math.Cos(angle)*float64(outer)*2))
			y := outer + int(math.Round(math.Sin(angle)*float64(outer)))
			if y >= 0 && y < rows && x >= 0 && x < cols && grid[y][x] == cellEmpty {
				grid[y][x] = kind
			}
		}
	}
	place(v.Processing, cellProcessing, 0.15)
	place(v.Speaking, cellSpeaking, -0.25)

	color := ColorGold
	if v.Tint == aura.Red {
		color = ColorRed
	}
	ring := lipgloss.NewStyle().Foreground(color)
	if v.Pulse && frame%4 < 2 {
		ring = ring.Faint(true)
	}
	coreStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	particle := func(l *aura.Layer) lipgloss.Style {
		if l != nil && l.Opacity == 0 {
			return DimStyle
		}
		return lipgloss.NewStyle().Foreground(ColorAmber)
	}

	var b strings.Builder
	for y, row := range grid {
		for _, c := range row {
			switch c {
			case cellRing:
				b.WriteString(ring.Render("•"))
			case cellCore:
				b.WriteString(coreStyle.Render("█"))
			case cellProcessing:
				b.WriteString(particle(v.Processing).Render("·"))
			case cellSpeaking:
				b.WriteString(particle(v.Speaking).Render("✦"))
			default:
				b.WriteByte(' ')
			}
		}
		if y < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
