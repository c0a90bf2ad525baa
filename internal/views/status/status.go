// Package status renders the connection and room status bar.
package status

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jacopomaroli/roombutler/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	Room      string // last reported room for the selected device
	Node      string
	Notice    string // transient error or info line
	Width     int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Reconnecting...")
	}

	roomStr := theme.StyleDimmed.Render("room: ") + renderRoom(m.Room, m.Node)

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + roomStr
	if m.Notice != "" {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorDanger).Render(m.Notice)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func renderRoom(room, node string) string {
	if room == "" {
		return "unknown"
	}
	if node != "" {
		return room + " (" + node + ")"
	}
	return room
}
