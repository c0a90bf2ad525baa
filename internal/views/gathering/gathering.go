// Package gathering renders the fingerprint collection panel.
package gathering

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/jacopomaroli/roombutler/internal/theme"
)

// Model holds the gathering panel state.
type Model struct {
	State string // idle, pending, active
	Mode  string // append or new
	Room  string
	Width int
}

// New creates a gathering panel model.
func New() Model {
	return Model{State: "idle", Mode: "append"}
}

// CycleMode flips between appending to the existing fingerprint set and
// starting a fresh one. Only meaningful before the next start.
func (m *Model) CycleMode() {
	if m.Mode == "append" {
		m.Mode = "new"
	} else {
		m.Mode = "append"
	}
}

// View renders the gathering panel.
func (m Model) View() string {
	glyph := lipgloss.NewStyle().Foreground(theme.StateColor(m.State)).
		Render(theme.StateGlyph(m.State))

	var lines []string
	lines = append(lines, theme.StyleHeader.Render("Gathering"))
	lines = append(lines, fmt.Sprintf("%s %s", glyph, m.State))
	lines = append(lines, theme.StyleDimmed.Render("mode: ")+m.Mode)
	if m.Room != "" {
		lines = append(lines, theme.StyleDimmed.Render("labeled room: ")+m.Room)
	}

	return theme.StyleBorder.Width(m.innerWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) innerWidth() int {
	if m.Width < 24 {
		return 24
	}
	return m.Width
}
