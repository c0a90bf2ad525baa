// Package devices renders the selectable device list.
package devices

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/jacopomaroli/roombutler/internal/api"
	"github.com/jacopomaroli/roombutler/internal/theme"
)

// Model holds the device list state.
type Model struct {
	Entities []api.Entity
	Cursor   int
	Selected string // selected device id, "" when none
	Width    int
}

// New creates a device list model.
func New() Model {
	return Model{}
}

// SetEntities replaces the list, clamping the cursor to the new bounds.
func (m *Model) SetEntities(entities []api.Entity) {
	m.Entities = entities
	if m.Cursor >= len(entities) {
		m.Cursor = 0
	}
}

// MoveUp moves the cursor to the previous device, wrapping around.
func (m *Model) MoveUp() {
	if len(m.Entities) > 0 {
		m.Cursor = (m.Cursor - 1 + len(m.Entities)) % len(m.Entities)
	}
}

// MoveDown moves the cursor to the next device, wrapping around.
func (m *Model) MoveDown() {
	if len(m.Entities) > 0 {
		m.Cursor = (m.Cursor + 1) % len(m.Entities)
	}
}

// Current returns the device under the cursor.
func (m Model) Current() (api.Entity, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Entities) {
		return api.Entity{}, false
	}
	return m.Entities[m.Cursor], true
}

// View renders the device list.
func (m Model) View() string {
	var lines []string
	lines = append(lines, theme.StyleHeader.Render("Devices"))

	if len(m.Entities) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  no trackable devices"))
	}

	for i, e := range m.Entities {
		prefix := "  "
		if i == m.Cursor {
			prefix = "> "
		}
		marker := " "
		if e.ID == m.Selected {
			marker = "*"
		}
		name := e.Name
		if name == "" {
			name = e.ID
		}
		line := fmt.Sprintf("%s%s %s  %s", prefix, marker, name, renderSignal(e))
		if i == m.Cursor {
			line = theme.StyleSelected.Render(line)
		}
		lines = append(lines, line)
	}

	return theme.StyleBorder.Width(m.innerWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) innerWidth() int {
	if m.Width < 30 {
		return 30
	}
	return m.Width
}

// renderSignal shows the strongest RSSI reading across rooms.
func renderSignal(e api.Entity) string {
	best, room := 0.0, ""
	for r, v := range e.MeasuredValues {
		if room == "" || v.RSSI > best {
			best, room = v.RSSI, r
		}
	}
	if room == "" {
		return theme.StyleDimmed.Render("no signal")
	}
	return lipgloss.NewStyle().Foreground(theme.SignalColor(best)).
		Render(fmt.Sprintf("%s %.0f dBm", room, best))
}
