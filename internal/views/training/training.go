// Package training renders the model training panel.
package training

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jacopomaroli/roombutler/internal/theme"
)

// Model holds the training panel state.
type Model struct {
	State    string // idle, pending, active
	Optimize bool
	Stats    map[string]any // last run metrics, missing values already "N/A"
	Width    int

	spinner spinner.Model
}

// New creates a training panel model.
func New() Model {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.ColorPending)),
	)
	return Model{State: "idle", spinner: sp}
}

// Tick starts the spinner animation.
func (m Model) Tick() tea.Cmd {
	return m.spinner.Tick
}

// Update advances the spinner.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the training panel.
func (m Model) View() string {
	var lines []string
	lines = append(lines, theme.StyleHeader.Render("Training"))

	if m.State == "active" || m.State == "pending" {
		lines = append(lines, m.spinner.View()+" "+m.State)
	} else {
		glyph := lipgloss.NewStyle().Foreground(theme.StateColor(m.State)).
			Render(theme.StateGlyph(m.State))
		lines = append(lines, glyph+" "+m.State)
	}

	opt := "off"
	if m.Optimize {
		opt = "on"
	}
	lines = append(lines, theme.StyleDimmed.Render("optimize: ")+opt)

	if len(m.Stats) > 0 {
		lines = append(lines, theme.StyleDimmed.Render("last run:"))
		keys := make([]string, 0, len(m.Stats))
		for k := range m.Stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("  %s: %s", k, renderStat(m.Stats[k])))
		}
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

func renderStat(v any) string {
	switch v := v.(type) {
	case float64:
		return fmt.Sprintf("%.3f", v)
	case string:
		return theme.StyleDimmed.Render(v)
	default:
		return fmt.Sprint(v)
	}
}
