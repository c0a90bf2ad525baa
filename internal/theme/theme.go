// Package theme provides the Lip Gloss color palette and reusable styles
// for the Room Butler TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Toggle state colors.
var (
	ColorIdle    = lipgloss.Color("#4b5563")
	ColorPending = lipgloss.Color("#d97706")
	ColorActive  = lipgloss.Color("#22c55e")
)

// Connection colors.
var (
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// Signal strength thresholds (RSSI in dBm, closer to zero is stronger).
var (
	ColorSignalStrong = lipgloss.Color("#22c55e") // > -60
	ColorSignalMid    = lipgloss.Color("#d97706") // -60 to -80
	ColorSignalWeak   = lipgloss.Color("#dc2626") // < -80
)

// UI chrome colors.
var (
	ColorBorder = lipgloss.Color("#4b5563")
	ColorDimmed = lipgloss.Color("#6b7280")
	ColorBright = lipgloss.Color("#f9fafb")
	ColorAccent = lipgloss.Color("#06b6d4")
)

// StateColor returns the color for a toggle state string.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "pending":
		return ColorPending
	case "active":
		return ColorActive
	default:
		return ColorIdle
	}
}

// StateGlyph returns a Unicode glyph for a toggle state string.
func StateGlyph(state string) string {
	switch state {
	case "pending":
		return "◎"
	case "active":
		return "●"
	default:
		return "○"
	}
}

// SignalColor returns the color for an RSSI reading in dBm.
func SignalColor(rssi float64) lipgloss.Color {
	switch {
	case rssi > -60:
		return ColorSignalStrong
	case rssi > -80:
		return ColorSignalMid
	default:
		return ColorSignalWeak
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorAccent)
)
