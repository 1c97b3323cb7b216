// Package theme holds the terminal palette and styles for CLI reports.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// Mastery bands
var (
	Strong  = lipgloss.NewStyle().Foreground(Success).Bold(true)
	Steady  = lipgloss.NewStyle().Foreground(Secondary)
	Weak    = lipgloss.NewStyle().Foreground(Accent)
	Failing = lipgloss.NewStyle().Foreground(Error).Bold(true)
)

// Band picks the style for a mastery score in [0, 100].
func Band(mastery float64) lipgloss.Style {
	switch {
	case mastery >= 80:
		return Strong
	case mastery >= 60:
		return Steady
	case mastery >= 40:
		return Weak
	default:
		return Failing
	}
}
