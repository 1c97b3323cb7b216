package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/prepcoach/internal/ui/theme"
)

// MasteryBar is a horizontal bar for a 0-100 mastery score.
type MasteryBar struct {
	Label   string
	Mastery float64
	Width   int
}

// NewMasteryBar creates a bar of the given total width.
func NewMasteryBar(label string, mastery float64, width int) MasteryBar {
	return MasteryBar{Label: label, Mastery: mastery, Width: width}
}

// Filled returns how many of n cells the score fills.
func (b MasteryBar) Filled(n int) int {
	filled := int(float64(n) * b.Mastery / 100)
	if filled > n {
		return n
	}
	if filled < 0 {
		return 0
	}
	return filled
}

// View renders label, bar and percentage.
func (b MasteryBar) View() string {
	var result string
	if b.Label != "" {
		result += theme.Body.Render(b.Label) + "  "
	}

	barWidth := b.Width - lipgloss.Width(result) - 6 // "  100%"
	if barWidth < 4 {
		barWidth = 4
	}
	filled := b.Filled(barWidth)

	result += theme.Band(b.Mastery).Render(strings.Repeat("█", filled))
	result += lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", barWidth-filled))
	result += theme.Hint.Render(fmt.Sprintf("  %3.0f%%", b.Mastery))
	return result
}
