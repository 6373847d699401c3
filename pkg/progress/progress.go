// Package progress derives completion percentages from a round's ledger.
package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	filledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Percent returns 100*completed/total clamped to [0,100]. A zero total yields 0.
func Percent(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return 100 * float64(completed) / float64(total)
}

// Format renders the status line shown while a search is running.
func Format(phrase string, percent float64) string {
	return fmt.Sprintf("(Search progress for %q: %.1f%%)", phrase, percent)
}

// Bar renders a styled progress bar of the given width followed by the
// percentage.
func Bar(percent float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %5.1f%%", percent)
}
