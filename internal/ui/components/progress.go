package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/engineermaster/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label       string
	Percent     int // 0-100
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent int, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// Filled returns how many of the bar's cells are filled.
func (p ProgressBar) Filled() int {
	w := p.barWidth()
	return max(0, min(w, w*p.Percent/100))
}

func (p ProgressBar) barWidth() int {
	labelWidth := 0
	if p.Label != "" {
		labelWidth = lipgloss.Width(p.Label) + 2
	}
	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6 // "  100%"
	}
	return max(4, p.Width-labelWidth-percentWidth)
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  ")
	}

	filled := p.Filled()
	empty := p.barWidth() - filled
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render(strings.Repeat("█", filled)))
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", empty)))

	if p.ShowPercent {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %d%%", max(0, min(100, p.Percent)))))
	}

	return b.String()
}
