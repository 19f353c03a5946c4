package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/engineermaster/internal/achievement"
	"github.com/abhisek/engineermaster/internal/skilltree"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate

	Bronze   = lipgloss.Color("#CD7F32")
	Silver   = lipgloss.Color("#C0C0C0")
	Gold     = lipgloss.Color("#FACC15")
	Platinum = lipgloss.Color("#67E8F9")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Good = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Bad = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Highlight = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)
)

// Card frames a block of output.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border).
	Padding(0, 1)

// StatusColor returns the color used for a node status.
func StatusColor(s skilltree.Status) color.Color {
	switch s {
	case skilltree.StatusCompleted:
		return Success
	case skilltree.StatusInProgress:
		return Accent
	case skilltree.StatusAvailable:
		return Secondary
	default:
		return TextDim
	}
}

// Status renders a status label in its color.
func Status(s skilltree.Status) string {
	return lipgloss.NewStyle().Foreground(StatusColor(s)).Render(s.Icon() + " " + s.Label())
}

// TierColor returns the color of an achievement tier.
func TierColor(t achievement.Tier) color.Color {
	switch t {
	case achievement.TierBronze:
		return Bronze
	case achievement.TierSilver:
		return Silver
	case achievement.TierGold:
		return Gold
	case achievement.TierPlatinum:
		return Platinum
	default:
		return TextDim
	}
}

// Tier renders a tier badge.
func Tier(t achievement.Tier) string {
	return lipgloss.NewStyle().Foreground(TierColor(t)).Bold(true).Render(t.Icon() + " " + t.DisplayName())
}
