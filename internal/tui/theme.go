package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/skncr-ai/scanner/internal/schema"
	"github.com/skncr-ai/scanner/internal/session"
)

var (
	Text    = lipgloss.Color("#cdd6f4")
	Subtext = lipgloss.Color("#a6adc8")
	Surface = lipgloss.Color("#45475a")
	Accent  = lipgloss.Color("#b4befe")
	Green   = lipgloss.Color("#a6e3a1")
	Yellow  = lipgloss.Color("#f9e2af")
	Red     = lipgloss.Color("#f38ba8")
	Blue    = lipgloss.Color("#89b4fa")

	Title = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext)
	Bold  = lipgloss.NewStyle().Foreground(Text).Bold(true)

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface).
		Padding(0, 1)

	badge = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

// BandStyle colours a severity band
func BandStyle(b schema.SeverityBand) lipgloss.Style {
	switch b {
	case schema.BandLow:
		return lipgloss.NewStyle().Foreground(Green)
	case schema.BandModerate:
		return lipgloss.NewStyle().Foreground(Yellow)
	default:
		return lipgloss.NewStyle().Foreground(Red)
	}
}

// VerdictStyle renders a verdict as a badge
func VerdictStyle(v schema.Verdict) lipgloss.Style {
	switch v {
	case schema.VerdictNeed:
		return badge.Foreground(lipgloss.Color("#1e1e2e")).Background(Green)
	case schema.VerdictDontNeed:
		return badge.Foreground(lipgloss.Color("#1e1e2e")).Background(Red)
	default:
		return badge.Foreground(Text).Background(Surface)
	}
}

// StatusStyle colours an ingredient status
func StatusStyle(s schema.IngredientStatus) lipgloss.Style {
	switch s {
	case schema.StatusBeneficial:
		return lipgloss.NewStyle().Foreground(Green).Bold(true)
	case schema.StatusSafe:
		return lipgloss.NewStyle().Foreground(Blue)
	case schema.StatusCaution:
		return lipgloss.NewStyle().Foreground(Yellow)
	case schema.StatusAvoid:
		return lipgloss.NewStyle().Foreground(Red).Bold(true)
	default:
		return Muted
	}
}

// StateStyle renders a pipeline state as a badge
func StateStyle(s session.State) lipgloss.Style {
	switch s {
	case session.Streaming:
		return badge.Foreground(Blue)
	case session.Captured, session.Analyzing:
		return badge.Foreground(Yellow)
	case session.Succeeded:
		return badge.Foreground(Green)
	case session.Failed:
		return badge.Foreground(Red)
	default:
		return badge.Foreground(Subtext)
	}
}
