package report

import "github.com/charmbracelet/lipgloss"

// Styles for console output.
var (
	styleTitle = lipgloss.NewStyle().Bold(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"})

	styleWarning = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"})

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"})

	styleMuted = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"})

	// styleSecret draws the operator's eye to credentials that must be
	// saved: they are shown exactly once.
	styleSecret = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"})
)
