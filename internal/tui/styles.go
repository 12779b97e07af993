package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	errorColor     = lipgloss.Color("#EF4444") // Red
	warningColor   = lipgloss.Color("#F59E0B") // Amber/Yellow

	// Header styles
	headerContainerStyle = lipgloss.NewStyle().
				Background(primaryColor)

	headerBrandStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(primaryColor).
				Padding(0, 1)

	headerStatsStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#E0E0E0")).
				Background(primaryColor).
				Padding(0, 1)

	headerRunningStyle = lipgloss.NewStyle().
				Foreground(secondaryColor).
				Background(primaryColor)

	// Status line
	statusStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	statusSpinnerStyle = lipgloss.NewStyle().
				Foreground(primaryColor)

	// Output view, one style per topic
	outputEmptyStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Padding(1, 2)

	outputStatusStyle       = lipgloss.NewStyle().Foreground(primaryColor)
	outputInstallStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	outputInstallErrorStyle = lipgloss.NewStyle().Foreground(warningColor)
	outputNodeErrorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	outputSettingsStyle     = lipgloss.NewStyle().Foreground(secondaryColor)

	// Error display styles
	errorBarStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Padding(0, 1)
)
