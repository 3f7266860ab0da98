package tui

import "github.com/charmbracelet/lipgloss"

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#1B5E20")).
			Bold(true).
			Padding(0, 1)

	HandInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	CurrentHandStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFD700")).
				Bold(true)

	ActionsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	RedCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	BlackCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	HiddenCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	accentColor = lipgloss.Color("#04B575")
	mutedColor  = lipgloss.Color("#626262")
)

// ApplyTheme adjusts card colours for the terminal background. "light"
// draws black cards in black; "dark" and "default" keep them readable on a
// dark background.
func ApplyTheme(name string) {
	switch name {
	case "light":
		BlackCardStyle = BlackCardStyle.Foreground(lipgloss.Color("#000000"))
		InfoStyle = InfoStyle.Foreground(lipgloss.Color("#4A4A4A"))
	case "dark":
		BlackCardStyle = BlackCardStyle.Foreground(lipgloss.Color("#C0C0C0"))
		InfoStyle = InfoStyle.Foreground(lipgloss.Color("#808080"))
	default:
		BlackCardStyle = BlackCardStyle.Foreground(lipgloss.Color("#FAFAFA"))
		InfoStyle = InfoStyle.Foreground(mutedColor)
	}
}
