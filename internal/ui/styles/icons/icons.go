package icons

import (
	lipgloss "github.com/charmbracelet/lipgloss"
	styles "github.com/inference-gateway/toolgate/internal/ui/styles"
)

// Status icons
const (
	CheckMark = "✓"
	CrossMark = "✗"
	Warning   = "!"
)

// Icon styles
var (
	CheckMarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(styles.LipglossGreen)).Bold(true)
	CrossMarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(styles.LipglossRed)).Bold(true)
	WarningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(styles.LipglossAmber)).Bold(true)
)

func StyledCheckMark() string {
	return CheckMarkStyle.Render(CheckMark)
}

func StyledCrossMark() string {
	return CrossMarkStyle.Render(CrossMark)
}

func StyledWarning() string {
	return WarningStyle.Render(Warning)
}
