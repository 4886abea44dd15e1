package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Lipgloss Color Names - Tokyo Night Theme Hex Values
const (
	LipglossRed     = "#f7768e"
	LipglossGreen   = "#9ece6a"
	LipglossBlue    = "#7aa2f7"
	LipglossMagenta = "#bb9af7"
	LipglossWhite   = "#a9b1d6"
	LipglossGray    = "#565f89"
	LipglossAmber   = "#e0af68"
)

// Theme holds the styles used for terminal output
type Theme struct {
	Header  lipgloss.Style
	Box     lipgloss.Style
	Label   lipgloss.Style
	Text    lipgloss.Style
	Dim     lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Prompt  lipgloss.Style
}

// NewTheme creates the default theme
func NewTheme() *Theme {
	return &Theme{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(LipglossBlue)).
			Bold(true),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(LipglossAmber)).
			Padding(0, 1),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(LipglossMagenta)).
			Bold(true),
		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(LipglossWhite)),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color(LipglossGray)),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(LipglossAmber)),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(LipglossRed)),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(LipglossGreen)),
		Prompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color(LipglossBlue)).
			Bold(true),
	}
}
