package present

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the renderers.
type Styles struct {
	Title lipgloss.Style
	Bold  lipgloss.Style
	Body  lipgloss.Style
	Muted lipgloss.Style
	Alert lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#28a745")),
		Bold:  lipgloss.NewStyle().Bold(true),
		Body:  lipgloss.NewStyle(),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d")),
		Alert: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#dc3545")),
	}
}
