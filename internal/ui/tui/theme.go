package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles the screens share. Colors come from the
// 256-color palette so the TUI degrades gracefully on non-truecolor terminals.
type Styles struct {
	Heading lipgloss.Style
	Tagline lipgloss.Style
	Hint    lipgloss.Style
	Panel   lipgloss.Style
	Toast   lipgloss.Style
	Pass    lipgloss.Style
	Fail    lipgloss.Style
}

func DefaultStyles() Styles {
	accent := lipgloss.Color("36")
	dim := lipgloss.Color("243")
	box := lipgloss.RoundedBorder()

	return Styles{
		Heading: lipgloss.NewStyle().Bold(true).Foreground(accent),
		Tagline: lipgloss.NewStyle().Foreground(dim),
		Hint:    lipgloss.NewStyle().Foreground(dim),
		Panel: lipgloss.NewStyle().
			BorderStyle(box).
			BorderForeground(accent).
			Padding(1, 2),
		Toast: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		Pass:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("35")),
		Fail:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}
