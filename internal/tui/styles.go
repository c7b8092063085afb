package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the editor.
type Styles struct {
	Title    lipgloss.Style
	Step     lipgloss.Style
	Current  lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Selected lipgloss.Style
	ReadOnly lipgloss.Style
	Row      lipgloss.Style
	Sidebar  lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns the default colour scheme.
func DefaultStyles() Styles {
	var (
		primary = lipgloss.Color("#1F4E79")
		muted   = lipgloss.Color("#6C7086")
		fg      = lipgloss.Color("#CDD6F4")
		border  = lipgloss.Color("#45475A")
	)
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(fg).Background(primary).Padding(0, 1),
		Step:     lipgloss.NewStyle().Foreground(muted),
		Current:  lipgloss.NewStyle().Bold(true).Foreground(fg).Background(primary),
		Label:    lipgloss.NewStyle().Bold(true),
		Value:    lipgloss.NewStyle().Foreground(fg),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF")),
		ReadOnly: lipgloss.NewStyle().Foreground(muted).Italic(true),
		Row:      lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		Sidebar:  lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1).MarginRight(1),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		Help:     lipgloss.NewStyle().Foreground(muted),
	}
}
