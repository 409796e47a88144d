// Package themes holds the lipgloss styles of the order dashboard.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	Header        lipgloss.Style
	Cell          lipgloss.Style
	Selected      lipgloss.Style
	Marked        lipgloss.Style
	CurrentPage   lipgloss.Style
	Page          lipgloss.Style
	FilterChip    lipgloss.Style
	BorderedBox   lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusPending lipgloss.Style
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Error         lipgloss.Color
	Info          lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	MutedColor    lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary:    lipgloss.Color("#7c3aed"),
	Secondary:  lipgloss.Color("#a78bfa"),
	Success:    lipgloss.Color("#10b981"),
	Warning:    lipgloss.Color("#f59e0b"),
	Error:      lipgloss.Color("#ef4444"),
	Info:       lipgloss.Color("#3b82f6"),
	Foreground: lipgloss.Color("#fafafa"),
	Border:     lipgloss.Color("#404040"),
	MutedColor: lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),

	Header: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#a78bfa")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		BorderBottom(true),
	Cell: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#7c3aed")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),
	Marked: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")).
		Bold(true),

	CurrentPage: lipgloss.NewStyle().
		Background(lipgloss.Color("#7c3aed")).
		Foreground(lipgloss.Color("#fafafa")).
		Padding(0, 1),
	Page: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")).
		Padding(0, 1),
	FilterChip: lipgloss.NewStyle().
		Background(lipgloss.Color("#262626")).
		Foreground(lipgloss.Color("#e5e5e5")).
		Padding(0, 1),
	BorderedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),

	StatusSuccess: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")).
		Bold(true),
	StatusWarning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")).
		Bold(true),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")).
		Bold(true),
	StatusPending: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")).
		Italic(true),
}

// Plain has no colors, for dumb terminals and golden tests.
var Plain = Theme{
	Title:         lipgloss.NewStyle().Bold(true),
	Subtitle:      lipgloss.NewStyle(),
	Normal:        lipgloss.NewStyle(),
	Bold:          lipgloss.NewStyle().Bold(true),
	Muted:         lipgloss.NewStyle(),
	Header:        lipgloss.NewStyle().Bold(true),
	Cell:          lipgloss.NewStyle(),
	Selected:      lipgloss.NewStyle().Reverse(true),
	Marked:        lipgloss.NewStyle(),
	CurrentPage:   lipgloss.NewStyle().Reverse(true).Padding(0, 1),
	Page:          lipgloss.NewStyle().Padding(0, 1),
	FilterChip:    lipgloss.NewStyle().Padding(0, 1),
	BorderedBox:   lipgloss.NewStyle(),
	StatusSuccess: lipgloss.NewStyle(),
	StatusWarning: lipgloss.NewStyle(),
	StatusError:   lipgloss.NewStyle(),
	StatusInfo:    lipgloss.NewStyle(),
	StatusPending: lipgloss.NewStyle(),
}

// StatusStyle returns the style of an order status label.
func (t Theme) StatusStyle(status string) lipgloss.Style {
	switch status {
	case "Pending":
		return t.StatusWarning
	case "Delivered":
		return t.StatusInfo
	case "Sold":
		return t.StatusSuccess
	default:
		return t.Normal
	}
}
