package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#9D8CFF"}
	muted  = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}
	green  = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	red    = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(accent).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(muted).
				Border(lipgloss.HiddenBorder(), false, false, true, false).
				Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	okStyle      = lipgloss.NewStyle().Foreground(green).Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(red).Bold(true)
)
