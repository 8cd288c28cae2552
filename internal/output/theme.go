package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Icons used across CLI and TUI output.
const (
	IconRocket  = "🚀"
	IconStar    = "⭐"
	IconCredits = "💰"
	IconDone    = "✅"
	IconTrophy  = "🏆"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconInfo    = "ℹ️"
	IconOrbit   = "🛰️"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	ActivePanel = Panel.BorderForeground(cAccent)
	Selected    = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)
	Grabbed     = lipgloss.NewStyle().Bold(true).Foreground(cAccent).Reverse(true)
)

// Heading renders an icon and a title.
func Heading(icon, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

// LabelValue renders "label: value" with a styled label.
func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}
