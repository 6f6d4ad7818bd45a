// Package ui holds the terminal styles shared by the CLI commands.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	IconTimer  = "⏱️"
	IconPause  = "⏸️"
	IconDone   = "✅"
	IconFire   = "🔥"
	IconTrophy = "🏆"
	IconWarn   = "⚠️"
	IconError  = "🧨"
	IconChart  = "📊"
	IconLock   = "🔒"
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

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// Clock formats seconds as MM:SS.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Bar draws a fixed width progress bar for a 0..100 percentage.
func Bar(percent float64, width int) string {
	if width < 1 {
		return ""
	}
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(width, filled))
	return Good.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", width-filled))
}

func StateText(state string) string {
	switch state {
	case "running":
		return Good.Render("running")
	case "paused":
		return Warn.Render("paused")
	case "completing":
		return Gold.Render("saving")
	default:
		return Muted.Render(state)
	}
}

// TreeIcon maps a tree stage to its glyph.
func TreeIcon(stage string) string {
	switch stage {
	case "sprout":
		return "🌱"
	case "sapling":
		return "🌿"
	case "young":
		return "🌳"
	case "full":
		return "🌲"
	default:
		return "🫘"
	}
}
