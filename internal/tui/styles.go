package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/frames2sprite/internal/engine"
)

var (
	// Colors
	colorHeader  = lipgloss.Color("12") // bright blue
	colorMuted   = lipgloss.Color("8")  // dim
	colorPlaying = lipgloss.Color("2")  // green
	colorWarn    = lipgloss.Color("3")  // yellow
	colorError   = lipgloss.Color("1")  // red

	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeader)

	subheaderStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	playingStyle = lipgloss.NewStyle().
			Foreground(colorPlaying).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	notificationBarStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Italic(true)

	canvasBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(colorMuted)
)

func noticeStyle(level engine.Level) lipgloss.Style {
	switch level {
	case engine.LevelWarn:
		return notificationBarStyle.Foreground(colorWarn)
	case engine.LevelError:
		return notificationBarStyle.Foreground(colorError).Bold(true)
	default:
		return notificationBarStyle
	}
}
