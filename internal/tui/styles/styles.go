package styles

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// Colors - Catppuccin Mocha palette
var (
	flavor = catppuccin.Mocha

	Primary   = lipgloss.Color(flavor.Mauve().Hex)
	Secondary = lipgloss.Color(flavor.Green().Hex)
	Accent    = lipgloss.Color(flavor.Peach().Hex)

	Success = lipgloss.Color(flavor.Green().Hex)
	Warning = lipgloss.Color(flavor.Yellow().Hex)
	Error   = lipgloss.Color(flavor.Red().Hex)

	Border    = lipgloss.Color(flavor.Surface1().Hex)
	Text      = lipgloss.Color(flavor.Text().Hex)
	TextMuted = lipgloss.Color(flavor.Subtext0().Hex)
	TextDim   = lipgloss.Color(flavor.Overlay0().Hex)
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextMuted)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Highlight = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Playing = lipgloss.NewStyle().
		Foreground(Success)

	Paused = lipgloss.NewStyle().
		Foreground(Warning)
)

// Border styles
var (
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border)

	FocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary)
)

// Panel creates a styled panel with optional focus.
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title.
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// StatusIcon returns an icon for playback status.
func StatusIcon(playing bool) string {
	if playing {
		return Playing.Render("▶")
	}
	return Paused.Render("⏸")
}

// SourceIcon returns an icon for a playback source.
func SourceIcon(source string) string {
	switch source {
	case "spotify":
		return "🎧"
	case "bluetooth":
		return "📶"
	case "airplay":
		return "📡"
	case "line-in", "optical":
		return "🔌"
	default:
		return "🎵"
	}
}
