package tui

import "github.com/charmbracelet/lipgloss"

// Darkroom palette: cool inks on a dark background, amber for warnings.
var (
	ColorInk       = lipgloss.Color("#E5E9F0")
	ColorDim       = lipgloss.Color("#7A8291")
	ColorAccent    = lipgloss.Color("#88C0D0")
	ColorAccentAlt = lipgloss.Color("#81A1C1")
	ColorSuccess   = lipgloss.Color("#A3BE8C")
	ColorWarn      = lipgloss.Color("#EBCB8B")
)

var (
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
)

// Success renders a line reporting a finished request.
func Success(s string) string { return successStyle.Render(s) }

// Warn renders a line that needs the user's attention.
func Warn(s string) string { return warnStyle.Render(s) }
