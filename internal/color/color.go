package color

import (
	"github.com/charmbracelet/lipgloss"
)

// Semantic colors, adaptive to the terminal background. lipgloss downgrades
// them automatically on terminals without TrueColor and honors NO_COLOR.
var (
	successColor = lipgloss.AdaptiveColor{Light: "#027A48", Dark: "#12B76A"}
	warnColor    = lipgloss.AdaptiveColor{Light: "#B54708", Dark: "#F79009"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#B42318", Dark: "#F04438"}
	infoColor    = lipgloss.AdaptiveColor{Light: "#175CD3", Dark: "#53B1FD"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#667085", Dark: "#98A2B3"}
)

// Styles used for operator-facing status lines.
var (
	SuccessStyle = lipgloss.NewStyle().Foreground(successColor)
	WarnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(infoColor)
	MutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	LabelStyle   = lipgloss.NewStyle().Bold(true)
)

// Initialize pins the dark/light background decision. Must be called before
// any style renders when the caller wants a deterministic theme (tests, TUI).
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}

// OK renders a green check-marked status line fragment.
func OK(s string) string { return SuccessStyle.Render("✓ " + s) }

// Warning renders a yellow warning fragment.
func Warning(s string) string { return WarnStyle.Render("! " + s) }

// Failed renders a red cross-marked fragment.
func Failed(s string) string { return ErrorStyle.Render("✗ " + s) }
