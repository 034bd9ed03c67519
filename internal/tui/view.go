package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"mongoctl/internal/color"
	"mongoctl/internal/reporting"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cursorStyle = lipgloss.NewStyle().Bold(true)
	helpStyle   = color.MutedStyle
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("mongoctl forwards"))
	b.WriteString("\n\n")

	for i, r := range m.rows {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		line := fmt.Sprintf("%s%s %-14s %-22s %s", prefix, m.stateBadge(r.state), r.label, r.url, pidLabel(r.pid))
		b.WriteString(line)
		b.WriteString("\n")
		if r.lastLog != "" {
			detail := runewidth.Truncate(r.lastLog, max(m.width-6, 20), "…")
			b.WriteString(helpStyle.Render("      " + detail))
			b.WriteString("\n")
		}
	}

	if len(m.recentLogs) > 0 {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("recent activity"))
		b.WriteString("\n")
		for _, line := range m.recentLogs {
			b.WriteString(helpStyle.Render("  " + runewidth.Truncate(line, max(m.width-4, 20), "…")))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.flash != "" {
		b.WriteString(color.InfoStyle.Render(m.flash))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("q: quit  c: copy url  ↑/↓: select"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) stateBadge(state reporting.ForwardState) string {
	switch state {
	case reporting.StateStarting:
		return m.spinner.View()
	case reporting.StateRunning:
		return color.SuccessStyle.Render("●")
	case reporting.StateFailed:
		return color.ErrorStyle.Render("✗")
	case reporting.StateStopped:
		return color.MutedStyle.Render("○")
	default:
		return " "
	}
}

func pidLabel(pid int) string {
	if pid == 0 {
		return ""
	}
	return color.MutedStyle.Render(fmt.Sprintf("pid %d", pid))
}
