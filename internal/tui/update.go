package tui

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"mongoctl/internal/reporting"
	"mongoctl/pkg/logging"
)

type forwardUpdateMsg reporting.ForwardUpdate

type logEntryMsg logging.Entry

// updatesClosedMsg signals that the reporter channel was closed, which
// happens once the supervisor has shut everything down.
type updatesClosedMsg struct{}

type logsClosedMsg struct{}

func waitForUpdate(ch <-chan reporting.ForwardUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return forwardUpdateMsg(update)
	}
}

func waitForLog(ch <-chan logging.Entry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return logsClosedMsg{}
		}
		return logEntryMsg(entry)
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
			return m, nil
		case "c":
			if m.cursor < len(m.rows) {
				url := m.rows[m.cursor].url
				if err := clipboard.WriteAll(url); err != nil {
					m.flash = fmt.Sprintf("clipboard: %v", err)
				} else {
					m.flash = fmt.Sprintf("copied %s", url)
				}
			}
			return m, nil
		}
		return m, nil

	case forwardUpdateMsg:
		m.applyUpdate(reporting.ForwardUpdate(msg))
		return m, waitForUpdate(m.updates)

	case updatesClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case logEntryMsg:
		entry := logging.Entry(msg)
		m.recentLogs = append(m.recentLogs, fmt.Sprintf("[%s] %s", entry.Subsystem, entry.Message))
		if len(m.recentLogs) > maxRecentLogs {
			m.recentLogs = m.recentLogs[len(m.recentLogs)-maxRecentLogs:]
		}
		return m, waitForLog(m.logs)

	case logsClosedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) applyUpdate(update reporting.ForwardUpdate) {
	i, ok := m.index[update.Label]
	if !ok {
		return
	}
	m.rows[i].state = update.State
	if update.PID != 0 {
		m.rows[i].pid = update.PID
	}
	if update.Detail != "" {
		m.rows[i].lastLog = update.Detail
	}
	if update.Err != nil {
		m.rows[i].lastLog = update.Err.Error()
	}
}
