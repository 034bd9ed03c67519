package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mongoctl/internal/forward"
	"mongoctl/internal/reporting"
	"mongoctl/pkg/logging"
)

// row is the render state for one forward.
type row struct {
	label     string
	localPort int
	url       string
	state     reporting.ForwardState
	pid       int
	lastLog   string
}

// Model is the forward dashboard: one row per forward plus a scrolling
// window of recent log entries.
type Model struct {
	updates <-chan reporting.ForwardUpdate
	logs    <-chan logging.Entry

	rows    []row
	index   map[string]int
	cursor  int
	spinner spinner.Model

	recentLogs []string
	width      int
	flash      string
	quitting   bool
}

const maxRecentLogs = 8

// New builds the dashboard model. Rows appear in spec order; updates are
// drained from the supervisor's reporter channel and log lines from the
// logging channel.
func New(specs []forward.Spec, updates <-chan reporting.ForwardUpdate, logs <-chan logging.Entry) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	rows := make([]row, len(specs))
	index := make(map[string]int, len(specs))
	for i, spec := range specs {
		rows[i] = row{
			label:     spec.Label,
			localPort: spec.LocalPort,
			url:       spec.LocalURL(),
			state:     reporting.StateStarting,
		}
		index[spec.Label] = i
	}

	return Model{
		updates: updates,
		logs:    logs,
		rows:    rows,
		index:   index,
		spinner: sp,
		width:   80,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates), waitForLog(m.logs))
}

// Quitting reports whether the user asked to leave; the caller tears the
// supervisor down after the program exits.
func (m Model) Quitting() bool { return m.quitting }
