package reporting

import (
	"fmt"
	"time"

	"mongoctl/pkg/logging"
)

// ConsoleReporter logs forward updates through pkg/logging and tracks state
// in a StateStore so repeated reports of an unchanged state stay quiet.
type ConsoleReporter struct {
	store *StateStore
}

// NewConsoleReporter creates a ConsoleReporter with its own state store.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{store: NewStateStore()}
}

// Report implements Reporter.
func (c *ConsoleReporter) Report(u ForwardUpdate) {
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now()
	}

	changed := c.store.Set(u)
	if !changed && u.State != StateFailed && u.Err == nil {
		return
	}

	subsystem := "forward-" + u.Label
	msg := "state: " + string(u.State)
	if u.LocalPort > 0 {
		msg += fmt.Sprintf(", local port: %d", u.LocalPort)
	}
	if u.PID > 0 {
		msg += fmt.Sprintf(", pid: %d", u.PID)
	}
	if u.Detail != "" {
		msg += ", " + u.Detail
	}

	switch {
	case u.Err != nil:
		logging.Error(subsystem, u.Err, "%s", msg)
	case u.State == StateFailed:
		logging.Error(subsystem, nil, "%s", msg)
	case u.State == StateRunning || u.State.Terminal():
		logging.Info(subsystem, "%s", msg)
	default:
		logging.Debug(subsystem, "%s", msg)
	}
}
