package reporting

import "time"

// ForwardState is the lifecycle state of one managed port-forward.
type ForwardState string

const (
	StateStarting ForwardState = "Starting"
	StateRunning  ForwardState = "Running"
	StateFailed   ForwardState = "Failed"
	StateStopped  ForwardState = "Stopped"
)

// Terminal reports whether no further transitions can follow the state.
func (s ForwardState) Terminal() bool {
	return s == StateFailed || s == StateStopped
}

// ForwardUpdate is one supervisor event: a state transition or a log line
// observed for a forward.
type ForwardUpdate struct {
	Label     string
	State     ForwardState
	PID       int
	LocalPort int
	Detail    string
	Err       error
	Timestamp time.Time
}

// Reporter consumes forward updates. Implementations must be safe for
// concurrent use; the supervisor reports from multiple goroutines.
type Reporter interface {
	Report(ForwardUpdate)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ForwardUpdate)

// Report implements Reporter.
func (f ReporterFunc) Report(u ForwardUpdate) { f(u) }
