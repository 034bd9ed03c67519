package forward

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"mongoctl/internal/color"
	"mongoctl/internal/reporting"
	"mongoctl/pkg/logging"
)

// Sentinel errors for the supervisor's failure taxonomy.
var (
	// ErrStartupFailure means the child exited before passing its liveness
	// check. Fatal to the whole run.
	ErrStartupFailure = errors.New("port-forward exited during startup")
	// ErrDuplicateLocalPort means two specs in one run claim the same local
	// port.
	ErrDuplicateLocalPort = errors.New("local port already claimed by another forward")
	// ErrStartAborted means Shutdown began while the forward was still in
	// its liveness window. The child was terminated and reaped before it
	// ever went Running; the run is ending, not failing.
	ErrStartAborted = errors.New("start aborted by shutdown")
)

const (
	defaultLivenessWindow = 500 * time.Millisecond
	livenessPollInterval  = 25 * time.Millisecond
	killEscalationDelay   = 5 * time.Second
)

// Supervisor owns the set of active forwards and their coordinated shutdown.
// All handles it creates are torn down together: on the first start failure,
// on an interrupt signal, or at normal end of run.
type Supervisor struct {
	reporter       reporting.Reporter
	out            io.Writer
	livenessWindow time.Duration
	logHeadLines   int

	mu           sync.Mutex
	handles      []*Handle
	shuttingDown bool
	stopNoticed  bool
	// stopCh closes when Shutdown begins, so in-flight Start calls abort
	// their liveness wait instead of promoting a doomed child to Running.
	stopCh chan struct{}
}

// Option adjusts Supervisor construction.
type Option func(*Supervisor)

// WithLivenessWindow overrides how long Start waits for an immediate child
// failure to surface before declaring the forward Running.
func WithLivenessWindow(d time.Duration) Option {
	return func(s *Supervisor) { s.livenessWindow = d }
}

// WithOutput redirects operator-facing status lines (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(s *Supervisor) { s.out = w }
}

// WithLogHeadLines bounds the log excerpt printed on startup failure.
func WithLogHeadLines(n int) Option {
	return func(s *Supervisor) { s.logHeadLines = n }
}

// New creates a Supervisor reporting state transitions to the given reporter.
func New(reporter reporting.Reporter, opts ...Option) *Supervisor {
	if reporter == nil {
		reporter = reporting.ReporterFunc(func(reporting.ForwardUpdate) {})
	}
	s := &Supervisor{
		reporter:       reporter,
		out:            os.Stdout,
		livenessWindow: defaultLivenessWindow,
		logHeadLines:   defaultLogHeadLines,
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Supervisor) report(spec Spec, state reporting.ForwardState, pid int, detail string, err error) {
	s.reporter.Report(reporting.ForwardUpdate{
		Label:     spec.Label,
		State:     state,
		PID:       pid,
		LocalPort: spec.LocalPort,
		Detail:    detail,
		Err:       err,
		Timestamp: time.Now(),
	})
}

// Start launches the forward described by spec and waits out the liveness
// window. On success the returned handle is Running. If the child exits
// before the window closes, Start replays the captured log head to the
// operator and returns an error wrapping ErrStartupFailure; the caller is
// expected to tear the whole run down.
func (s *Supervisor) Start(spec Spec) (*Handle, error) {
	handle := &Handle{
		Spec:      spec,
		state:     reporting.StateStarting,
		startDone: make(chan struct{}),
	}

	// Reserve the local port and register the handle in one critical
	// section, so a concurrent Start cannot claim the same port and a
	// concurrent Shutdown always sees the handle.
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return nil, fmt.Errorf("supervisor is shutting down, refusing to start %q", spec.Label)
	}
	for _, h := range s.handles {
		if h.Spec.LocalPort == spec.LocalPort {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: port %d requested by %q, held by %q",
				ErrDuplicateLocalPort, spec.LocalPort, spec.Label, h.Spec.Label)
		}
	}
	s.handles = append(s.handles, handle)
	s.mu.Unlock()
	defer close(handle.startDone)

	s.report(spec, reporting.StateStarting, 0, "", nil)
	fmt.Fprintf(s.out, "Starting %s: localhost:%d -> %s/%s:%d ...\n",
		color.LabelStyle.Render(spec.Label), spec.LocalPort, spec.Namespace, spec.Service, spec.RemotePort)

	cmd, waitCh, err := launch(spec)
	if err != nil {
		handle.setState(reporting.StateFailed)
		s.removeHandle(handle)
		s.report(spec, reporting.StateFailed, 0, "", err)
		fmt.Fprintln(s.out, color.Failed(fmt.Sprintf("%s: %v", spec.Label, err)))
		return nil, err
	}

	handle.mu.Lock()
	handle.pid = cmd.Process.Pid
	handle.cmd = cmd
	handle.waitCh = waitCh
	handle.mu.Unlock()
	s.report(spec, reporting.StateStarting, handle.PID(), "child started", nil)

	// Liveness check: a bounded wait that observes an early exit. Polling
	// keeps the window adjustable without coupling it to the exact failure
	// moment.
	deadline := time.NewTimer(s.livenessWindow)
	defer deadline.Stop()
	ticker := time.NewTicker(livenessPollInterval)
	defer ticker.Stop()
	for {
		select {
		case waitErr := <-waitCh:
			handle.setState(reporting.StateFailed)
			failure := fmt.Errorf("%w: %s (pid %d) exited: %v", ErrStartupFailure, spec.Label, handle.PID(), waitErr)
			s.report(spec, reporting.StateFailed, handle.PID(), "", failure)
			s.printLogHead(spec)
			return handle, failure
		case <-s.stopCh:
			// Shutdown began mid-liveness. This Start still owns the
			// child's waitCh, so it reaps the child here; Shutdown is
			// blocked on startDone until we return.
			s.terminate(handle)
			return handle, fmt.Errorf("%w: %s", ErrStartAborted, spec.Label)
		case <-ticker.C:
			// Re-check until the window closes.
		case <-deadline.C:
			handle.setState(reporting.StateRunning)
			s.report(spec, reporting.StateRunning, handle.PID(), "liveness check passed", nil)
			fmt.Fprintln(s.out, color.OK(fmt.Sprintf("%s running (pid %d)", spec.Label, handle.PID())))
			return handle, nil
		}
	}
}

// removeHandle drops a handle whose child never started, releasing its port
// reservation.
func (s *Supervisor) removeHandle(target *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.handles {
		if h == target {
			s.handles = append(s.handles[:i], s.handles[i+1:]...)
			return
		}
	}
}

// printLogHead surfaces the first lines of the failed forward's log so the
// operator can diagnose without re-running.
func (s *Supervisor) printLogHead(spec Spec) {
	head, err := logHead(spec.LogPath, s.logHeadLines)
	if err != nil {
		fmt.Fprintln(s.out, color.Failed(fmt.Sprintf("%s failed to start; could not read log %s: %v", spec.Label, spec.LogPath, err)))
		return
	}
	fmt.Fprintln(s.out, color.Failed(fmt.Sprintf("%s failed to start; output from %s:", spec.Label, spec.LogPath)))
	for _, line := range head {
		fmt.Fprintf(s.out, "  %s\n", color.MutedStyle.Render(line))
	}
}

// terminate stops one live child and reaps it, escalating to SIGKILL when
// SIGTERM is ignored. The caller must own the handle's waitCh: either the
// Start that launched the child (during its liveness window) or Shutdown
// (after startDone closed). Signaling a process that already exited is a
// non-event.
func (s *Supervisor) terminate(h *Handle) {
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// The child raced us to the exit. Nothing to do.
		if logging.DebugEnabled() {
			logging.Debug("supervisor", "signal to %s (pid %d) failed: %v", h.Spec.Label, h.PID(), err)
		}
	}
	select {
	case <-h.waitCh:
	case <-time.After(killEscalationDelay):
		logging.Warn("supervisor", "%s (pid %d) ignored SIGTERM, killing", h.Spec.Label, h.PID())
		_ = h.cmd.Process.Kill()
		<-h.waitCh
	}
	h.setState(reporting.StateStopped)
	s.report(h.Spec, reporting.StateStopped, h.PID(), "terminated", nil)
}

// Shutdown terminates every live forward and reaps the children. It is
// idempotent and safe to call from the failure path, a signal handler, and
// the normal end of run, including while a Start is still inside its
// liveness window: that Start observes stopCh and reaps its own child, and
// Shutdown waits for it before returning.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	if !s.shuttingDown {
		s.shuttingDown = true
		close(s.stopCh)
	}
	handles := make([]*Handle, len(s.handles))
	copy(handles, s.handles)
	announce := !s.stopNoticed && len(handles) > 0
	if announce {
		s.stopNoticed = true
	}
	s.mu.Unlock()

	if announce {
		fmt.Fprintln(s.out, "Stopping port-forwards...")
	}

	for _, h := range handles {
		// An in-flight Start owns the child until its liveness phase
		// ends; wait it out so waitCh has exactly one consumer.
		<-h.startDone
		if h.State() != reporting.StateRunning {
			// Failed and aborted children already exited and were
			// reaped. A Failed handle keeps its state rather than
			// masking the failure as an orderly stop.
			continue
		}
		s.terminate(h)
	}

	s.mu.Lock()
	s.handles = nil
	s.mu.Unlock()

	if announce {
		fmt.Fprintln(s.out, "All port-forwards stopped.")
	}
}

// Run starts every spec in order, prints the browse addresses once all are
// Running, and blocks until ctx is canceled (the caller wires ctx to
// SIGINT/SIGTERM). Any start failure aborts the whole batch: a partially-up
// set of forwards is worse than none.
func (s *Supervisor) Run(ctx context.Context, specs []Spec) error {
	for _, spec := range specs {
		if _, err := s.Start(spec); err != nil {
			s.Shutdown()
			if errors.Is(err, ErrStartAborted) {
				// A concurrent Shutdown ended the run; not a failure.
				return nil
			}
			return err
		}
	}

	fmt.Fprintln(s.out, color.OK(fmt.Sprintf("All %d port-forwards running:", len(specs))))
	for _, spec := range specs {
		fmt.Fprintf(s.out, "  %s  %s\n", color.LabelStyle.Render(spec.Label), color.InfoStyle.Render(spec.LocalURL()))
	}
	fmt.Fprintln(s.out, color.MutedStyle.Render("Press Ctrl+C to stop."))

	<-ctx.Done()
	s.Shutdown()
	return nil
}

// Handles returns a snapshot of the supervisor's handle set.
func (s *Supervisor) Handles() []HandleInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]HandleInfo, 0, len(s.handles))
	for _, h := range s.handles {
		infos = append(infos, HandleInfo{Spec: h.Spec, PID: h.PID(), State: h.State()})
	}
	return infos
}

// RunningCount returns how many handles are currently Running.
func (s *Supervisor) RunningCount() int {
	n := 0
	for _, info := range s.Handles() {
		if info.State == reporting.StateRunning {
			n++
		}
	}
	return n
}
