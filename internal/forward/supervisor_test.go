package forward

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mongoctl/internal/reporting"
)

// stubForwardCommand replaces the kubectl child with an arbitrary shell
// command for the duration of the test.
func stubForwardCommand(t *testing.T, script string) {
	t.Helper()
	original := newForwardCommand
	newForwardCommand = func(Spec) *exec.Cmd {
		return exec.Command("sh", "-c", script)
	}
	t.Cleanup(func() { newForwardCommand = original })
}

// collectingReporter records every update it sees.
type collectingReporter struct {
	mu      sync.Mutex
	updates []reporting.ForwardUpdate
}

func (c *collectingReporter) Report(u reporting.ForwardUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
}

func (c *collectingReporter) statesFor(label string) []reporting.ForwardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	var states []reporting.ForwardState
	for _, u := range c.updates {
		if u.Label == label {
			states = append(states, u.State)
		}
	}
	return states
}

func testSpec(t *testing.T, label string, localPort int) Spec {
	t.Helper()
	return Spec{
		Label:      label,
		Service:    label + "-svc",
		Namespace:  "mongo",
		LocalPort:  localPort,
		RemotePort: localPort,
		LogPath:    filepath.Join(t.TempDir(), label+".log"),
	}
}

func TestStartReachesRunning(t *testing.T) {
	stubForwardCommand(t, "sleep 30")
	rep := &collectingReporter{}
	var out bytes.Buffer
	s := New(rep, WithOutput(&out), WithLivenessWindow(50*time.Millisecond))
	defer s.Shutdown()

	handle, err := s.Start(testSpec(t, "mongodb", 37017))
	require.NoError(t, err)
	assert.Equal(t, reporting.StateRunning, handle.State())
	assert.Greater(t, handle.PID(), 0)
	assert.Contains(t, out.String(), "mongodb running")
}

func TestStartFailureSurfacesLog(t *testing.T) {
	stubForwardCommand(t, `echo "error: services \"bad-svc\" not found" >&2; exit 1`)
	rep := &collectingReporter{}
	var out bytes.Buffer
	s := New(rep, WithOutput(&out), WithLivenessWindow(300*time.Millisecond))

	handle, err := s.Start(testSpec(t, "bad", 39090))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStartupFailure)
	assert.Equal(t, reporting.StateFailed, handle.State())
	assert.Contains(t, out.String(), "failed to start")
	assert.Contains(t, out.String(), `services "bad-svc" not found`, "captured log must be replayed")
}

func TestStartDuplicateLocalPort(t *testing.T) {
	stubForwardCommand(t, "sleep 30")
	s := New(nil, WithOutput(&bytes.Buffer{}), WithLivenessWindow(50*time.Millisecond))
	defer s.Shutdown()

	_, err := s.Start(testSpec(t, "first", 39091))
	require.NoError(t, err)

	_, err = s.Start(testSpec(t, "second", 39091))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateLocalPort)
}

func TestShutdownStopsAndReaps(t *testing.T) {
	stubForwardCommand(t, "sleep 30")
	rep := &collectingReporter{}
	var out bytes.Buffer
	s := New(rep, WithOutput(&out), WithLivenessWindow(50*time.Millisecond))

	h1, err := s.Start(testSpec(t, "a", 39092))
	require.NoError(t, err)
	h2, err := s.Start(testSpec(t, "b", 39093))
	require.NoError(t, err)

	s.Shutdown()

	assert.Equal(t, reporting.StateStopped, h1.State())
	assert.Equal(t, reporting.StateStopped, h2.State())
	// Reaped: Wait has returned, so ProcessState is populated.
	assert.NotNil(t, h1.cmd.ProcessState)
	assert.NotNil(t, h2.cmd.ProcessState)
	assert.Empty(t, s.Handles(), "supervisor state is cleared after shutdown")
	assert.Contains(t, out.String(), "All port-forwards stopped.")
}

func TestShutdownIsIdempotent(t *testing.T) {
	stubForwardCommand(t, "sleep 30")
	var out bytes.Buffer
	s := New(nil, WithOutput(&out), WithLivenessWindow(50*time.Millisecond))

	_, err := s.Start(testSpec(t, "a", 39094))
	require.NoError(t, err)

	s.Shutdown()
	s.Shutdown()

	assert.Equal(t, 1, strings.Count(out.String(), "Stopping port-forwards..."),
		"stopping notice is emitted once")
	assert.Empty(t, s.Handles())
}

func TestRunHappyPathAndSignal(t *testing.T) {
	stubForwardCommand(t, "sleep 30")
	rep := &collectingReporter{}
	var out bytes.Buffer
	s := New(rep, WithOutput(&out), WithLivenessWindow(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	specs := []Spec{testSpec(t, "prom", 39095), testSpec(t, "graf", 39096)}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, specs) }()

	// Wait until both forwards are up before "signaling".
	require.Eventually(t, func() bool { return s.RunningCount() == 2 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "operator interrupt is a clean exit")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.Equal(t, 0, s.RunningCount())
	assert.Contains(t, out.String(), "http://localhost:39095")
	assert.Contains(t, out.String(), "http://localhost:39096")
}

func TestRunFailFast(t *testing.T) {
	// First child stays up, second exits immediately: the whole batch must
	// come down.
	calls := 0
	original := newForwardCommand
	newForwardCommand = func(Spec) *exec.Cmd {
		calls++
		if calls == 1 {
			return exec.Command("sleep", "30")
		}
		return exec.Command("sh", "-c", "echo connection refused >&2; exit 1")
	}
	t.Cleanup(func() { newForwardCommand = original })

	rep := &collectingReporter{}
	var out bytes.Buffer
	s := New(rep, WithOutput(&out), WithLivenessWindow(200*time.Millisecond))

	err := s.Run(context.Background(), []Spec{
		testSpec(t, "good", 39097),
		testSpec(t, "bad", 39098),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStartupFailure)
	assert.Equal(t, 0, s.RunningCount(), "no forward may survive a batch failure")

	goodStates := rep.statesFor("good")
	assert.Equal(t, reporting.StateStopped, goodStates[len(goodStates)-1],
		"the healthy forward is torn down too")
}

func TestStartAfterShutdownRefused(t *testing.T) {
	stubForwardCommand(t, "sleep 30")
	s := New(nil, WithOutput(&bytes.Buffer{}), WithLivenessWindow(50*time.Millisecond))
	s.Shutdown()

	_, err := s.Start(testSpec(t, "late", 39099))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrStartupFailure))
}

func TestShutdownDuringStartReapsChild(t *testing.T) {
	stubForwardCommand(t, "sleep 30")
	rep := &collectingReporter{}
	var out bytes.Buffer
	s := New(rep, WithOutput(&out), WithLivenessWindow(400*time.Millisecond))

	spec := testSpec(t, "mongodb", 37117)

	type startResult struct {
		handle *Handle
		err    error
	}
	resultCh := make(chan startResult, 1)
	go func() {
		handle, err := s.Start(spec)
		resultCh <- startResult{handle, err}
	}()

	// Shut down while the forward is still inside its liveness window.
	require.Eventually(t, func() bool { return len(s.Handles()) == 1 }, time.Second, 5*time.Millisecond)
	s.Shutdown()

	res := <-resultCh
	require.ErrorIs(t, res.err, ErrStartAborted)
	require.NotNil(t, res.handle)
	assert.Equal(t, reporting.StateStopped, res.handle.State())

	// The child must be gone once Shutdown has returned: signaling its pid
	// fails because the process was terminated and reaped.
	assert.Error(t, syscall.Kill(res.handle.PID(), 0))
	assert.Empty(t, s.Handles())
}

func TestRunReturnsNilWhenShutdownInterruptsStart(t *testing.T) {
	stubForwardCommand(t, "sleep 30")
	var out bytes.Buffer
	s := New(nil, WithOutput(&out), WithLivenessWindow(400*time.Millisecond))

	specs := []Spec{testSpec(t, "mongodb", 37217)}
	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background(), specs)
	}()

	require.Eventually(t, func() bool { return len(s.Handles()) == 1 }, time.Second, 5*time.Millisecond)
	s.Shutdown()

	require.NoError(t, <-done)
	assert.Empty(t, s.Handles())
}

func TestConcurrentStartsRejectDuplicatePort(t *testing.T) {
	stubForwardCommand(t, "sleep 30")
	s := New(nil, WithOutput(io.Discard), WithLivenessWindow(50*time.Millisecond))
	defer s.Shutdown()

	specs := []Spec{
		testSpec(t, "mongodb", 37317),
		testSpec(t, "replica", 37317),
	}

	errCh := make(chan error, len(specs))
	var wg sync.WaitGroup
	for _, spec := range specs {
		wg.Add(1)
		go func(spec Spec) {
			defer wg.Done()
			_, err := s.Start(spec)
			errCh <- err
		}(spec)
	}
	wg.Wait()
	close(errCh)

	started, rejected := 0, 0
	for err := range errCh {
		switch {
		case err == nil:
			started++
		case errors.Is(err, ErrDuplicateLocalPort):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, rejected)
}

func TestShutdownLeavesFailedHandleFailed(t *testing.T) {
	stubForwardCommand(t, "exit 1")
	rep := &collectingReporter{}
	s := New(rep, WithOutput(io.Discard), WithLivenessWindow(300*time.Millisecond))

	handle, err := s.Start(testSpec(t, "mongodb", 37417))
	require.ErrorIs(t, err, ErrStartupFailure)
	require.Equal(t, reporting.StateFailed, handle.State())

	s.Shutdown()

	assert.Equal(t, reporting.StateFailed, handle.State())
	for _, state := range rep.statesFor("mongodb") {
		assert.NotEqual(t, reporting.StateStopped, state, "failed forward must not be relabeled Stopped")
	}
}
