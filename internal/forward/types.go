package forward

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"

	"mongoctl/internal/config"
	"mongoctl/internal/reporting"
)

// Spec describes one requested port-forward. Immutable once constructed; one
// instance per forward in a run.
type Spec struct {
	Label       string
	Service     string
	Namespace   string
	KubeContext string
	LocalPort   int
	RemotePort  int
	// LogPath is the per-forward log sink, overwritten each run.
	LogPath string
}

// LocalURL is the address an operator browses to once the forward is up.
func (s Spec) LocalURL() string {
	return fmt.Sprintf("http://localhost:%d", s.LocalPort)
}

// SpecsFromConfig expands the configured forward definitions into specs,
// applying the top-level namespace and context fallbacks and placing each log
// sink under the configured log directory.
func SpecsFromConfig(cfg config.Config) []Spec {
	specs := make([]Spec, 0, len(cfg.Forwards))
	for _, def := range cfg.Forwards {
		namespace := def.Namespace
		if namespace == "" {
			namespace = cfg.Namespace
		}
		kubeContext := def.KubeContext
		if kubeContext == "" {
			kubeContext = cfg.KubeContext
		}
		specs = append(specs, Spec{
			Label:       def.Label,
			Service:     def.Service,
			Namespace:   namespace,
			KubeContext: kubeContext,
			LocalPort:   def.LocalPort,
			RemotePort:  def.RemotePort,
			LogPath:     filepath.Join(cfg.LogDir, def.Label+".log"),
		})
	}
	return specs
}

// Handle tracks one launched forward: its spec, the child process, and the
// lifecycle state. Handles are owned by the Supervisor; nothing else mutates
// them.
type Handle struct {
	Spec Spec

	mu    sync.Mutex
	state reporting.ForwardState
	pid   int

	cmd *exec.Cmd
	// waitCh receives the cmd.Wait result exactly once. Whoever consumes it
	// has reaped the child.
	waitCh chan error
	// startDone closes when the Start call that registered the handle has
	// left its liveness phase. Shutdown waits on it before touching the
	// handle, so waitCh never has two consumers.
	startDone chan struct{}
}

// State returns the handle's current lifecycle state.
func (h *Handle) State() reporting.ForwardState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// PID returns the child process identifier.
func (h *Handle) PID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pid
}

func (h *Handle) setState(s reporting.ForwardState) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// HandleInfo is a point-in-time snapshot of a handle, safe to hand out.
type HandleInfo struct {
	Spec  Spec
	PID   int
	State reporting.ForwardState
}
