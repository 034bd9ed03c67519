package forward

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"mongoctl/internal/kubectl"
)

// newForwardCommand builds the unstarted child process for a spec. Tests
// substitute it with a dummy proxy.
var newForwardCommand = func(spec Spec) *exec.Cmd {
	return kubectl.PortForwardCommand(spec.KubeContext, spec.Namespace, spec.Service, spec.LocalPort, spec.RemotePort)
}

// launch starts the forward child process with combined stdout/stderr
// redirected to the spec's log sink. It returns the running command and a
// buffered channel that receives the cmd.Wait result once the child exits.
func launch(spec Spec) (*exec.Cmd, chan error, error) {
	sink, err := openLogSink(spec.LogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log sink for %s: %w", spec.Label, err)
	}

	cmd := newForwardCommand(spec)
	cmd.Stdout = sink
	cmd.Stderr = sink

	if err := cmd.Start(); err != nil {
		sink.Close()
		return nil, nil, fmt.Errorf("starting forward %s: %w", spec.Label, err)
	}

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
		sink.Close()
	}()
	return cmd, waitCh, nil
}

// openLogSink creates (or truncates) the per-forward log file.
func openLogSink(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
}
