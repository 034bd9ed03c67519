// Package kubectl wraps the external kubectl binary. The forward supervisor
// depends only on this CLI contract: a client that can hold a long-lived
// local-port to service-port proxy open and dies on SIGTERM.
package kubectl

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// For mocking in tests.
var (
	binaryName   = "kubectl"
	execLookPath = exec.LookPath
)

// EnsureInstalled verifies the kubectl binary is on PATH.
func EnsureInstalled() error {
	if _, err := execLookPath(binaryName); err != nil {
		return fmt.Errorf("kubectl not found on PATH: %w", err)
	}
	return nil
}

// PortForwardArgs builds the argument list for a long-lived service
// port-forward. The service name may already carry a "service/" or "pod/"
// prefix; bare names default to services.
func PortForwardArgs(kubeContext, namespace, service string, localPort, remotePort int) []string {
	args := []string{"port-forward"}
	if kubeContext != "" {
		args = append(args, "--context", kubeContext)
	}
	if namespace != "" {
		args = append(args, "--namespace", namespace)
	}

	target := service
	if !strings.HasPrefix(service, "service/") && !strings.HasPrefix(service, "pod/") && !strings.HasPrefix(service, "pods/") {
		target = "service/" + service
	}
	return append(args, target, fmt.Sprintf("%d:%d", localPort, remotePort))
}

// PortForwardCommand returns an unstarted command for the given forward
// arguments. The caller owns stdout/stderr wiring and the process lifecycle.
func PortForwardCommand(kubeContext, namespace, service string, localPort, remotePort int) *exec.Cmd {
	return exec.Command(binaryName, PortForwardArgs(kubeContext, namespace, service, localPort, remotePort)...)
}

// ClientVersion returns the kubectl client version string, e.g. "v1.33.0".
func ClientVersion() (string, error) {
	cmd := exec.Command(binaryName, "version", "--client", "--output=json")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("kubectl version failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	// Cheap extraction; the full JSON schema is not worth a struct here.
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, `"gitVersion"`) {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				return strings.Trim(strings.TrimSuffix(strings.TrimSpace(parts[1]), ","), `"`), nil
			}
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}
