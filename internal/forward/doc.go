// Package forward implements the multi-process port-forward supervisor.
//
// The supervisor launches one kubectl port-forward child per configured
// service, redirects each child's combined output to a dedicated log file,
// and tracks the children by process identifier. Forwards are started in
// caller order; a forward that exits before passing its liveness check is
// fatal to the whole run, and the supervisor tears everything down rather
// than leaving partial forwards running silently.
//
// Lifecycle of a handle:
//
//	Starting -> Running -> Stopped
//	Starting -> Stopped   (shutdown began during the liveness window)
//	Starting -> Failed
//
// Failed is terminal: shutdown does not relabel a failed forward as Stopped,
// since its child already exited on its own.
//
// Shutdown is idempotent and race-safe: signaling a child that already
// exited is ignored, every signaled child is reaped before Shutdown returns,
// and a Start still inside its liveness window is waited out, so no live or
// zombie child processes are left behind on any exit path.
package forward
