// Package apperrors collects the sentinel errors shared across the recording
// engine. Components classify failures with errors.Is rather than type
// switches, matching the rest of the codebase's error handling style.
package apperrors

import "errors"

var (
	// ErrDaemonRunning is returned by Daemon.Start when a pidfile already exists.
	ErrDaemonRunning = errors.New("daemon already running")
	// ErrDaemonNotRunning is returned by Daemon.Stop when no pidfile exists.
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrStatusTransition is returned when a Task or Queue rejects a requested
	// transition because the current status forbids it.
	ErrStatusTransition = errors.New("illegal status transition")
	// ErrDependence is returned when a Task cannot run because its dependency
	// has not reached Completed.
	ErrDependence = errors.New("dependency not completed")
	// ErrCommand is returned when a Task has no command to run.
	ErrCommand = errors.New("task has no command")
	// ErrCycle is returned when adding a task to a queue would create a
	// dependency cycle.
	ErrCycle = errors.New("dependency cycle detected")

	// ErrSpawn wraps a failure to start the external process.
	ErrSpawn = errors.New("failed to spawn process")
	// ErrProcess marks that the subprocess exited non-zero or was terminated.
	// Only ever surfaced from Task.Run when check=true.
	ErrProcess = errors.New("process did not complete successfully")

	// ErrNotFound is returned by Store lookups for a missing entity.
	ErrNotFound = errors.New("entity not found")
)

// DaemonError wraps an unexpected failure inside the daemon run loop. The
// daemon removes its runfile and propagates this before exiting.
type DaemonError struct {
	Err error
}

func (e *DaemonError) Error() string { return "daemon error: " + e.Err.Error() }
func (e *DaemonError) Unwrap() error { return e.Err }

// NewDaemonError wraps err as a DaemonError.
func NewDaemonError(err error) error {
	return &DaemonError{Err: err}
}
