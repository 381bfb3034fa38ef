// Package task gives model.Task behaviour: driving the external process
// through its lifecycle, the per-second observation loop, and the
// idempotent status setters. Grounded on original_source's
// web/command/models.py Task methods (run/_loop/terminate/_set_status),
// translated into the teacher's state-machine + errors.Is idiom
// (internal/task/state.go, internal/worker/executor.go).
package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kovanka/streamvault/internal/apperrors"
	"github.com/kovanka/streamvault/internal/logger"
	"github.com/kovanka/streamvault/internal/metrics"
	"github.com/kovanka/streamvault/internal/model"
	"github.com/kovanka/streamvault/internal/process"
	"github.com/kovanka/streamvault/internal/store"
)

// defaultTickInterval is the observation loop's poll cadence absent an
// explicit config.TaskConfig.
const defaultTickInterval = 1 * time.Second

// defaultReconcileInterval is how often the loop re-reads the persisted Task
// row to pick up an externally requested termination, absent an explicit
// config.TaskConfig. Load-bearing default, mirrored from original_source's
// `passed % 10 == 0` cadence.
const defaultReconcileInterval = 10 * time.Second

// Options controls the observation loop's timing, sourced from
// config.TaskConfig so operators can tune it without a rebuild.
type Options struct {
	TickInterval      time.Duration
	ReconcileInterval time.Duration
}

// DefaultOptions returns the §4.2.1 defaults used when no config.TaskConfig
// is threaded through.
func DefaultOptions() Options {
	return Options{TickInterval: defaultTickInterval, ReconcileInterval: defaultReconcileInterval}
}

// Task wraps a persisted model.Task with a live Supervisor handle. One Task
// value drives exactly one Run call; construct a fresh one per invocation.
type Task struct {
	*model.Task

	store store.Store
	proc  *process.Supervisor
	opts  Options
}

// New wraps m for execution against st, using the §4.2.1 default timing.
func New(m *model.Task, st store.Store) *Task {
	return NewWithOptions(m, st, DefaultOptions())
}

// NewWithOptions wraps m for execution against st with an explicit timing
// configuration, used by callers (internal/queue, internal/daemon) that have
// a config.TaskConfig in hand.
func NewWithOptions(m *model.Task, st store.Store, opts Options) *Task {
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.ReconcileInterval <= 0 {
		opts.ReconcileInterval = defaultReconcileInterval
	}
	return &Task{Task: m, store: st, proc: process.New(), opts: opts}
}

// SetStatus is the idempotent monotonic setter described in SPEC_FULL.md
// §4.2: a repeat of the current status is a silent no-op, matching
// original_source's _set_status log-and-skip behaviour, and a task in a
// terminal status is refused (only Clear resets it).
func (t *Task) SetStatus(ctx context.Context, status model.TaskStatus) error {
	if t.Status == status {
		logger.Debug().Str("task_id", t.ID).Str("status", status.String()).Msg("status already set, skipping")
		return nil
	}
	if t.Status.IsFinal() {
		return fmt.Errorf("%w: task %s is %s, call Clear first", apperrors.ErrStatusTransition, t.ID, t.Status)
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return t.store.UpdateTask(ctx, t.Task)
}

// canRun enforces the precondition set checked before spawning a process.
func (t *Task) canRun() error {
	switch t.Status {
	case model.TaskCompleted, model.TaskTerminated, model.TaskError, model.TaskCanceled:
		return fmt.Errorf("%w: task %s is %s, call Clear first", apperrors.ErrStatusTransition, t.ID, t.Status)
	case model.TaskProcessing:
		return fmt.Errorf("%w: task %s already running", apperrors.ErrStatusTransition, t.ID)
	default:
		return nil
	}
}

// Run drives the task's full lifecycle: precondition checks, spawn, the
// observation loop, and final status assignment.
func (t *Task) Run(ctx context.Context, dependency *model.Task, check bool) error {
	if dependency != nil && dependency.Status != model.TaskCompleted {
		return fmt.Errorf("%w: task %s depends on %s", apperrors.ErrDependence, t.ID, dependency.ID)
	}
	if t.Command == "" {
		return fmt.Errorf("%w: task %s", apperrors.ErrCommand, t.ID)
	}
	if err := t.canRun(); err != nil {
		return err
	}

	if err := t.proc.Spawn(ctx, t.Command); err != nil {
		metrics.RecordSpawnError()
		if serr := t.SetStatus(ctx, model.TaskError); serr != nil {
			logger.Error().Err(serr).Str("task_id", t.ID).Msg("failed to persist error status after spawn failure")
		}
		return fmt.Errorf("task %s: %w", t.ID, err)
	}

	now := time.Now().UTC()
	t.StartedAt = &now
	t.PID = t.proc.PID()
	if err := t.SetStatus(ctx, model.TaskProcessing); err != nil {
		return err
	}

	t.loop(ctx)
	t.Stdout += t.proc.DrainStdout()
	t.Stderr += t.proc.DrainStderr()

	ended := time.Now().UTC()
	t.EndedAt = &ended

	status := t.proc.Poll()
	if !status.Running {
		if status.ExitCode != nil && *status.ExitCode == 0 && t.Status == model.TaskProcessing {
			if err := t.SetStatus(ctx, model.TaskCompleted); err != nil {
				return err
			}
		} else if t.Status == model.TaskProcessing {
			if err := t.SetStatus(ctx, model.TaskError); err != nil {
				return err
			}
		}
	}

	if t.StartedAt != nil && t.EndedAt != nil {
		metrics.RecordTaskCompletion(t.Status.String(), t.EndedAt.Sub(*t.StartedAt).Seconds())
	}

	if check && (t.Status == model.TaskError || t.Status == model.TaskTerminated) {
		return fmt.Errorf("%w: task %s ended %s", apperrors.ErrProcess, t.ID, t.Status)
	}
	return nil
}

// loop implements the §4.2.1 observation loop.
func (t *Task) loop(ctx context.Context) {
	ticker := time.NewTicker(t.opts.TickInterval)
	defer ticker.Stop()

	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			_ = t.Terminate()
			return
		case <-ticker.C:
		}

		if line, ok := t.proc.ReadStdoutLine(); ok {
			t.Stdout += line + "\n"
		}
		if line, ok := t.proc.ReadStderrLine(); ok {
			t.Stderr += line + "\n"
		}

		if t.Timeout > 0 && t.StartedAt != nil && time.Since(*t.StartedAt) >= t.Timeout {
			logger.Error().Str("task_id", t.ID).Msg("task timed out")
			_ = t.Terminate()
			_ = t.SetStatus(ctx, model.TaskTerminated)
			return
		}

		passed := time.Since(start)
		if passed > 0 && passed%t.opts.ReconcileInterval < t.opts.TickInterval {
			if externallyTerminated(ctx, t.store, t.ID) {
				logger.Warn().Str("task_id", t.ID).Msg("task terminated externally")
				_ = t.Terminate()
				return
			}
		}

		if !t.proc.Poll().Running {
			return
		}
	}
}

func externallyTerminated(ctx context.Context, st store.Store, id string) bool {
	current, err := st.GetTask(ctx, id)
	if err != nil {
		return false
	}
	return current.Status == model.TaskTerminated
}

// Terminate sends SIGTERM repeatedly and marks the task Terminated once the
// process is gone. Idempotent: calling it after the process already exited
// is a no-op beyond the status assignment.
func (t *Task) Terminate() error {
	for t.proc.Poll().Running {
		if err := t.proc.Terminate(); err != nil && !errors.Is(err, apperrors.ErrProcess) {
			return err
		}
		_ = t.proc.Wait(time.Now().Add(time.Second))
	}
	t.Status = model.TaskTerminated
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Clear resets a non-Processing task back to Created, per §3 invariant 5.
func (t *Task) Clear(ctx context.Context) error {
	if t.Status == model.TaskProcessing {
		return fmt.Errorf("%w: task %s is running, terminate it first", apperrors.ErrStatusTransition, t.ID)
	}
	t.Task.Clear()
	return t.store.UpdateTask(ctx, t.Task)
}
