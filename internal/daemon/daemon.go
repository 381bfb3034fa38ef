// Package daemon implements the singleton background process (Component E)
// that scans due Queues and dispatches them. Grounded on
// original_source/web/command/daemon.py's Daemon class (runfile/pidfile
// mutual exclusion, the `_is_queue_time_came`/`queue_timeout` scan, the
// periodic liveness log) combined with the teacher's
// internal/queue/scheduler.go distributed-scan shape and cmd/worker/main.go's
// signal-channel graceful shutdown.
package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/kovanka/streamvault/internal/apperrors"
	"github.com/kovanka/streamvault/internal/config"
	"github.com/kovanka/streamvault/internal/logger"
	"github.com/kovanka/streamvault/internal/metrics"
	"github.com/kovanka/streamvault/internal/model"
	"github.com/kovanka/streamvault/internal/queue"
	"github.com/kovanka/streamvault/internal/store"
	"github.com/kovanka/streamvault/internal/task"
)

const (
	runfileName = "daemon.lock"
	pidfileName = "daemon.pid"
)

// Daemon is the single-instance run loop.
type Daemon struct {
	cfg      config.DaemonConfig
	taskOpts task.Options
	store    store.Store

	stopCh       chan struct{}
	wg           sync.WaitGroup
	activeWorker int64
}

// New creates a Daemon bound to st, driving dispatched Queues' Tasks with
// taskCfg's observation-loop timing.
func New(cfg config.DaemonConfig, taskCfg config.TaskConfig, st store.Store) *Daemon {
	opts := task.Options{TickInterval: taskCfg.TickInterval, ReconcileInterval: taskCfg.ReconcileInterval}
	return &Daemon{cfg: cfg, taskOpts: opts, store: st, stopCh: make(chan struct{})}
}

func (d *Daemon) runfile() string { return filepath.Join(d.cfg.BaseDir, runfileName) }
func (d *Daemon) pidfile() string { return filepath.Join(d.cfg.BaseDir, pidfileName) }

// IsRunning reports whether the runfile is present, per the teacher's
// BaseDaemon.is_running.
func (d *Daemon) IsRunning() bool {
	_, err := os.Stat(d.runfile())
	return err == nil
}

// Status returns (running, pid).
func (d *Daemon) Status() (bool, int) {
	if !d.IsRunning() {
		return false, 0
	}
	pid, err := readPID(d.pidfile())
	if err != nil {
		return true, 0
	}
	return true, pid
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// Start acquires the lock, writes lock/pid files, and blocks running the
// scan loop until ctx is cancelled. This implementation runs in the
// foreground rather than double-forking (SPEC_FULL.md §12 Design Notes).
func (d *Daemon) Start(ctx context.Context) error {
	if _, err := os.Stat(d.pidfile()); err == nil {
		return apperrors.ErrDaemonRunning
	}
	if err := os.MkdirAll(d.cfg.BaseDir, 0o755); err != nil {
		return apperrors.NewDaemonError(err)
	}
	if err := os.WriteFile(d.runfile(), []byte("1"), 0o644); err != nil {
		return apperrors.NewDaemonError(err)
	}
	if err := os.WriteFile(d.pidfile(), []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		_ = os.Remove(d.runfile())
		return apperrors.NewDaemonError(err)
	}

	logger.Info().Int("pid", os.Getpid()).Msg("daemon started")
	err := d.run(ctx)

	_ = os.Remove(d.pidfile())
	_ = os.Remove(d.runfile())
	logger.Warn().Msg("daemon exiting")
	return err
}

// Stop removes the runfile to request a cooperative shutdown, then sends
// SIGTERM to the recorded pid until it is gone or the pidfile disappears,
// matching the teacher's repeated-kill-until-ESRCH loop.
func (d *Daemon) Stop() error {
	if _, err := os.Stat(d.pidfile()); err != nil {
		return apperrors.ErrDaemonNotRunning
	}
	pid, err := readPID(d.pidfile())
	if err != nil {
		return apperrors.NewDaemonError(err)
	}
	_ = os.Remove(d.runfile())

	for {
		err := syscall.Kill(pid, syscall.SIGTERM)
		if err != nil {
			if err == syscall.ESRCH {
				break
			}
			return apperrors.NewDaemonError(err)
		}
		time.Sleep(100 * time.Millisecond)
		if _, statErr := os.Stat(d.pidfile()); os.IsNotExist(statErr) {
			break
		}
	}
	_ = os.Remove(d.pidfile())
	_ = os.Remove(d.runfile())
	return nil
}

// run is the main scan loop: reconcile Processing queues, dispatch or
// timeout Created queues, at the configured poll interval, for as long as
// the runfile exists.
func (d *Daemon) run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.Wait)
	defer ticker.Stop()

	start := time.Now()
	polls := 0

	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			return nil
		case <-d.stopCh:
			d.wg.Wait()
			return nil
		case <-ticker.C:
		}

		if !d.IsRunning() {
			d.wg.Wait()
			return nil
		}

		d.tick(ctx)

		polls++
		if d.cfg.LivenessEvery > 0 && polls%d.cfg.LivenessEvery == 0 {
			logger.Debug().Dur("running_for", time.Since(start)).
				Int64("active_workers", atomic.LoadInt64(&d.activeWorker)).Msg("daemon tick")
		}
	}
}

func (d *Daemon) tick(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.DaemonTickDuration.Observe(time.Since(start).Seconds()) }()

	d.reconcileProcessing(ctx)

	due, err := d.store.ListDueQueues(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list due queues")
		return
	}
	if processing, err := d.store.ListProcessingQueues(ctx); err == nil {
		metrics.SetQueueDepth(model.QueueProcessing.String(), float64(len(processing)))
	}
	metrics.SetQueueDepth(model.QueueCreated.String(), float64(len(due)))

	now := time.Now().UTC()

	for _, q := range due {
		if q.IsOverdue(now, d.cfg.Threshold) {
			d.timeoutQueue(ctx, q)
			continue
		}
		if q.IsDue(now) {
			d.dispatch(ctx, q)
		}
	}
}

// reconcileProcessing re-runs the roll-up on every Processing queue so a
// Queue whose last task finished between ticks is observed to completion
// or error without waiting on the task that drove the change to call back
// in (§4.5 step 1).
func (d *Daemon) reconcileProcessing(ctx context.Context) {
	processing, err := d.store.ListProcessingQueues(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list processing queues")
		return
	}
	for _, q := range processing {
		qu := queue.NewWithTaskOptions(q, d.store, d.taskOpts)
		if err := qu.CalculateStatus(ctx); err != nil {
			logger.Error().Err(err).Str("queue_id", q.ID).Msg("failed to reconcile queue status")
		}
	}
}

func (d *Daemon) timeoutQueue(ctx context.Context, q *model.Queue) {
	logger.Warn().Str("queue_id", q.ID).Msg("queue timed out before starting")
	q.Status = model.QueueTimeout
	if err := d.store.UpdateQueue(ctx, q); err != nil {
		logger.Error().Err(err).Str("queue_id", q.ID).Msg("failed to persist queue timeout")
	}
}

// dispatch runs one queue in its own goroutine, matching the teacher's
// per-queue QueueThread.
func (d *Daemon) dispatch(ctx context.Context, q *model.Queue) {
	d.wg.Add(1)
	metrics.SetActiveWorkers(float64(atomic.AddInt64(&d.activeWorker, 1)))
	go func() {
		defer d.wg.Done()
		defer metrics.SetActiveWorkers(float64(atomic.AddInt64(&d.activeWorker, -1)))
		qu := queue.NewWithTaskOptions(q, d.store, d.taskOpts)
		if err := qu.Start(ctx); err != nil {
			logger.Error().Err(err).Str("queue_id", q.ID).Msg("queue run failed")
		}
	}()
}

// String implements fmt.Stringer for diagnostic logging.
func (d *Daemon) String() string {
	running, pid := d.Status()
	return fmt.Sprintf("daemon(running=%v, pid=%d)", running, pid)
}
