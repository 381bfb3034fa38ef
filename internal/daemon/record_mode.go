// RecordModeRunner implements the §4.5.1 alternate daemon variant: instead
// of scanning Queues, it polls Schedule rows directly and drives a Recorder
// Supervisor per due schedule. Grounded on
// original_source/recorder/deamon.py's Daemon (lock-file protocol,
// get_records' [now, now+threshold] window, prune-finished-processes loop),
// adapted onto the queue-mode Daemon's runfile/pidfile protocol in daemon.go
// so both variants share one lock convention. Queue mode is the default and
// subsumes this one as a one-task queue (SPEC_FULL.md §4.5.1); this variant
// is selected explicitly via `daemon.mode: record`.
package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kovanka/streamvault/internal/apperrors"
	"github.com/kovanka/streamvault/internal/config"
	"github.com/kovanka/streamvault/internal/logger"
	"github.com/kovanka/streamvault/internal/model"
	"github.com/kovanka/streamvault/internal/recorder"
	"github.com/kovanka/streamvault/internal/store"
)

// RecordModeRunner is the singleton record-mode run loop.
type RecordModeRunner struct {
	cfg          config.DaemonConfig
	rcfg         config.RecorderConfig
	store        store.Store
	ffmpegBinary string

	mu      sync.Mutex
	workers map[string]*recordWorker
}

type recordWorker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (w *recordWorker) alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// NewRecordModeRunner creates a RecordModeRunner bound to st, building record
// commands via cmdbuilder with ffmpegBinary.
func NewRecordModeRunner(cfg config.DaemonConfig, rcfg config.RecorderConfig, st store.Store, ffmpegBinary string) *RecordModeRunner {
	return &RecordModeRunner{
		cfg:          cfg,
		rcfg:         rcfg,
		store:        st,
		ffmpegBinary: ffmpegBinary,
		workers:      make(map[string]*recordWorker),
	}
}

func (r *RecordModeRunner) runfile() string { return filepath.Join(r.cfg.BaseDir, runfileName) }
func (r *RecordModeRunner) pidfile() string { return filepath.Join(r.cfg.BaseDir, pidfileName) }

// IsRunning reports whether the runfile is present.
func (r *RecordModeRunner) IsRunning() bool {
	_, err := os.Stat(r.runfile())
	return err == nil
}

// Status returns (running, pid).
func (r *RecordModeRunner) Status() (bool, int) {
	if !r.IsRunning() {
		return false, 0
	}
	pid, err := readPID(r.pidfile())
	if err != nil {
		return true, 0
	}
	return true, pid
}

// Start acquires the lock, writes lock/pid files, and blocks running the
// schedule-scan loop until ctx is cancelled, sharing the queue-mode Daemon's
// runfile/pidfile protocol so only one variant may run against a given
// BaseDir at a time.
func (r *RecordModeRunner) Start(ctx context.Context) error {
	if _, err := os.Stat(r.pidfile()); err == nil {
		return apperrors.ErrDaemonRunning
	}
	if err := os.MkdirAll(r.videosDir(), 0o755); err != nil {
		return apperrors.NewDaemonError(err)
	}
	if err := os.WriteFile(r.runfile(), []byte("1"), 0o644); err != nil {
		return apperrors.NewDaemonError(err)
	}
	if err := os.WriteFile(r.pidfile(), []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		_ = os.Remove(r.runfile())
		return apperrors.NewDaemonError(err)
	}

	logger.Info().Int("pid", os.Getpid()).Msg("record-mode daemon started")
	err := r.run(ctx)

	_ = os.Remove(r.pidfile())
	_ = os.Remove(r.runfile())
	logger.Warn().Msg("record-mode daemon exiting")
	return err
}

// Stop removes the runfile, then sends repeated SIGTERM to the recorded pid
// until it disappears, matching the queue-mode Daemon.Stop protocol.
func (r *RecordModeRunner) Stop() error {
	if _, err := os.Stat(r.pidfile()); err != nil {
		return apperrors.ErrDaemonNotRunning
	}
	pid, err := readPID(r.pidfile())
	if err != nil {
		return apperrors.NewDaemonError(err)
	}
	_ = os.Remove(r.runfile())

	for {
		err := syscall.Kill(pid, syscall.SIGTERM)
		if err != nil {
			if err == syscall.ESRCH {
				break
			}
			return apperrors.NewDaemonError(err)
		}
		time.Sleep(100 * time.Millisecond)
		if _, statErr := os.Stat(r.pidfile()); os.IsNotExist(statErr) {
			break
		}
	}
	_ = os.Remove(r.pidfile())
	_ = os.Remove(r.runfile())
	return nil
}

func (r *RecordModeRunner) videosDir() string { return filepath.Join(r.cfg.BaseDir, "videos") }

func (r *RecordModeRunner) run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Wait)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.stopWorkers()
			return nil
		case <-ticker.C:
		}
		if !r.IsRunning() {
			r.stopWorkers()
			return nil
		}
		r.tick(ctx)
	}
}

// tick implements §4.5.1: sweep strictly-past-due Scheduled schedules into
// Timeout, dispatch a Recorder for every Scheduled schedule whose start time
// falls in [now, now+threshold], then prune finished workers.
func (r *RecordModeRunner) tick(ctx context.Context) {
	now := time.Now().UTC()

	schedules, err := r.store.ListSchedules(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list schedules")
		return
	}

	for _, s := range schedules {
		if s.Status != model.ScheduleScheduled {
			continue
		}
		if s.StartTime.Before(now) {
			r.timeoutSchedule(ctx, s)
			continue
		}
		if !s.StartTime.After(now.Add(r.cfg.Threshold)) {
			r.dispatch(ctx, s)
		}
	}

	r.pruneFinished()
}

func (r *RecordModeRunner) timeoutSchedule(ctx context.Context, s *model.Schedule) {
	logger.Warn().Str("schedule_id", s.ID).Msg("schedule timed out before recording started")
	s.Status = model.ScheduleTimeout
	if err := r.store.UpdateSchedule(ctx, s); err != nil {
		logger.Error().Err(err).Str("schedule_id", s.ID).Msg("failed to persist schedule timeout")
	}
}

// dispatch starts a Recorder for s in its own goroutine, tracked in
// r.workers keyed by schedule id so a schedule already being recorded is not
// started twice.
func (r *RecordModeRunner) dispatch(ctx context.Context, s *model.Schedule) {
	r.mu.Lock()
	if w, ok := r.workers[s.ID]; ok && w.alive() {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	channel, err := r.store.GetChannel(ctx, s.ChannelID)
	if err != nil {
		logger.Error().Err(err).Str("schedule_id", s.ID).Msg("failed to load channel for record-mode dispatch")
		return
	}

	t := &model.Task{
		ID:        uuid.NewString(),
		Name:      "record",
		Timeout:   s.Duration + time.Minute,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.CreateTask(ctx, t); err != nil {
		logger.Error().Err(err).Str("schedule_id", s.ID).Msg("failed to persist record-mode task")
		return
	}

	opts := recorder.DefaultOptions(r.rcfg)
	opts.FFmpegBinary = r.ffmpegBinary
	rec := recorder.New(s, t, r.store, opts)

	outputPath := filepath.Join(r.videosDir(), s.ID+"-record.mp4")
	if err := rec.PrepareOutput(outputPath, channel.URL); err != nil {
		logger.Error().Err(err).Str("schedule_id", s.ID).Msg("failed to prepare record-mode output")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.workers[s.ID] = &recordWorker{cancel: cancel, done: done}
	r.mu.Unlock()

	logger.Debug().Str("schedule_id", s.ID).Msg("record-mode daemon dispatching recorder")
	go func() {
		defer close(done)
		defer cancel()
		if err := rec.Run(runCtx); err != nil {
			logger.Error().Err(err).Str("schedule_id", s.ID).Msg("recorder run failed")
		}
	}()
}

func (r *RecordModeRunner) pruneFinished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, w := range r.workers {
		if !w.alive() {
			delete(r.workers, id)
		}
	}
}

func (r *RecordModeRunner) stopWorkers() {
	r.mu.Lock()
	workers := make([]*recordWorker, 0, len(r.workers))
	for _, w := range r.workers {
		workers = append(workers, w)
	}
	r.mu.Unlock()

	for _, w := range workers {
		if w.alive() {
			w.cancel()
		}
	}
}
