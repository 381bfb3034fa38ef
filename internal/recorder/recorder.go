// Package recorder implements the Recorder Supervisor (SPEC_FULL.md §4.4): a
// specialised Task for one Schedule with a start-time wait, a duration plus
// overextend bound, and terminate-flag polling. Grounded on
// original_source/web/recorder/record.py's Recorder class, translated from a
// daemon thread into a goroutine driven explicitly by the caller.
package recorder

import (
	"context"
	"os"
	"time"

	"github.com/kovanka/streamvault/internal/cmdbuilder"
	"github.com/kovanka/streamvault/internal/config"
	"github.com/kovanka/streamvault/internal/logger"
	"github.com/kovanka/streamvault/internal/model"
	"github.com/kovanka/streamvault/internal/process"
	"github.com/kovanka/streamvault/internal/store"
)

// Options configures a Recorder run.
type Options struct {
	WaitForStartTime bool
	TickInterval      time.Duration
	OverextendSeconds time.Duration
	FFmpegBinary      string
}

// DefaultOptions applies SPEC_FULL.md §4.4's defaults (tickSeconds=5,
// overextendSeconds=10).
func DefaultOptions(cfg config.RecorderConfig) Options {
	return Options{
		TickInterval:      cfg.TickSeconds,
		OverextendSeconds: cfg.OverextendSeconds,
		FFmpegBinary:      "ffmpeg",
	}
}

// Recorder supervises the record process for one Schedule.
type Recorder struct {
	schedule *model.Schedule
	task     *model.Task
	store    store.Store
	proc     *process.Supervisor
	opts     Options
}

// New wraps schedule/task for recording, backed by st.
func New(schedule *model.Schedule, t *model.Task, st store.Store, opts Options) *Recorder {
	return &Recorder{schedule: schedule, task: t, store: st, proc: process.New(), opts: opts}
}

// PrepareOutput creates an empty placeholder file at outputPath and builds
// the task's record command, grounded on Video.create_file.
func (r *Recorder) PrepareOutput(outputPath, inputURL string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	duration := cmdbuilder.FormatDuration(r.schedule.Duration)
	r.task.OutputPath = outputPath
	r.task.Command = cmdbuilder.Record(r.opts.FFmpegBinary, inputURL, outputPath, duration)
	return nil
}

// Run drives the full recorder lifecycle: optional start-time wait, spawn,
// the observation loop, and final status assignment onto both Task and
// Schedule.
func (r *Recorder) Run(ctx context.Context) error {
	r.schedule.AppendLog("Mark Started")
	if err := r.store.UpdateSchedule(ctx, r.schedule); err != nil {
		return err
	}

	if r.opts.WaitForStartTime {
		r.wait(ctx)
	}

	if err := r.proc.Spawn(ctx, r.task.Command); err != nil {
		r.schedule.Status = model.ScheduleError
		r.schedule.AppendLog("Process could not be started: " + err.Error())
		return r.store.UpdateSchedule(ctx, r.schedule)
	}

	now := time.Now().UTC()
	r.task.StartedAt = &now
	r.task.PID = r.proc.PID()
	r.task.Status = model.TaskProcessing
	r.schedule.Status = model.ScheduleProcessing
	r.schedule.AppendLog("Processing")
	if err := r.store.UpdateTask(ctx, r.task); err != nil {
		return err
	}
	if err := r.store.UpdateSchedule(ctx, r.schedule); err != nil {
		return err
	}

	terminated := r.loop(ctx)
	ended := time.Now().UTC()
	r.task.EndedAt = &ended

	if terminated {
		r.task.Status = model.TaskTerminated
		r.schedule.Status = model.ScheduleCanceled
		r.schedule.AppendLog("Terminated")
		_ = r.store.UpdateTask(ctx, r.task)
		return r.store.UpdateSchedule(ctx, r.schedule)
	}

	status := r.proc.Poll()
	if status.ExitCode != nil && *status.ExitCode != 0 {
		r.task.Status = model.TaskError
		r.schedule.Status = model.ScheduleError
		r.task.Stderr = r.proc.DrainStderr()
		r.schedule.AppendLog("Record failed: " + r.task.Stderr)
		if r.task.OutputPath != "" {
			if err := os.Remove(r.task.OutputPath); err != nil && !os.IsNotExist(err) {
				logger.Warn().Err(err).Str("path", r.task.OutputPath).Msg("failed to remove failed recording output")
			}
		}
	} else {
		r.task.Status = model.TaskCompleted
		r.schedule.Status = model.ScheduleCompleted
		r.schedule.FileRef = r.task.OutputPath
		r.schedule.AppendLog("Completed")
	}

	if err := r.store.UpdateTask(ctx, r.task); err != nil {
		return err
	}
	return r.store.UpdateSchedule(ctx, r.schedule)
}

// wait busy-waits in half-second ticks until the schedule's start time
// passes, mirroring Recorder._wait.
func (r *Recorder) wait(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for time.Now().Before(r.schedule.StartTime) {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// loop is the §4.4 observation loop; returns true if it stopped the process
// (terminate flag, overextend, or ctx cancellation) and false if the process
// exited on its own.
func (r *Recorder) loop(ctx context.Context) bool {
	ticker := time.NewTicker(r.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = r.proc.Terminate()
			return true
		case <-ticker.C:
		}

		current, err := r.store.GetSchedule(ctx, r.schedule.ID)
		if err == nil && current.Terminate {
			logger.Warn().Str("schedule_id", r.schedule.ID).Msg("schedule terminated by user")
			_ = r.proc.Terminate()
			return true
		}

		if r.overextended() {
			logger.Warn().Str("schedule_id", r.schedule.ID).Msg("record length over extended")
			r.schedule.AppendLog("Record length over extended")
			_ = r.proc.Terminate()
			return true
		}

		if !r.proc.Poll().Running {
			return false
		}
	}
}

func (r *Recorder) overextended() bool {
	return time.Now().UTC().Add(r.opts.OverextendSeconds).After(r.schedule.EndTime())
}
