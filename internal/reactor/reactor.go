// Package reactor implements the Schedule Reactor (Component F): an
// explicit Event Bus subscriber that assembles a Queue and its Tasks when a
// Schedule is created, and mirrors Queue status changes back onto the
// originating Schedule. Grounded on
// original_source/web/recorder/signals/handlers.go's on_schedule_save /
// on_queue_status_change, reimplemented as goroutine subscribers per
// SPEC_FULL.md §12's explicit-pub/sub Design Note instead of Django's hidden
// signal registry.
package reactor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kovanka/streamvault/internal/cmdbuilder"
	"github.com/kovanka/streamvault/internal/events"
	"github.com/kovanka/streamvault/internal/logger"
	"github.com/kovanka/streamvault/internal/model"
	"github.com/kovanka/streamvault/internal/store"
)

// Reactor subscribes to the Event Bus and reacts to Schedule/Queue changes.
type Reactor struct {
	store        store.Store
	bus          events.Bus
	ffmpegBinary string
}

// New creates a Reactor bound to st and listening on bus.
func New(st store.Store, bus events.Bus, ffmpegBinary string) *Reactor {
	if ffmpegBinary == "" {
		ffmpegBinary = cmdbuilder.FFmpegBinary
	}
	return &Reactor{store: st, bus: bus, ffmpegBinary: ffmpegBinary}
}

// Run subscribes and processes events until ctx is cancelled.
func (r *Reactor) Run(ctx context.Context) error {
	ch, err := r.bus.Subscribe(ctx, events.EventScheduleCreated, events.EventQueueStatusChanged)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(ctx, evt)
		}
	}
}

func (r *Reactor) handle(ctx context.Context, evt *events.Event) {
	switch evt.Type {
	case events.EventScheduleCreated:
		if err := r.onScheduleCreated(ctx, evt.ID); err != nil {
			logger.Error().Err(err).Str("schedule_id", evt.ID).Msg("failed to build queue for schedule")
		}
	case events.EventQueueStatusChanged:
		if err := r.onQueueStatusChanged(ctx, evt.ID); err != nil {
			logger.Error().Err(err).Str("queue_id", evt.ID).Msg("failed to mirror queue status onto schedule")
		}
	}
}

// onScheduleCreated builds the record Task (+ optional resize Task) and
// their owning Queue, grounded on create_instance_queue/create_recod_task.
func (r *Reactor) onScheduleCreated(ctx context.Context, scheduleID string) error {
	sch, err := r.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	if sch.QueueID != "" {
		return nil
	}

	q := &model.Queue{ID: uuid.NewString(), Status: model.QueueCreated, Timer: &sch.StartTime, CreatedAt: time.Now().UTC()}
	if err := r.store.CreateQueue(ctx, q); err != nil {
		return err
	}

	channel, err := r.store.GetChannel(ctx, sch.ChannelID)
	if err != nil {
		return err
	}

	// Timeout budget mirrors create_recod_task's "duration + 1 minute" grace.
	recordTask := &model.Task{
		ID:        uuid.NewString(),
		QueueID:   q.ID,
		Line:      1,
		Name:      "record",
		Timeout:   sch.Duration + time.Minute,
		CreatedAt: time.Now().UTC(),
	}
	outputPath := sch.ID + "-record.mp4"
	recordTask.OutputPath = outputPath
	recordTask.Command = cmdbuilder.Record(r.ffmpegBinary, channel.URL, outputPath, cmdbuilder.FormatDuration(sch.Duration))
	if err := r.store.CreateTask(ctx, recordTask); err != nil {
		return err
	}

	if sch.Resize != nil {
		resizeTask := &model.Task{
			ID:          uuid.NewString(),
			QueueID:     q.ID,
			Line:        2,
			Name:        "resize",
			DependsOnID: recordTask.ID,
			CreatedAt:   time.Now().UTC(),
		}
		resizeOutput := sch.ID + "-resize.mp4"
		resizeTask.OutputPath = resizeOutput
		resizeTask.Command = cmdbuilder.Resize(r.ffmpegBinary, outputPath, resizeOutput, *sch.Resize)
		if err := r.store.CreateTask(ctx, resizeTask); err != nil {
			return err
		}
	}

	sch.QueueID = q.ID
	return r.store.UpdateSchedule(ctx, sch)
}

// onQueueStatusChanged mirrors Queue status onto the owning Schedule per the
// §4.6 table.
func (r *Reactor) onQueueStatusChanged(ctx context.Context, queueID string) error {
	sch, err := r.store.ScheduleByQueueID(ctx, queueID)
	if err != nil {
		return nil // no schedule references this queue; nothing to mirror
	}

	q, err := r.store.GetQueue(ctx, queueID)
	if err != nil {
		return err
	}

	status, ok := model.ScheduleStatusForQueue(q.Status)
	if !ok {
		return nil
	}
	sch.Status = status

	if status == model.ScheduleCompleted {
		tasks, err := r.store.TasksByQueueID(ctx, queueID)
		if err == nil && len(tasks) > 0 {
			last := tasks[0]
			for _, t := range tasks[1:] {
				if t.Line > last.Line {
					last = t
				}
			}
			sch.FileRef = last.OutputPath
		}
	}

	return r.store.UpdateSchedule(ctx, sch)
}
