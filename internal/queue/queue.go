// Package queue gives model.Queue its add/start/stop/roll-up behaviour.
// Grounded on original_source's web/command/models.py Queue class (add's
// recursive ancestor-pull, _loop's skip-if-not-Created walk,
// calculate_queue_status's roll-up precedence), translated into the
// teacher's Store-mediated, context-aware style.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kovanka/streamvault/internal/apperrors"
	"github.com/kovanka/streamvault/internal/logger"
	"github.com/kovanka/streamvault/internal/model"
	"github.com/kovanka/streamvault/internal/store"
	"github.com/kovanka/streamvault/internal/task"
)

// Queue wraps a persisted model.Queue with task-dispatch behaviour.
type Queue struct {
	*model.Queue

	store    store.Store
	taskOpts task.Options
}

// New wraps m for operation against st, driving its tasks with the §4.2.1
// default observation-loop timing.
func New(m *model.Queue, st store.Store) *Queue {
	return NewWithTaskOptions(m, st, task.DefaultOptions())
}

// NewWithTaskOptions wraps m for operation against st, driving its tasks
// with an explicit observation-loop timing sourced from config.TaskConfig.
func NewWithTaskOptions(m *model.Queue, st store.Store, taskOpts task.Options) *Queue {
	return &Queue{Queue: m, store: st, taskOpts: taskOpts}
}

// Add appends t at the next line, recursively pulling in any dependency
// that is not already present, and rejects a cycle where t is its own
// ancestor (§3 invariant 7).
func (q *Queue) Add(ctx context.Context, t *model.Task) error {
	if q.Status != model.QueueCreated {
		return fmt.Errorf("%w: queue %s is %s", apperrors.ErrStatusTransition, q.ID, q.Status)
	}

	if err := q.checkCycle(ctx, t, t.ID); err != nil {
		return err
	}

	return q.add(ctx, t)
}

// checkCycle walks the dependency chain starting at t looking for a path
// back to originID.
func (q *Queue) checkCycle(ctx context.Context, t *model.Task, originID string) error {
	if t.DependsOnID == "" {
		return nil
	}
	if t.DependsOnID == originID {
		return fmt.Errorf("%w: task %s", apperrors.ErrCycle, originID)
	}
	dep, err := q.store.GetTask(ctx, t.DependsOnID)
	if err != nil {
		return nil
	}
	return q.checkCycle(ctx, dep, originID)
}

func (q *Queue) add(ctx context.Context, t *model.Task) error {
	if t.DependsOnID != "" {
		existing, err := q.store.TasksByQueueID(ctx, q.ID)
		if err == nil && !containsID(existing, t.DependsOnID) {
			dep, err := q.store.GetTask(ctx, t.DependsOnID)
			if err != nil {
				return fmt.Errorf("task %s depends on missing task %s: %w", t.ID, t.DependsOnID, err)
			}
			if err := q.add(ctx, dep); err != nil {
				return err
			}
		}
	}

	current, err := q.store.TasksByQueueID(ctx, q.ID)
	if err != nil {
		return err
	}
	if containsID(current, t.ID) {
		logger.Warn().Str("queue_id", q.ID).Str("task_id", t.ID).Msg("task already in queue")
		return nil
	}

	t.Line = len(current) + 1
	t.QueueID = q.ID
	return q.store.CreateTask(ctx, t)
}

func containsID(tasks []*model.Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Start runs every Created task in ascending line order, skipping tasks
// whose dependency has not completed rather than blocking the whole queue.
func (q *Queue) Start(ctx context.Context) error {
	tasks, err := q.store.TasksByQueueID(ctx, q.ID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		logger.Warn().Str("queue_id", q.ID).Msg("no tasks to run")
		return nil
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Line < tasks[j].Line })

	q.Status = model.QueueProcessing
	now := time.Now().UTC()
	q.StartedAt = &now
	if err := q.store.UpdateQueue(ctx, q.Queue); err != nil {
		return err
	}

	for _, m := range tasks {
		if m.Status != model.TaskCreated {
			continue
		}

		var dependency *model.Task
		if m.DependsOnID != "" {
			dep, err := q.store.GetTask(ctx, m.DependsOnID)
			if err != nil {
				continue
			}
			if dep.Status != model.TaskCompleted {
				continue
			}
			dependency = dep
		}

		t := task.NewWithOptions(m, q.store, q.taskOpts)
		if err := t.Run(ctx, dependency, false); err != nil {
			if errors.Is(err, apperrors.ErrDependence) {
				q.Status = model.QueueError
				_ = q.store.UpdateQueue(ctx, q.Queue)
				return err
			}
			logger.Error().Err(err).Str("queue_id", q.ID).Str("task_id", m.ID).Msg("task run failed")
		}
	}

	ended := time.Now().UTC()
	q.EndedAt = &ended
	return q.store.UpdateQueue(ctx, q.Queue)
}

// Stop marks every Processing task Terminated and the queue Stopped.
func (q *Queue) Stop(ctx context.Context) error {
	tasks, err := q.store.TasksByQueueID(ctx, q.ID)
	if err != nil {
		return err
	}
	for _, m := range tasks {
		if m.Status != model.TaskProcessing {
			continue
		}
		t := task.NewWithOptions(m, q.store, q.taskOpts)
		if err := t.Terminate(); err != nil {
			logger.Error().Err(err).Str("task_id", m.ID).Msg("task could not be stopped")
			continue
		}
		if err := q.store.UpdateTask(ctx, m); err != nil {
			logger.Error().Err(err).Str("task_id", m.ID).Msg("failed to persist terminated status")
		}
	}
	q.Status = model.QueueStopped
	return q.store.UpdateQueue(ctx, q.Queue)
}

// CalculateStatus is the pure roll-up described in SPEC_FULL.md §4.3,
// invoked by the Daemon on every tick and any task status change.
func (q *Queue) CalculateStatus(ctx context.Context) error {
	tasks, err := q.store.TasksByQueueID(ctx, q.ID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	var anyError, anyProcessing, allCompleted bool
	allCompleted = true
	for _, t := range tasks {
		switch t.Status {
		case model.TaskError:
			anyError = true
		case model.TaskProcessing:
			anyProcessing = true
		}
		if t.Status != model.TaskCompleted {
			allCompleted = false
		}
	}

	switch {
	case anyError:
		q.Status = model.QueueError
	case allCompleted:
		q.Status = model.QueueCompleted
	case anyProcessing:
		q.Status = model.QueueProcessing
	default:
		return nil
	}
	return q.store.UpdateQueue(ctx, q.Queue)
}

// NextLine is the line number the next appended task would receive.
func (q *Queue) NextLine(ctx context.Context) (int, error) {
	tasks, err := q.store.TasksByQueueID(ctx, q.ID)
	if err != nil {
		return 0, err
	}
	return len(tasks) + 1, nil
}
