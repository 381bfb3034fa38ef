// Package store defines the persistence boundary for Channels, Schedules,
// Queues and Tasks. CreateSchedule, UpdateQueue and UpdateTask publish an
// events.Event so the Schedule Reactor reacts to state changes instead of
// polling; the other writes (channels, categories, queue and task creation,
// schedule updates) publish nothing. Grounded on
// the teacher's internal/queue/redis_streams.go GetTask/UpdateTask/taskKey
// pattern (one JSON blob per entity under a prefixed key), generalized from
// a single Task type to all four domain entities.
package store

import (
	"context"

	"github.com/kovanka/streamvault/internal/model"
)

// Store is the persistence boundary every other component depends on. A
// single implementation backs Channel, Schedule, Queue and Task because they
// share lifecycle (create, get, list, update) and transactional needs (Queue
// roll-up reads call back into Task lookups).
type Store interface {
	CreateChannel(ctx context.Context, c *model.Channel) error
	GetChannel(ctx context.Context, id string) (*model.Channel, error)
	ListChannels(ctx context.Context) ([]*model.Channel, error)

	CreateCategory(ctx context.Context, c *model.Category) error
	ListCategories(ctx context.Context) ([]*model.Category, error)

	CreateSchedule(ctx context.Context, s *model.Schedule) error
	GetSchedule(ctx context.Context, id string) (*model.Schedule, error)
	UpdateSchedule(ctx context.Context, s *model.Schedule) error
	ListSchedules(ctx context.Context) ([]*model.Schedule, error)
	ScheduleByQueueID(ctx context.Context, queueID string) (*model.Schedule, error)

	CreateQueue(ctx context.Context, q *model.Queue) error
	GetQueue(ctx context.Context, id string) (*model.Queue, error)
	UpdateQueue(ctx context.Context, q *model.Queue) error
	ListDueQueues(ctx context.Context) ([]*model.Queue, error)
	ListProcessingQueues(ctx context.Context) ([]*model.Queue, error)

	CreateTask(ctx context.Context, t *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	UpdateTask(ctx context.Context, t *model.Task) error
	TasksByQueueID(ctx context.Context, queueID string) ([]*model.Task, error)
}
