package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kovanka/streamvault/internal/apperrors"
	"github.com/kovanka/streamvault/internal/events"
	"github.com/kovanka/streamvault/internal/model"
)

// Redis implements Store over go-redis, adapted from the teacher's
// internal/queue/redis_streams.go: one JSON blob per entity under a typed
// key ("task:<id>", "queue:<id>", ...), with a Set per entity collection for
// listing, plus a queue-id -> schedule-id index and a due-queue Set scanned
// by the Daemon the way the teacher's Scheduler scans "tasks:scheduled".
type Redis struct {
	client *redis.Client
	bus    events.Bus
}

// NewRedis wraps an existing Redis client.
func NewRedis(client *redis.Client, bus events.Bus) *Redis {
	return &Redis{client: client, bus: bus}
}

func (r *Redis) publish(ctx context.Context, evt *events.Event) {
	if r.bus == nil {
		return
	}
	_ = r.bus.Publish(ctx, evt)
}

func channelKey(id string) string    { return "channel:" + id }
func categoryKey(id string) string   { return "category:" + id }
func scheduleKey(id string) string   { return "schedule:" + id }
func queueKey(id string) string      { return "queue:" + id }
func taskKey(id string) string       { return "task:" + id }

const (
	channelsSet    = "channels"
	categoriesSet  = "categories"
	schedulesSet   = "schedules"
	queueTasksKey  = "queue:%s:tasks"
	queueCreatedSet = "queues:created"
	queueProcessingSet = "queues:processing"
	scheduleByQueuePrefix = "schedule_by_queue:"
)

func (r *Redis) set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, 0).Err()
}

func (r *Redis) get(ctx context.Context, key string, v interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return json.Unmarshal(data, v)
}

func (r *Redis) CreateChannel(ctx context.Context, c *model.Channel) error {
	if err := r.set(ctx, channelKey(c.ID), c); err != nil {
		return err
	}
	return r.client.SAdd(ctx, channelsSet, c.ID).Err()
}

func (r *Redis) GetChannel(ctx context.Context, id string) (*model.Channel, error) {
	var c model.Channel
	if err := r.get(ctx, channelKey(id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Redis) ListChannels(ctx context.Context) ([]*model.Channel, error) {
	ids, err := r.client.SMembers(ctx, channelsSet).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Channel, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetChannel(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Redis) CreateCategory(ctx context.Context, c *model.Category) error {
	if err := r.set(ctx, categoryKey(c.ID), c); err != nil {
		return err
	}
	return r.client.SAdd(ctx, categoriesSet, c.ID).Err()
}

func (r *Redis) ListCategories(ctx context.Context) ([]*model.Category, error) {
	ids, err := r.client.SMembers(ctx, categoriesSet).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Category, 0, len(ids))
	for _, id := range ids {
		var c model.Category
		if err := r.get(ctx, categoryKey(id), &c); err != nil {
			continue
		}
		out = append(out, &c)
	}
	return out, nil
}

func (r *Redis) CreateSchedule(ctx context.Context, s *model.Schedule) error {
	if err := r.set(ctx, scheduleKey(s.ID), s); err != nil {
		return err
	}
	if err := r.client.SAdd(ctx, schedulesSet, s.ID).Err(); err != nil {
		return err
	}
	if s.QueueID != "" {
		if err := r.client.Set(ctx, scheduleByQueuePrefix+s.QueueID, s.ID, 0).Err(); err != nil {
			return err
		}
	}
	r.publish(ctx, events.NewEvent(events.EventScheduleCreated, "schedule", s.ID, events.KindCreated, nil))
	return nil
}

func (r *Redis) GetSchedule(ctx context.Context, id string) (*model.Schedule, error) {
	var s model.Schedule
	if err := r.get(ctx, scheduleKey(id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Redis) UpdateSchedule(ctx context.Context, s *model.Schedule) error {
	if err := r.set(ctx, scheduleKey(s.ID), s); err != nil {
		return err
	}
	if s.QueueID != "" {
		if err := r.client.Set(ctx, scheduleByQueuePrefix+s.QueueID, s.ID, 0).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Redis) ListSchedules(ctx context.Context) ([]*model.Schedule, error) {
	ids, err := r.client.SMembers(ctx, schedulesSet).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Schedule, 0, len(ids))
	for _, id := range ids {
		s, err := r.GetSchedule(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Redis) ScheduleByQueueID(ctx context.Context, queueID string) (*model.Schedule, error) {
	id, err := r.client.Get(ctx, scheduleByQueuePrefix+queueID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetSchedule(ctx, id)
}

func (r *Redis) CreateQueue(ctx context.Context, q *model.Queue) error {
	if err := r.set(ctx, queueKey(q.ID), q); err != nil {
		return err
	}
	return r.syncQueueSetMembership(ctx, q)
}

func (r *Redis) GetQueue(ctx context.Context, id string) (*model.Queue, error) {
	var q model.Queue
	if err := r.get(ctx, queueKey(id), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *Redis) UpdateQueue(ctx context.Context, q *model.Queue) error {
	if err := r.set(ctx, queueKey(q.ID), q); err != nil {
		return err
	}
	if err := r.syncQueueSetMembership(ctx, q); err != nil {
		return err
	}

	r.publish(ctx, events.NewEvent(events.EventQueueStatusChanged, "queue", q.ID, events.KindUpdated,
		map[string]interface{}{"status": q.Status.String()}))
	return nil
}

// syncQueueSetMembership keeps the created/processing index sets in lock
// step with q.Status so ListDueQueues/ListProcessingQueues never have to
// scan every queue key.
func (r *Redis) syncQueueSetMembership(ctx context.Context, q *model.Queue) error {
	sets := map[string]model.QueueStatus{
		queueCreatedSet:    model.QueueCreated,
		queueProcessingSet: model.QueueProcessing,
	}
	for set, status := range sets {
		if q.Status == status {
			if err := r.client.SAdd(ctx, set, q.ID).Err(); err != nil {
				return err
			}
		} else {
			if err := r.client.SRem(ctx, set, q.ID).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListDueQueues returns every Queue still in Created status, mirroring the
// teacher's scheduledSetKey scan; the Daemon itself applies IsDue/IsOverdue
// filtering on the returned set.
func (r *Redis) ListDueQueues(ctx context.Context) ([]*model.Queue, error) {
	return r.listQueuesInSet(ctx, queueCreatedSet)
}

// ListProcessingQueues returns every Queue still in Processing status, so
// the Daemon can re-run CalculateStatus on it each tick (§4.5 step 1).
func (r *Redis) ListProcessingQueues(ctx context.Context) ([]*model.Queue, error) {
	return r.listQueuesInSet(ctx, queueProcessingSet)
}

func (r *Redis) listQueuesInSet(ctx context.Context, set string) ([]*model.Queue, error) {
	ids, err := r.client.SMembers(ctx, set).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Queue, 0, len(ids))
	for _, id := range ids {
		q, err := r.GetQueue(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (r *Redis) CreateTask(ctx context.Context, t *model.Task) error {
	if err := r.set(ctx, taskKey(t.ID), t); err != nil {
		return err
	}
	if t.QueueID != "" {
		if err := r.client.SAdd(ctx, fmt.Sprintf(queueTasksKey, t.QueueID), t.ID).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Redis) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	if err := r.get(ctx, taskKey(id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Redis) UpdateTask(ctx context.Context, t *model.Task) error {
	if err := r.set(ctx, taskKey(t.ID), t); err != nil {
		return err
	}
	r.publish(ctx, events.NewEvent(events.EventTaskStatusChanged, "task", t.ID, events.KindUpdated,
		map[string]interface{}{"status": t.Status.String()}))
	return nil
}

func (r *Redis) TasksByQueueID(ctx context.Context, queueID string) ([]*model.Task, error) {
	ids, err := r.client.SMembers(ctx, fmt.Sprintf(queueTasksKey, queueID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*model.Task, 0, len(ids))
	for _, id := range ids {
		t, err := r.GetTask(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
