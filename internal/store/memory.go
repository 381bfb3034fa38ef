package store

import (
	"context"
	"sync"

	"github.com/kovanka/streamvault/internal/apperrors"
	"github.com/kovanka/streamvault/internal/events"
	"github.com/kovanka/streamvault/internal/model"
)

// Memory is an in-process Store used by tests and by the CLI's --local mode.
// Copies in/out of its maps guard against callers mutating shared state
// through a returned pointer after Get.
type Memory struct {
	mu sync.RWMutex

	channels   map[string]*model.Channel
	categories map[string]*model.Category
	schedules  map[string]*model.Schedule
	queues     map[string]*model.Queue
	tasks      map[string]*model.Task

	bus events.Bus
}

// NewMemory creates an empty Memory store publishing to bus.
func NewMemory(bus events.Bus) *Memory {
	return &Memory{
		channels:   make(map[string]*model.Channel),
		categories: make(map[string]*model.Category),
		schedules:  make(map[string]*model.Schedule),
		queues:     make(map[string]*model.Queue),
		tasks:      make(map[string]*model.Task),
		bus:        bus,
	}
}

func (m *Memory) publish(ctx context.Context, evt *events.Event) {
	if m.bus == nil {
		return
	}
	_ = m.bus.Publish(ctx, evt)
}

func (m *Memory) CreateChannel(ctx context.Context, c *model.Channel) error {
	m.mu.Lock()
	cp := *c
	m.channels[c.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetChannel(ctx context.Context, id string) (*model.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.channels[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) ListChannels(ctx context.Context) ([]*model.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Channel, 0, len(m.channels))
	for _, c := range m.channels {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) CreateCategory(ctx context.Context, c *model.Category) error {
	m.mu.Lock()
	cp := *c
	m.categories[c.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) ListCategories(ctx context.Context) ([]*model.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Category, 0, len(m.categories))
	for _, c := range m.categories {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) CreateSchedule(ctx context.Context, s *model.Schedule) error {
	m.mu.Lock()
	cp := *s
	m.schedules[s.ID] = &cp
	m.mu.Unlock()

	m.publish(ctx, events.NewEvent(events.EventScheduleCreated, "schedule", s.ID, events.KindCreated, nil))
	return nil
}

func (m *Memory) GetSchedule(ctx context.Context, id string) (*model.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) UpdateSchedule(ctx context.Context, s *model.Schedule) error {
	m.mu.Lock()
	cp := *s
	m.schedules[s.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) ListSchedules(ctx context.Context) ([]*model.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Schedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) ScheduleByQueueID(ctx context.Context, queueID string) (*model.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.schedules {
		if s.QueueID == queueID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *Memory) CreateQueue(ctx context.Context, q *model.Queue) error {
	m.mu.Lock()
	cp := *q
	m.queues[q.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetQueue(ctx context.Context, id string) (*model.Queue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.queues[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *Memory) UpdateQueue(ctx context.Context, q *model.Queue) error {
	m.mu.Lock()
	cp := *q
	m.queues[q.ID] = &cp
	m.mu.Unlock()

	m.publish(ctx, events.NewEvent(events.EventQueueStatusChanged, "queue", q.ID, events.KindUpdated,
		map[string]interface{}{"status": q.Status.String()}))
	return nil
}

func (m *Memory) ListDueQueues(ctx context.Context) ([]*model.Queue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Queue, 0)
	for _, q := range m.queues {
		if q.Status == model.QueueCreated {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ListProcessingQueues returns every Queue still in Processing status, so
// the Daemon can re-run CalculateStatus on it each tick (§4.5 step 1).
func (m *Memory) ListProcessingQueues(ctx context.Context) ([]*model.Queue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Queue, 0)
	for _, q := range m.queues {
		if q.Status == model.QueueProcessing {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) CreateTask(ctx context.Context, t *model.Task) error {
	m.mu.Lock()
	cp := *t
	m.tasks[t.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetTask(ctx context.Context, id string) (*model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Memory) UpdateTask(ctx context.Context, t *model.Task) error {
	m.mu.Lock()
	cp := *t
	m.tasks[t.ID] = &cp
	m.mu.Unlock()

	m.publish(ctx, events.NewEvent(events.EventTaskStatusChanged, "task", t.ID, events.KindUpdated,
		map[string]interface{}{"status": t.Status.String()}))
	return nil
}

func (m *Memory) TasksByQueueID(ctx context.Context, queueID string) ([]*model.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Task, 0)
	for _, t := range m.tasks {
		if t.QueueID == queueID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}
