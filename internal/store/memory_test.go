package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovanka/streamvault/internal/apperrors"
	"github.com/kovanka/streamvault/internal/events"
	"github.com/kovanka/streamvault/internal/model"
)

func TestMemory_ChannelRoundTrip(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	c := model.NewChannel("c-1", "News 24", "http://example.com/news.m3u8", "")
	require.NoError(t, s.CreateChannel(ctx, c))

	got, err := s.GetChannel(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "News 24", got.Name)

	list, err := s.ListChannels(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemory_GetChannel_NotFound(t *testing.T) {
	s := NewMemory(nil)
	_, err := s.GetChannel(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemory_CreateSchedule_PublishesEvent(t *testing.T) {
	bus := events.NewMemoryBus()
	s := NewMemory(bus)
	ctx := context.Background()

	ch, err := bus.Subscribe(ctx, events.EventScheduleCreated)
	require.NoError(t, err)

	sch := &model.Schedule{ID: "s-1", ChannelID: "c-1", StartTime: time.Now(), Duration: time.Hour}
	require.NoError(t, s.CreateSchedule(ctx, sch))

	select {
	case e := <-ch:
		assert.Equal(t, "s-1", e.ID)
	case <-time.After(time.Second):
		t.Fatal("expected schedule.created event")
	}
}

func TestMemory_UpdateQueue_PublishesEventAndMutatesDueSet(t *testing.T) {
	bus := events.NewMemoryBus()
	s := NewMemory(bus)
	ctx := context.Background()

	q := &model.Queue{ID: "q-1", Status: model.QueueCreated}
	require.NoError(t, s.CreateQueue(ctx, q))

	due, err := s.ListDueQueues(ctx)
	require.NoError(t, err)
	assert.Len(t, due, 1)

	ch, err := bus.Subscribe(ctx, events.EventQueueStatusChanged)
	require.NoError(t, err)

	q.Status = model.QueueProcessing
	require.NoError(t, s.UpdateQueue(ctx, q))

	select {
	case e := <-ch:
		assert.Equal(t, "q-1", e.ID)
	case <-time.After(time.Second):
		t.Fatal("expected queue.status_changed event")
	}

	due, err = s.ListDueQueues(ctx)
	require.NoError(t, err)
	assert.Len(t, due, 0)
}

func TestMemory_TasksByQueueID(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	require.NoError(t, s.CreateTask(ctx, &model.Task{ID: "t-1", QueueID: "q-1", Line: 0}))
	require.NoError(t, s.CreateTask(ctx, &model.Task{ID: "t-2", QueueID: "q-1", Line: 1}))
	require.NoError(t, s.CreateTask(ctx, &model.Task{ID: "t-3", QueueID: "q-2", Line: 0}))

	tasks, err := s.TasksByQueueID(ctx, "q-1")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestMemory_ScheduleByQueueID(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	require.NoError(t, s.CreateSchedule(ctx, &model.Schedule{ID: "s-1", QueueID: "q-1"}))

	got, err := s.ScheduleByQueueID(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.ID)

	_, err = s.ScheduleByQueueID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemory_ReturnedPointersAreCopies(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	c := model.NewChannel("c-1", "Original", "http://example.com", "")
	require.NoError(t, s.CreateChannel(ctx, c))

	got, err := s.GetChannel(ctx, "c-1")
	require.NoError(t, err)
	got.Name = "Mutated"

	again, err := s.GetChannel(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Name)
}
