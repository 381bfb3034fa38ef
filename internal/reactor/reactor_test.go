package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovanka/streamvault/internal/events"
	"github.com/kovanka/streamvault/internal/model"
	"github.com/kovanka/streamvault/internal/store"
)

func TestReactor_OnScheduleCreated_BuildsQueueAndRecordTask(t *testing.T) {
	bus := events.NewMemoryBus()
	st := store.NewMemory(bus)
	ctx := context.Background()

	require.NoError(t, st.CreateChannel(ctx, model.NewChannel("c-1", "News", "http://example.com/news.m3u8", "")))

	r := New(st, bus, "ffmpeg")
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond) // let subscribe land before publish

	sch := &model.Schedule{ID: "s-1", ChannelID: "c-1", StartTime: time.Now(), Duration: time.Hour}
	require.NoError(t, st.CreateSchedule(ctx, sch))

	require.Eventually(t, func() bool {
		got, err := st.GetSchedule(ctx, "s-1")
		return err == nil && got.QueueID != ""
	}, time.Second, 10*time.Millisecond)

	updated, err := st.GetSchedule(ctx, "s-1")
	require.NoError(t, err)

	tasks, err := st.TasksByQueueID(ctx, updated.QueueID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0].Command, "news.m3u8")
	assert.Contains(t, tasks[0].Command, "01:00:00")
}

func TestReactor_OnScheduleCreated_AddsResizeTaskWhenRequested(t *testing.T) {
	bus := events.NewMemoryBus()
	st := store.NewMemory(bus)
	ctx := context.Background()

	require.NoError(t, st.CreateChannel(ctx, model.NewChannel("c-1", "News", "http://example.com/news.m3u8", "")))

	r := New(st, bus, "ffmpeg")
	go func() { _ = r.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	sch := &model.Schedule{
		ID: "s-1", ChannelID: "c-1", StartTime: time.Now(), Duration: time.Hour,
		Resize: &model.ResizeSpec{Width: 1280, Height: 720},
	}
	require.NoError(t, st.CreateSchedule(ctx, sch))

	require.Eventually(t, func() bool {
		got, err := st.GetSchedule(ctx, "s-1")
		if err != nil || got.QueueID == "" {
			return false
		}
		tasks, err := st.TasksByQueueID(ctx, got.QueueID)
		return err == nil && len(tasks) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestReactor_OnQueueStatusChanged_MirrorsCompletedOntoSchedule(t *testing.T) {
	bus := events.NewMemoryBus()
	st := store.NewMemory(bus)
	ctx := context.Background()

	require.NoError(t, st.CreateQueue(ctx, &model.Queue{ID: "q-1", Status: model.QueueCreated}))
	require.NoError(t, st.CreateSchedule(ctx, &model.Schedule{ID: "s-1", QueueID: "q-1"}))
	require.NoError(t, st.CreateTask(ctx, &model.Task{ID: "t-1", QueueID: "q-1", OutputPath: "out.mp4"}))

	r := New(st, bus, "ffmpeg")
	go func() { _ = r.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	q, err := st.GetQueue(ctx, "q-1")
	require.NoError(t, err)
	q.Status = model.QueueCompleted
	require.NoError(t, st.UpdateQueue(ctx, q))

	require.Eventually(t, func() bool {
		sch, err := st.GetSchedule(ctx, "s-1")
		return err == nil && sch.Status == model.ScheduleCompleted
	}, time.Second, 10*time.Millisecond)

	sch, err := st.GetSchedule(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "out.mp4", sch.FileRef)
}
