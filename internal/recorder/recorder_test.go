package recorder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovanka/streamvault/internal/model"
	"github.com/kovanka/streamvault/internal/store"
)

func testOptions() Options {
	return Options{
		TickInterval:      50 * time.Millisecond,
		OverextendSeconds: 10 * time.Second,
		FFmpegBinary:      "true",
	}
}

func TestRecorder_PrepareOutput_CreatesPlaceholderAndCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")

	sch := &model.Schedule{ID: "s-1", Duration: time.Hour}
	tsk := &model.Task{ID: "t-1"}
	r := New(sch, tsk, store.NewMemory(nil), testOptions())

	require.NoError(t, r.PrepareOutput(out, "http://example.com/live.m3u8"))

	_, err := os.Stat(out)
	require.NoError(t, err, "placeholder output file must exist")
	assert.Contains(t, tsk.Command, "01:00:00")
	assert.Equal(t, out, tsk.OutputPath)
}

func TestRecorder_Run_CompletesOnSuccessfulExit(t *testing.T) {
	st := store.NewMemory(nil)
	sch := &model.Schedule{ID: "s-1", StartTime: time.Now().Add(-time.Minute), Duration: time.Hour}
	tsk := &model.Task{ID: "t-1", Command: "exit 0"}
	require.NoError(t, st.CreateSchedule(context.Background(), sch))
	require.NoError(t, st.CreateTask(context.Background(), tsk))

	r := New(sch, tsk, st, testOptions())
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, model.ScheduleCompleted, sch.Status)
	assert.Equal(t, model.TaskCompleted, tsk.Status)
}

func TestRecorder_Run_StopsOnTerminateFlag(t *testing.T) {
	st := store.NewMemory(nil)
	sch := &model.Schedule{ID: "s-1", StartTime: time.Now().Add(-time.Minute), Duration: time.Hour}
	tsk := &model.Task{ID: "t-1", Command: "sleep 30"}
	require.NoError(t, st.CreateSchedule(context.Background(), sch))
	require.NoError(t, st.CreateTask(context.Background(), tsk))

	r := New(sch, tsk, st, testOptions())

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	time.Sleep(100 * time.Millisecond)
	sch.Terminate = true
	require.NoError(t, st.UpdateSchedule(context.Background(), sch))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("recorder did not stop after terminate flag was set")
	}

	assert.Equal(t, model.ScheduleCanceled, sch.Status)
	assert.Equal(t, model.TaskTerminated, tsk.Status)
}

func TestRecorder_Run_DeletesOutputOnFailure(t *testing.T) {
	st := store.NewMemory(nil)
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	require.NoError(t, os.WriteFile(out, []byte("partial"), 0o644))

	sch := &model.Schedule{ID: "s-1", StartTime: time.Now().Add(-time.Minute), Duration: time.Hour}
	tsk := &model.Task{ID: "t-1", Command: "exit 1", OutputPath: out}
	require.NoError(t, st.CreateSchedule(context.Background(), sch))
	require.NoError(t, st.CreateTask(context.Background(), tsk))

	r := New(sch, tsk, st, testOptions())
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, model.ScheduleError, sch.Status)
	assert.Equal(t, model.TaskError, tsk.Status)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "failed recording's placeholder output should be removed")
}

func TestRecorder_Run_OverextendStopsPastDeadline(t *testing.T) {
	st := store.NewMemory(nil)
	sch := &model.Schedule{
		ID:        "s-1",
		StartTime: time.Now().Add(-time.Minute),
		Duration:  100 * time.Millisecond,
	}
	tsk := &model.Task{ID: "t-1", Command: "sleep 30"}
	require.NoError(t, st.CreateSchedule(context.Background(), sch))
	require.NoError(t, st.CreateTask(context.Background(), tsk))

	opts := testOptions()
	opts.OverextendSeconds = 50 * time.Millisecond

	r := New(sch, tsk, st, opts)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, model.ScheduleCanceled, sch.Status)
}
