package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovanka/streamvault/internal/apperrors"
	"github.com/kovanka/streamvault/internal/config"
	"github.com/kovanka/streamvault/internal/model"
	"github.com/kovanka/streamvault/internal/store"
)

func testConfig(t *testing.T) config.DaemonConfig {
	return config.DaemonConfig{
		BaseDir:       t.TempDir(),
		Wait:          20 * time.Millisecond,
		Threshold:     time.Second,
		LivenessEvery: 10,
	}
}

func testTaskConfig() config.TaskConfig {
	return config.TaskConfig{TickInterval: time.Second, ReconcileInterval: 10 * time.Second}
}

func TestDaemon_StartWritesLockAndPidFiles(t *testing.T) {
	cfg := testConfig(t)
	d := New(cfg, testTaskConfig(), store.NewMemory(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	_, err := os.Stat(filepath.Join(cfg.BaseDir, runfileName))
	assert.NoError(t, err, "runfile should exist while daemon is running")
	_, err = os.Stat(filepath.Join(cfg.BaseDir, pidfileName))
	assert.NoError(t, err, "pidfile should exist while daemon is running")

	require.NoError(t, <-errCh)

	_, err = os.Stat(filepath.Join(cfg.BaseDir, runfileName))
	assert.True(t, os.IsNotExist(err), "runfile should be removed after shutdown")
}

func TestDaemon_StopWithoutRunningReturnsErrDaemonNotRunning(t *testing.T) {
	d := New(testConfig(t), testTaskConfig(), store.NewMemory(nil))
	err := d.Stop()
	assert.ErrorIs(t, err, apperrors.ErrDaemonNotRunning)
}

func TestDaemon_TimeoutsOverdueQueue(t *testing.T) {
	cfg := testConfig(t)
	st := store.NewMemory(nil)
	d := New(cfg, testTaskConfig(), st)

	past := time.Now().Add(-time.Hour)
	q := &model.Queue{ID: "q-1", Status: model.QueueCreated, Timer: &past}
	require.NoError(t, st.CreateQueue(context.Background(), q))

	d.tick(context.Background())

	got, err := st.GetQueue(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, model.QueueTimeout, got.Status)
}

func TestDaemon_ReconcilesProcessingQueue(t *testing.T) {
	cfg := testConfig(t)
	st := store.NewMemory(nil)
	d := New(cfg, testTaskConfig(), st)

	q := &model.Queue{ID: "q-1", Status: model.QueueProcessing}
	require.NoError(t, st.CreateQueue(context.Background(), q))
	require.NoError(t, st.CreateTask(context.Background(), &model.Task{
		ID: "t-1", QueueID: "q-1", Status: model.TaskCompleted,
	}))

	d.tick(context.Background())

	got, err := st.GetQueue(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, model.QueueCompleted, got.Status, "all-Completed tasks should roll up to a Completed queue")
}

func TestDaemon_DispatchesDueQueue(t *testing.T) {
	cfg := testConfig(t)
	st := store.NewMemory(nil)
	d := New(cfg, testTaskConfig(), st)

	q := &model.Queue{ID: "q-1", Status: model.QueueCreated}
	require.NoError(t, st.CreateQueue(context.Background(), q))
	require.NoError(t, st.CreateTask(context.Background(), &model.Task{ID: "t-1", QueueID: "q-1", Command: "exit 0"}))

	d.tick(context.Background())
	d.wg.Wait()

	got, err := st.GetTask(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, got.Status)
}
