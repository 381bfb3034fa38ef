package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	originalDir, _ := os.Getwd()
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	defer os.Chdir(originalDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "queue", cfg.Daemon.Mode)
	assert.Equal(t, "./data", cfg.Daemon.BaseDir)
	assert.Equal(t, 2*time.Second, cfg.Daemon.Wait)
	assert.Equal(t, 4*time.Second, cfg.Daemon.Threshold)

	assert.Equal(t, 5*time.Second, cfg.Recorder.TickSeconds)
	assert.Equal(t, 10*time.Second, cfg.Recorder.OverextendSeconds)
	assert.Equal(t, 500*time.Millisecond, cfg.Recorder.StartWaitPoll)

	assert.Equal(t, 1*time.Second, cfg.Task.TickInterval)
	assert.Equal(t, 10*time.Second, cfg.Task.ReconcileInterval)

	assert.Equal(t, "ffmpeg", cfg.FFmpeg.BinaryPath)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := tmpDir + "/config.yaml"

	configContent := `
daemon:
  mode: "record"
  basedir: "/var/lib/streamvault"
  wait: 3s

recorder:
  overextendseconds: 20s

redis:
  addr: "custom-redis:6380"
  db: 2

loglevel: "warn"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	originalDir, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(originalDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "record", cfg.Daemon.Mode)
	assert.Equal(t, "/var/lib/streamvault", cfg.Daemon.BaseDir)
	assert.Equal(t, 3*time.Second, cfg.Daemon.Wait)
	assert.Equal(t, 20*time.Second, cfg.Recorder.OverextendSeconds)
	assert.Equal(t, "custom-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestDaemonConfig_Fields(t *testing.T) {
	cfg := DaemonConfig{
		Mode:      "queue",
		BaseDir:   "/tmp/streamvault",
		Wait:      2 * time.Second,
		Threshold: 4 * time.Second,
	}

	assert.Equal(t, "queue", cfg.Mode)
	assert.Equal(t, 2*time.Second, cfg.Wait)
}
