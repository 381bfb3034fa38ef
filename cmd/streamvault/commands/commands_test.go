package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovanka/streamvault/internal/config"
)

// withTestConfig points the package-level cfg at safe defaults without
// touching the filesystem or Redis, mirroring what PersistentPreRunE would
// set up from config.Load().
func withTestConfig(t *testing.T) {
	t.Helper()
	cfg = &config.Config{
		Daemon:  config.DaemonConfig{BaseDir: t.TempDir()},
		FFmpeg:  config.FFmpegConfig{BinaryPath: "ffmpeg"},
		Metrics: config.MetricsConfig{Enabled: false},
	}
}

// withLocalFlag registers a --local bool flag directly on cmd if one isn't
// already present, so RunE functions invoked outside rootCmd.Execute() still
// see the in-memory-store opt-in that's normally an inherited persistent flag.
func withLocalFlag(cmd *cobra.Command, value bool) {
	if cmd.Flags().Lookup("local") == nil {
		cmd.Flags().Bool("local", value, "")
	}
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "daemon")
	assert.Contains(t, names, "record")
	assert.Contains(t, names, "channel")
}

func TestDaemonCmd_RegistersLifecycleSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range daemonCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"start", "stop", "restart", "status"}, names)
}

func TestDaemonStatus_LocalNotRunning(t *testing.T) {
	withTestConfig(t)
	withLocalFlag(daemonStatusCmd, true)
	require.NoError(t, runDaemonStatus(daemonStatusCmd, nil))
}

func TestChannelAdd_RejectsShortName(t *testing.T) {
	withTestConfig(t)
	cmd := channelAddCmd
	require.NoError(t, cmd.Flags().Set("channel", "a"))
	require.NoError(t, cmd.Flags().Set("url", "http://example.com/stream"))
	withLocalFlag(cmd, true)

	err := runChannelAdd(cmd, nil)
	assert.Error(t, err)
}

func TestChannelAdd_RejectsInvalidURL(t *testing.T) {
	withTestConfig(t)
	cmd := channelAddCmd
	require.NoError(t, cmd.Flags().Set("channel", "news-24"))
	require.NoError(t, cmd.Flags().Set("url", "not-a-url"))
	withLocalFlag(cmd, true)

	err := runChannelAdd(cmd, nil)
	assert.Error(t, err)
}

func TestChannelAdd_AcceptsValidInput(t *testing.T) {
	withTestConfig(t)
	cmd := channelAddCmd
	require.NoError(t, cmd.Flags().Set("channel", "news-24"))
	require.NoError(t, cmd.Flags().Set("url", "http://example.com/stream.m3u8"))
	require.NoError(t, cmd.Flags().Set("category", ""))
	withLocalFlag(cmd, true)

	assert.NoError(t, runChannelAdd(cmd, nil))
}

func TestRecordCheckTimeout_NoSchedulesIsNotAnError(t *testing.T) {
	withTestConfig(t)
	cmd := recordCheckCmd
	require.NoError(t, cmd.Flags().Set("dry-run", "true"))
	withLocalFlag(cmd, true)

	assert.NoError(t, runRecordCheckTimeout(cmd, []string{"timeout"}))
}
