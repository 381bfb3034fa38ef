package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kovanka/streamvault/internal/adminhttp"
	"github.com/kovanka/streamvault/internal/apperrors"
	"github.com/kovanka/streamvault/internal/daemon"
	"github.com/kovanka/streamvault/internal/logger"
	"github.com/kovanka/streamvault/internal/reactor"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Control the background recording daemon (start|stop|restart|status)",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the foreground",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Stop then start the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runDaemonStop(cmd, args); err != nil && !errors.Is(err, apperrors.ErrDaemonNotRunning) {
			return err
		}
		return runDaemonStart(cmd, args)
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is running",
	RunE:  runDaemonStatus,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd, daemonStopCmd, daemonRestartCmd, daemonStatusCmd)
}

// runner is satisfied by both the queue-mode Daemon and the record-mode
// Daemon variant (SPEC_FULL.md §4.5.1); cfg.Daemon.Mode picks which one the
// CLI constructs.
type runner interface {
	Start(ctx context.Context) error
	Stop() error
	Status() (bool, int)
}

func buildRunner(cmd *cobra.Command) (runner, adminhttp.StatusReporter, func(), error) {
	st, bus, cleanup, err := newStore(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Daemon.Mode == "record" {
		r := daemon.NewRecordModeRunner(cfg.Daemon, cfg.Recorder, st, cfg.FFmpeg.BinaryPath)
		return r, r, cleanup, nil
	}

	d := daemon.New(cfg.Daemon, cfg.Task, st)
	_ = bus // queue mode's reactor subscribes to bus separately in runDaemonStart
	return d, d, cleanup, nil
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	st, bus, cleanup, err := newStore(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("received shutdown signal")
		cancel()
	}()

	recordMode := cfg.Daemon.Mode == "record"

	var d runner
	var reporter adminhttp.StatusReporter
	if recordMode {
		rm := daemon.NewRecordModeRunner(cfg.Daemon, cfg.Recorder, st, cfg.FFmpeg.BinaryPath)
		d, reporter = rm, rm
	} else {
		q := daemon.New(cfg.Daemon, cfg.Task, st)
		d, reporter = q, q
	}

	var admin *adminhttp.Server
	if cfg.Metrics.Enabled {
		admin = adminhttp.New(cfg.Metrics, reporter)
		go func() {
			if err := admin.ListenAndServe(); err != nil {
				logger.Error().Err(err).Msg("admin http server failed")
			}
		}()
		go func() {
			<-ctx.Done()
			_ = admin.Shutdown(context.Background())
		}()
	}

	// Record mode polls Schedule rows directly and never builds a Queue, so
	// the Reactor (which reacts to schedule-created/queue-status-changed
	// events) has nothing to subscribe to in that mode.
	if !recordMode {
		react := reactor.New(st, bus, cfg.FFmpeg.BinaryPath)
		go func() {
			if err := react.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("reactor stopped")
			}
		}()
	}

	if err := d.Start(ctx); err != nil {
		if errors.Is(err, apperrors.ErrDaemonRunning) {
			fmt.Fprintln(os.Stderr, "daemon already running")
		}
		return err
	}
	fmt.Println("daemon stopped cleanly")
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	d, _, cleanup, err := buildRunner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := d.Stop(); err != nil {
		if errors.Is(err, apperrors.ErrDaemonNotRunning) {
			fmt.Fprintln(os.Stderr, "daemon is not running")
		}
		return err
	}
	fmt.Println("daemon stopped")
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	d, _, cleanup, err := buildRunner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	running, pid := d.Status()
	if !running {
		fmt.Println("daemon is not running")
		return nil
	}
	fmt.Printf("daemon is running (pid %d)\n", pid)
	return nil
}
