package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kovanka/streamvault/internal/model"
	"github.com/kovanka/streamvault/internal/recorder"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Inspect and control scheduled recordings",
}

var recordListCmd = &cobra.Command{
	Use:   "list [statuses...]",
	Short: "List schedules, optionally filtered by status",
	RunE:  runRecordList,
}

var recordStartCmd = &cobra.Command{
	Use:   "start <schedule-id>",
	Short: "Start one schedule's recording",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordStart,
}

var recordStopCmd = &cobra.Command{
	Use:   "stop <schedule-id>",
	Short: "Request termination of a running recording",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordStop,
}

var recordCheckCmd = &cobra.Command{
	Use:       "check timeout",
	Short:     "Sweep past-due Scheduled schedules into Timeout",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"timeout"},
	RunE:      runRecordCheckTimeout,
}

func init() {
	recordListCmd.Flags().Int("count", 0, "limit the number of rows printed (0 = unlimited)")
	recordStartCmd.Flags().Bool("now", false, "bypass the scheduled-time wait and start immediately")
	recordCheckCmd.Flags().Bool("dry-run", false, "report what would time out without writing changes")

	recordCmd.AddCommand(recordListCmd, recordStartCmd, recordStopCmd, recordCheckCmd)
}

func runRecordList(cmd *cobra.Command, args []string) error {
	st, _, cleanup, err := newStore(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	count, _ := cmd.Flags().GetInt("count")

	wanted := make(map[string]bool, len(args))
	for _, a := range args {
		wanted[strings.ToLower(a)] = true
	}

	schedules, err := st.ListSchedules(cmd.Context())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Status", "Start Time", "Duration", "Channel"})

	printed := 0
	for _, s := range schedules {
		if len(wanted) > 0 && !wanted[strings.ToLower(s.Status.String())] {
			continue
		}
		if count > 0 && printed >= count {
			break
		}
		table.Append([]string{
			s.ID,
			s.Name,
			s.Status.String(),
			s.StartTime.Format(time.RFC3339),
			s.Duration.String(),
			s.ChannelID,
		})
		printed++
	}

	table.Render()
	return nil
}

func runRecordStart(cmd *cobra.Command, args []string) error {
	st, _, cleanup, err := newStore(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	now, _ := cmd.Flags().GetBool("now")

	ctx := cmd.Context()
	sch, err := st.GetSchedule(ctx, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "schedule not found:", args[0])
		return err
	}
	if sch.QueueID == "" {
		return fmt.Errorf("schedule %s has no queue; nothing to start", sch.ID)
	}

	tasks, err := st.TasksByQueueID(ctx, sch.QueueID)
	if err != nil {
		return err
	}
	var recordTask *model.Task
	for _, t := range tasks {
		if t.Name == "record" {
			recordTask = t
			break
		}
	}
	if recordTask == nil {
		return fmt.Errorf("schedule %s's queue has no record task", sch.ID)
	}

	channel, err := st.GetChannel(ctx, sch.ChannelID)
	if err != nil {
		return err
	}

	rec := recorder.New(sch, recordTask, st, recorderOptionsFor(!now))
	if recordTask.Command == "" {
		if err := rec.PrepareOutput(recordTask.OutputPath, channel.URL); err != nil {
			return err
		}
	}

	if err := rec.Run(ctx); err != nil {
		return err
	}
	fmt.Println("recording finished with status", sch.Status)
	return nil
}

func runRecordStop(cmd *cobra.Command, args []string) error {
	st, _, cleanup, err := newStore(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	sch, err := st.GetSchedule(ctx, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "schedule not found:", args[0])
		return err
	}

	sch.Terminate = true
	if err := st.UpdateSchedule(ctx, sch); err != nil {
		return err
	}
	fmt.Println("termination requested for", sch.ID)
	return nil
}

func runRecordCheckTimeout(cmd *cobra.Command, args []string) error {
	st, _, cleanup, err := newStore(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()

	schedules, err := st.ListSchedules(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	swept := 0
	for _, s := range schedules {
		if s.Status != model.ScheduleScheduled || !s.IsPassed(now) {
			continue
		}
		swept++
		if dryRun {
			fmt.Println("would time out:", s.ID)
			continue
		}
		s.Status = model.ScheduleTimeout
		if err := st.UpdateSchedule(ctx, s); err != nil {
			return err
		}
		fmt.Println("timed out:", s.ID)
	}

	if swept == 0 {
		fmt.Println("no past-due schedules found")
	}
	return nil
}

func recorderOptionsFor(waitForStart bool) recorder.Options {
	opts := recorder.DefaultOptions(cfg.Recorder)
	opts.WaitForStartTime = waitForStart
	if cfg.FFmpeg.BinaryPath != "" {
		opts.FFmpegBinary = cfg.FFmpeg.BinaryPath
	}
	return opts
}
