package main

import (
	"log"

	"IndexVault/internal/scheduler"

	"github.com/spf13/cobra"
)

var runNow bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run scheduled syncs until interrupted",
	Long: `Synchronize on the schedule.sync_cron expression (with seconds).

When Telegram is configured, each run summary is sent to the chat and the
bot answers /sync and /status.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&runNow, "run-now", false, "sync once immediately on start")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	sched := scheduler.NewScheduler(ctx, a.runner, a.recorder)
	if err := sched.Register(a.cfg.Schedule.SyncCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if a.telegram != nil {
		go a.telegram.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}
	if runNow {
		go sched.RunNow()
	}

	log.Printf("[INFO] IndexVault is running (%s). Press Ctrl+C to stop.", a.cfg.Schedule.SyncCron)
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}
