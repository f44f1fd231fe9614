package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bidback/backend/internal/scheduler"
	"github.com/bidback/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the background job scheduler",
	Long: `Run the background job scheduler.

Jobs:
  breadth_rescore         - 02:00 daily, recomputes derived scores over the
                            trailing window (needed after rule changes)
  breadth_quality_report  - 07:00 Monday, logs a field-coverage report

Example:
  go run ./cmd/bidback scheduler
  go run ./cmd/bidback scheduler --run breadth_rescore`,
	RunE: runScheduler,
}

var schedulerRunNow string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringVar(&schedulerRunNow, "run", "", "trigger one job immediately on startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewRescoreJob(a.repo, 90, a.log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewQualityReportJob(a.service, 90, a.log)); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if schedulerRunNow != "" {
		if err := sched.RunJob(schedulerRunNow); err != nil {
			return err
		}
	}

	fmt.Println("Scheduler running. Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
