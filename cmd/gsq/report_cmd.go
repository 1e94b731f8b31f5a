package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gsquant/marquee-go/internal/api/reports"
	ilog "github.com/gsquant/marquee-go/internal/log"
)

func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Report job commands",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Schedule a report run and optionally wait for it",
		RunE:  runReportRun,
	}
	runCmd.Flags().String("report", "", "Report ID")
	runCmd.MarkFlagRequired("report")
	runCmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	runCmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	runCmd.Flags().Bool("wait", false, "Poll the job until it completes")
	runCmd.Flags().Duration("poll-interval", 5*time.Second, "Interval between status polls")
	runCmd.Flags().Int("max-polls", 120, "Maximum number of status polls")

	reportCmd.AddCommand(runCmd)
	return reportCmd
}

func runReportRun(cmd *cobra.Command, args []string) error {
	reportID, _ := cmd.Flags().GetString("report")
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	wait, _ := cmd.Flags().GetBool("wait")
	pollInterval, _ := cmd.Flags().GetDuration("poll-interval")
	maxPolls, _ := cmd.Flags().GetInt("max-polls")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := newSession(cfg)
	if err != nil {
		return err
	}

	progress := ilog.NewProgress(os.Stderr, "report job", term.IsTerminal(int(os.Stderr.Fd())))
	svc := reports.NewService(sess,
		reports.WithPollInterval(pollInterval),
		reports.WithMaxPolls(maxPolls),
		reports.WithPollObserver(func(job reports.Job) {
			progress.Update(string(job.Status))
		}),
	)

	job, err := svc.Schedule(cmd.Context(), reportID, reports.ScheduleParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Job %s scheduled (%s)\n", job.ID, job.Status)

	if !wait {
		return nil
	}

	job, err = svc.WaitForCompletion(cmd.Context(), job.ID)
	if err != nil {
		progress.Done(string(job.Status))
		return err
	}
	progress.Done(string(job.Status))
	fmt.Fprintf(cmd.OutOrStdout(), "Job %s finished (%s)\n", job.ID, job.Status)
	return nil
}
