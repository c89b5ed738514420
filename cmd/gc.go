package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/emrgen/contentstore/internal/jobs"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "image garbage collection commands",
}

func init() {
	rootCmd.AddCommand(gcCmd)
	gcCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	gcCmd.AddCommand(sweepCmd())
	gcCmd.AddCommand(jobsCmd())
}

func sweepCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "sweep",
		Short:   "delete every stored image no record references",
		Example: "contentstore gc sweep",
		Run: func(cmd *cobra.Command, args []string) {
			e := newEnv()
			defer e.Close()

			deleted, err := e.gc.Sweep(cmd.Context())
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("sweep deleted %d orphaned images", deleted)
		},
	}

	return command
}

func jobsCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "jobs",
		Short:   "run the scheduled housekeeping jobs",
		Long:    "run the sweep and revision coalescing jobs on their configured cron schedules until interrupted",
		Example: "CONTENTSTORE_JOBS_SWEEP_SCHEDULE='@hourly' contentstore gc jobs",
		Run: func(cmd *cobra.Command, args []string) {
			e := newEnv()
			defer e.Close()

			var cronJobs []jobs.CronJob
			if e.cfg.Jobs.SweepSchedule != "" {
				cronJobs = append(cronJobs, jobs.NewSweepJob(e.gc, e.cfg.Jobs.SweepSchedule))
			}
			if e.cfg.Jobs.CoalesceSchedule != "" {
				cronJobs = append(cronJobs, jobs.NewRevisionCoalescer(e.store, e.cfg.Jobs.CoalesceSchedule, e.cfg.Jobs.CoalesceWindow))
			}

			if len(cronJobs) == 0 {
				logrus.Warn("no job schedules configured, nothing to run")
				return
			}

			executor := jobs.NewTaskExecutor(cronJobs)
			executor.Run()
			defer executor.Stop()

			logrus.Infof("running %d scheduled jobs", len(cronJobs))

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop
		},
	}

	return command
}
