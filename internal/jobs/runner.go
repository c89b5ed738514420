package jobs

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

type Job interface {
	Run()
}

type CronJob interface {
	Schedule() string
	Job
}

// TaskExecutor runs cron jobs on their schedules, skipping a tick when
// the previous run of the same job is still going.
type TaskExecutor struct {
	cron    *cron.Cron
	jobs    []CronJob
	running mapset.Set[CronJob]
	mu      sync.Mutex
}

func NewTaskExecutor(jobs []CronJob) *TaskExecutor {
	return &TaskExecutor{
		cron:    cron.New(),
		jobs:    jobs,
		running: mapset.NewSet[CronJob](),
	}
}

// Run schedules the jobs; each runs in its own goroutine inside the cron.
func (t *TaskExecutor) Run() {
	for _, job := range t.jobs {
		err := t.cron.AddFunc(job.Schedule(), func() {
			t.mu.Lock()
			if t.running.Contains(job) {
				t.mu.Unlock()
				logrus.Warn("job is still running, skipping this tick")
				return
			}
			t.running.Add(job)
			t.mu.Unlock()

			defer func() {
				t.mu.Lock()
				defer t.mu.Unlock()
				t.running.Remove(job)
			}()

			job.Run()
		})

		if err != nil {
			logrus.Errorf("failed to add job to cron: %v", err)
			panic(err)
		}
	}

	t.cron.Start()
}

func (t *TaskExecutor) Stop() {
	logrus.Infof("stopping all jobs")
	t.cron.Stop()
}
