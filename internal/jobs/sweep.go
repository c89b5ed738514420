package jobs

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/emrgen/contentstore/internal/gc"
)

var _ CronJob = (*SweepJob)(nil)

// SweepJob runs the global orphan sweep on a cron schedule, reclaiming
// files that per-record cleanup missed (duplicate uploads after an index
// write failure, crashes between file write and reference sync).
type SweepJob struct {
	gc       *gc.Collector
	schedule string
}

func NewSweepJob(collector *gc.Collector, schedule string) *SweepJob {
	return &SweepJob{gc: collector, schedule: schedule}
}

func (s *SweepJob) Schedule() string {
	return s.schedule
}

func (s *SweepJob) Run() {
	deleted, err := s.gc.Sweep(context.Background())
	if err != nil {
		logrus.Errorf("scheduled sweep failed: %v", err)
		return
	}

	if deleted > 0 {
		logrus.Infof("scheduled sweep deleted %d orphaned images", deleted)
	}
}
