package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/novafund/novafund-api/internal/jobs"
)

// Scheduler drives the batch jobs on cron schedules. All schedules are
// interpreted in UTC with seconds precision.
type Scheduler struct {
	cron   *cron.Cron
	runner *jobs.Runner
}

func New(runner *jobs.Runner, accrualSpec, sweepSpec string) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{cron: c, runner: runner}

	if _, err := c.AddFunc(accrualSpec, runner.DailyAccrual); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(sweepSpec, runner.MissedSweep); err != nil {
		return nil, err
	}

	log.Info().
		Str("accrual", accrualSpec).
		Str("sweep", sweepSpec).
		Msg("jobs registered")
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}
