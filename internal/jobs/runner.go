package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/novafund/novafund-api/internal/domain/investment"
	"github.com/novafund/novafund-api/internal/domain/recurring"
)

// Runner coordinates the scheduled batch jobs. Each job is idempotent for
// a given day, so a crashed or repeated run never double-credits.
type Runner struct {
	investments *investment.Service
	recurrings  *recurring.Service
}

func NewRunner(investments *investment.Service, recurrings *recurring.Service) *Runner {
	return &Runner{investments: investments, recurrings: recurrings}
}

// runWithRecovery wraps job execution with panic recovery so one failing
// job cannot take down the scheduler.
func (r *Runner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("job", jobName).Interface("panic", rec).Msg("job panicked")
		}
	}()

	ctx := context.Background()
	started := time.Now()
	log.Info().Str("job", jobName).Msg("job starting")
	if err := jobFunc(ctx); err != nil {
		log.Error().Err(err).Str("job", jobName).Msg("job failed")
		return
	}
	log.Info().Str("job", jobName).Dur("took", time.Since(started)).Msg("job finished")
}

// DailyAccrual credits one day of returns to every active investment.
func (r *Runner) DailyAccrual() {
	r.runWithRecovery("daily_accrual", func(ctx context.Context) error {
		return r.investments.AccrueAll(ctx, time.Now().UTC())
	})
}

// MissedSweep flips overdue recurring plans to missed.
func (r *Runner) MissedSweep() {
	r.runWithRecovery("missed_sweep", func(ctx context.Context) error {
		return r.recurrings.SweepMissed(ctx, time.Now().UTC())
	})
}

// RunAll runs every job immediately, for manual or operational use.
func (r *Runner) RunAll() {
	r.DailyAccrual()
	r.MissedSweep()
}
