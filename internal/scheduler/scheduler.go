package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	specCouponSweep   = "0 0 * * * *"
	specTrackingPrune = "0 30 3 * * *"
)

type CouponTask interface {
	SweepExpired()
}

type TrackingTask interface {
	PruneOld()
}

type Deps struct {
	CouponJob   CouponTask
	TrackingJob TrackingTask
}

// NewScheduler registers the maintenance jobs. The caller starts and stops
// the returned cron alongside the HTTP server.
func NewScheduler(deps Deps, logger *zap.Logger) *cron.Cron {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))

	if deps.CouponJob != nil {
		addFunc(c, specCouponSweep, "coupon.sweep_expired", logger, deps.CouponJob.SweepExpired)
	}
	if deps.TrackingJob != nil {
		addFunc(c, specTrackingPrune, "tracking.prune_old", logger, deps.TrackingJob.PruneOld)
	}

	return c
}

func addFunc(c *cron.Cron, spec string, name string, logger *zap.Logger, fn func()) {
	if c == nil || fn == nil {
		return
	}

	if _, err := c.AddFunc(spec, func() {
		defer recoverJobPanic(name, logger)
		start := time.Now()
		fn()
		logger.Debug("scheduler job finished", zap.String("job", name), zap.Duration("cost", time.Since(start)))
	}); err != nil {
		logger.Error("register scheduler job failed",
			zap.String("job", name),
			zap.String("spec", spec),
			zap.Error(err),
		)
	}
}

func recoverJobPanic(jobName string, logger *zap.Logger) {
	if logger == nil {
		return
	}

	if recovered := recover(); recovered != nil {
		logger.Error("scheduler job panic recovered",
			zap.String("job", jobName),
			zap.Any("panic", recovered),
		)
	}
}
