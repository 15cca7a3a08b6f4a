package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"perkgate-hub/internal/service"
)

const couponSweepTimeout = 2 * time.Minute

// CouponSweepJob deactivates coupons whose expiry timestamp has passed.
// Expiry is also enforced at read time, so a missed run only delays the
// admin-facing flag flip, never lets an expired coupon issue.
type CouponSweepJob struct {
	couponService *service.CouponService
	logger        *zap.Logger
}

func NewCouponSweepJob(couponService *service.CouponService, logger *zap.Logger) *CouponSweepJob {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CouponSweepJob{
		couponService: couponService,
		logger:        logger,
	}
}

func (j *CouponSweepJob) SweepExpired() {
	if j == nil || j.couponService == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), couponSweepTimeout)
	defer cancel()

	if _, err := j.couponService.SweepExpired(ctx); err != nil {
		j.logger.Warn("expired coupon sweep failed", zap.Error(err))
	}
}
