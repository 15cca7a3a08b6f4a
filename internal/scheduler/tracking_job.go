package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"perkgate-hub/internal/service"
)

const (
	trackingPruneTimeout = 5 * time.Minute

	// Raw click and event rows are only read for recent-funnel debugging.
	defaultTrackingRetention = 90 * 24 * time.Hour
)

type TrackingPruneJob struct {
	trackingService *service.TrackingService
	retention       time.Duration
	logger          *zap.Logger
}

func NewTrackingPruneJob(trackingService *service.TrackingService, retention time.Duration, logger *zap.Logger) *TrackingPruneJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention <= 0 {
		retention = defaultTrackingRetention
	}

	return &TrackingPruneJob{
		trackingService: trackingService,
		retention:       retention,
		logger:          logger,
	}
}

func (j *TrackingPruneJob) PruneOld() {
	if j == nil || j.trackingService == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), trackingPruneTimeout)
	defer cancel()

	if _, err := j.trackingService.PruneOld(ctx, j.retention); err != nil {
		j.logger.Warn("tracking event prune failed", zap.Error(err))
	}
}
