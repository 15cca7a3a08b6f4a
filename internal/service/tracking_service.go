package service

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"perkgate-hub/internal/event"
	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
)

const trackingTimeout = 3 * time.Second

// TrackingService is fire-and-forget analytics. It consumes bus events on
// their own goroutines, writes a best-effort row and optionally forwards
// to a webhook. Every failure is logged and swallowed; nothing here can
// block or fail the visitor flow.
type TrackingService struct {
	trackingRepo repository.TrackingRepository
	client       *resty.Client
	webhookURL   string
	logger       *zap.Logger
}

func NewTrackingService(
	trackingRepo repository.TrackingRepository,
	webhookURL string,
	logger *zap.Logger,
) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetTimeout(trackingTimeout).
		SetRetryCount(1)

	return &TrackingService{
		trackingRepo: trackingRepo,
		client:       client,
		webhookURL:   webhookURL,
		logger:       logger,
	}
}

// Register wires the service to the analytics events. Handlers already run
// on bus goroutines, so recording is synchronous within each handler.
func (s *TrackingService) Register(bus *event.Bus) {
	if bus == nil {
		return
	}

	bus.Subscribe(event.EventCouponIssued, func(payload any) {
		issued, ok := payload.(event.CouponIssuedPayload)
		if !ok {
			return
		}
		s.record(issued.TenantID, event.EventCouponIssued, map[string]interface{}{
			"coupon_id": issued.CouponID.String(),
			"email":     issued.Email,
		})
	})

	bus.Subscribe(event.EventSurveyCompleted, func(payload any) {
		completed, ok := payload.(event.SurveyCompletedPayload)
		if !ok {
			return
		}
		properties := map[string]interface{}{
			"response_id": completed.ResponseID.String(),
			"answers":     completed.Answers,
		}
		if completed.CouponID != nil {
			properties["coupon_id"] = completed.CouponID.String()
		}
		s.record(completed.TenantID, event.EventSurveyCompleted, properties)
	})

	bus.Subscribe(event.EventOptInRecorded, func(payload any) {
		optIn, ok := payload.(event.OptInRecordedPayload)
		if !ok {
			return
		}
		s.record(optIn.TenantID, event.EventOptInRecorded, map[string]interface{}{
			"email": optIn.Email,
		})
	})
}

// PruneOld drops tracking rows past the retention window. Runs from the
// scheduler across all tenants.
func (s *TrackingService) PruneOld(ctx context.Context, retention time.Duration) (int64, error) {
	if s.trackingRepo == nil {
		return 0, nil
	}

	pruned, err := s.trackingRepo.PruneBefore(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		s.logger.Info("old tracking events pruned", zap.Int64("count", pruned))
	}
	return pruned, nil
}

func (s *TrackingService) record(tenantID uuid.UUID, eventType string, properties map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), trackingTimeout)
	defer cancel()

	if s.trackingRepo != nil {
		err := s.trackingRepo.Insert(ctx, &model.TrackingEvent{
			TenantID:   tenantID,
			EventType:  eventType,
			Properties: properties,
		})
		if err != nil {
			s.logger.Warn("tracking event insert failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("event_type", eventType),
				zap.Error(err),
			)
		}
	}

	if s.webhookURL == "" {
		return
	}

	_, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"tenant_id":  tenantID.String(),
			"event_type": eventType,
			"properties": properties,
		}).
		Post(s.webhookURL)
	if err != nil {
		s.logger.Warn("tracking webhook delivery failed",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
