package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"perkgate-hub/internal/event"
	"perkgate-hub/internal/metrics"
	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
	"perkgate-hub/pkg/logger"
)

type OptInStatus int

const (
	OptInUnknown OptInStatus = iota
	OptedIn
	NotOptedIn
	// OptInInconclusive means the scoped read was blocked by the
	// isolation policy. The registry never hard-fails the flow on it;
	// the orchestrator applies its fail-open fallback.
	OptInInconclusive
)

type OptInService struct {
	optInRepo repository.OptInRepository
	eventBus  *event.Bus
	logger    *zap.Logger
}

func NewOptInService(optInRepo repository.OptInRepository, eventBus *event.Bus, logger *zap.Logger) *OptInService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OptInService{
		optInRepo: optInRepo,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// HasOptedIn is the skip-survey signal. A blocked scoped read returns
// OptInInconclusive rather than an error so a legitimate returning visitor
// is never trapped behind an isolation hiccup.
func (s *OptInService) HasOptedIn(ctx context.Context, tenantID uuid.UUID, email string) (OptInStatus, error) {
	exists, err := s.optInRepo.Exists(ctx, tenantID, email)
	if errors.Is(err, repository.ErrTenantContext) {
		s.logger.Warn("opt-in read blocked by isolation policy",
			zap.String("tenant_id", tenantID.String()),
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return OptInInconclusive, nil
	}
	if err != nil {
		return OptInUnknown, err
	}

	if exists {
		return OptedIn, nil
	}
	return NotOptedIn, nil
}

// RecordOptIn is idempotent: re-recording an existing (tenant, email) pair
// is indistinguishable from first-time success.
func (s *OptInService) RecordOptIn(ctx context.Context, tenantID uuid.UUID, email string, consentedAt time.Time) error {
	optIn := &model.EmailOptIn{
		TenantID:    tenantID,
		Email:       email,
		ConsentedAt: consentedAt.UTC(),
	}
	if err := s.optInRepo.Insert(ctx, optIn); err != nil {
		return err
	}

	metrics.OptInsRecorded.Inc()
	if s.eventBus != nil {
		s.eventBus.Publish(event.EventOptInRecorded, event.OptInRecordedPayload{
			TenantID:    tenantID,
			Email:       email,
			ConsentedAt: optIn.ConsentedAt,
		})
	}
	return nil
}
