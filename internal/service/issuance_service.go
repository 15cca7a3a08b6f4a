package service

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"perkgate-hub/internal/event"
	"perkgate-hub/internal/metrics"
	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
)

var (
	ErrCouponNotFound = errors.New("coupon not found")
	ErrCouponInactive = errors.New("coupon not active")

	// ErrIssuanceExhausted means code generation kept colliding past the
	// retry budget. Internal fault, surfaced as a generic failure.
	ErrIssuanceExhausted = errors.New("coupon code generation exhausted")
)

const (
	codeAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength    = 16
	issueAttempts = 5
)

type IssuanceService struct {
	issuedRepo repository.IssuedCouponRepository
	couponRepo repository.CouponRepository
	eventBus   *event.Bus
	logger     *zap.Logger

	generateCodeFn func() (string, error)
}

func NewIssuanceService(
	issuedRepo repository.IssuedCouponRepository,
	couponRepo repository.CouponRepository,
	eventBus *event.Bus,
	logger *zap.Logger,
) *IssuanceService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IssuanceService{
		issuedRepo:     issuedRepo,
		couponRepo:     couponRepo,
		eventBus:       eventBus,
		logger:         logger,
		generateCodeFn: generateCode,
	}
}

// IssueOrFetch converges every caller for one (tenant, coupon, email)
// triple on exactly one code. Correctness rests on the store's uniqueness
// constraint, not on application-side locking: racing inserts all hit the
// constraint, one wins, the losers read back the winner's code.
func (s *IssuanceService) IssueOrFetch(
	ctx context.Context,
	tenantID, couponID uuid.UUID,
	email string,
) (*model.IssuedCoupon, error) {
	existing, err := s.issuedRepo.Find(ctx, tenantID, couponID, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	coupon, err := s.couponRepo.FindByID(ctx, tenantID, couponID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	if !coupon.IsActive || coupon.Expired(time.Now().UTC()) {
		return nil, ErrCouponInactive
	}

	for attempt := 0; attempt < issueAttempts; attempt++ {
		code, genErr := s.generateCodeFn()
		if genErr != nil {
			return nil, genErr
		}

		issued := &model.IssuedCoupon{
			TenantID: tenantID,
			CouponID: couponID,
			Email:    email,
			Code:     code,
		}

		insertErr := s.issuedRepo.Insert(ctx, issued)
		if insertErr == nil {
			s.observeIssued(issued)
			return issued, nil
		}
		if errors.Is(insertErr, repository.ErrAlreadyIssued) {
			// Lost the idempotency race: a concurrent request minted
			// the code first. Return the winner's.
			metrics.IssuanceRaceLost.Inc()
			return s.issuedRepo.Find(ctx, tenantID, couponID, email)
		}
		if errors.Is(insertErr, repository.ErrCodeCollision) {
			metrics.IssuanceCollisions.Inc()
			continue
		}
		return nil, insertErr
	}

	s.logger.Error("coupon code generation exhausted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("coupon_id", couponID.String()),
		zap.Int("attempts", issueAttempts),
	)
	return nil, ErrIssuanceExhausted
}

// CheckIssued reads an existing code without ever minting one. It backs
// the cheap "do I already have a code" endpoint, which is rate-limited far
// more loosely than issuance.
func (s *IssuanceService) CheckIssued(
	ctx context.Context,
	tenantID, couponID uuid.UUID,
	email string,
) (*model.IssuedCoupon, error) {
	return s.issuedRepo.Find(ctx, tenantID, couponID, email)
}

func (s *IssuanceService) observeIssued(issued *model.IssuedCoupon) {
	metrics.ObserveCouponIssued(issued.TenantID.String())
	if s.eventBus != nil {
		s.eventBus.Publish(event.EventCouponIssued, event.CouponIssuedPayload{
			TenantID: issued.TenantID,
			CouponID: issued.CouponID,
			Email:    issued.Email,
			Code:     issued.Code,
			IssuedAt: issued.IssuedAt,
		})
	}
}

// generateCode returns an unguessable code from an alphabet without
// lookalike characters (no 0/O, 1/I).
func generateCode() (string, error) {
	raw := make([]byte, codeLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	out := make([]byte, codeLength)
	for i, b := range raw {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}
