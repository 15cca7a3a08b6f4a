package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"perkgate-hub/internal/metrics"
	"perkgate-hub/internal/model"
	"perkgate-hub/pkg/logger"
)

var ErrInvalidEmail = errors.New("invalid email address")

type FlowState string

const (
	// StateAwaitingEmail ends the request at the email-collection step.
	StateAwaitingEmail FlowState = "awaiting_email"
	// StateSurveyRequired renders the survey and awaits submission.
	StateSurveyRequired FlowState = "survey_required"
	// StateCompleted always carries an issued coupon code.
	StateCompleted FlowState = "completed"
	// StateTenantInactive is the only hard stop in the visitor flow.
	// Already-issued codes stay redeemable; only new issuance is blocked.
	StateTenantInactive FlowState = "tenant_inactive"
)

type Decision struct {
	State  FlowState           `json:"state"`
	Tenant *model.Tenant       `json:"tenant,omitempty"`
	Survey *model.Survey       `json:"survey,omitempty"`
	Issued *model.IssuedCoupon `json:"issued,omitempty"`
}

// QualificationService is the flow controller for the visitor journey:
// awaiting email, checking opt-in, survey or straight to issuance,
// completed. Qualification is tenant-scoped once earned: an email that
// completed any survey for the tenant claims every coupon of that tenant
// without resurveying.
type QualificationService struct {
	tenantSvc   *TenantService
	optInSvc    *OptInService
	surveySvc   *SurveyService
	issuanceSvc *IssuanceService
	logger      *zap.Logger
}

func NewQualificationService(
	tenantSvc *TenantService,
	optInSvc *OptInService,
	surveySvc *SurveyService,
	issuanceSvc *IssuanceService,
	logger *zap.Logger,
) *QualificationService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &QualificationService{
		tenantSvc:   tenantSvc,
		optInSvc:    optInSvc,
		surveySvc:   surveySvc,
		issuanceSvc: issuanceSvc,
		logger:      logger,
	}
}

// NextStep decides where a (tenant, coupon, email) request goes next, and
// issues the coupon when the visitor is already qualified.
func (s *QualificationService) NextStep(
	ctx context.Context,
	slug string,
	couponID uuid.UUID,
	email string,
) (*Decision, error) {
	tenant, err := s.tenantSvc.FetchActive(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive {
		return s.decide(&Decision{State: StateTenantInactive, Tenant: tenant}), nil
	}

	normalized, err := normalizeOptionalEmail(email)
	if err != nil {
		return nil, err
	}
	if normalized == "" {
		return s.decide(&Decision{State: StateAwaitingEmail, Tenant: tenant}), nil
	}

	qualified, err := s.isQualified(ctx, tenant, normalized)
	if err != nil {
		return nil, err
	}
	if qualified {
		return s.complete(ctx, tenant, couponID, normalized)
	}

	survey, err := s.surveySvc.LoadSurvey(ctx, tenant.ID, &couponID)
	if err != nil {
		return nil, err
	}
	if survey.Empty() {
		// An empty survey is not a survey: nothing to ask means
		// immediately qualified.
		return s.complete(ctx, tenant, couponID, normalized)
	}

	return s.decide(&Decision{State: StateSurveyRequired, Tenant: tenant, Survey: survey}), nil
}

// CompleteSurvey validates and stores a submission, records the implied
// opt-in, and issues the coupon.
func (s *QualificationService) CompleteSurvey(
	ctx context.Context,
	slug string,
	couponID uuid.UUID,
	email string,
	answers []model.SurveyAnswerInput,
) (*Decision, error) {
	tenant, err := s.tenantSvc.FetchActive(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive {
		return s.decide(&Decision{State: StateTenantInactive, Tenant: tenant}), nil
	}

	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if _, err := s.surveySvc.ValidateAndStore(ctx, tenant.ID, &couponID, normalized, answers); err != nil {
		return nil, err
	}

	if err := s.optInSvc.RecordOptIn(ctx, tenant.ID, normalized, time.Now().UTC()); err != nil {
		// StoreResponse already wrote the opt-in row in its own
		// transaction; this explicit pass only re-asserts it, so a
		// failure here must not sink a stored submission.
		s.logger.Warn("post-survey opt-in record failed",
			zap.String("tenant_id", tenant.ID.String()),
			zap.Error(err),
		)
	}

	return s.complete(ctx, tenant, couponID, normalized)
}

// Claim is the already-qualified path: issue directly, no survey shown.
func (s *QualificationService) Claim(
	ctx context.Context,
	slug string,
	couponID uuid.UUID,
	email string,
) (*Decision, error) {
	return s.NextStep(ctx, slug, couponID, email)
}

func (s *QualificationService) isQualified(ctx context.Context, tenant *model.Tenant, email string) (bool, error) {
	status, err := s.optInSvc.HasOptedIn(ctx, tenant.ID, email)
	if err != nil {
		return false, err
	}

	switch status {
	case OptedIn:
		return true, nil
	case OptInInconclusive:
		// Fail open toward trust: an email reaching this step is
		// treated as evidence of prior successful submission. A
		// blocked read must never re-trap a returning visitor in a
		// survey loop.
		s.logger.Warn("opt-in check inconclusive, treating visitor as qualified",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("slug", tenant.Slug),
			zap.String("email", logger.MaskEmail(email)),
		)
		return true, nil
	default:
		return false, nil
	}
}

func (s *QualificationService) complete(
	ctx context.Context,
	tenant *model.Tenant,
	couponID uuid.UUID,
	email string,
) (*Decision, error) {
	issued, err := s.issuanceSvc.IssueOrFetch(ctx, tenant.ID, couponID, email)
	if err != nil {
		return nil, err
	}
	return s.decide(&Decision{State: StateCompleted, Tenant: tenant, Issued: issued}), nil
}

func (s *QualificationService) decide(decision *Decision) *Decision {
	metrics.ObserveQualificationDecision(string(decision.State))
	return decision
}

func normalizeOptionalEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", nil
	}
	if !strings.Contains(trimmed, "@") || strings.ContainsAny(trimmed, " \t") {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}

// NormalizeEmail lower-cases and trims an address, rejecting anything that
// is obviously not one. Addresses arrive pre-verified (OAuth or link
// click), so this is shape-checking, not deliverability-checking.
func NormalizeEmail(email string) (string, error) {
	normalized, err := normalizeOptionalEmail(email)
	if err != nil {
		return "", err
	}
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}
