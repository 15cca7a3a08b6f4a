package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
)

var ErrInvalidCouponInput = errors.New("invalid coupon input")

type CouponService struct {
	couponRepo repository.CouponRepository
	issuedRepo repository.IssuedCouponRepository
	logger     *zap.Logger
}

func NewCouponService(
	couponRepo repository.CouponRepository,
	issuedRepo repository.IssuedCouponRepository,
	logger *zap.Logger,
) *CouponService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CouponService{
		couponRepo: couponRepo,
		issuedRepo: issuedRepo,
		logger:     logger,
	}
}

// ListActive returns the coupons shown on a tenant's landing page.
func (s *CouponService) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*model.Coupon, error) {
	return s.couponRepo.ListActive(ctx, tenantID)
}

func (s *CouponService) Get(ctx context.Context, tenantID, id uuid.UUID) (*model.Coupon, error) {
	coupon, err := s.couponRepo.FindByID(ctx, tenantID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCouponNotFound
	}
	return coupon, err
}

func (s *CouponService) List(
	ctx context.Context,
	tenantID uuid.UUID,
	page repository.Pagination,
) ([]*model.Coupon, int64, error) {
	return s.couponRepo.List(ctx, tenantID, page)
}

func (s *CouponService) Create(ctx context.Context, coupon *model.Coupon) error {
	coupon.Title = strings.TrimSpace(coupon.Title)
	coupon.DiscountText = strings.TrimSpace(coupon.DiscountText)
	if coupon.TenantID == uuid.Nil || coupon.Title == "" || coupon.DiscountText == "" {
		return ErrInvalidCouponInput
	}
	return s.couponRepo.Create(ctx, coupon)
}

func (s *CouponService) Update(ctx context.Context, coupon *model.Coupon) error {
	coupon.Title = strings.TrimSpace(coupon.Title)
	coupon.DiscountText = strings.TrimSpace(coupon.DiscountText)
	if coupon.ID == uuid.Nil || coupon.TenantID == uuid.Nil || coupon.Title == "" || coupon.DiscountText == "" {
		return ErrInvalidCouponInput
	}

	err := s.couponRepo.Update(ctx, coupon)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCouponNotFound
	}
	return err
}

func (s *CouponService) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error {
	err := s.couponRepo.SetActive(ctx, tenantID, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCouponNotFound
	}
	return err
}

func (s *CouponService) ListIssued(
	ctx context.Context,
	tenantID, couponID uuid.UUID,
	page repository.Pagination,
) ([]*model.IssuedCoupon, int64, error) {
	return s.issuedRepo.ListByCoupon(ctx, tenantID, couponID, page)
}

// SweepExpired deactivates coupons whose expiry has passed. Runs from the
// scheduler across all tenants.
func (s *CouponService) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := s.couponRepo.DeactivateExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		s.logger.Info("expired coupons deactivated", zap.Int64("count", swept))
	}
	return swept, nil
}
