package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"perkgate-hub/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyIssued is returned when an issued-coupon insert loses the
	// (tenant, coupon, email) uniqueness race. The caller re-reads the
	// winner instead of erroring.
	ErrAlreadyIssued = errors.New("coupon already issued for email")

	// ErrCodeCollision is returned when a generated code collides within
	// the (tenant, coupon) namespace. The caller regenerates and retries.
	ErrCodeCollision = errors.New("coupon code collision")

	// ErrTenantContext is returned when the tenant tag could not be
	// applied to the session carrying a scoped query.
	ErrTenantContext = errors.New("tenant context not applied")
)

type Pagination struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

type TenantRepository interface {
	FindBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
	Create(ctx context.Context, tenant *model.Tenant) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, page Pagination) ([]*model.Tenant, error)
}

type CouponRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Coupon, error)
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]*model.Coupon, error)
	List(ctx context.Context, tenantID uuid.UUID, page Pagination) ([]*model.Coupon, int64, error)
	Create(ctx context.Context, coupon *model.Coupon) error
	Update(ctx context.Context, coupon *model.Coupon) error
	SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type OptInRepository interface {
	Exists(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
	// Insert is idempotent: a duplicate (tenant, email) is success.
	Insert(ctx context.Context, optIn *model.EmailOptIn) error
}

type SurveyRepository interface {
	QuestionsForCoupon(ctx context.Context, tenantID, couponID uuid.UUID) ([]model.SurveyQuestion, error)
	QuestionsForTenant(ctx context.Context, tenantID uuid.UUID) ([]model.SurveyQuestion, error)
	// StoreResponse persists the response, its answers and (when the
	// response carries an email) the implied opt-in in one transaction.
	StoreResponse(ctx context.Context, response *model.SurveyResponse) error
	CreateQuestion(ctx context.Context, question *model.SurveyQuestion) error
	UpdateQuestion(ctx context.Context, question *model.SurveyQuestion) error
	DeleteQuestion(ctx context.Context, tenantID, id uuid.UUID) error
	ListResponses(ctx context.Context, tenantID uuid.UUID, couponID *uuid.UUID, page Pagination) ([]*model.SurveyResponse, int64, error)
}

type IssuedCouponRepository interface {
	Find(ctx context.Context, tenantID, couponID uuid.UUID, email string) (*model.IssuedCoupon, error)
	// Insert returns ErrAlreadyIssued or ErrCodeCollision on the
	// corresponding uniqueness violation.
	Insert(ctx context.Context, issued *model.IssuedCoupon) error
	ListByCoupon(ctx context.Context, tenantID, couponID uuid.UUID, page Pagination) ([]*model.IssuedCoupon, int64, error)
}

type TrackingRepository interface {
	Insert(ctx context.Context, event *model.TrackingEvent) error
	// PruneBefore deletes events older than the cutoff across all tenants.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type OperatorRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Operator, error)
	Create(ctx context.Context, operator *model.Operator) error
}
