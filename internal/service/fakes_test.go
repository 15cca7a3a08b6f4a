package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
)

type fakeTenantRepo struct {
	tenants map[string]*model.Tenant
}

func newFakeTenantRepo(tenants ...*model.Tenant) *fakeTenantRepo {
	repo := &fakeTenantRepo{tenants: make(map[string]*model.Tenant)}
	for _, tenant := range tenants {
		repo.tenants[tenant.Slug] = tenant
	}
	return repo
}

func (f *fakeTenantRepo) FindBySlug(_ context.Context, slug string) (*model.Tenant, error) {
	tenant, ok := f.tenants[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return tenant, nil
}

func (f *fakeTenantRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	for _, tenant := range f.tenants {
		if tenant.ID == id {
			return tenant, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTenantRepo) Create(_ context.Context, tenant *model.Tenant) error {
	f.tenants[tenant.Slug] = tenant
	return nil
}

func (f *fakeTenantRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	for _, tenant := range f.tenants {
		if tenant.ID == id {
			tenant.IsActive = active
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeTenantRepo) List(_ context.Context, _ repository.Pagination) ([]*model.Tenant, error) {
	out := make([]*model.Tenant, 0, len(f.tenants))
	for _, tenant := range f.tenants {
		out = append(out, tenant)
	}
	return out, nil
}

type fakeCouponRepo struct {
	coupons map[uuid.UUID]*model.Coupon
}

func newFakeCouponRepo(coupons ...*model.Coupon) *fakeCouponRepo {
	repo := &fakeCouponRepo{coupons: make(map[uuid.UUID]*model.Coupon)}
	for _, coupon := range coupons {
		repo.coupons[coupon.ID] = coupon
	}
	return repo
}

func (f *fakeCouponRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Coupon, error) {
	coupon, ok := f.coupons[id]
	if !ok || coupon.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return coupon, nil
}

func (f *fakeCouponRepo) ListActive(_ context.Context, tenantID uuid.UUID) ([]*model.Coupon, error) {
	var out []*model.Coupon
	for _, coupon := range f.coupons {
		if coupon.TenantID == tenantID && coupon.IsActive {
			out = append(out, coupon)
		}
	}
	return out, nil
}

func (f *fakeCouponRepo) List(_ context.Context, tenantID uuid.UUID, _ repository.Pagination) ([]*model.Coupon, int64, error) {
	var out []*model.Coupon
	for _, coupon := range f.coupons {
		if coupon.TenantID == tenantID {
			out = append(out, coupon)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeCouponRepo) Create(_ context.Context, coupon *model.Coupon) error {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	f.coupons[coupon.ID] = coupon
	return nil
}

func (f *fakeCouponRepo) Update(_ context.Context, coupon *model.Coupon) error {
	if _, ok := f.coupons[coupon.ID]; !ok {
		return repository.ErrNotFound
	}
	f.coupons[coupon.ID] = coupon
	return nil
}

func (f *fakeCouponRepo) SetActive(_ context.Context, tenantID, id uuid.UUID, active bool) error {
	coupon, ok := f.coupons[id]
	if !ok || coupon.TenantID != tenantID {
		return repository.ErrNotFound
	}
	coupon.IsActive = active
	return nil
}

func (f *fakeCouponRepo) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	var swept int64
	for _, coupon := range f.coupons {
		if coupon.IsActive && coupon.Expired(now) {
			coupon.IsActive = false
			swept++
		}
	}
	return swept, nil
}

type fakeOptInRepo struct {
	optIns   map[string]bool
	blocked  bool
	failWith error
}

func newFakeOptInRepo() *fakeOptInRepo {
	return &fakeOptInRepo{optIns: make(map[string]bool)}
}

func optInKey(tenantID uuid.UUID, email string) string {
	return tenantID.String() + "|" + email
}

func (f *fakeOptInRepo) Exists(_ context.Context, tenantID uuid.UUID, email string) (bool, error) {
	if f.blocked {
		return false, repository.ErrTenantContext
	}
	if f.failWith != nil {
		return false, f.failWith
	}
	return f.optIns[optInKey(tenantID, email)], nil
}

func (f *fakeOptInRepo) Insert(_ context.Context, optIn *model.EmailOptIn) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.optIns[optInKey(optIn.TenantID, optIn.Email)] = true
	return nil
}

type fakeSurveyRepo struct {
	couponQuestions map[uuid.UUID][]model.SurveyQuestion
	tenantQuestions []model.SurveyQuestion
	stored          []*model.SurveyResponse
	storeErr        error
}

func newFakeSurveyRepo() *fakeSurveyRepo {
	return &fakeSurveyRepo{couponQuestions: make(map[uuid.UUID][]model.SurveyQuestion)}
}

func (f *fakeSurveyRepo) QuestionsForCoupon(_ context.Context, _ uuid.UUID, couponID uuid.UUID) ([]model.SurveyQuestion, error) {
	return f.couponQuestions[couponID], nil
}

func (f *fakeSurveyRepo) QuestionsForTenant(_ context.Context, _ uuid.UUID) ([]model.SurveyQuestion, error) {
	return f.tenantQuestions, nil
}

func (f *fakeSurveyRepo) StoreResponse(_ context.Context, response *model.SurveyResponse) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	if response.ID == uuid.Nil {
		response.ID = uuid.New()
	}
	f.stored = append(f.stored, response)
	return nil
}

func (f *fakeSurveyRepo) CreateQuestion(_ context.Context, question *model.SurveyQuestion) error {
	if question.ID == uuid.Nil {
		question.ID = uuid.New()
	}
	if question.CouponID != nil {
		f.couponQuestions[*question.CouponID] = append(f.couponQuestions[*question.CouponID], *question)
		return nil
	}
	f.tenantQuestions = append(f.tenantQuestions, *question)
	return nil
}

func (f *fakeSurveyRepo) UpdateQuestion(_ context.Context, _ *model.SurveyQuestion) error {
	return nil
}

func (f *fakeSurveyRepo) DeleteQuestion(_ context.Context, _, _ uuid.UUID) error {
	return nil
}

func (f *fakeSurveyRepo) ListResponses(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ repository.Pagination) ([]*model.SurveyResponse, int64, error) {
	return f.stored, int64(len(f.stored)), nil
}

type fakeIssuedRepo struct {
	issued map[string]*model.IssuedCoupon
	codes  map[string]bool

	// insertErrs is consumed one error per Insert call before the real
	// insert logic runs; nil entries mean "behave normally".
	insertErrs []error
	inserts    int
}

func newFakeIssuedRepo() *fakeIssuedRepo {
	return &fakeIssuedRepo{
		issued: make(map[string]*model.IssuedCoupon),
		codes:  make(map[string]bool),
	}
}

func issuedKey(tenantID, couponID uuid.UUID, email string) string {
	return tenantID.String() + "|" + couponID.String() + "|" + email
}

func (f *fakeIssuedRepo) Find(_ context.Context, tenantID, couponID uuid.UUID, email string) (*model.IssuedCoupon, error) {
	issued, ok := f.issued[issuedKey(tenantID, couponID, email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return issued, nil
}

func (f *fakeIssuedRepo) Insert(_ context.Context, issued *model.IssuedCoupon) error {
	f.inserts++
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}

	key := issuedKey(issued.TenantID, issued.CouponID, issued.Email)
	if _, ok := f.issued[key]; ok {
		return repository.ErrAlreadyIssued
	}
	codeKey := issued.TenantID.String() + "|" + issued.CouponID.String() + "|" + issued.Code
	if f.codes[codeKey] {
		return repository.ErrCodeCollision
	}

	if issued.ID == uuid.Nil {
		issued.ID = uuid.New()
	}
	if issued.IssuedAt.IsZero() {
		issued.IssuedAt = time.Now().UTC()
	}
	f.issued[key] = issued
	f.codes[codeKey] = true
	return nil
}

func (f *fakeIssuedRepo) ListByCoupon(_ context.Context, tenantID, couponID uuid.UUID, _ repository.Pagination) ([]*model.IssuedCoupon, int64, error) {
	var out []*model.IssuedCoupon
	for _, issued := range f.issued {
		if issued.TenantID == tenantID && issued.CouponID == couponID {
			out = append(out, issued)
		}
	}
	return out, int64(len(out)), nil
}
