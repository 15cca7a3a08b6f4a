package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
)

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantInactive = errors.New("tenant deactivated")
	ErrInvalidSlug    = errors.New("invalid tenant slug")
)

type TenantService struct {
	tenantRepo repository.TenantRepository
}

func NewTenantService(tenantRepo repository.TenantRepository) *TenantService {
	return &TenantService{tenantRepo: tenantRepo}
}

// Resolve maps a slug to the tenant id. Slugs are case-sensitive. An
// inactive tenant resolves to ErrTenantInactive so callers render the
// deactivated page instead of a plain 404.
func (s *TenantService) Resolve(ctx context.Context, slug string) (uuid.UUID, error) {
	tenant, err := s.fetch(ctx, slug)
	if err != nil {
		return uuid.Nil, err
	}
	if !tenant.IsActive {
		return uuid.Nil, ErrTenantInactive
	}
	return tenant.ID, nil
}

// FetchActive returns the full record including the active flag, so the
// caller can distinguish "exists but deactivated" from a plain 404.
func (s *TenantService) FetchActive(ctx context.Context, slug string) (*model.Tenant, error) {
	return s.fetch(ctx, slug)
}

// SetActive flips the tenant kill switch. Deactivation stops new issuance
// everywhere under the slug; already-issued codes stay valid.
func (s *TenantService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	err := s.tenantRepo.SetActive(ctx, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTenantNotFound
	}
	return err
}

func (s *TenantService) fetch(ctx context.Context, slug string) (*model.Tenant, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, ErrInvalidSlug
	}

	tenant, err := s.tenantRepo.FindBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}
