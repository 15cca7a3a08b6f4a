package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"perkgate-hub/internal/model"
)

func TestTenantServiceResolve(t *testing.T) {
	t.Parallel()

	active := &model.Tenant{ID: uuid.New(), Slug: "corner-cafe", Name: "Corner Cafe", IsActive: true}
	inactive := &model.Tenant{ID: uuid.New(), Slug: "closed-shop", Name: "Closed Shop"}
	svc := NewTenantService(newFakeTenantRepo(active, inactive))
	ctx := context.Background()

	id, err := svc.Resolve(ctx, "corner-cafe")
	if err != nil {
		t.Fatalf("resolve active tenant: %v", err)
	}
	if id != active.ID {
		t.Fatalf("got %s, want %s", id, active.ID)
	}

	// A deactivated tenant is a distinct outcome from a missing one so
	// the caller can render the deactivated page instead of a 404.
	if _, err := svc.Resolve(ctx, "closed-shop"); !errors.Is(err, ErrTenantInactive) {
		t.Fatalf("resolve inactive tenant: got %v, want ErrTenantInactive", err)
	}

	if _, err := svc.Resolve(ctx, "no-such-slug"); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("resolve unknown slug: got %v, want ErrTenantNotFound", err)
	}

	if _, err := svc.Resolve(ctx, "   "); !errors.Is(err, ErrInvalidSlug) {
		t.Fatalf("resolve blank slug: got %v, want ErrInvalidSlug", err)
	}
}

func TestTenantServiceSetActiveUnknownTenant(t *testing.T) {
	t.Parallel()

	svc := NewTenantService(newFakeTenantRepo())
	if err := svc.SetActive(context.Background(), uuid.New(), false); !errors.Is(err, ErrTenantNotFound) {
		t.Fatalf("got %v, want ErrTenantNotFound", err)
	}
}
