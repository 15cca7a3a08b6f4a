package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perkgate-hub/internal/repository"
)

// Scope produces tenant-tagged transactions over a pooled connection set.
// The tag is applied with a transaction-local set_config immediately before
// the caller's queries run, never at handle-creation time: a pooled
// connection may serve unrelated tenants between requests, so a tag set
// once and trusted later would leak context. Scopes are cheap and must not
// be cached across logical requests.
type Scope struct {
	pool *pgxpool.Pool
}

func NewScope(pool *pgxpool.Pool) *Scope {
	return &Scope{pool: pool}
}

// WithTenant begins a transaction, applies the tenant tag inside it and
// runs fn. The row-level-security policies key on the tag, so every read
// and write issued through fn is filtered to the tenant's rows. A tag that
// cannot be applied or read back is repository.ErrTenantContext; it is
// never swallowed.
func (s *Scope) WithTenant(ctx context.Context, tenantID uuid.UUID, fn func(pgx.Tx) error) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("%w: no connection pool", repository.ErrTenantContext)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := applyTenantTag(ctx, tx, tenantID); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// WithMaintenance runs fn with the cross-tenant maintenance escape enabled
// for the transaction. Only scheduled sweeps and operator provisioning use
// it; request-path code always goes through WithTenant.
func (s *Scope) WithMaintenance(ctx context.Context, fn func(pgx.Tx) error) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("%w: no connection pool", repository.ErrTenantContext)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var applied string
	if err := tx.QueryRow(ctx, `SELECT set_config('app.maintenance', 'on', true)`).Scan(&applied); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrTenantContext, err)
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// applyTenantTag sets the transaction-local tenant setting and verifies the
// readback. set_config returns the applied value as a regular row, giving a
// structured success signal instead of sniffing driver error strings.
func applyTenantTag(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID) error {
	var applied string
	err := tx.QueryRow(
		ctx,
		`SELECT set_config('app.tenant_id', $1, true)`,
		tenantID.String(),
	).Scan(&applied)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrTenantContext, err)
	}
	if applied != tenantID.String() {
		return fmt.Errorf("%w: tag readback mismatch", repository.ErrTenantContext)
	}
	return nil
}
