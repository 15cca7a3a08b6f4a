package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
)

// The tenants table is the entry point of slug resolution and carries no
// tenant tag itself; it is read directly off the pool.
type tenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) repository.TenantRepository {
	return &tenantRepository{pool: pool}
}

var _ repository.TenantRepository = (*tenantRepository)(nil)

const tenantColumns = `
	id,
	slug,
	name,
	logo_url,
	accent_color,
	is_active,
	created_at
`

func (r *tenantRepository) FindBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`
	tenant, err := scanTenant(r.pool.QueryRow(ctx, query, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	tenant, err := scanTenant(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tenants (id, slug, name, logo_url, accent_color, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(
		ctx,
		query,
		tenant.ID,
		tenant.Slug,
		tenant.Name,
		tenant.LogoURL,
		tenant.AccentColor,
		tenant.IsActive,
		tenant.CreatedAt,
	)
	return err
}

func (r *tenantRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE tenants SET is_active = $2 WHERE id = $1`,
		id,
		active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tenantRepository) List(ctx context.Context, page repository.Pagination) ([]*model.Tenant, error) {
	limit, offset := normalizePagination(page)

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := make([]*model.Tenant, 0, limit)
	for rows.Next() {
		tenant, scanErr := scanTenant(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func scanTenant(src scanTarget) (*model.Tenant, error) {
	tenant := &model.Tenant{}
	err := src.Scan(
		&tenant.ID,
		&tenant.Slug,
		&tenant.Name,
		&tenant.LogoURL,
		&tenant.AccentColor,
		&tenant.IsActive,
		&tenant.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}
