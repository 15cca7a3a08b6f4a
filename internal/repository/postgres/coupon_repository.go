package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
)

type couponRepository struct {
	scope *Scope
}

func NewCouponRepository(scope *Scope) repository.CouponRepository {
	return &couponRepository{scope: scope}
}

var _ repository.CouponRepository = (*couponRepository)(nil)

const couponColumns = `
	id,
	tenant_id,
	title,
	discount_text,
	expires_at,
	is_active,
	created_at
`

func (r *couponRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Coupon, error) {
	var coupon *model.Coupon
	err := r.scope.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		found, scanErr := scanCoupon(tx.QueryRow(
			ctx,
			`SELECT `+couponColumns+` FROM coupons WHERE id = $1`,
			id,
		))
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if scanErr != nil {
			return scanErr
		}
		coupon = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

func (r *couponRepository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*model.Coupon, error) {
	var coupons []*model.Coupon
	err := r.scope.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, queryErr := tx.Query(
			ctx,
			`SELECT `+couponColumns+`
			   FROM coupons
			  WHERE is_active = TRUE
			    AND (expires_at IS NULL OR expires_at > NOW())
			  ORDER BY created_at DESC`,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			coupon, scanErr := scanCoupon(rows)
			if scanErr != nil {
				return scanErr
			}
			coupons = append(coupons, coupon)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) List(
	ctx context.Context,
	tenantID uuid.UUID,
	page repository.Pagination,
) ([]*model.Coupon, int64, error) {
	limit, offset := normalizePagination(page)

	var (
		coupons []*model.Coupon
		total   int64
	)
	err := r.scope.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, queryErr := tx.Query(
			ctx,
			`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit,
			offset,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			coupon, scanErr := scanCoupon(rows)
			if scanErr != nil {
				return scanErr
			}
			coupons = append(coupons, coupon)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}

		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

func (r *couponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	if coupon.CreatedAt.IsZero() {
		coupon.CreatedAt = time.Now().UTC()
	}

	return r.scope.WithTenant(ctx, coupon.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO coupons (id, tenant_id, title, discount_text, expires_at, is_active, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			coupon.ID,
			coupon.TenantID,
			coupon.Title,
			coupon.DiscountText,
			coupon.ExpiresAt,
			coupon.IsActive,
			coupon.CreatedAt,
		)
		return err
	})
}

func (r *couponRepository) Update(ctx context.Context, coupon *model.Coupon) error {
	return r.scope.WithTenant(ctx, coupon.TenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(
			ctx,
			`UPDATE coupons
			    SET title = $2,
			        discount_text = $3,
			        expires_at = $4,
			        is_active = $5
			  WHERE id = $1`,
			coupon.ID,
			coupon.Title,
			coupon.DiscountText,
			coupon.ExpiresAt,
			coupon.IsActive,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *couponRepository) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error {
	return r.scope.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(
			ctx,
			`UPDATE coupons SET is_active = $2 WHERE id = $1`,
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
	})
}

func (r *couponRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	var swept int64
	err := r.scope.WithMaintenance(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(
			ctx,
			`UPDATE coupons
			    SET is_active = FALSE
			  WHERE is_active = TRUE
			    AND expires_at IS NOT NULL
			    AND expires_at <= $1`,
			now,
		)
		if err != nil {
			return err
		}
		swept = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

func scanCoupon(src scanTarget) (*model.Coupon, error) {
	coupon := &model.Coupon{}
	err := src.Scan(
		&coupon.ID,
		&coupon.TenantID,
		&coupon.Title,
		&coupon.DiscountText,
		&coupon.ExpiresAt,
		&coupon.IsActive,
		&coupon.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return coupon, nil
}
