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

// Constraint names from the migration. The repository maps each to its own
// sentinel so the issuance engine can tell a lost idempotency race from a
// code collision.
const (
	constraintIssuedEmail = "issued_coupons_tenant_coupon_email_key"
	constraintIssuedCode  = "issued_coupons_tenant_coupon_code_key"
)

type issuedCouponRepository struct {
	scope *Scope
}

func NewIssuedCouponRepository(scope *Scope) repository.IssuedCouponRepository {
	return &issuedCouponRepository{scope: scope}
}

var _ repository.IssuedCouponRepository = (*issuedCouponRepository)(nil)

const issuedCouponColumns = `
	id,
	tenant_id,
	coupon_id,
	email,
	code,
	issued_at
`

func (r *issuedCouponRepository) Find(
	ctx context.Context,
	tenantID, couponID uuid.UUID,
	email string,
) (*model.IssuedCoupon, error) {
	var issued *model.IssuedCoupon
	err := r.scope.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		found, scanErr := scanIssuedCoupon(tx.QueryRow(
			ctx,
			`SELECT `+issuedCouponColumns+`
			   FROM issued_coupons
			  WHERE coupon_id = $1 AND email = $2`,
			couponID,
			email,
		))
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if scanErr != nil {
			return scanErr
		}
		issued = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

func (r *issuedCouponRepository) Insert(ctx context.Context, issued *model.IssuedCoupon) error {
	if issued.ID == uuid.Nil {
		issued.ID = uuid.New()
	}
	if issued.IssuedAt.IsZero() {
		issued.IssuedAt = time.Now().UTC()
	}

	err := r.scope.WithTenant(ctx, issued.TenantID, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(
			ctx,
			`INSERT INTO issued_coupons (id, tenant_id, coupon_id, email, code, issued_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			issued.ID,
			issued.TenantID,
			issued.CouponID,
			issued.Email,
			issued.Code,
			issued.IssuedAt,
		)
		return execErr
	})
	if err == nil {
		return nil
	}

	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case constraintIssuedEmail:
			return repository.ErrAlreadyIssued
		case constraintIssuedCode:
			return repository.ErrCodeCollision
		}
	}
	return err
}

func (r *issuedCouponRepository) ListByCoupon(
	ctx context.Context,
	tenantID, couponID uuid.UUID,
	page repository.Pagination,
) ([]*model.IssuedCoupon, int64, error) {
	limit, offset := normalizePagination(page)

	var (
		items []*model.IssuedCoupon
		total int64
	)
	err := r.scope.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, queryErr := tx.Query(
			ctx,
			`SELECT `+issuedCouponColumns+`
			   FROM issued_coupons
			  WHERE coupon_id = $1
			  ORDER BY issued_at DESC
			  LIMIT $2 OFFSET $3`,
			couponID,
			limit,
			offset,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		for rows.Next() {
			item, scanErr := scanIssuedCoupon(rows)
			if scanErr != nil {
				return scanErr
			}
			items = append(items, item)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return rowsErr
		}

		return tx.QueryRow(
			ctx,
			`SELECT COUNT(*) FROM issued_coupons WHERE coupon_id = $1`,
			couponID,
		).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func scanIssuedCoupon(src scanTarget) (*model.IssuedCoupon, error) {
	issued := &model.IssuedCoupon{}
	err := src.Scan(
		&issued.ID,
		&issued.TenantID,
		&issued.CouponID,
		&issued.Email,
		&issued.Code,
		&issued.IssuedAt,
	)
	if err != nil {
		return nil, err
	}
	return issued, nil
}
