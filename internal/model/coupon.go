package model

import (
	"time"

	"github.com/google/uuid"
)

type Coupon struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	TenantID     uuid.UUID  `db:"tenant_id" json:"tenant_id"`
	Title        string     `db:"title" json:"title"`
	DiscountText string     `db:"discount_text" json:"discount_text"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Expired reports whether the coupon's expiry timestamp has passed.
// A nil expiry never expires.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

type IssuedCoupon struct {
	ID       uuid.UUID `db:"id" json:"id"`
	TenantID uuid.UUID `db:"tenant_id" json:"tenant_id"`
	CouponID uuid.UUID `db:"coupon_id" json:"coupon_id"`
	Email    string    `db:"email" json:"email"`
	Code     string    `db:"code" json:"code"`
	IssuedAt time.Time `db:"issued_at" json:"issued_at"`
}
