package model

import (
	"time"

	"github.com/google/uuid"
)

// EmailOptIn is insert-only: at most one row per (tenant, email), never
// mutated or deleted by the visitor flow.
type EmailOptIn struct {
	ID          uuid.UUID `db:"id" json:"id"`
	TenantID    uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Email       string    `db:"email" json:"email"`
	ConsentedAt time.Time `db:"consented_at" json:"consented_at"`
}
