package model

import (
	"time"

	"github.com/google/uuid"
)

// TrackingEvent rows are best-effort analytics. Writes never block or fail
// the visitor flow.
type TrackingEvent struct {
	ID         uuid.UUID              `db:"id" json:"id"`
	TenantID   uuid.UUID              `db:"tenant_id" json:"tenant_id"`
	EventType  string                 `db:"event_type" json:"event_type"`
	Properties map[string]interface{} `db:"properties" json:"properties,omitempty"`
	OccurredAt time.Time              `db:"occurred_at" json:"occurred_at"`
}
