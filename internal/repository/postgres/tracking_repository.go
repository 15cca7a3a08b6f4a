package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
)

type trackingRepository struct {
	scope *Scope
}

func NewTrackingRepository(scope *Scope) repository.TrackingRepository {
	return &trackingRepository{scope: scope}
}

var _ repository.TrackingRepository = (*trackingRepository)(nil)

func (r *trackingRepository) Insert(ctx context.Context, event *model.TrackingEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	var properties []byte
	if event.Properties != nil {
		encoded, err := json.Marshal(event.Properties)
		if err != nil {
			return err
		}
		properties = encoded
	}

	return r.scope.WithTenant(ctx, event.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO tracking_events (id, tenant_id, event_type, properties, occurred_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			event.ID,
			event.TenantID,
			event.EventType,
			properties,
			event.OccurredAt,
		)
		return err
	})
}

func (r *trackingRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var pruned int64
	err := r.scope.WithMaintenance(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM tracking_events WHERE occurred_at < $1`, cutoff)
		if err != nil {
			return err
		}
		pruned = tag.RowsAffected()
		return nil
	})
	return pruned, err
}
