package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"perkgate-hub/internal/model"
	"perkgate-hub/internal/repository"
)

type optInRepository struct {
	scope *Scope
}

func NewOptInRepository(scope *Scope) repository.OptInRepository {
	return &optInRepository{scope: scope}
}

var _ repository.OptInRepository = (*optInRepository)(nil)

func (r *optInRepository) Exists(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	var exists bool
	err := r.scope.WithTenant(ctx, tenantID, func(tx pgx.Tx) error {
		return tx.QueryRow(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM email_opt_ins WHERE email = $1)`,
			email,
		).Scan(&exists)
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *optInRepository) Insert(ctx context.Context, optIn *model.EmailOptIn) error {
	if optIn.ID == uuid.Nil {
		optIn.ID = uuid.New()
	}
	if optIn.ConsentedAt.IsZero() {
		optIn.ConsentedAt = time.Now().UTC()
	}

	// ON CONFLICT DO NOTHING makes duplicate opt-ins indistinguishable
	// from first-time success.
	return r.scope.WithTenant(ctx, optIn.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO email_opt_ins (id, tenant_id, email, consented_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (tenant_id, email) DO NOTHING`,
			optIn.ID,
			optIn.TenantID,
			optIn.Email,
			optIn.ConsentedAt,
		)
		return err
	})
}
