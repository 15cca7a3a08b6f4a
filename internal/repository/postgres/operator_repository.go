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

// Operators authenticate before any tenant context exists, so lookups run
// directly off the pool like tenant resolution does.
type operatorRepository struct {
	pool *pgxpool.Pool
}

func NewOperatorRepository(pool *pgxpool.Pool) repository.OperatorRepository {
	return &operatorRepository{pool: pool}
}

var _ repository.OperatorRepository = (*operatorRepository)(nil)

func (r *operatorRepository) FindByEmail(ctx context.Context, email string) (*model.Operator, error) {
	operator := &model.Operator{}
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, tenant_id, email, password_hash, created_at
		   FROM operators
		  WHERE email = $1`,
		email,
	).Scan(
		&operator.ID,
		&operator.TenantID,
		&operator.Email,
		&operator.PasswordHash,
		&operator.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return operator, nil
}

func (r *operatorRepository) Create(ctx context.Context, operator *model.Operator) error {
	if operator.ID == uuid.Nil {
		operator.ID = uuid.New()
	}
	if operator.CreatedAt.IsZero() {
		operator.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO operators (id, tenant_id, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		operator.ID,
		operator.TenantID,
		operator.Email,
		operator.PasswordHash,
		operator.CreatedAt,
	)
	return err
}
