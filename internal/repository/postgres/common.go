package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"perkgate-hub/internal/repository"
)

var ErrNotFound = repository.ErrNotFound

const uniqueViolationCode = "23505"

type scanTarget interface {
	Scan(dest ...any) error
}

func normalizePagination(page repository.Pagination) (int32, int32) {
	limit := page.Limit
	offset := page.Offset

	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// uniqueViolation reports whether err is a uniqueness violation and, when
// it is, which constraint was hit. Detection is structural via
// *pgconn.PgError; error-message matching is never used.
func uniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != uniqueViolationCode {
		return "", false
	}
	return pgErr.ConstraintName, true
}
