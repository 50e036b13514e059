package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEmptyURL   = errors.New("pg: connection string is empty, set PG_CONN_URL")
	ErrInvalidURL = errors.New("pg: invalid connection string")
	ErrConnect    = errors.New("pg: connect failed")
	ErrUnhealthy  = errors.New("pg: ping failed")
	ErrMigrate    = errors.New("pg: migration failed")
)

// uniqueViolation is the SQLSTATE raised by unique indexes.
const uniqueViolation = "23505"

// IsNotFoundError reports whether a single-row query matched nothing.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports whether err is a unique index violation.
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation
}
