package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	PgCodeUniqueViolation = "23505"
	PgCodeUndefinedTable  = "42P01"
)

// PgErrorCode returns the SQLSTATE of the postgres error in err's chain.
func PgErrorCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	return pgErr.Code, true
}

func IsUniqueViolationError(err error) bool {
	code, ok := PgErrorCode(err)
	return ok && code == PgCodeUniqueViolation
}

// IsUndefinedTableError reports a query against a table that was never migrated.
func IsUndefinedTableError(err error) bool {
	code, ok := PgErrorCode(err)
	return ok && code == PgCodeUndefinedTable
}
