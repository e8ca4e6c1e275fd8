// Package relational implements the repository interfaces on database/sql.
// Queries use $n placeholders in ascending order so the same statements run
// on both the pgx and the go-sqlite3 drivers.
package relational

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"fileshare/internal/repository"
)

const pgUniqueViolation = "23505"

// translateInsertErr maps driver unique violations to repository.ErrDuplicate.
func translateInsertErr(err error) error {
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
