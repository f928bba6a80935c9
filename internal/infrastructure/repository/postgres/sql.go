package postgres

import (
	"database/sql"
	"errors"
)

// isNotFound unwraps before comparing so instrumented drivers that wrap
// sql.ErrNoRows still map to the not-found path.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
