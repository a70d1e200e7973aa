package conn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/yanadb/yanaq/pkg/query"
)

// ErrNoDatabase is returned when a render-only Conn is asked to execute.
var ErrNoDatabase = errors.New("no database handle")

// PostgreSQL error codes for specific error handling.
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
	pgUniqueViolation = "23505"
)

// mapError maps driver errors onto the query package's sentinel errors.
// The driver error stays in the chain.
func mapError(err error) error {
	switch sqlState(err) {
	case pgUndefinedTable:
		return fmt.Errorf("%w: %w", query.ErrTableNotFound, err)
	case pgUndefinedColumn:
		return fmt.Errorf("%w: %w", query.ErrColumnNotFound, err)
	case pgUniqueViolation:
		return fmt.Errorf("%w: %w", query.ErrDuplicateValue, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %w", query.ErrDuplicateValue, err)
		case strings.Contains(sqliteErr.Error(), "no such table"):
			return fmt.Errorf("%w: %w", query.ErrTableNotFound, err)
		case strings.Contains(sqliteErr.Error(), "no such column"):
			return fmt.Errorf("%w: %w", query.ErrColumnNotFound, err)
		}
	}
	return err
}

// sqlState extracts the SQLSTATE code from a PostgreSQL error.
// Works with multiple drivers:
//   - pgx/pgconn: *pgconn.PgError
//   - lib/pq: *pq.Error
//   - anything else exposing SQLState() string
//
// Returns empty string if the error doesn't contain a SQLSTATE.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	type sqlStateErr interface{ SQLState() string }
	var se sqlStateErr
	if errors.As(err, &se) {
		return se.SQLState()
	}

	// Fallback: "... (SQLSTATE 42P01)" or "SQLSTATE: 42P01"
	errStr := err.Error()
	for _, prefix := range []string{"SQLSTATE ", "SQLSTATE: "} {
		if idx := strings.Index(errStr, prefix); idx >= 0 {
			start := idx + len(prefix)
			if start+5 <= len(errStr) {
				return errStr[start : start+5]
			}
		}
	}
	return ""
}
