package yanaq

import (
	"errors"

	"github.com/yanadb/yanaq/pkg/conn"
	"github.com/yanadb/yanaq/pkg/ddl"
	"github.com/yanadb/yanaq/pkg/query"
)

// Sentinel errors for the failures callers most often branch on. They are
// the errors of the packages that produce them, so errors.Is works with
// either name.
var (
	// ErrInvalidSchema is returned when the schema file cannot be parsed or
	// fails validation.
	ErrInvalidSchema = ddl.ErrInvalidSchema

	// ErrNoDatabase is returned when a render-only DB is asked to execute.
	ErrNoDatabase = conn.ErrNoDatabase

	// ErrInsufficientRights is returned when the current profile may not
	// write the addressed rows.
	ErrInsufficientRights = query.ErrInsufficientRights

	// ErrDuplicateValue is returned when an insert or update violates a
	// unique constraint.
	ErrDuplicateValue = query.ErrDuplicateValue
)

// IsInvalidSchemaErr returns true if err is or wraps ErrInvalidSchema.
func IsInvalidSchemaErr(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}

// IsNotFoundErr returns true if err reports a missing table, column or
// target row.
func IsNotFoundErr(err error) bool {
	return errors.Is(err, query.ErrTableNotFound) ||
		errors.Is(err, query.ErrColumnNotFound) ||
		errors.Is(err, query.ErrTargetNotFound)
}

// IsInsufficientRightsErr returns true if err is or wraps ErrInsufficientRights.
func IsInsufficientRightsErr(err error) bool {
	return errors.Is(err, ErrInsufficientRights)
}
