package query

import "errors"

// Sentinel errors returned by statement mutators. Every error returned by this
// package wraps one of them with context, so callers test with errors.Is or
// the Is*Err helpers rather than by message.
var (
	// ErrTableNotFound is returned when a table name does not resolve in the schema.
	ErrTableNotFound = errors.New("query: table not found")

	// ErrColumnNotFound is returned in strict mode when a column does not exist.
	ErrColumnNotFound = errors.New("query: column not found")

	// ErrTableNotSet is returned by operations that need SetTable to run first.
	ErrTableNotSet = errors.New("query: table not set")

	// ErrInvalidArgument covers malformed where/having trees, unknown
	// operators, misplaced NULL comparisons and negative limits.
	ErrInvalidArgument = errors.New("query: invalid argument")

	// ErrConstraint is returned when a join cannot be resolved from foreign keys.
	ErrConstraint = errors.New("query: constraint violation")

	// ErrInconsistency signals a foreign key that points at a missing row.
	ErrInconsistency = errors.New("query: inconsistent data")

	// ErrTargetNotFound is returned when a key address does not resolve to a value.
	ErrTargetNotFound = errors.New("query: target not found")

	// ErrInvalidPrimaryKey is returned when an insert has no usable primary
	// key or the key is given twice with different values.
	ErrInvalidPrimaryKey = errors.New("query: invalid primary key")

	// ErrDuplicateValue is returned when the same column is assigned twice.
	ErrDuplicateValue = errors.New("query: duplicate value")

	// ErrInsufficientRights is returned when a profile check denies a write.
	ErrInsufficientRights = errors.New("query: insufficient rights")
)

// IsTableNotFoundErr returns true if err is or wraps ErrTableNotFound.
func IsTableNotFoundErr(err error) bool {
	return errors.Is(err, ErrTableNotFound)
}

// IsColumnNotFoundErr returns true if err is or wraps ErrColumnNotFound.
func IsColumnNotFoundErr(err error) bool {
	return errors.Is(err, ErrColumnNotFound)
}

// IsTableNotSetErr returns true if err is or wraps ErrTableNotSet.
func IsTableNotSetErr(err error) bool {
	return errors.Is(err, ErrTableNotSet)
}

// IsInvalidArgumentErr returns true if err is or wraps ErrInvalidArgument.
func IsInvalidArgumentErr(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsConstraintErr returns true if err is or wraps ErrConstraint.
func IsConstraintErr(err error) bool {
	return errors.Is(err, ErrConstraint)
}

// IsInconsistencyErr returns true if err is or wraps ErrInconsistency.
func IsInconsistencyErr(err error) bool {
	return errors.Is(err, ErrInconsistency)
}

// IsTargetNotFoundErr returns true if err is or wraps ErrTargetNotFound.
func IsTargetNotFoundErr(err error) bool {
	return errors.Is(err, ErrTargetNotFound)
}

// IsInvalidPrimaryKeyErr returns true if err is or wraps ErrInvalidPrimaryKey.
func IsInvalidPrimaryKeyErr(err error) bool {
	return errors.Is(err, ErrInvalidPrimaryKey)
}

// IsDuplicateValueErr returns true if err is or wraps ErrDuplicateValue.
func IsDuplicateValueErr(err error) bool {
	return errors.Is(err, ErrDuplicateValue)
}

// IsInsufficientRightsErr returns true if err is or wraps ErrInsufficientRights.
func IsInsufficientRightsErr(err error) bool {
	return errors.Is(err, ErrInsufficientRights)
}
