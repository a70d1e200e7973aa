package query

import (
	"context"

	"github.com/yanadb/yanaq/internal/sqldsl"
)

// Schema resolves table definitions by name. Lookups are case-insensitive;
// implementations return nil for unknown tables.
type Schema interface {
	Name() string
	Table(name string) Table
}

// Table is the read-only view of a table definition the builder needs.
type Table interface {
	Name() string
	PrimaryKey() string
	IsColumn(name string) bool
	// Column returns nil when the column does not exist.
	Column(name string) Column
	ColumnNames() []string
	ForeignKeys() []ForeignKey
	// TableByForeignKey returns the table referenced by the given column,
	// or the empty string when the column is not a foreign key.
	TableByForeignKey(column string) string
	HasProfile() bool
	FileColumns() []Column
}

// Column is the read-only view of a column definition.
type Column interface {
	Name() string
	Type() string
	IsForeignKey() bool
	IsPrimaryKey() bool
	IsAutoFill() bool
	IsArray() bool
	// InterpretValue converts a stored value into its Go representation.
	// A non-empty arrayAddress selects a nested element of an array column.
	InterpretValue(raw any, arrayAddress string, dialect string) (any, error)
	// SanitizeValue validates v and converts it into a value the driver can store.
	SanitizeValue(v any, dialect string) (any, error)
}

// ForeignKey is a single-column reference from Column to
// TargetTable.TargetColumn.
type ForeignKey struct {
	Column       string `json:"column"`
	TargetTable  string `json:"target_table"`
	TargetColumn string `json:"target_column"`
}

// Statement is a fully specified query a Connection can execute.
type Statement interface {
	ID() string
	Type() Type
	Render(d sqldsl.Dialect, bind bool) (string, []any, error)
}

// Connection executes statements. It also supplies the schema the
// statements are validated against and the quoting rules they render with.
type Connection interface {
	Schema() Schema
	Dialect() sqldsl.Dialect
	Quoter() sqldsl.Quoter
	SendQuery(ctx context.Context, stmt Statement) (Result, error)
	SendQueryString(ctx context.Context, sql string, args ...any) (Result, error)
}

// Result is a materialized result set. Row maps are keyed by lower-cased
// column name or alias.
type Result interface {
	CountRows() int
	// FetchRow returns nil when i is out of range.
	FetchRow(i int) map[string]any
	// FetchOne returns the first column of the first row, or nil.
	FetchOne() any
}

// Security supplies the current profile and decides whether it may write
// rows owned by another profile.
type Security interface {
	CurrentProfile() string
	CheckRules(ctx context.Context, profileID string) (bool, error)
}

// FileStore removes files referenced by file and image columns.
type FileStore interface {
	Remove(ctx context.Context, table, column, value string) error
}
