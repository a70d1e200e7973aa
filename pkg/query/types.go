package query

import "strings"

// Type tags the kind of statement a State renders.
type Type int

const (
	TypeUnknown Type = iota
	TypeSelect
	TypeUpdate
	TypeInsert
	TypeDelete
	TypeExists
	TypeCount
)

var typeNames = map[Type]string{
	TypeUnknown: "unknown",
	TypeSelect:  "select",
	TypeUpdate:  "update",
	TypeInsert:  "insert",
	TypeDelete:  "delete",
	TypeExists:  "exists",
	TypeCount:   "count",
}

// String returns the lower-case name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseType maps a name such as "select" onto a Type.
func ParseType(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name && t != TypeUnknown {
			return t, true
		}
	}
	return TypeUnknown, false
}

// ExpectedResult is the shape a statement's result is reshaped into.
type ExpectedResult int

const (
	ResultUnknown ExpectedResult = iota
	// ResultTable is a set of rows keyed by primary key.
	ResultTable
	// ResultRow is a single row.
	ResultRow
	// ResultColumn is one value per row keyed by primary key.
	ResultColumn
	// ResultCell is a single value.
	ResultCell
)

// String returns the upper-case name of the result shape.
func (r ExpectedResult) String() string {
	switch r {
	case ResultTable:
		return "TABLE"
	case ResultRow:
		return "ROW"
	case ResultColumn:
		return "COLUMN"
	case ResultCell:
		return "CELL"
	default:
		return "UNKNOWN"
	}
}

// ColumnRef names a column of a table.
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// String returns "table.column".
func (c ColumnRef) String() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// SelectedColumn is an entry of a statement's column list.
type SelectedColumn struct {
	Alias  string `json:"alias,omitempty"`
	Table  string `json:"table"`
	Column string `json:"column"`
}

// Key returns the name the column appears under in a result row.
func (c SelectedColumn) Key() string {
	if c.Alias != "" {
		return strings.ToLower(c.Alias)
	}
	return c.Column
}

// Ref returns the column reference without its alias.
func (c SelectedColumn) Ref() ColumnRef {
	return ColumnRef{Table: c.Table, Column: c.Column}
}
