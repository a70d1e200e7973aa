package sqldsl

import (
	"fmt"
	"strings"
)

// Optf returns formatted string if condition is true, empty string otherwise.
// Useful for optional SQL clauses.
func Optf(cond bool, format string, args ...any) string {
	if !cond {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

// clauses joins the non-empty parts of a statement with single spaces.
func clauses(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// TableRef names a table in FROM, JOIN, INSERT, UPDATE and DELETE clauses.
// The renderer's table prefix is applied to Name but not to Alias.
type TableRef struct {
	Name  string
	Alias string
}

// SQL renders the table reference.
func (t TableRef) SQL(r *Renderer) string {
	if t.Alias != "" {
		return r.Table(t.Name) + " AS " + r.ID(t.Alias)
	}
	return r.Table(t.Name)
}

// JoinClause represents a SQL JOIN clause.
type JoinClause struct {
	Type  string // "INNER", "LEFT", "" for a plain JOIN
	Table TableRef
	On    Expr
}

// SQL renders the JOIN clause. A nil On renders no ON clause at all.
func (j JoinClause) SQL(r *Renderer) string {
	keyword := "JOIN"
	if j.Type != "" {
		keyword = j.Type + " JOIN"
	}
	if j.On == nil {
		return keyword + " " + j.Table.SQL(r)
	}
	return keyword + " " + j.Table.SQL(r) + " ON " + j.On.SQL(r)
}

// OrderTerm is a single ORDER BY entry.
type OrderTerm struct {
	Expr Expr
	Desc bool
}

// SQL renders the term with an optional DESC suffix.
func (o OrderTerm) SQL(r *Renderer) string {
	if o.Desc {
		return o.Expr.SQL(r) + " DESC"
	}
	return o.Expr.SQL(r)
}

// SelectStmt represents a SELECT query.
type SelectStmt struct {
	Distinct bool
	Columns  []Expr
	From     TableRef
	Joins    []JoinClause
	Where    Expr
	Having   Expr
	OrderBy  []OrderTerm
	Limit    int
	Offset   int
}

// SQL renders the SELECT statement.
func (s SelectStmt) SQL(r *Renderer) string {
	return clauses(
		"SELECT",
		Optf(s.Distinct, "DISTINCT"),
		s.columnsSQL(r),
		"FROM "+s.From.SQL(r),
		joinsSQL(r, s.Joins),
		whereSQL(r, "WHERE", s.Where),
		whereSQL(r, "HAVING", s.Having),
		orderSQL(r, s.OrderBy),
		limitSQL(r, s.Limit, s.Offset),
	)
}

func (s SelectStmt) columnsSQL(r *Renderer) string {
	if len(s.Columns) == 0 {
		return "*"
	}
	parts := make([]string, len(s.Columns))
	for i, e := range s.Columns {
		parts[i] = e.SQL(r)
	}
	return strings.Join(parts, ", ")
}

func joinsSQL(r *Renderer, joins []JoinClause) string {
	if len(joins) == 0 {
		return ""
	}
	parts := make([]string, len(joins))
	for i, j := range joins {
		parts[i] = j.SQL(r)
	}
	return strings.Join(parts, " ")
}

func whereSQL(r *Renderer, keyword string, e Expr) string {
	if e == nil {
		return ""
	}
	if a, ok := e.(AndExpr); ok && len(a.Exprs) == 0 {
		return ""
	}
	return keyword + " " + e.SQL(r)
}

func orderSQL(r *Renderer, terms []OrderTerm) string {
	if len(terms) == 0 {
		return ""
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.SQL(r)
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}

// limitSQL renders LIMIT/OFFSET. An offset without a limit still needs a
// LIMIT keyword in SQLite and MySQL.
func limitSQL(r *Renderer, limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf("LIMIT %d", limit)
	case offset > 0:
		switch r.Dialect {
		case DialectSQLite:
			return fmt.Sprintf("LIMIT -1 OFFSET %d", offset)
		case DialectMySQL:
			return fmt.Sprintf("LIMIT 18446744073709551615 OFFSET %d", offset)
		default:
			return fmt.Sprintf("OFFSET %d", offset)
		}
	default:
		return ""
	}
}

// Assignment is a single column = value pair.
type Assignment struct {
	Column string
	Value  Expr
}

// InsertStmt represents an INSERT of a single row.
type InsertStmt struct {
	Table   TableRef
	Columns []string
	Values  []Expr
}

// SQL renders the INSERT statement.
func (s InsertStmt) SQL(r *Renderer) string {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = r.ID(c)
	}
	return clauses(
		"INSERT INTO",
		s.Table.SQL(r),
		"("+strings.Join(cols, ", ")+")",
		"VALUES",
		List(s.Values).SQL(r),
	)
}

// UpdateStmt represents an UPDATE statement.
type UpdateStmt struct {
	Table TableRef
	Set   []Assignment
	Where Expr
	// Joins lets Where reference other tables. The rows are then matched
	// through KeyColumn.
	Joins     []JoinClause
	KeyColumn string
}

// SQL renders the UPDATE statement.
func (s UpdateStmt) SQL(r *Renderer) string {
	sets := make([]string, len(s.Set))
	for i, a := range s.Set {
		sets[i] = r.ID(a.Column) + " = " + a.Value.SQL(r)
	}
	where := s.Where
	if len(s.Joins) > 0 && s.KeyColumn != "" {
		key := Col{Table: s.Table.Name, Column: s.KeyColumn}
		where = KeyIn{Key: key, Query: SelectStmt{
			Columns: []Expr{key},
			From:    s.Table,
			Joins:   s.Joins,
			Where:   s.Where,
		}}
	}
	return clauses(
		"UPDATE",
		s.Table.SQL(r),
		"SET "+strings.Join(sets, ", "),
		whereSQL(r, "WHERE", where),
	)
}

// DeleteStmt represents a DELETE statement. When Limit is set and the
// dialect has no DELETE ... LIMIT, or when Joins are set, rows are selected
// through KeyColumn.
type DeleteStmt struct {
	Table     TableRef
	Where     Expr
	OrderBy   []OrderTerm
	Limit     int
	KeyColumn string
	Joins     []JoinClause
}

// SQL renders the DELETE statement.
func (s DeleteStmt) SQL(r *Renderer) string {
	if len(s.Joins) == 0 || s.KeyColumn == "" {
		if s.Limit <= 0 {
			return clauses("DELETE FROM", s.Table.SQL(r), whereSQL(r, "WHERE", s.Where))
		}
		if r.Dialect.SupportsDeleteLimit() || s.KeyColumn == "" {
			return clauses(
				"DELETE FROM",
				s.Table.SQL(r),
				whereSQL(r, "WHERE", s.Where),
				orderSQL(r, s.OrderBy),
				limitSQL(r, s.Limit, 0),
			)
		}
	}
	key := Col{Table: s.Table.Name, Column: s.KeyColumn}
	sub := SelectStmt{
		Columns: []Expr{key},
		From:    s.Table,
		Joins:   s.Joins,
		Where:   s.Where,
		OrderBy: s.OrderBy,
		Limit:   s.Limit,
	}
	return clauses("DELETE FROM", s.Table.SQL(r), "WHERE", KeyIn{Key: key, Query: sub}.SQL(r))
}
