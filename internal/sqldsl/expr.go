package sqldsl

import (
	"strconv"
	"strings"
)

// Expr is the interface that all SQL expression types implement.
type Expr interface {
	SQL(r *Renderer) string
}

// SQLer is implemented by complete statements.
type SQLer interface {
	SQL(r *Renderer) string
}

// Col represents a table column reference (e.g., "t"."object_id").
// The table part receives the renderer's table prefix.
type Col struct {
	Table  string
	Column string
}

// SQL renders the column reference.
func (c Col) SQL(r *Renderer) string {
	if c.Table == "" {
		return r.ID(c.Column)
	}
	return r.Table(c.Table) + "." + r.ID(c.Column)
}

// Star selects all columns, optionally of a single table.
type Star struct {
	Table string
}

// SQL renders * or "t".*.
func (s Star) SQL(r *Renderer) string {
	if s.Table == "" {
		return "*"
	}
	return r.Table(s.Table) + ".*"
}

// Value is a literal value. It renders quoted, or as a placeholder in bind mode.
type Value struct {
	V any
}

// SQL renders the value.
func (v Value) SQL(r *Renderer) string {
	return r.Value(v.V)
}

// Raw is an escape hatch for arbitrary SQL expressions.
type Raw string

// SQL renders the raw SQL as-is.
func (raw Raw) SQL(*Renderer) string {
	return string(raw)
}

// Int represents an integer literal. It is never bound.
type Int int

// SQL renders the integer.
func (i Int) SQL(*Renderer) string {
	return strconv.Itoa(int(i))
}

// Null represents SQL NULL.
type Null struct{}

// SQL renders NULL.
func (Null) SQL(*Renderer) string {
	return "NULL"
}

// Func represents a SQL function call.
type Func struct {
	Name string
	Args []Expr
}

// SQL renders the function call.
func (f Func) SQL(r *Renderer) string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.SQL(r)
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

// Count renders count(expr).
func Count(e Expr) Func {
	return Func{Name: "count", Args: []Expr{e}}
}

// Alias wraps an expression with an alias (expr AS "alias").
type Alias struct {
	Expr Expr
	Name string
}

// SQL renders the aliased expression.
func (a Alias) SQL(r *Renderer) string {
	if a.Name == "" {
		return a.Expr.SQL(r)
	}
	return a.Expr.SQL(r) + " AS " + r.ID(a.Name)
}

// SelectAs creates an aliased column expression.
func SelectAs(expr Expr, alias string) Alias {
	return Alias{Expr: expr, Name: alias}
}

// Paren wraps an expression in parentheses.
type Paren struct {
	Expr Expr
}

// SQL renders the parenthesized expression.
func (p Paren) SQL(r *Renderer) string {
	return "(" + p.Expr.SQL(r) + ")"
}

// Subquery embeds a statement as an expression: (SELECT ...).
type Subquery struct {
	Query SQLer
}

// SQL renders the parenthesized sub-select.
func (s Subquery) SQL(r *Renderer) string {
	return "(" + s.Query.SQL(r) + ")"
}

// List renders comma-separated expressions in parentheses: (a, b, c).
type List []Expr

// SQL renders the list.
func (l List) SQL(r *Renderer) string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.SQL(r)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Values converts Go values into a list of Value expressions.
func Values(vals ...any) []Expr {
	out := make([]Expr, len(vals))
	for i, v := range vals {
		out[i] = Value{V: v}
	}
	return out
}
