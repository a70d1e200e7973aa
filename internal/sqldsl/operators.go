package sqldsl

import (
	"strings"
)

// Comparison operators

// Eq represents an equality comparison (=).
type Eq struct {
	Left  Expr
	Right Expr
}

func (e Eq) SQL(r *Renderer) string { return e.Left.SQL(r) + " = " + e.Right.SQL(r) }

// Ne represents a not-equal comparison (<>).
type Ne struct {
	Left  Expr
	Right Expr
}

func (n Ne) SQL(r *Renderer) string { return n.Left.SQL(r) + " <> " + n.Right.SQL(r) }

// Lt represents a less-than comparison (<).
type Lt struct {
	Left  Expr
	Right Expr
}

func (l Lt) SQL(r *Renderer) string { return l.Left.SQL(r) + " < " + l.Right.SQL(r) }

// Gt represents a greater-than comparison (>).
type Gt struct {
	Left  Expr
	Right Expr
}

func (g Gt) SQL(r *Renderer) string { return g.Left.SQL(r) + " > " + g.Right.SQL(r) }

// Lte represents a less-than-or-equal comparison (<=).
type Lte struct {
	Left  Expr
	Right Expr
}

func (l Lte) SQL(r *Renderer) string { return l.Left.SQL(r) + " <= " + l.Right.SQL(r) }

// Gte represents a greater-than-or-equal comparison (>=).
type Gte struct {
	Left  Expr
	Right Expr
}

func (g Gte) SQL(r *Renderer) string { return g.Left.SQL(r) + " >= " + g.Right.SQL(r) }

// Like represents a pattern match (LIKE), negated when Not is set.
type Like struct {
	Left  Expr
	Right Expr
	Not   bool
}

func (l Like) SQL(r *Renderer) string {
	if l.Not {
		return l.Left.SQL(r) + " NOT LIKE " + l.Right.SQL(r)
	}
	return l.Left.SQL(r) + " LIKE " + l.Right.SQL(r)
}

// Regexp represents a regular expression match. PostgreSQL uses ~.
type Regexp struct {
	Left  Expr
	Right Expr
}

func (re Regexp) SQL(r *Renderer) string {
	if r.Dialect == DialectPostgres {
		return re.Left.SQL(r) + " ~ " + re.Right.SQL(r)
	}
	return re.Left.SQL(r) + " REGEXP " + re.Right.SQL(r)
}

// In represents an IN clause over a list of expressions.
type In struct {
	Expr   Expr
	Values []Expr
}

func (i In) SQL(r *Renderer) string {
	if len(i.Values) == 0 {
		return "1 = 0"
	}
	return i.Expr.SQL(r) + " IN " + List(i.Values).SQL(r)
}

// NotIn represents a NOT IN clause over a list of expressions.
type NotIn struct {
	Expr   Expr
	Values []Expr
}

func (n NotIn) SQL(r *Renderer) string {
	if len(n.Values) == 0 {
		return "1 = 1"
	}
	return n.Expr.SQL(r) + " NOT IN " + List(n.Values).SQL(r)
}

// InQuery represents expr [NOT] IN (sub-select).
type InQuery struct {
	Expr  Expr
	Query SQLer
	Not   bool
}

func (i InQuery) SQL(r *Renderer) string {
	op := " IN "
	if i.Not {
		op = " NOT IN "
	}
	return i.Expr.SQL(r) + op + "(" + i.Query.SQL(r) + ")"
}

// KeyIn represents key IN (sub-select) where the sub-select reads the table
// being changed. On MySQL the keys go through a derived table.
type KeyIn struct {
	Key   Col
	Query SelectStmt
}

func (k KeyIn) SQL(r *Renderer) string {
	if r.Dialect != DialectMySQL {
		return InQuery{Expr: k.Key, Query: k.Query}.SQL(r)
	}
	return k.Key.SQL(r) + " IN (SELECT " + r.ID(k.Key.Column) + " FROM (" + k.Query.SQL(r) + ") AS " + r.ID("keys") + ")"
}

// Logical operators

// filterNilExprs removes nil expressions from the slice.
func filterNilExprs(exprs []Expr) []Expr {
	filtered := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// joinExprs renders expressions joined by a separator, wrapped in parentheses if more than one.
func joinExprs(r *Renderer, exprs []Expr, sep, emptyVal string) string {
	switch len(exprs) {
	case 0:
		return emptyVal
	case 1:
		return exprs[0].SQL(r)
	default:
		parts := make([]string, len(exprs))
		for i, e := range exprs {
			parts[i] = e.SQL(r)
		}
		return "(" + strings.Join(parts, sep) + ")"
	}
}

// AndExpr represents a logical AND of multiple expressions.
type AndExpr struct {
	Exprs []Expr
}

func (a AndExpr) SQL(r *Renderer) string { return joinExprs(r, a.Exprs, " AND ", "1 = 1") }

// And creates an AND expression from multiple expressions. Nil entries are dropped.
func And(exprs ...Expr) AndExpr {
	return AndExpr{Exprs: filterNilExprs(exprs)}
}

// OrExpr represents a logical OR of multiple expressions.
type OrExpr struct {
	Exprs []Expr
}

func (o OrExpr) SQL(r *Renderer) string { return joinExprs(r, o.Exprs, " OR ", "1 = 0") }

// Or creates an OR expression from multiple expressions. Nil entries are dropped.
func Or(exprs ...Expr) OrExpr {
	return OrExpr{Exprs: filterNilExprs(exprs)}
}

// NotExpr represents a logical NOT of an expression.
type NotExpr struct {
	Expr Expr
}

func (n NotExpr) SQL(r *Renderer) string { return "NOT (" + n.Expr.SQL(r) + ")" }

// Not creates a NOT expression.
func Not(expr Expr) NotExpr { return NotExpr{Expr: expr} }

// Exists represents an EXISTS subquery.
type Exists struct {
	Query SQLer
}

func (e Exists) SQL(r *Renderer) string { return "EXISTS (" + e.Query.SQL(r) + ")" }

// NotExists represents a NOT EXISTS subquery.
type NotExists struct {
	Query SQLer
}

func (n NotExists) SQL(r *Renderer) string { return "NOT EXISTS (" + n.Query.SQL(r) + ")" }

// IsNull represents IS NULL check.
type IsNull struct {
	Expr Expr
}

func (i IsNull) SQL(r *Renderer) string { return i.Expr.SQL(r) + " IS NULL" }

// IsNotNull represents IS NOT NULL check.
type IsNotNull struct {
	Expr Expr
}

func (i IsNotNull) SQL(r *Renderer) string { return i.Expr.SQL(r) + " IS NOT NULL" }
