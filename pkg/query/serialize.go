package query

import (
	"fmt"
	"slices"

	"github.com/yanadb/yanaq/internal/sqldsl"
)

// statement builds the SQL tree for the statement type.
func (s *State) statement() (sqldsl.SQLer, error) {
	switch s.typ {
	case TypeSelect, TypeExists, TypeCount:
		return s.selectStatement()
	case TypeInsert:
		return s.insertStatement()
	case TypeUpdate:
		return s.updateStatement()
	case TypeDelete:
		return s.deleteStatement()
	default:
		return nil, fmt.Errorf("%w: cannot render a statement of type %s", ErrInvalidArgument, s.typ)
	}
}

func (s *State) selectStatement() (sqldsl.SelectStmt, error) {
	t, err := s.baseTable()
	if err != nil {
		return sqldsl.SelectStmt{}, err
	}
	where, err := s.whereExpr()
	if err != nil {
		return sqldsl.SelectStmt{}, err
	}
	stmt := sqldsl.SelectStmt{
		From:   sqldsl.TableRef{Name: s.table},
		Joins:  s.joinClauses(),
		Where:  where,
		Limit:  s.limit,
		Offset: s.offset,
	}

	switch s.typ {
	case TypeExists:
		stmt.Columns = []sqldsl.Expr{sqldsl.Int(1)}
		var notNull []sqldsl.Expr
		for _, c := range s.columns {
			notNull = append(notNull, sqldsl.IsNotNull{Expr: colExpr(c.Ref())})
		}
		if len(notNull) > 0 {
			stmt.Where = sqldsl.And(append([]sqldsl.Expr{where}, notNull...)...)
		}
		stmt.Limit, stmt.Offset = 1, 0
	case TypeCount:
		var counted sqldsl.Expr = sqldsl.Star{}
		if len(s.columns) == 1 {
			counted = colExpr(s.columns[0].Ref())
		}
		stmt.Columns = []sqldsl.Expr{sqldsl.SelectAs(sqldsl.Count(counted), "count")}
		stmt.Limit, stmt.Offset = 0, 0
	default:
		stmt.Columns = s.selectColumns(t)
		stmt.OrderBy = s.orderTerms()
		if !s.having.IsEmpty() {
			having, err := s.clauseExpr(s.having)
			if err != nil {
				return sqldsl.SelectStmt{}, err
			}
			stmt.Having = having
		}
	}
	return stmt, nil
}

func (s *State) selectColumns(t Table) []sqldsl.Expr {
	if len(s.columns) == 0 {
		return nil
	}
	cols := make([]sqldsl.Expr, 0, len(s.columns)+1)
	for _, c := range s.columns {
		if c.Alias != "" {
			cols = append(cols, sqldsl.SelectAs(colExpr(c.Ref()), c.Alias))
		} else {
			cols = append(cols, colExpr(c.Ref()))
		}
	}
	if s.needsImplicitKey(t) {
		cols = append(cols, sqldsl.Col{Table: s.table, Column: t.PrimaryKey()})
	}
	return cols
}

// needsImplicitKey reports whether a single-column table scan also selects
// the primary key, which keys the result. Sub-selects never do: their
// column list is compared against the outer query.
func (s *State) needsImplicitKey(t Table) bool {
	if s.isSubQuery || s.expected != ResultColumn || len(s.columns) != 1 || t.PrimaryKey() == "" {
		return false
	}
	c := s.columns[0]
	return c.Table != s.table || c.Column != t.PrimaryKey()
}

func (s *State) insertStatement() (sqldsl.InsertStmt, error) {
	if s.table == "" {
		return sqldsl.InsertStmt{}, ErrTableNotSet
	}
	if len(s.values) == 0 {
		return sqldsl.InsertStmt{}, fmt.Errorf("%w: insert into %s has no values", ErrInvalidArgument, s.table)
	}
	cols := sortedKeys(s.values)
	vals := make([]sqldsl.Expr, len(cols))
	for i, c := range cols {
		vals[i] = sqldsl.Value{V: s.values[c]}
	}
	return sqldsl.InsertStmt{Table: sqldsl.TableRef{Name: s.table}, Columns: cols, Values: vals}, nil
}

func (s *State) updateStatement() (sqldsl.UpdateStmt, error) {
	if s.table == "" {
		return sqldsl.UpdateStmt{}, ErrTableNotSet
	}
	if s.row == "*" || s.row == "?" {
		return sqldsl.UpdateStmt{}, fmt.Errorf("%w: update of %s must select a row", ErrInvalidArgument, s.table)
	}
	if len(s.values) == 0 {
		return sqldsl.UpdateStmt{}, fmt.Errorf("%w: update of %s has no values", ErrInvalidArgument, s.table)
	}
	where, err := s.whereExpr()
	if err != nil {
		return sqldsl.UpdateStmt{}, err
	}
	t, err := s.baseTable()
	if err != nil {
		return sqldsl.UpdateStmt{}, err
	}
	set := make([]sqldsl.Assignment, 0, len(s.values))
	for _, c := range sortedKeys(s.values) {
		set = append(set, sqldsl.Assignment{Column: c, Value: sqldsl.Value{V: s.values[c]}})
	}
	return sqldsl.UpdateStmt{
		Table:     sqldsl.TableRef{Name: s.table},
		Set:       set,
		Where:     where,
		Joins:     s.writeJoins(),
		KeyColumn: t.PrimaryKey(),
	}, nil
}

func (s *State) deleteStatement() (sqldsl.DeleteStmt, error) {
	t, err := s.baseTable()
	if err != nil {
		return sqldsl.DeleteStmt{}, err
	}
	where, err := s.whereExpr()
	if err != nil {
		return sqldsl.DeleteStmt{}, err
	}
	return sqldsl.DeleteStmt{
		Table:     sqldsl.TableRef{Name: s.table},
		Where:     where,
		OrderBy:   s.orderTerms(),
		Limit:     s.limit,
		KeyColumn: t.PrimaryKey(),
		Joins:     s.writeJoins(),
	}, nil
}

// writeJoins returns the joins an UPDATE or DELETE needs: none unless the
// where clause or the order reaches a joined table, typically a parent.
func (s *State) writeJoins() []sqldsl.JoinClause {
	reaches := s.where.reaches(s.table)
	for _, ref := range s.orderBy {
		reaches = reaches || ref.Table != s.table
	}
	if !reaches {
		return nil
	}
	return s.joinClauses()
}

// whereExpr merges the caller's where clause with natural join predicates
// and the hidden row and profile filters.
func (s *State) whereExpr() (sqldsl.Expr, error) {
	var parts []sqldsl.Expr
	if !s.where.IsEmpty() {
		e, err := s.clauseExpr(s.where)
		if err != nil {
			return nil, err
		}
		parts = append(parts, e)
	}
	for _, j := range s.joins {
		for _, c := range s.natural[j.JoinedTable] {
			e, err := s.clauseExpr(c)
			if err != nil {
				return nil, err
			}
			parts = append(parts, e)
		}
	}
	if s.rowValue != "" {
		t, err := s.baseTable()
		if err != nil {
			return nil, err
		}
		parts = append(parts, sqldsl.Eq{
			Left:  sqldsl.Col{Table: s.table, Column: t.PrimaryKey()},
			Right: sqldsl.Value{V: s.rowValue},
		})
	}
	if s.profile != "" {
		parts = append(parts, sqldsl.Eq{
			Left:  sqldsl.Col{Table: s.table, Column: "profile_id"},
			Right: sqldsl.Value{V: s.profile},
		})
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return sqldsl.And(parts...), nil
}

// clauseExpr converts a clause tree into an SQL expression.
func (s *State) clauseExpr(c Clause) (sqldsl.Expr, error) {
	if c.IsEmpty() {
		return nil, nil
	}
	if c.Op == OpAnd || c.Op == OpOr {
		left, err := s.operandExpr(c.Left)
		if err != nil {
			return nil, err
		}
		right, err := s.operandExpr(c.Right)
		if err != nil {
			return nil, err
		}
		if c.Op == OpAnd {
			return sqldsl.And(left, right), nil
		}
		return sqldsl.Or(left, right), nil
	}

	if c.Op == OpExists || c.Op == OpNotExists {
		sub, err := c.Right.Query.selectStatement()
		if err != nil {
			return nil, err
		}
		if c.Op == OpExists {
			return sqldsl.Exists{Query: sub}, nil
		}
		return sqldsl.NotExists{Query: sub}, nil
	}

	left, err := s.operandExpr(c.Left)
	if err != nil {
		return nil, err
	}
	switch c.Right.Kind {
	case OperandNull:
		if c.Op == OpNe {
			return sqldsl.IsNotNull{Expr: left}, nil
		}
		return sqldsl.IsNull{Expr: left}, nil
	case OperandList:
		values := make([]sqldsl.Expr, len(c.Right.List))
		for i, v := range c.Right.List {
			values[i] = sqldsl.Value{V: v}
		}
		if c.Op == OpNotIn {
			return sqldsl.NotIn{Expr: left, Values: values}, nil
		}
		return sqldsl.In{Expr: left, Values: values}, nil
	case OperandQuery:
		sub, err := c.Right.Query.selectStatement()
		if err != nil {
			return nil, err
		}
		return sqldsl.InQuery{Expr: left, Query: sub, Not: c.Op == OpNotIn}, nil
	}

	right, err := s.operandExpr(c.Right)
	if err != nil {
		return nil, err
	}
	switch c.Op {
	case OpEq:
		return sqldsl.Eq{Left: left, Right: right}, nil
	case OpNe:
		return sqldsl.Ne{Left: left, Right: right}, nil
	case OpLt:
		return sqldsl.Lt{Left: left, Right: right}, nil
	case OpLte:
		return sqldsl.Lte{Left: left, Right: right}, nil
	case OpGt:
		return sqldsl.Gt{Left: left, Right: right}, nil
	case OpGte:
		return sqldsl.Gte{Left: left, Right: right}, nil
	case OpLike:
		return sqldsl.Like{Left: left, Right: right}, nil
	case OpNotLike:
		return sqldsl.Like{Left: left, Right: right, Not: true}, nil
	case OpRegexp:
		return sqldsl.Regexp{Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("%w: operator %s cannot be rendered", ErrInvalidArgument, c.Op)
	}
}

func (s *State) operandExpr(o Operand) (sqldsl.Expr, error) {
	switch o.Kind {
	case OperandColumn:
		return colExpr(o.Column), nil
	case OperandClause:
		return s.clauseExpr(*o.Clause)
	case OperandValue:
		return sqldsl.Value{V: o.Value}, nil
	case OperandNull:
		return sqldsl.Null{}, nil
	default:
		return nil, fmt.Errorf("%w: operand kind %d not valid here", ErrInvalidArgument, o.Kind)
	}
}

func (s *State) joinClauses() []sqldsl.JoinClause {
	if len(s.joins) == 0 {
		return nil
	}
	out := make([]sqldsl.JoinClause, 0, len(s.joins))
	for _, j := range s.joins {
		if j.IsNatural() {
			out = append(out, sqldsl.JoinClause{Type: "CROSS", Table: sqldsl.TableRef{Name: j.JoinedTable}})
			continue
		}
		typ := "INNER"
		if j.Kind == JoinLeft {
			typ = "LEFT"
		}
		out = append(out, sqldsl.JoinClause{
			Type:  typ,
			Table: sqldsl.TableRef{Name: j.JoinedTable},
			On: sqldsl.Eq{
				Left:  sqldsl.Col{Table: j.JoinedTable, Column: j.TargetKey},
				Right: sqldsl.Col{Table: j.SourceTable, Column: j.ForeignKey},
			},
		})
	}
	return out
}

func (s *State) orderTerms() []sqldsl.OrderTerm {
	if len(s.orderBy) == 0 {
		return nil
	}
	terms := make([]sqldsl.OrderTerm, len(s.orderBy))
	for i, ref := range s.orderBy {
		terms[i] = sqldsl.OrderTerm{Expr: colExpr(ref), Desc: i < len(s.desc) && s.desc[i]}
	}
	return terms
}

func colExpr(ref ColumnRef) sqldsl.Col {
	return sqldsl.Col{Table: ref.Table, Column: ref.Column}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
