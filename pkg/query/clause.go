package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Op is a normalized clause operator.
type Op string

const (
	OpEq        Op = "="
	OpNe        Op = "!="
	OpLt        Op = "<"
	OpLte       Op = "<="
	OpGt        Op = ">"
	OpGte       Op = ">="
	OpLike      Op = "LIKE"
	OpNotLike   Op = "NOT LIKE"
	OpRegexp    Op = "REGEXP"
	OpIn        Op = "IN"
	OpNotIn     Op = "NOT IN"
	OpExists    Op = "EXISTS"
	OpNotExists Op = "NOT EXISTS"
	OpAnd       Op = "AND"
	OpOr        Op = "OR"
)

var operators = map[string]Op{
	"=":          OpEq,
	"==":         OpEq,
	"!=":         OpNe,
	"<>":         OpNe,
	"<":          OpLt,
	"<=":         OpLte,
	">":          OpGt,
	">=":         OpGte,
	"LIKE":       OpLike,
	"NOT LIKE":   OpNotLike,
	"REGEXP":     OpRegexp,
	"IN":         OpIn,
	"NOT IN":     OpNotIn,
	"EXISTS":     OpExists,
	"NOT EXISTS": OpNotExists,
	"AND":        OpAnd,
	"OR":         OpOr,
}

// ParseOp normalizes an operator. Matching is case-insensitive and accepts
// "_" in place of a space, so "not_in" and "NOT IN" are the same operator.
func ParseOp(raw string) (Op, error) {
	key := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(raw, "_", " ")), " "))
	op, ok := operators[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidArgument, raw)
	}
	return op, nil
}

// OperandKind tells which field of an Operand is set.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandColumn
	OperandClause
	OperandValue
	OperandList
	OperandNull
	OperandQuery
)

// Operand is one side of a Clause.
type Operand struct {
	Kind   OperandKind
	Column ColumnRef
	Clause *Clause
	Value  string
	List   []string
	Query  *State
}

func columnOperand(ref ColumnRef) Operand { return Operand{Kind: OperandColumn, Column: ref} }

func clauseOperand(c Clause) Operand { return Operand{Kind: OperandClause, Clause: &c} }

// Clause is a node of a where or having tree: either empty, a predicate
// over a column, or two sub-clauses joined by AND/OR.
type Clause struct {
	Left  Operand
	Op    Op
	Right Operand
}

// IsEmpty reports whether the clause holds no predicate.
func (c Clause) IsEmpty() bool {
	return c.Op == ""
}

// Tree returns the clause as a nested [left, op, right] list. Columns are
// [table, column] pairs and sub-queries {"query": id}. The result is
// deterministic and used for statement identity.
func (c Clause) Tree() []any {
	if c.IsEmpty() {
		return nil
	}
	return []any{c.Left.tree(), string(c.Op), c.Right.tree()}
}

// reaches reports whether the clause names a column of a table other than
// table. Sub-queries are self-contained and do not count.
func (c Clause) reaches(table string) bool {
	return c.Left.reaches(table) || c.Right.reaches(table)
}

func (o Operand) reaches(table string) bool {
	switch o.Kind {
	case OperandColumn:
		return o.Column.Table != table
	case OperandClause:
		return o.Clause.reaches(table)
	default:
		return false
	}
}

func (o Operand) tree() any {
	switch o.Kind {
	case OperandColumn:
		return []string{o.Column.Table, o.Column.Column}
	case OperandClause:
		return o.Clause.Tree()
	case OperandValue:
		return o.Value
	case OperandList:
		return o.List
	case OperandQuery:
		return map[string]string{"query": o.Query.ID()}
	default:
		return nil
	}
}

// ParseWhere validates and normalizes a where tree. A tree is empty or a
// three element list [left, operator, right]. Left and right of AND/OR are
// trees themselves; otherwise left names a column as "column",
// ["column"] or ["table", "column"] and right is a scalar, a column pair,
// nil (with = and != only), a list or *Select (IN, NOT IN) or a
// *SelectExist (EXISTS, NOT EXISTS).
//
// An equality on the base table's primary key during a table scan is not
// kept as a predicate: it selects the row through SetRow and yields an empty
// clause. Outside a table scan any primary key reference is rejected.
func (s *State) ParseWhere(tree []any) (Clause, error) {
	return s.parseClause(tree, true)
}

// SetWhere replaces the where clause.
func (s *State) SetWhere(tree []any) error {
	c, err := s.ParseWhere(tree)
	if err != nil {
		return err
	}
	s.resetID()
	s.where = c
	return nil
}

// AddWhere combines tree with the current where clause using AND.
func (s *State) AddWhere(tree []any) error {
	c, err := s.ParseWhere(tree)
	if err != nil {
		return err
	}
	s.resetID()
	s.where = andClauses(s.where, c)
	return nil
}

// Where returns the where clause given by the caller, without the hidden
// row and profile filters.
func (s *State) Where() Clause {
	return s.where
}

func andClauses(a, b Clause) Clause {
	switch {
	case a.IsEmpty():
		return b
	case b.IsEmpty():
		return a
	default:
		return Clause{Left: clauseOperand(a), Op: OpAnd, Right: clauseOperand(b)}
	}
}

func (s *State) parseClause(tree []any, optimize bool) (Clause, error) {
	if len(tree) == 0 {
		return Clause{}, nil
	}
	if len(tree) != 3 {
		return Clause{}, fmt.Errorf("%w: count(where) !== 3, got %d elements", ErrInvalidArgument, len(tree))
	}
	rawOp, ok := tree[1].(string)
	if !ok {
		return Clause{}, fmt.Errorf("%w: operator must be a string, got %T", ErrInvalidArgument, tree[1])
	}
	op, err := ParseOp(rawOp)
	if err != nil {
		return Clause{}, err
	}

	if op == OpAnd || op == OpOr {
		left, err := s.parseSubClause(tree[0])
		if err != nil {
			return Clause{}, err
		}
		right, err := s.parseSubClause(tree[2])
		if err != nil {
			return Clause{}, err
		}
		if left.IsEmpty() {
			return right, nil
		}
		if right.IsEmpty() {
			return left, nil
		}
		return Clause{Left: clauseOperand(left), Op: op, Right: clauseOperand(right)}, nil
	}
	return s.parsePredicate(tree[0], op, tree[2], optimize)
}

func (s *State) parseSubClause(v any) (Clause, error) {
	if v == nil {
		return Clause{}, nil
	}
	tree, ok := asList(v)
	if !ok {
		return Clause{}, fmt.Errorf("%w: operand of AND/OR must be a clause, got %T", ErrInvalidArgument, v)
	}
	return s.parseClause(tree, false)
}

func (s *State) parsePredicate(left any, op Op, right any, optimize bool) (Clause, error) {
	if op == OpExists || op == OpNotExists {
		sub, ok := right.(*SelectExist)
		if !ok || sub == nil {
			return Clause{}, fmt.Errorf("%w: %s needs an exists sub-query, got %T", ErrInvalidArgument, op, right)
		}
		return Clause{Op: op, Right: s.subQueryOperand(&sub.State)}, nil
	}

	ref, err := s.parseColumnOperand(left)
	if err != nil {
		return Clause{}, err
	}

	if s.isPrimaryKey(ref) {
		if s.row != "*" {
			return Clause{}, fmt.Errorf("%w: primary key %s used outside a table scan, select the row instead",
				ErrInvalidArgument, ref)
		}
		if optimize && op == OpEq {
			if value, ok := right.(string); ok {
				if err := s.SetRow(value); err != nil {
					return Clause{}, err
				}
				return Clause{}, nil
			}
		}
	}

	c := Clause{Left: columnOperand(ref), Op: op}
	switch op {
	case OpIn, OpNotIn:
		if sel, ok := right.(*Select); ok && sel != nil {
			c.Right = s.subQueryOperand(&sel.State)
			return c, nil
		}
		list, ok := asList(right)
		if !ok {
			return Clause{}, fmt.Errorf("%w: %s needs a list or a select sub-query, got %T", ErrInvalidArgument, op, right)
		}
		values := make([]string, 0, len(list))
		for _, item := range list {
			v, ok := scalarString(item)
			if !ok {
				return Clause{}, fmt.Errorf("%w: %s list holds %T", ErrInvalidArgument, op, item)
			}
			values = append(values, v)
		}
		c.Right = Operand{Kind: OperandList, List: values}
		return c, nil
	}

	if right == nil {
		if op != OpEq && op != OpNe {
			return Clause{}, fmt.Errorf("%w: NULL can only be compared with = or !=", ErrInvalidArgument)
		}
		c.Right = Operand{Kind: OperandNull}
		return c, nil
	}
	switch right.(type) {
	case *Select, *SelectExist, *SelectCount:
		return Clause{}, fmt.Errorf("%w: sub-query not allowed with %s", ErrInvalidArgument, op)
	}
	if pair, ok := asList(right); ok {
		if len(pair) != 2 {
			return Clause{}, fmt.Errorf("%w: right operand list must be a [table, column] pair", ErrInvalidArgument)
		}
		rref, err := s.parseColumnOperand(pair)
		if err != nil {
			return Clause{}, err
		}
		c.Right = columnOperand(rref)
		return c, nil
	}
	value, ok := scalarString(right)
	if !ok {
		return Clause{}, fmt.Errorf("%w: unsupported right operand %T", ErrInvalidArgument, right)
	}
	c.Right = Operand{Kind: OperandValue, Value: value}
	return c, nil
}

func (s *State) subQueryOperand(sub *State) Operand {
	sub.isSubQuery = true
	sub.resetID()
	return Operand{Kind: OperandQuery, Query: sub}
}

// parseColumnOperand resolves "column", ["column"] or ["table", "column"].
func (s *State) parseColumnOperand(v any) (ColumnRef, error) {
	var ref ColumnRef
	switch x := v.(type) {
	case string:
		r, err := s.resolveColumn(x)
		if err != nil {
			return ColumnRef{}, err
		}
		ref = r
	default:
		list, ok := asList(v)
		if !ok {
			return ColumnRef{}, fmt.Errorf("%w: column operand must be a name or [table, column], got %T", ErrInvalidArgument, v)
		}
		parts := make([]string, len(list))
		for i, item := range list {
			str, ok := item.(string)
			if !ok {
				return ColumnRef{}, fmt.Errorf("%w: column operand holds %T", ErrInvalidArgument, item)
			}
			parts[i] = str
		}
		switch len(parts) {
		case 1:
			r, err := s.resolveColumn(parts[0])
			if err != nil {
				return ColumnRef{}, err
			}
			ref = r
		case 2:
			t, err := s.lookupTable(parts[0])
			if err != nil {
				return ColumnRef{}, err
			}
			ref = ColumnRef{Table: t.Name(), Column: strings.ToLower(strings.TrimSpace(parts[1]))}
		default:
			return ColumnRef{}, fmt.Errorf("%w: column operand has %d elements", ErrInvalidArgument, len(parts))
		}
	}
	if err := s.checkColumn(ref); err != nil {
		return ColumnRef{}, err
	}
	return ref, nil
}

func (s *State) isPrimaryKey(ref ColumnRef) bool {
	if ref.Table != s.table {
		return false
	}
	t, err := s.baseTable()
	if err != nil {
		return false
	}
	return t.PrimaryKey() != "" && ref.Column == t.PrimaryKey()
}

// asList converts any slice except []byte into []any.
func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []byte, string, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// scalarString casts a scalar to its string form.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	case int:
		return strconv.Itoa(x), true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return "", false
	}
}
