package query

import (
	"context"
	"fmt"
	"strings"
)

// Select reads rows. Besides the shared mutators it supports multiple
// aliased columns, having clauses, left and natural joins and result shaping.
type Select struct {
	State
}

// NewSelect creates a select statement bound to conn.
func NewSelect(conn Connection, opts ...Option) *Select {
	return &Select{State: newState(conn, TypeSelect, opts)}
}

// SetColumns replaces the selection with the given columns. A single "*"
// selects every column.
func (s *Select) SetColumns(columns ...string) error {
	if len(columns) == 0 || (len(columns) == 1 && strings.TrimSpace(columns[0]) == "*") {
		return s.SetColumn("*")
	}
	if err := s.SetColumn("*"); err != nil {
		return err
	}
	for _, c := range columns {
		if err := s.addColumn(c, ""); err != nil {
			return err
		}
	}
	return nil
}

// AddColumn appends a column under an optional alias.
func (s *Select) AddColumn(column, alias string) error {
	return s.addColumn(column, alias)
}

// SetLeftJoin left-joins joinedTable. Empty keys are detected from foreign keys.
func (s *Select) SetLeftJoin(joinedTable, targetKey, sourceTable, foreignKey string) error {
	return s.setJoin(joinedTable, targetKey, sourceTable, foreignKey, JoinLeft)
}

// SetNaturalJoin joins joinedTable on the column names it shares with the
// tables already in the statement. It fails with ErrConstraint when there
// are none.
func (s *Select) SetNaturalJoin(joinedTable string) error {
	return s.setNaturalJoin(joinedTable)
}

// SetHaving replaces the having clause. Primary key equalities are kept as
// predicates here.
func (s *Select) SetHaving(tree []any) error {
	c, err := s.parseClause(tree, false)
	if err != nil {
		return err
	}
	s.resetID()
	s.having = c
	return nil
}

// AddHaving combines tree with the current having clause using AND.
func (s *Select) AddHaving(tree []any) error {
	c, err := s.parseClause(tree, false)
	if err != nil {
		return err
	}
	s.resetID()
	s.having = andClauses(s.having, c)
	return nil
}

// Having returns the having clause.
func (s *Select) Having() Clause {
	return s.having
}

// GetResults executes the statement and shapes the rows according to
// ExpectedResult.
func (s *Select) GetResults(ctx context.Context) (*Results, error) {
	res, err := s.SendQuery(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.shape(res)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.table, err)
	}
	return out, nil
}

// Clone returns an independent copy of the statement.
func (s *Select) Clone() *Select {
	return &Select{State: s.clone()}
}
