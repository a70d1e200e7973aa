package query

import (
	"fmt"
	"slices"
	"strings"
)

// JoinKind is the kind of a join.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinNatural
)

// String returns the lower-case name of the join kind.
func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "left"
	case JoinNatural:
		return "natural"
	default:
		return "inner"
	}
}

// JoinCondition describes JoinedTable.TargetKey = SourceTable.ForeignKey.
// Natural joins carry empty keys; their predicates live in the where clause.
type JoinCondition struct {
	JoinedTable string   `json:"joined_table"`
	TargetKey   string   `json:"target_key"`
	SourceTable string   `json:"source_table"`
	ForeignKey  string   `json:"foreign_key"`
	Kind        JoinKind `json:"kind"`
}

// IsNatural reports whether the join is rendered without an ON clause.
func (j JoinCondition) IsNatural() bool {
	return j.TargetKey == "" || j.ForeignKey == ""
}

// SetJoin inner-joins joinedTable. Empty keys are detected from the foreign
// keys of sourceTable, which defaults to the base table.
func (s *State) SetJoin(joinedTable, targetKey, sourceTable, foreignKey string) error {
	return s.setJoin(joinedTable, targetKey, sourceTable, foreignKey, JoinInner)
}

func (s *State) setJoin(joinedTable, targetKey, sourceTable, foreignKey string, kind JoinKind) error {
	if s.table == "" {
		return fmt.Errorf("%w: set a table before joining", ErrTableNotSet)
	}
	target, err := s.lookupTable(joinedTable)
	if err != nil {
		return err
	}
	if strings.TrimSpace(sourceTable) == "" {
		sourceTable = s.table
	}
	source, err := s.lookupTable(sourceTable)
	if err != nil {
		return err
	}

	targetKey = strings.ToLower(strings.TrimSpace(targetKey))
	foreignKey = strings.ToLower(strings.TrimSpace(foreignKey))
	if targetKey == "" || foreignKey == "" {
		fk, ok := findForeignKey(source, target)
		if !ok {
			if _, reverse := findForeignKey(target, source); reverse {
				return fmt.Errorf("%w: wrong join order, %s references %s; join %s onto %s instead",
					ErrConstraint, target.Name(), source.Name(), source.Name(), target.Name())
			}
			return fmt.Errorf("%w: no foreign key found from %s to %s", ErrConstraint, source.Name(), target.Name())
		}
		targetKey, foreignKey = fk.TargetColumn, fk.Column
	} else if s.cfg.Strict {
		if !target.IsColumn(targetKey) {
			return fmt.Errorf("%w: %s.%s", ErrColumnNotFound, target.Name(), targetKey)
		}
		if !source.IsColumn(foreignKey) {
			return fmt.Errorf("%w: %s.%s", ErrColumnNotFound, source.Name(), foreignKey)
		}
	}

	s.resetID()
	delete(s.natural, target.Name())
	s.putJoin(JoinCondition{
		JoinedTable: target.Name(),
		TargetKey:   targetKey,
		SourceTable: source.Name(),
		ForeignKey:  foreignKey,
		Kind:        kind,
	})
	return nil
}

// findForeignKey returns a foreign key of source referencing target,
// preferring one that references target's primary key.
func findForeignKey(source, target Table) (ForeignKey, bool) {
	var found ForeignKey
	ok := false
	for _, fk := range source.ForeignKeys() {
		if fk.TargetTable != target.Name() {
			continue
		}
		if fk.TargetColumn == "" {
			fk.TargetColumn = target.PrimaryKey()
		}
		if fk.TargetColumn == target.PrimaryKey() {
			return fk, true
		}
		if !ok {
			found, ok = fk, true
		}
	}
	return found, ok
}

// setNaturalJoin joins joinedTable on every column name it shares with the
// base table or an already joined table. The predicates are computed here
// from the schema rather than left to the database, so columns the schema
// does not expose never take part in the match.
func (s *State) setNaturalJoin(joinedTable string) error {
	if s.table == "" {
		return fmt.Errorf("%w: set a table before joining", ErrTableNotSet)
	}
	target, err := s.lookupTable(joinedTable)
	if err != nil {
		return err
	}

	tables := []string{s.table}
	for _, j := range s.joins {
		if j.JoinedTable != target.Name() && j.JoinedTable != s.table {
			tables = append(tables, j.JoinedTable)
		}
	}

	var predicates []Clause
	for _, name := range tables {
		if name == target.Name() {
			continue
		}
		t := s.conn.Schema().Table(name)
		if t == nil {
			continue
		}
		for _, c := range t.ColumnNames() {
			if !target.IsColumn(c) {
				continue
			}
			predicates = append(predicates, Clause{
				Left:  columnOperand(ColumnRef{Table: name, Column: c}),
				Op:    OpEq,
				Right: columnOperand(ColumnRef{Table: target.Name(), Column: c}),
			})
		}
	}
	if len(predicates) == 0 {
		return fmt.Errorf("%w: %s shares no column with the joined tables", ErrConstraint, target.Name())
	}

	s.resetID()
	s.putJoin(JoinCondition{JoinedTable: target.Name(), SourceTable: s.table, Kind: JoinNatural})
	s.natural[target.Name()] = predicates
	return nil
}

// putJoin stores a join, replacing an existing one for the same table in place.
func (s *State) putJoin(j JoinCondition) {
	for i := range s.joins {
		if s.joins[i].JoinedTable == j.JoinedTable {
			s.joins[i] = j
			return
		}
	}
	s.joins = append(s.joins, j)
}

// UnsetJoin removes the join of table, if any.
func (s *State) UnsetJoin(table string) {
	table = strings.ToLower(strings.TrimSpace(table))
	i := slices.IndexFunc(s.joins, func(j JoinCondition) bool { return j.JoinedTable == table })
	if i < 0 {
		return
	}
	s.resetID()
	s.joins = slices.Delete(s.joins, i, i+1)
	delete(s.natural, table)
}

// IsJoined reports whether table is joined.
func (s *State) IsJoined(table string) bool {
	table = strings.ToLower(strings.TrimSpace(table))
	return slices.ContainsFunc(s.joins, func(j JoinCondition) bool { return j.JoinedTable == table })
}

// Joins returns the joins in rendering order.
func (s *State) Joins() []JoinCondition {
	return slices.Clone(s.joins)
}
