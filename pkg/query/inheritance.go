package query

import "strings"

// detectInheritance follows the chain of tables whose primary key is also a
// foreign key onto another table's primary key. Each parent is inner-joined
// and its columns not shadowed by a descendant become addressable as if they
// belonged to the base table. A table seen twice ends the walk.
func (s *State) detectInheritance(t Table) {
	visited := map[string]bool{t.Name(): true}
	shadowed := map[string]bool{}
	for _, c := range t.ColumnNames() {
		shadowed[c] = true
	}

	child := t
	for {
		parent, fk, ok := s.parentOf(child)
		if !ok || visited[parent.Name()] {
			return
		}
		visited[parent.Name()] = true

		s.putJoin(JoinCondition{
			JoinedTable: parent.Name(),
			TargetKey:   fk.TargetColumn,
			SourceTable: child.Name(),
			ForeignKey:  fk.Column,
			Kind:        JoinInner,
		})
		s.parentTables[strings.ToUpper(child.Name())] = parent
		if !containsString(s.parentChain, parent.Name()) {
			s.parentChain = append(s.parentChain, parent.Name())
		}
		for _, c := range parent.ColumnNames() {
			if shadowed[c] {
				continue
			}
			shadowed[c] = true
			s.tableByColumn[strings.ToUpper(c)] = parent.Name()
		}
		child = parent
	}
}

// parentOf returns the table child's primary key references, provided the
// reference targets that table's primary key.
func (s *State) parentOf(child Table) (Table, ForeignKey, bool) {
	pk := child.PrimaryKey()
	if pk == "" {
		return nil, ForeignKey{}, false
	}
	col := child.Column(pk)
	if col == nil || !col.IsForeignKey() {
		return nil, ForeignKey{}, false
	}
	for _, fk := range child.ForeignKeys() {
		if fk.Column != pk {
			continue
		}
		parent := s.conn.Schema().Table(fk.TargetTable)
		if parent == nil {
			continue
		}
		if fk.TargetColumn == "" {
			fk.TargetColumn = parent.PrimaryKey()
		}
		if fk.TargetColumn != parent.PrimaryKey() {
			continue
		}
		return parent, fk, true
	}
	return nil, ForeignKey{}, false
}

// ParentByColumn returns the table that owns column: the base table when it
// defines the column, otherwise the nearest parent that does. Unknown
// columns fall back to the base table.
func (s *State) ParentByColumn(column string) string {
	column = strings.ToLower(strings.TrimSpace(column))
	if base, err := s.baseTable(); err == nil && base.IsColumn(column) {
		return s.table
	}
	if owner, ok := s.tableByColumn[strings.ToUpper(column)]; ok {
		return owner
	}
	return s.table
}

// ParentTable returns the parent of child found by inheritance detection.
func (s *State) ParentTable(child string) (Table, bool) {
	t, ok := s.parentTables[strings.ToUpper(child)]
	return t, ok
}

// ParentTables returns the names of all parent tables, nearest first.
func (s *State) ParentTables() []string {
	return append([]string(nil), s.parentChain...)
}

func (s *State) parentByName(name string) (Table, bool) {
	for _, t := range s.parentTables {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
