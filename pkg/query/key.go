package query

import (
	"context"
	"fmt"
	"strings"
)

// SetKey points the statement at a key address
// "table[.row[.column[.segment...]]]". Segments past the column follow
// foreign keys, reading each referenced value from the database, until they
// reach a non-key column. Segments left over on an array column become the
// array address. A row of "?" selects the most recent row by ordering the
// primary key descending with a limit of one.
func (s *State) SetKey(ctx context.Context, key string) error {
	parts := strings.Split(strings.TrimSpace(key), ".")
	t, err := s.lookupTable(parts[0])
	if err != nil {
		return err
	}
	row, column := "*", "*"
	if len(parts) > 1 && parts[1] != "" {
		row = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		column = strings.ToLower(parts[2])
	}
	var rest []string
	if len(parts) > 3 {
		rest = parts[3:]
	}

	for len(rest) > 0 && column != "*" {
		col := t.Column(column)
		if col == nil {
			return fmt.Errorf("%w: %s.%s does not exist", ErrTargetNotFound, t.Name(), column)
		}
		if col.IsArray() || !col.IsForeignKey() {
			break
		}
		if row == "*" {
			return fmt.Errorf("%w: cannot follow %s.%s without a row", ErrTargetNotFound, t.Name(), column)
		}
		value, target, err := s.followForeignKey(ctx, t, row, column)
		if err != nil {
			return err
		}
		t, row, column, rest = target, value, strings.ToLower(rest[0]), rest[1:]
	}

	address := ""
	if len(rest) > 0 {
		col := t.Column(column)
		if column == "*" || col == nil || !col.IsArray() {
			return fmt.Errorf("%w: %s has no element %s", ErrTargetNotFound, key, strings.Join(rest, "."))
		}
		address = strings.Join(rest, ".")
	}

	if err := s.SetTable(t.Name()); err != nil {
		return err
	}
	if err := s.SetRow(row); err != nil {
		return err
	}
	if row == "?" {
		if err := s.SetOrderBy([]string{t.PrimaryKey()}, []bool{true}); err != nil {
			return err
		}
		if err := s.SetLimit(1); err != nil {
			return err
		}
	}
	if err := s.SetColumn(column); err != nil {
		return err
	}
	return s.SetArrayAddress(address)
}

// followForeignKey reads t.column of the given row together with the key of
// the row it references. A missing referenced row means the stored data
// breaks the foreign key.
func (s *State) followForeignKey(ctx context.Context, t Table, row, column string) (string, Table, error) {
	target, err := s.lookupTable(t.TableByForeignKey(column))
	if err != nil {
		return "", nil, err
	}
	targetColumn := target.PrimaryKey()
	for _, fk := range t.ForeignKeys() {
		if fk.Column == column && fk.TargetTable == target.Name() && fk.TargetColumn != "" {
			targetColumn = fk.TargetColumn
		}
	}

	sel := NewSelect(s.conn, WithConfig(s.cfg), WithInheritance(false))
	if err := sel.SetTable(t.Name()); err != nil {
		return "", nil, err
	}
	if row == "?" {
		if err := sel.SetOrderBy([]string{t.PrimaryKey()}, []bool{true}); err != nil {
			return "", nil, err
		}
		if err := sel.SetLimit(1); err != nil {
			return "", nil, err
		}
	} else if err := sel.SetRow(row); err != nil {
		return "", nil, err
	}
	if err := sel.SetLeftJoin(target.Name(), targetColumn, t.Name(), column); err != nil {
		return "", nil, err
	}
	if err := sel.AddColumn(t.Name()+"."+column, "value"); err != nil {
		return "", nil, err
	}
	if err := sel.AddColumn(target.Name()+"."+targetColumn, "target"); err != nil {
		return "", nil, err
	}

	res, err := sel.SendQuery(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("resolving %s.%s.%s: %w", t.Name(), row, column, err)
	}
	if res.CountRows() == 0 {
		return "", nil, fmt.Errorf("%w: row %s.%s", ErrTargetNotFound, t.Name(), row)
	}
	r := res.FetchRow(0)
	value, ok := scalarString(r["value"])
	if !ok || r["value"] == nil {
		return "", nil, fmt.Errorf("%w: %s.%s.%s is empty", ErrTargetNotFound, t.Name(), row, column)
	}
	if r["target"] == nil {
		return "", nil, fmt.Errorf("%w: %s.%s.%s references missing row %s.%s",
			ErrInconsistency, t.Name(), row, column, target.Name(), value)
	}
	return value, target, nil
}
