package ddl

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// color represents the state of a table during inheritance cycle detection.
type color int

const (
	white color = iota // unvisited
	gray               // in current path (cycle if revisited)
	black              // fully processed
)

// Validate checks that primary keys, column types and foreign keys refer to
// things the schema defines and that no table inherits from itself. All
// problems are reported together.
func (d *Database) Validate() error {
	var errs []error
	if len(d.Tables) == 0 {
		errs = append(errs, fmt.Errorf("%w: no tables defined", ErrInvalidSchema))
	}
	for _, name := range d.TableNames() {
		errs = append(errs, d.validateTable(d.Tables[name])...)
	}
	if err := d.detectInheritanceCycles(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d *Database) validateTable(t *TableDef) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: table %q: "+format, append([]any{ErrInvalidSchema, t.name}, args...)...))
	}

	if t.PrimaryKeyName == "" {
		fail("no primary key")
	} else if _, ok := t.Columns[t.PrimaryKeyName]; !ok {
		fail("primary key %q is not a column", t.PrimaryKeyName)
	}
	if len(t.Columns) == 0 {
		fail("no columns")
	}

	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c := t.Columns[name]
		if !knownType(c.TypeName) {
			fail("column %q has unknown type %q", name, c.TypeName)
		}
		if c.TypeName == TypeEnum && len(c.Enum) == 0 {
			fail("enum column %q lists no values", name)
		}
		if c.Length < 0 {
			fail("column %q has negative length", name)
		}
	}

	for _, fk := range t.fks {
		if _, ok := t.Columns[fk.Column]; !ok {
			fail("foreign key column %q is not a column", fk.Column)
		}
		target := d.table(fk.TargetTable)
		if target == nil {
			fail("foreign key %q references unknown table %q", fk.Column, fk.TargetTable)
			continue
		}
		if _, ok := target.Columns[fk.TargetColumn]; !ok {
			fail("foreign key %q references unknown column %s.%s", fk.Column, fk.TargetTable, fk.TargetColumn)
		}
	}
	return errs
}

// Parent returns the table the named table inherits from, or "".
func (d *Database) Parent(table string) string {
	if t := d.table(table); t != nil {
		return d.inheritanceParent(t)
	}
	return ""
}

// inheritanceParent returns the table t inherits from: the target of a
// foreign key on the primary key that references the target's primary key.
func (d *Database) inheritanceParent(t *TableDef) string {
	for _, fk := range t.fks {
		if fk.Column != t.PrimaryKeyName {
			continue
		}
		if target := d.table(fk.TargetTable); target != nil && target.PrimaryKeyName == fk.TargetColumn {
			return target.name
		}
	}
	return ""
}

func (d *Database) detectInheritanceCycles() error {
	colors := make(map[string]color, len(d.Tables))
	for _, start := range d.TableNames() {
		if colors[start] != white {
			continue
		}
		var path []string
		name := start
		for name != "" {
			switch colors[name] {
			case gray:
				i := slices.Index(path, name)
				cycle := append(slices.Clone(path[i:]), name)
				return fmt.Errorf("%w: inheritance cycle: %s", ErrInvalidSchema, strings.Join(cycle, " -> "))
			case black:
				name = ""
				continue
			}
			colors[name] = gray
			path = append(path, name)
			name = d.inheritanceParent(d.Tables[name])
		}
		for _, n := range path {
			colors[n] = black
		}
	}
	return nil
}
