package query

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Update changes a single row or cell. The owning profile of a row cannot
// be changed, and neither can its primary key.
type Update struct {
	State
	element *arrayElement
}

// arrayElement is a pending write into one element of an array cell.
type arrayElement struct {
	column  ColumnRef
	address string
	value   any
}

// NewUpdate creates an update statement bound to conn.
func NewUpdate(conn Connection, opts ...Option) *Update {
	return &Update{State: newState(conn, TypeUpdate, opts)}
}

func (u *Update) requireRow() error {
	if u.table == "" {
		return ErrTableNotSet
	}
	if u.row == "*" || u.row == "?" || u.rowValue == "" {
		return fmt.Errorf("%w: update of %s must select a single row", ErrInvalidArgument, u.table)
	}
	return nil
}

// SetValues validates and stores the new values of the selected row.
func (u *Update) SetValues(values map[string]any) error {
	if err := u.requireRow(); err != nil {
		return err
	}
	for key := range values {
		name := strings.ToLower(strings.TrimSpace(key))
		if name == "profile_id" || strings.HasSuffix(name, ".profile_id") {
			return fmt.Errorf("%w: profile_id of %s cannot be changed", ErrInsufficientRights, u.table)
		}
	}
	t, err := u.baseTable()
	if err != nil {
		return err
	}
	if err := u.assignValues(values); err != nil {
		return err
	}
	u.element = nil
	if pk := t.PrimaryKey(); pk != "" {
		if v, ok := u.values[pk]; ok {
			str, _ := scalarString(v)
			if !strings.EqualFold(str, u.rowValue) {
				u.values, u.parentValues = nil, nil
				return fmt.Errorf("%w: cannot change key of %s.%s to %q", ErrInvalidPrimaryKey, u.table, u.rowValue, str)
			}
			delete(u.values, pk)
		}
	}
	return nil
}

// SetValue stores the new value of the selected cell. With an array
// address only that element is replaced; the rest of the stored array is
// read back when the statement is sent.
func (u *Update) SetValue(v any) error {
	if err := u.requireRow(); err != nil {
		return err
	}
	if u.expected != ResultCell || len(u.columns) != 1 {
		return fmt.Errorf("%w: SetValue needs a single selected cell, have %s", ErrInvalidArgument, u.expected)
	}
	ref := u.columns[0].Ref()
	if u.arrayAddress == "" {
		return u.SetValues(map[string]any{ref.String(): v})
	}
	u.resetID()
	u.values, u.parentValues = nil, nil
	u.element = &arrayElement{column: ref, address: u.arrayAddress, value: v}
	return nil
}

// SendQuery checks that the current profile may write the row, then updates
// the row and its parent rows. Files replaced by the update are removed
// afterwards; failures to remove them are only logged.
func (u *Update) SendQuery(ctx context.Context) (Result, error) {
	if err := u.requireRow(); err != nil {
		return nil, err
	}
	t, err := u.baseTable()
	if err != nil {
		return nil, err
	}
	if err := u.checkWrite(ctx, t, "update"); err != nil {
		return nil, err
	}

	stmt := u.clone()
	stmt.values = maps.Clone(u.values)
	if stmt.values == nil {
		stmt.values = map[string]any{}
	}
	stmt.parentValues = map[string]map[string]any{}
	for k, v := range u.parentValues {
		stmt.parentValues[k] = maps.Clone(v)
	}
	if u.element != nil {
		if err := u.mergeElement(ctx, &stmt); err != nil {
			return nil, err
		}
	}
	if len(stmt.values) == 0 && len(stmt.parentValues) == 0 {
		return nil, fmt.Errorf("%w: update of %s has no values", ErrInvalidArgument, u.table)
	}

	if !u.where.IsEmpty() && len(stmt.parentValues) > 0 {
		res, err := u.matching(ctx)
		if err != nil {
			return nil, err
		}
		if res.CountRows() == 0 {
			return res, nil
		}
	}

	replaced := u.replacedFiles(ctx, stmt.values, stmt.parentValues)

	var res Result
	if len(stmt.values) > 0 {
		if res, err = u.conn.SendQuery(ctx, &stmt); err != nil {
			return nil, err
		}
	}
	for _, parent := range sortedKeys(stmt.parentValues) {
		p := NewUpdate(u.conn, WithConfig(u.cfg), WithInheritance(false))
		if err := p.SetTable(parent); err != nil {
			return nil, err
		}
		if err := p.SetRow(u.rowValue); err != nil {
			return nil, err
		}
		p.values = stmt.parentValues[parent]
		pres, err := u.conn.SendQuery(ctx, &p.State)
		if err != nil {
			return nil, fmt.Errorf("updating parent row in %s: %w", parent, err)
		}
		if res == nil {
			res = pres
		}
	}

	u.removeFiles(ctx, replaced)
	return res, nil
}

// matching reads the row through the where clause. Parent rows carry no
// copy of it, so they are written only when the row matches.
func (u *Update) matching(ctx context.Context) (Result, error) {
	sel := Select{State: u.clone()}
	sel.typ = TypeSelect
	sel.columns = nil
	return sel.State.SendQuery(ctx)
}

// checkWrite asks the Security rules whether the current profile may write
// rows of the statement's profile.
func (s *State) checkWrite(ctx context.Context, t Table, verb string) error {
	if !t.HasProfile() {
		return nil
	}
	ok, err := s.cfg.checkRules(ctx, s.profile)
	if err != nil {
		return fmt.Errorf("%w: checking profile %q: %w", ErrInsufficientRights, s.profile, err)
	}
	if !ok {
		return fmt.Errorf("%w: profile %q may not %s %s", ErrInsufficientRights, s.profile, verb, s.table)
	}
	return nil
}

// mergeElement reads the stored array, replaces the addressed element and
// queues the whole array as the new value.
func (u *Update) mergeElement(ctx context.Context, stmt *State) error {
	ref := u.element.column
	col, ok := u.SchemaColumn(ref.String())
	if !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, ref)
	}
	sel := NewSelect(u.conn, WithConfig(u.cfg))
	if err := sel.SetTable(u.table); err != nil {
		return err
	}
	if err := sel.SetRow(u.rowValue); err != nil {
		return err
	}
	if err := sel.SetColumn(ref.String()); err != nil {
		return err
	}
	res, err := sel.SendQuery(ctx)
	if err != nil {
		return fmt.Errorf("reading %s: %w", ref, err)
	}
	if res.CountRows() == 0 {
		return fmt.Errorf("%w: row %s.%s", ErrTargetNotFound, u.table, u.rowValue)
	}
	stored, err := col.InterpretValue(res.FetchRow(0)[ref.Column], "", u.dialect())
	if err != nil {
		return fmt.Errorf("reading %s: %w", ref, err)
	}
	merged, err := setElement(stored, strings.Split(u.element.address, "."), u.element.value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", ref, u.element.address, err)
	}
	sanitized, err := col.SanitizeValue(merged, u.dialect())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidArgument, ref, err)
	}
	if ref.Table == u.table {
		stmt.values[ref.Column] = sanitized
		return nil
	}
	if stmt.parentValues[ref.Table] == nil {
		stmt.parentValues[ref.Table] = map[string]any{}
	}
	stmt.parentValues[ref.Table][ref.Column] = sanitized
	return nil
}

// setElement stores v at path inside container, creating objects for
// missing keys. List indexes may address an existing element or append one.
func setElement(container any, path []string, v any) (any, error) {
	if len(path) == 0 {
		return v, nil
	}
	key := path[0]
	switch c := container.(type) {
	case nil:
		child, err := setElement(nil, path[1:], v)
		if err != nil {
			return nil, err
		}
		return map[string]any{key: child}, nil
	case map[string]any:
		child, err := setElement(c[key], path[1:], v)
		if err != nil {
			return nil, err
		}
		c[key] = child
		return c, nil
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i > len(c) {
			return nil, fmt.Errorf("%w: no element %q", ErrTargetNotFound, key)
		}
		if i == len(c) {
			child, err := setElement(nil, path[1:], v)
			if err != nil {
				return nil, err
			}
			return append(c, child), nil
		}
		child, err := setElement(c[i], path[1:], v)
		if err != nil {
			return nil, err
		}
		c[i] = child
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q is not inside an array", ErrTargetNotFound, key)
	}
}

// fileRef identifies a stored file by the column that references it.
type fileRef struct {
	table, column, value string
}

// replacedFiles returns the stored files the pending values overwrite.
func (u *Update) replacedFiles(ctx context.Context, values map[string]any, parents map[string]map[string]any) []fileRef {
	if u.cfg.Files == nil {
		return nil
	}
	var out []fileRef
	lookup := func(table string, vals map[string]any) {
		t, ok := u.SchemaTable(table)
		if !ok {
			return
		}
		var cols []string
		for _, c := range t.FileColumns() {
			if _, ok := vals[c.Name()]; ok {
				cols = append(cols, c.Name())
			}
		}
		if len(cols) == 0 {
			return
		}
		sel := NewSelect(u.conn, WithConfig(u.cfg), WithInheritance(false))
		if err := sel.SetTable(table); err != nil {
			return
		}
		if err := sel.SetRow(u.rowValue); err != nil {
			return
		}
		if err := sel.SetColumns(cols...); err != nil {
			return
		}
		res, err := sel.SendQuery(ctx)
		if err != nil {
			u.log().Warn("cannot read replaced files", zap.String("table", table), zap.Error(err))
			return
		}
		if res.CountRows() == 0 {
			return
		}
		row := res.FetchRow(0)
		for _, c := range cols {
			old, ok := scalarString(row[c])
			if !ok || old == "" {
				continue
			}
			if now, _ := scalarString(vals[c]); now == old {
				continue
			}
			out = append(out, fileRef{table: table, column: c, value: old})
		}
	}
	lookup(u.table, values)
	for _, parent := range sortedKeys(parents) {
		lookup(parent, parents[parent])
	}
	return out
}

func (s *State) removeFiles(ctx context.Context, files []fileRef) {
	if s.cfg.Files == nil {
		return
	}
	for _, f := range files {
		if err := s.cfg.Files.Remove(ctx, f.table, f.column, f.value); err != nil {
			s.log().Warn("cannot remove file",
				zap.String("table", f.table), zap.String("column", f.column),
				zap.String("file", f.value), zap.Error(err))
		}
	}
}

// Clone returns an independent copy of the statement without its values.
func (u *Update) Clone() *Update {
	return &Update{State: u.clone()}
}
