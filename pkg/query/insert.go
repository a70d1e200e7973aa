package query

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Insert writes a single row. Values of inherited columns are inserted into
// their parent tables after the row itself, with the same primary key.
type Insert struct {
	State
}

// NewInsert creates an insert statement bound to conn.
func NewInsert(conn Connection, opts ...Option) *Insert {
	return &Insert{State: newState(conn, TypeInsert, opts)}
}

// SetValues validates and stores the row to insert. The primary key comes
// from the values, else from SetRow, else from the column's auto-fill; uuid
// keys are generated. Giving two different keys fails with
// ErrInvalidPrimaryKey. Profile tables get the current profile unless one
// is given.
func (i *Insert) SetValues(values map[string]any) error {
	t, err := i.baseTable()
	if err != nil {
		return err
	}
	if err := i.assignValues(values); err != nil {
		return err
	}
	if err := i.resolvePrimaryKey(t); err != nil {
		i.values, i.parentValues = nil, nil
		return err
	}
	if t.HasProfile() {
		if _, ok := i.values["profile_id"]; !ok {
			i.values["profile_id"] = i.cfg.currentProfile()
		}
	}
	return nil
}

func (i *Insert) resolvePrimaryKey(t Table) error {
	pk := t.PrimaryKey()
	if pk == "" {
		return nil
	}
	col := t.Column(pk)
	given, has := i.values[pk]

	if has && i.rowValue != "" {
		str, _ := scalarString(given)
		if !strings.EqualFold(str, i.rowValue) {
			return fmt.Errorf("%w: row %q and value %q both name the key of %s",
				ErrInvalidPrimaryKey, i.rowValue, str, t.Name())
		}
		return nil
	}
	if has {
		return nil
	}
	if i.rowValue != "" {
		var v any = i.rowValue
		if col != nil {
			sanitized, err := col.SanitizeValue(i.rowValue, i.dialect())
			if err != nil {
				return fmt.Errorf("%w: %s.%s: %w", ErrInvalidPrimaryKey, t.Name(), pk, err)
			}
			v = sanitized
		}
		i.values[pk] = v
		return nil
	}
	if col != nil && col.Type() == "uuid" {
		i.values[pk] = uuid.NewString()
		return nil
	}
	if col != nil && col.IsAutoFill() && len(i.parentChain) == 0 {
		return nil
	}
	return fmt.Errorf("%w: no value for %s.%s", ErrInvalidPrimaryKey, t.Name(), pk)
}

// SendQuery inserts the row, then one row per parent table. A profile the
// security service refuses is replaced by the current profile.
func (i *Insert) SendQuery(ctx context.Context) (Result, error) {
	if len(i.values) == 0 {
		return nil, fmt.Errorf("%w: insert into %s has no values", ErrInvalidArgument, i.table)
	}
	i.checkProfile(ctx)
	res, err := i.State.SendQuery(ctx)
	if err != nil {
		return nil, err
	}
	if err := i.flushParents(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

func (i *Insert) checkProfile(ctx context.Context) {
	t, err := i.baseTable()
	if err != nil || !t.HasProfile() {
		return
	}
	current := i.cfg.currentProfile()
	given, _ := scalarString(i.values["profile_id"])
	if given == current {
		return
	}
	ok, err := i.cfg.checkRules(ctx, given)
	if ok && err == nil {
		return
	}
	i.log().Warn("profile denied, inserting with current profile",
		zap.String("table", i.table), zap.String("profile", given),
		zap.String("current", current), zap.Error(err))
	i.resetID()
	i.values["profile_id"] = current
}

func (i *Insert) flushParents(ctx context.Context) error {
	if len(i.parentChain) == 0 {
		return nil
	}
	child, err := i.baseTable()
	if err != nil {
		return err
	}
	key := i.values[child.PrimaryKey()]
	for {
		parent, _, ok := i.parentOf(child)
		if !ok || !containsString(i.parentChain, parent.Name()) {
			return nil
		}
		p := NewInsert(i.conn, WithConfig(i.cfg), WithInheritance(false))
		if err := p.SetTable(parent.Name()); err != nil {
			return err
		}
		values := maps.Clone(i.parentValues[parent.Name()])
		if values == nil {
			values = map[string]any{}
		}
		values[parent.PrimaryKey()] = key
		if parent.HasProfile() {
			if _, ok := values["profile_id"]; !ok {
				values["profile_id"] = i.cfg.currentProfile()
			}
		}
		p.values = values
		if _, err := p.State.SendQuery(ctx); err != nil {
			return fmt.Errorf("inserting parent row into %s: %w", parent.Name(), err)
		}
		i.log().Debug("inserted parent row", zap.String("table", parent.Name()), zap.Any("key", key))
		child = parent
	}
}

// Clone returns an independent copy of the statement without its values.
func (i *Insert) Clone() *Insert {
	return &Insert{State: i.clone()}
}
