package query

import (
	"fmt"
	"maps"
	"strings"

	"go.uber.org/zap"
)

// assignValues validates values against the base table and its parents and
// replaces the pending payload. Values for inherited columns are queued per
// parent table. Keys may be dotted to name the owning table explicitly.
func (s *State) assignValues(values map[string]any) error {
	if _, err := s.baseTable(); err != nil {
		return err
	}
	own := make(map[string]any, len(values))
	parents := map[string]map[string]any{}

	for _, key := range sortedKeys(values) {
		ref, err := s.resolveColumn(key)
		if err != nil {
			return err
		}
		if ref.Table != s.table {
			if _, ok := s.parentByName(ref.Table); !ok {
				return fmt.Errorf("%w: %s is not part of %s", ErrInvalidArgument, ref, s.table)
			}
		}
		t, err := s.lookupTable(ref.Table)
		if err != nil {
			return err
		}

		v := values[key]
		if col := t.Column(ref.Column); col != nil && t.IsColumn(ref.Column) {
			v, err = col.SanitizeValue(v, s.dialect())
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidArgument, ref, err)
			}
		} else if s.cfg.Strict {
			return fmt.Errorf("%w: %s", ErrColumnNotFound, ref)
		} else {
			s.log().Debug("passing through unknown column", zap.Stringer("column", ref))
		}

		target := own
		if ref.Table != s.table {
			if parents[ref.Table] == nil {
				parents[ref.Table] = map[string]any{}
			}
			target = parents[ref.Table]
		}
		if _, dup := target[ref.Column]; dup {
			return fmt.Errorf("%w: %s assigned twice", ErrDuplicateValue, ref)
		}
		target[ref.Column] = v
	}

	s.resetID()
	s.values = own
	s.parentValues = nil
	if len(parents) > 0 {
		s.parentValues = parents
	}
	return nil
}

// ParentValues returns a copy of the values queued for the given parent table.
func (s *State) ParentValues(table string) map[string]any {
	return maps.Clone(s.parentValues[strings.ToLower(table)])
}
