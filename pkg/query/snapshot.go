package query

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Snapshot is the caller-visible state of a statement. Its JSON encoding is
// the statement identity returned by ID. It does not reference the
// connection; a caller persisting a snapshot rebuilds the statement on a
// connection of its own.
type Snapshot struct {
	Type         string                    `json:"type"`
	Table        string                    `json:"table"`
	Columns      []SelectedColumn          `json:"columns"`
	Row          string                    `json:"row"`
	Where        []any                     `json:"where"`
	OrderBy      []ColumnRef               `json:"order_by"`
	Having       []any                     `json:"having"`
	Desc         []bool                    `json:"desc"`
	Joins        []JoinCondition           `json:"joins"`
	Offset       int                       `json:"offset"`
	Limit        int                       `json:"limit"`
	Values       map[string]any            `json:"values,omitempty"`
	Parents      map[string]map[string]any `json:"parents,omitempty"`
	ArrayAddress string                    `json:"array_address,omitempty"`
	Inheritance  bool                      `json:"inheritance"`
	Profile      string                    `json:"profile,omitempty"`
	TablePrefix  string                    `json:"table_prefix,omitempty"`
	SubQuery     bool                      `json:"sub_query,omitempty"`
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	var parents map[string]map[string]any
	if len(s.parentValues) > 0 {
		parents = make(map[string]map[string]any, len(s.parentValues))
		for k, v := range s.parentValues {
			parents[k] = maps.Clone(v)
		}
	}
	return Snapshot{
		Type:         s.typ.String(),
		Table:        s.table,
		Columns:      s.Columns(),
		Row:          s.row,
		Where:        s.where.Tree(),
		OrderBy:      s.OrderBy(),
		Having:       s.having.Tree(),
		Desc:         s.Descending(),
		Joins:        s.Joins(),
		Offset:       s.offset,
		Limit:        s.limit,
		Values:       maps.Clone(s.values),
		Parents:      parents,
		ArrayAddress: s.arrayAddress,
		Inheritance:  s.useInheritance,
		Profile:      s.profile,
		TablePrefix:  s.cfg.TablePrefix,
		SubQuery:     s.isSubQuery,
	}
}

// ID returns a stable identity of the statement: equal for statements built
// by equivalent mutator calls, different after any change and whenever the
// rendered SQL differs, so it can key a statement cache. It is computed
// once and cached until the next mutator call.
func (s *State) ID() string {
	if s.id == "" {
		snap := s.Snapshot()
		data, err := json.Marshal(snap)
		if err != nil {
			// Values json cannot encode still yield a deterministic identity.
			data = []byte(fmt.Sprintf("%#v", snap))
		}
		s.id = string(data)
	}
	return s.id
}
