package query

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Results is a result set reshaped by expected result:
//
//	TABLE   Keys + Rows (row maps keyed by upper-cased primary key)
//	ROW     Row
//	COLUMN  Keys + Values (one value per primary key)
//	CELL    Cell
//
// Values are decoded through the column definitions. Stored columns the
// schema does not know are logged and left out.
type Results struct {
	Kind   ExpectedResult
	Keys   []string
	Rows   map[string]map[string]any
	Values map[string]any
	Row    map[string]any
	Cell   any
}

// Len returns the number of rows represented.
func (r *Results) Len() int {
	switch r.Kind {
	case ResultTable, ResultColumn:
		return len(r.Keys)
	case ResultRow:
		if r.Row == nil {
			return 0
		}
		return 1
	case ResultCell:
		if r.Cell == nil {
			return 0
		}
		return 1
	default:
		return 0
	}
}

func (s *State) shape(res Result) (*Results, error) {
	t, err := s.baseTable()
	if err != nil {
		return nil, err
	}
	pk := t.PrimaryKey()
	out := &Results{Kind: s.expected}
	n := res.CountRows()

	switch s.expected {
	case ResultRow:
		if n == 0 {
			return out, nil
		}
		row, err := s.decodeRow(res.FetchRow(0))
		if err != nil {
			return nil, err
		}
		out.Row = row
	case ResultCell:
		if n == 0 {
			return out, nil
		}
		c := s.columns[0]
		v, err := s.decodeValue(c, res.FetchRow(0)[c.Key()], s.arrayAddress)
		if err != nil {
			return nil, err
		}
		out.Cell = v
	case ResultColumn:
		c := s.columns[0]
		out.Values = make(map[string]any, n)
		for i := 0; i < n; i++ {
			raw := res.FetchRow(i)
			v, err := s.decodeValue(c, raw[c.Key()], s.arrayAddress)
			if err != nil {
				return nil, err
			}
			out.addKey(rowKey(raw, pk, i))
			out.Values[out.Keys[len(out.Keys)-1]] = v
		}
	default:
		out.Kind = ResultTable
		out.Rows = make(map[string]map[string]any, n)
		for i := 0; i < n; i++ {
			raw := res.FetchRow(i)
			row, err := s.decodeRow(raw)
			if err != nil {
				return nil, err
			}
			out.addKey(rowKey(raw, pk, i))
			out.Rows[out.Keys[len(out.Keys)-1]] = row
		}
	}
	return out, nil
}

// addKey appends key, disambiguating repeated keys produced by joins.
func (r *Results) addKey(key string) {
	seen := false
	for _, k := range r.Keys {
		if k == key {
			seen = true
			break
		}
	}
	if seen {
		key = fmt.Sprintf("%s#%d", key, len(r.Keys))
	}
	r.Keys = append(r.Keys, key)
}

func rowKey(raw map[string]any, pk string, i int) string {
	if v, ok := raw[pk]; ok && v != nil {
		if str, ok := scalarString(v); ok {
			return strings.ToUpper(str)
		}
	}
	return strconv.Itoa(i)
}

func (s *State) decodeRow(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for key, v := range raw {
		col := s.columnForKey(key)
		if col == nil {
			s.log().Warn("skipping column missing from schema",
				zap.String("table", s.table), zap.String("column", key))
			continue
		}
		decoded, err := col.InterpretValue(v, "", s.dialect())
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", key, err)
		}
		out[key] = decoded
	}
	return out, nil
}

func (s *State) decodeValue(c SelectedColumn, raw any, address string) (any, error) {
	col, ok := s.SchemaColumn(c.Ref().String())
	if !ok {
		s.log().Warn("skipping column missing from schema",
			zap.String("table", c.Table), zap.String("column", c.Column))
		return nil, nil
	}
	v, err := col.InterpretValue(raw, address, s.dialect())
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", c.Key(), err)
	}
	return v, nil
}

// columnForKey finds the definition of a result column: a selected column
// by alias or name, else a column of the base table, a parent or a joined
// table in that order.
func (s *State) columnForKey(key string) Column {
	key = strings.ToLower(key)
	for _, c := range s.columns {
		if c.Key() == key {
			if col, ok := s.SchemaColumn(c.Ref().String()); ok {
				return col
			}
			return nil
		}
	}
	t, err := s.baseTable()
	if err != nil {
		return nil
	}
	if t.IsColumn(key) {
		return t.Column(key)
	}
	if owner, ok := s.tableByColumn[strings.ToUpper(key)]; ok {
		if pt := s.conn.Schema().Table(owner); pt != nil && pt.IsColumn(key) {
			return pt.Column(key)
		}
	}
	for _, j := range s.joins {
		if jt := s.conn.Schema().Table(j.JoinedTable); jt != nil && jt.IsColumn(key) {
			return jt.Column(key)
		}
	}
	return nil
}
