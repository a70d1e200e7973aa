package query

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// SelectExist tests whether matching rows exist. Every selected column must
// also be non-null.
type SelectExist struct {
	State
}

// NewSelectExist creates an existence check bound to conn.
func NewSelectExist(conn Connection, opts ...Option) *SelectExist {
	return &SelectExist{State: newState(conn, TypeExists, opts)}
}

// DoesExist reports whether the check matches a row. Execution errors are
// logged and reported as false.
func (s *SelectExist) DoesExist(ctx context.Context) bool {
	res, err := s.SendQuery(ctx)
	if err != nil {
		s.log().Error("exists query failed", zap.String("table", s.table), zap.Error(err))
		return false
	}
	return res.CountRows() > 0
}

// Clone returns an independent copy of the statement.
func (s *SelectExist) Clone() *SelectExist {
	return &SelectExist{State: s.clone()}
}

// SelectCount counts matching rows, or the non-null values of its single
// selected column.
type SelectCount struct {
	State
}

// NewSelectCount creates a count statement bound to conn.
func NewSelectCount(conn Connection, opts ...Option) *SelectCount {
	return &SelectCount{State: newState(conn, TypeCount, opts)}
}

// CountResults returns the number of matching rows. Execution errors are
// logged and reported as 0.
func (s *SelectCount) CountResults(ctx context.Context) int {
	res, err := s.SendQuery(ctx)
	if err != nil {
		s.log().Error("count query failed", zap.String("table", s.table), zap.Error(err))
		return 0
	}
	n, err := toInt(res.FetchOne())
	if err != nil {
		s.log().Error("count query returned no number", zap.String("table", s.table), zap.Error(err))
		return 0
	}
	return n
}

// Clone returns an independent copy of the statement.
func (s *SelectCount) Clone() *SelectCount {
	return &SelectCount{State: s.clone()}
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case []byte:
		return strconv.Atoi(string(x))
	case string:
		return strconv.Atoi(x)
	default:
		return 0, fmt.Errorf("unexpected count value %T", v)
	}
}
