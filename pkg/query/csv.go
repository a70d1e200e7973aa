package query

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// CSVOptions configures ToCSV.
type CSVOptions struct {
	// Separator defaults to ','.
	Separator rune
	// Header writes the column names as the first record.
	Header bool
}

// ToCSV executes the statement and writes every row to w. Columns follow
// the selection, or the schema order of the base table and its parents.
func (s *Select) ToCSV(ctx context.Context, w io.Writer, opts CSVOptions) error {
	res, err := s.SendQuery(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if opts.Separator != 0 {
		cw.Comma = opts.Separator
	}

	keys, err := s.csvColumns()
	if err != nil {
		return err
	}
	if opts.Header {
		if err := cw.Write(keys); err != nil {
			return err
		}
	}
	for i := 0; i < res.CountRows(); i++ {
		row, err := s.decodeRow(res.FetchRow(i))
		if err != nil {
			return err
		}
		record := make([]string, len(keys))
		for j, k := range keys {
			record[j] = csvField(row[k])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *State) csvColumns() ([]string, error) {
	if len(s.columns) > 0 {
		keys := make([]string, len(s.columns))
		for i, c := range s.columns {
			keys[i] = c.Key()
		}
		return keys, nil
	}
	t, err := s.baseTable()
	if err != nil {
		return nil, err
	}
	keys := t.ColumnNames()
	for _, parent := range s.parentChain {
		pt := s.conn.Schema().Table(parent)
		if pt == nil {
			continue
		}
		for _, c := range pt.ColumnNames() {
			if s.ParentByColumn(c) == parent {
				keys = append(keys, c)
			}
		}
	}
	return keys, nil
}

func csvField(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case decimal.Decimal:
		return x.String()
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	default:
		return fmt.Sprint(x)
	}
}
