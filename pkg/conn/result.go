package conn

import (
	"database/sql"
	"strings"
)

// Result is a result set held in memory. Column names are lower-cased.
type Result struct {
	columns  []string
	rows     []map[string]any
	affected int64
}

func readRows(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &Result{columns: make([]string, len(cols))}
	for i, c := range cols {
		res.columns[i] = strings.ToLower(c)
	}

	for rows.Next() {
		raw := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, name := range res.columns {
			v := raw[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[name] = v
		}
		res.rows = append(res.rows, row)
	}
	return res, rows.Err()
}

// CountRows returns the number of rows read.
func (r *Result) CountRows() int { return len(r.rows) }

// FetchRow returns row i, or nil when i is out of range.
func (r *Result) FetchRow(i int) map[string]any {
	if i < 0 || i >= len(r.rows) {
		return nil
	}
	return r.rows[i]
}

// FetchOne returns the first column of the first row, or nil.
func (r *Result) FetchOne() any {
	if len(r.rows) == 0 || len(r.columns) == 0 {
		return nil
	}
	return r.rows[0][r.columns[0]]
}

// Columns returns the result column names in select order.
func (r *Result) Columns() []string { return append([]string(nil), r.columns...) }

// RowsAffected returns the number of rows a writing statement changed.
func (r *Result) RowsAffected() int64 { return r.affected }
