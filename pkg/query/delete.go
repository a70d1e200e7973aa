package query

import (
	"context"

	"go.uber.org/zap"
)

// Delete removes rows. A new statement is limited to a single row.
type Delete struct {
	State
}

// NewDelete creates a delete statement bound to conn with a limit of one.
func NewDelete(conn Connection, opts ...Option) *Delete {
	return &Delete{State: newState(conn, TypeDelete, opts)}
}

// SendQuery checks that the current profile may write the rows, reads the
// rows about to be deleted, deletes them, logs their old values and removes
// the files they referenced. Failures while reading old values or removing
// files are logged and do not fail the delete.
func (d *Delete) SendQuery(ctx context.Context) (Result, error) {
	t, err := d.baseTable()
	if err != nil {
		return nil, err
	}
	if err := d.checkWrite(ctx, t, "delete from"); err != nil {
		return nil, err
	}
	old := d.oldValues(ctx)
	res, err := d.State.SendQuery(ctx)
	if err != nil {
		return nil, err
	}
	d.log().Info("deleted rows",
		zap.String("table", d.table), zap.String("row", d.row), zap.Any("old", old))

	var files []fileRef
	for _, row := range old {
		for _, c := range t.FileColumns() {
			if v, ok := scalarString(row[c.Name()]); ok && v != "" {
				files = append(files, fileRef{table: d.table, column: c.Name(), value: v})
			}
		}
	}
	d.removeFiles(ctx, files)
	return res, nil
}

func (d *Delete) oldValues(ctx context.Context) []map[string]any {
	sel := Select{State: d.clone()}
	sel.typ = TypeSelect
	sel.columns = nil
	res, err := sel.State.SendQuery(ctx)
	if err != nil {
		d.log().Warn("cannot read rows before delete", zap.String("table", d.table), zap.Error(err))
		return nil
	}
	rows := make([]map[string]any, 0, res.CountRows())
	for i := 0; i < res.CountRows(); i++ {
		rows = append(rows, res.FetchRow(i))
	}
	return rows
}

// Clone returns an independent copy of the statement.
func (d *Delete) Clone() *Delete {
	return &Delete{State: d.clone()}
}
