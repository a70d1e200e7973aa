package query_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanadb/yanaq/pkg/query"
)

func TestGetResultsTable(t *testing.T) {
	conn := newConn(t)
	conn.handler = onSelect(rows(
		map[string]any{"id": int64(1), "name": "a", "ghost": "x"},
		map[string]any{"id": int64(2), "name": "b", "ghost": "y"},
	))
	sel := query.NewSelect(conn)
	require.NoError(t, sel.SetTable("foo"))

	res, err := sel.GetResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, query.ResultTable, res.Kind)
	assert.Equal(t, 2, res.Len())
	assert.Equal(t, []string{"1", "2"}, res.Keys)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "a"}, res.Rows["1"], "unknown columns are skipped")
}

func TestGetResultsRow(t *testing.T) {
	conn := newConn(t)
	conn.handler = onSelect(rows(map[string]any{"dog_id": "4", "breed": "pug", "legs": "4"}))
	sel := query.NewSelect(conn)
	require.NoError(t, sel.SetTable("dog"))
	require.NoError(t, sel.SetRow("4"))

	res, err := sel.GetResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, query.ResultRow, res.Kind)
	assert.Equal(t, map[string]any{"dog_id": int64(4), "breed": "pug", "legs": int64(4)}, res.Row,
		"inherited columns decode through the parent")
}

func TestGetResultsColumn(t *testing.T) {
	conn := newConn(t)
	conn.handler = onSelect(rows(
		map[string]any{"id": "abc", "bar": int64(1)},
		map[string]any{"id": "def", "bar": nil},
	))
	sel := query.NewSelect(conn)
	require.NoError(t, sel.SetTable("foo"))
	require.NoError(t, sel.SetColumn("bar"))

	res, err := sel.GetResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, query.ResultColumn, res.Kind)
	assert.Equal(t, []string{"ABC", "DEF"}, res.Keys)
	assert.Equal(t, map[string]any{"ABC": int64(1), "DEF": nil}, res.Values)
}

func TestGetResultsCell(t *testing.T) {
	conn := newConn(t)
	conn.handler = onSelect(rows(map[string]any{"tags": `["a",["b","c"]]`}))
	sel := query.NewSelect(conn)
	require.NoError(t, sel.SetKey(context.Background(), "foo.2.tags.1.0"))

	res, err := sel.GetResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, query.ResultCell, res.Kind)
	assert.Equal(t, "b", res.Cell)

	conn.handler = onSelect(rows())
	res, err = sel.GetResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestGetResultsAlias(t *testing.T) {
	conn := newConn(t)
	conn.handler = onSelect(rows(map[string]any{"id": int64(1), "label": "a", "bar": "7"}))
	sel := query.NewSelect(conn)
	require.NoError(t, sel.SetTable("foo"))
	require.NoError(t, sel.SetColumns("id", "bar"))
	require.NoError(t, sel.AddColumn("name", "label"))

	res, err := sel.GetResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "label": "a", "bar": int64(7)}, res.Rows["1"])
}

func TestGetResultsPropagatesErrors(t *testing.T) {
	conn := newConn(t)
	conn.handler = func(string) (*fakeResult, error) { return nil, errBoom }
	sel := query.NewSelect(conn)
	require.NoError(t, sel.SetTable("foo"))

	_, err := sel.GetResults(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

func TestToCSV(t *testing.T) {
	conn := newConn(t)
	conn.handler = onSelect(rows(
		map[string]any{"id": int64(1), "name": "a, b", "tags": `["x"]`},
		map[string]any{"id": int64(2), "name": nil, "tags": nil},
	))
	sel := query.NewSelect(conn)
	require.NoError(t, sel.SetTable("foo"))
	require.NoError(t, sel.SetColumns("id", "name", "tags"))

	var buf bytes.Buffer
	require.NoError(t, sel.ToCSV(context.Background(), &buf, query.CSVOptions{Header: true}))
	assert.Equal(t, "id,name,tags\n1,\"a, b\",\"[\"\"x\"\"]\"\n2,,\n", buf.String())

	buf.Reset()
	require.NoError(t, sel.ToCSV(context.Background(), &buf, query.CSVOptions{Separator: ';'}))
	assert.Equal(t, "1;a, b;\"[\"\"x\"\"]\"\n2;;\n", buf.String())
}

func TestToCSVAllColumnsIncludesParents(t *testing.T) {
	conn := newConn(t)
	conn.handler = onSelect(rows(map[string]any{
		"dog_id": int64(1), "breed": "pug", "animal_id": int64(1), "name": "rex", "legs": int64(4),
	}))
	sel := query.NewSelect(conn)
	require.NoError(t, sel.SetTable("dog"))

	var buf bytes.Buffer
	require.NoError(t, sel.ToCSV(context.Background(), &buf, query.CSVOptions{Header: true}))
	assert.Equal(t, "dog_id,breed,animal_id,legs,name\n1,pug,1,4,rex\n", buf.String())
}
