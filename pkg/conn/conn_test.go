package conn_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanadb/yanaq/internal/sqldsl"
	"github.com/yanadb/yanaq/internal/testutil"
	"github.com/yanadb/yanaq/pkg/conn"
	"github.com/yanadb/yanaq/pkg/ddl"
	"github.com/yanadb/yanaq/pkg/query"
)

const zooSchema = `
name: zoo
tables:
  animal:
    primary_key: animal_id
    columns:
      animal_id: {type: integer}
      name: {type: string, nullable: true}
      legs: {type: integer, nullable: true}
  dog:
    primary_key: dog_id
    columns:
      dog_id: {type: integer}
      breed: {type: string, nullable: true}
    foreign_keys:
      - {target: animal, columns: {dog_id: animal_id}}
  note:
    primary_key: note_id
    profile: true
    columns:
      note_id: {type: uuid}
      body: {type: text, nullable: true}
      tags: {type: array, nullable: true}
`

var zooTables = []string{
	`CREATE TABLE animal (animal_id INTEGER PRIMARY KEY, name TEXT, legs INTEGER)`,
	`CREATE TABLE dog (dog_id INTEGER PRIMARY KEY, breed TEXT)`,
	`CREATE TABLE note (note_id TEXT PRIMARY KEY, profile_id TEXT, body TEXT, tags TEXT)`,
}

func newZoo(t *testing.T, opts ...conn.Option) *conn.Conn {
	t.Helper()
	schema, err := ddl.Parse([]byte(zooSchema))
	require.NoError(t, err)
	return conn.New(testutil.SQLite(t, zooTables...), schema, sqldsl.DialectSQLite, opts...)
}

func insertDog(t *testing.T, c *conn.Conn) {
	t.Helper()
	ins := query.NewInsert(c)
	require.NoError(t, ins.SetTable("dog"))
	require.NoError(t, ins.SetValues(map[string]any{"dog_id": 1, "breed": "pug", "name": "rex", "legs": 4}))
	_, err := ins.SendQuery(context.Background())
	require.NoError(t, err)
}

func TestInsertAndSelectThroughInheritance(t *testing.T) {
	ctx := context.Background()
	c := newZoo(t)
	insertDog(t, c)

	sel := query.NewSelect(c)
	require.NoError(t, sel.SetTable("dog"))
	require.NoError(t, sel.SetRow("1"))
	res, err := sel.GetResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"dog_id": int64(1), "breed": "pug",
		"animal_id": int64(1), "name": "rex", "legs": int64(4),
	}, res.Row)

	cell := query.NewSelect(c)
	require.NoError(t, cell.SetKey(ctx, "animal.1.name"))
	res, err = cell.GetResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rex", res.Cell)
}

func TestCountAndExists(t *testing.T) {
	ctx := context.Background()
	c := newZoo(t)

	cnt := query.NewSelectCount(c)
	require.NoError(t, cnt.SetTable("animal"))
	assert.Equal(t, 0, cnt.CountResults(ctx))

	insertDog(t, c)
	assert.Equal(t, 1, cnt.CountResults(ctx))

	ex := query.NewSelectExist(c)
	require.NoError(t, ex.SetTable("dog"))
	require.NoError(t, ex.SetRow("1"))
	assert.True(t, ex.DoesExist(ctx))
	require.NoError(t, ex.SetRow("2"))
	assert.False(t, ex.DoesExist(ctx))
}

func TestUpdateWritesParentRows(t *testing.T) {
	ctx := context.Background()
	c := newZoo(t)
	insertDog(t, c)

	upd := query.NewUpdate(c)
	require.NoError(t, upd.SetTable("dog"))
	require.NoError(t, upd.SetRow("1"))
	require.NoError(t, upd.SetValues(map[string]any{"breed": "beagle", "legs": 3}))
	_, err := upd.SendQuery(ctx)
	require.NoError(t, err)

	sel := query.NewSelect(c)
	require.NoError(t, sel.SetTable("dog"))
	require.NoError(t, sel.SetRow("1"))
	res, err := sel.GetResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, "beagle", res.Row["breed"])
	assert.Equal(t, int64(3), res.Row["legs"])
}

func TestDeleteSingleRow(t *testing.T) {
	ctx := context.Background()
	c := newZoo(t)
	insertDog(t, c)

	del := query.NewDelete(c)
	require.NoError(t, del.SetTable("dog"))
	require.NoError(t, del.SetRow("1"))
	res, err := del.SendQuery(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.(*conn.Result).RowsAffected())

	cnt := query.NewSelectCount(c)
	require.NoError(t, cnt.SetTable("dog"))
	assert.Equal(t, 0, cnt.CountResults(ctx))
}

func TestWritesFilteredByInheritedColumn(t *testing.T) {
	ctx := context.Background()
	c := newZoo(t)
	insertDog(t, c)

	upd := query.NewUpdate(c)
	require.NoError(t, upd.SetTable("dog"))
	require.NoError(t, upd.SetRow("1"))
	require.NoError(t, upd.SetWhere([]any{"legs", "=", 4}))
	require.NoError(t, upd.SetValues(map[string]any{"breed": "beagle"}))
	res, err := upd.SendQuery(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.(*conn.Result).RowsAffected())

	miss := query.NewDelete(c)
	require.NoError(t, miss.SetTable("dog"))
	require.NoError(t, miss.SetWhere([]any{"name", "=", "max"}))
	res, err = miss.SendQuery(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.(*conn.Result).RowsAffected())

	del := query.NewDelete(c)
	require.NoError(t, del.SetTable("dog"))
	require.NoError(t, del.SetWhere([]any{"name", "=", "rex"}))
	res, err = del.SendQuery(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.(*conn.Result).RowsAffected())
}

func TestProfileRowsAndArrays(t *testing.T) {
	ctx := context.Background()
	c := newZoo(t)

	ins := query.NewInsert(c)
	require.NoError(t, ins.SetTable("note"))
	require.NoError(t, ins.SetValues(map[string]any{"body": "hello", "tags": []any{"a", "b"}}))
	_, err := ins.SendQuery(ctx)
	require.NoError(t, err)
	id, ok := ins.Values()["note_id"].(string)
	require.True(t, ok, "uuid key is generated")

	sel := query.NewSelect(c)
	require.NoError(t, sel.SetKey(ctx, "note."+id+".tags.1"))
	res, err := sel.GetResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Cell)

	all, err := c.SendQueryString(ctx, `SELECT profile_id FROM note`)
	require.NoError(t, err)
	assert.Equal(t, "default", all.FetchOne())
}

func TestDriverErrorsMapToSentinels(t *testing.T) {
	ctx := context.Background()
	c := newZoo(t)
	insertDog(t, c)

	ins := query.NewInsert(c)
	require.NoError(t, ins.SetTable("animal"))
	require.NoError(t, ins.SetValues(map[string]any{"animal_id": 1}))
	_, err := ins.SendQuery(ctx)
	assert.ErrorIs(t, err, query.ErrDuplicateValue)

	_, err = c.SendQueryString(ctx, `SELECT * FROM missing`)
	assert.ErrorIs(t, err, query.ErrTableNotFound)

	_, err = c.SendQueryString(ctx, `SELECT nope FROM animal`)
	assert.ErrorIs(t, err, query.ErrColumnNotFound)
}

func TestStatementCache(t *testing.T) {
	ctx := context.Background()
	cache := conn.NewStatementCache()
	c := newZoo(t, conn.WithStatementCache(cache))
	insertDog(t, c)

	sel := query.NewSelect(c)
	require.NoError(t, sel.SetTable("animal"))
	require.NoError(t, sel.SetRow("1"))
	for range 2 {
		res, err := sel.GetResults(ctx)
		require.NoError(t, err)
		assert.Equal(t, "rex", res.Row["name"])
	}
	// Two inserts (dog, animal) and one select.
	assert.Equal(t, 3, cache.Size())
}

func TestOpen(t *testing.T) {
	schema, err := ddl.Parse([]byte(zooSchema))
	require.NoError(t, err)

	c, err := conn.Open(context.Background(), "sqlite3", ":memory:", schema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, sqldsl.DialectSQLite, c.Dialect())
	assert.Equal(t, sqldsl.ANSIQuoter{}, c.Quoter())

	_, err = conn.Open(context.Background(), "mysql", "", schema)
	assert.Error(t, err)
}

func TestDialectForDriver(t *testing.T) {
	tests := []struct {
		driver string
		want   sqldsl.Dialect
	}{
		{"postgres", sqldsl.DialectPostgres},
		{"pgx", sqldsl.DialectPostgres},
		{"sqlite3", sqldsl.DialectSQLite},
	}
	for _, tt := range tests {
		got, err := conn.DialectForDriver(tt.driver)
		require.NoError(t, err, tt.driver)
		assert.Equal(t, tt.want, got, tt.driver)
	}
}
