package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanadb/yanaq/pkg/query"
)

func TestParseOp(t *testing.T) {
	tests := []struct {
		in   string
		want query.Op
	}{
		{"=", query.OpEq},
		{"==", query.OpEq},
		{"<>", query.OpNe},
		{"!=", query.OpNe},
		{"like", query.OpLike},
		{"not_like", query.OpNotLike},
		{"Not  In", query.OpNotIn},
		{"not_exists", query.OpNotExists},
		{"or", query.OpOr},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := query.ParseOp(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := query.ParseOp("~~")
	assert.True(t, query.IsInvalidArgumentErr(err))
}

func TestWhereRendering(t *testing.T) {
	tests := []struct {
		name  string
		where []any
		want  string
	}{
		{
			name:  "comparison",
			where: []any{"bar", ">=", 3},
			want:  `SELECT * FROM "foo" WHERE "foo"."bar" >= '3'`,
		},
		{
			name:  "null",
			where: []any{"name", "=", nil},
			want:  `SELECT * FROM "foo" WHERE "foo"."name" IS NULL`,
		},
		{
			name:  "not null",
			where: []any{"name", "!=", nil},
			want:  `SELECT * FROM "foo" WHERE "foo"."name" IS NOT NULL`,
		},
		{
			name:  "in list",
			where: []any{"name", "in", []string{"a", "b"}},
			want:  `SELECT * FROM "foo" WHERE "foo"."name" IN ('a', 'b')`,
		},
		{
			name:  "column pair",
			where: []any{[]any{"foo", "bar"}, "<", []any{"foo", "fk"}},
			want:  `SELECT * FROM "foo" WHERE "foo"."bar" < "foo"."fk"`,
		},
		{
			name: "nested",
			where: []any{
				[]any{"bar", ">", 1},
				"or",
				[]any{[]any{"name", "like", "a%"}, "and", []any{"name", "not like", "%z"}},
			},
			want: `SELECT * FROM "foo" WHERE ("foo"."bar" > '1' OR ("foo"."name" LIKE 'a%' AND "foo"."name" NOT LIKE '%z'))`,
		},
		{
			name:  "primary key in list stays a predicate",
			where: []any{"id", "in", []any{1, 2}},
			want:  `SELECT * FROM "foo" WHERE "foo"."id" IN ('1', '2')`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := query.NewSelect(newConn(t))
			require.NoError(t, sel.SetTable("foo"))
			require.NoError(t, sel.SetWhere(tt.where))
			assert.Equal(t, tt.want, mustSQL(t, sel))
		})
	}
}

func TestWhereRejects(t *testing.T) {
	tests := []struct {
		name  string
		where []any
		check func(error) bool
	}{
		{"two elements", []any{"bar", "="}, query.IsInvalidArgumentErr},
		{"unknown operator", []any{"bar", "~~", 1}, query.IsInvalidArgumentErr},
		{"null with less than", []any{"bar", "<", nil}, query.IsInvalidArgumentErr},
		{"unknown column", []any{"ghost", "=", 1}, query.IsColumnNotFoundErr},
		{"unknown table", []any{[]any{"nope", "x"}, "=", 1}, query.IsTableNotFoundErr},
		{"in without list", []any{"bar", "in", 1}, query.IsInvalidArgumentErr},
		{"exists without sub-query", []any{nil, "exists", 1}, query.IsInvalidArgumentErr},
		{"and with scalar", []any{"bar", "and", []any{"bar", "=", 1}}, query.IsInvalidArgumentErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := query.NewSelect(newConn(t))
			require.NoError(t, sel.SetTable("foo"))
			err := sel.SetWhere(tt.where)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}
}

func TestPrimaryKeyEqualitySelectsRow(t *testing.T) {
	sel := query.NewSelect(newConn(t))
	require.NoError(t, sel.SetTable("foo"))
	require.NoError(t, sel.SetWhere([]any{"id", "=", "2"}))

	assert.Equal(t, "2", sel.Row())
	assert.Empty(t, sel.Where().Tree())
	assert.Equal(t, query.ResultRow, sel.ExpectedResult())
	assert.Equal(t, `SELECT * FROM "foo" WHERE "foo"."id" = '2'`, mustSQL(t, sel))

	err := sel.AddWhere([]any{"id", "=", "3"})
	require.Error(t, err, "primary key outside a table scan")
	assert.True(t, query.IsInvalidArgumentErr(err))
}

func TestPrimaryKeyEqualityWithNonStringStaysPredicate(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"int", 2, `SELECT * FROM "foo" WHERE "foo"."id" = '2'`},
		{"bool", true, `SELECT * FROM "foo" WHERE "foo"."id" = '1'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := query.NewSelect(newConn(t))
			require.NoError(t, sel.SetTable("foo"))
			require.NoError(t, sel.SetWhere([]any{"id", "=", tt.value}))

			assert.Equal(t, "*", sel.Row())
			assert.Equal(t, query.ResultTable, sel.ExpectedResult())
			assert.NotEmpty(t, sel.Where().Tree())
			assert.Equal(t, tt.want, mustSQL(t, sel))
		})
	}
}

func TestPrimaryKeyInsideAndIsKept(t *testing.T) {
	sel := query.NewSelect(newConn(t))
	require.NoError(t, sel.SetTable("foo"))
	require.NoError(t, sel.SetWhere([]any{[]any{"id", "=", 2}, "and", []any{"bar", "=", 1}}))

	assert.Equal(t, "*", sel.Row())
	assert.Equal(t, `SELECT * FROM "foo" WHERE ("foo"."id" = '2' AND "foo"."bar" = '1')`, mustSQL(t, sel))
}

func TestHavingKeepsPrimaryKey(t *testing.T) {
	sel := query.NewSelect(newConn(t))
	require.NoError(t, sel.SetTable("foo"))
	require.NoError(t, sel.SetHaving([]any{"id", "=", 2}))

	assert.Equal(t, "*", sel.Row())
	assert.Equal(t, `SELECT * FROM "foo" HAVING "foo"."id" = '2'`, mustSQL(t, sel))
}

func TestAddWhereCombinesWithAnd(t *testing.T) {
	sel := query.NewSelect(newConn(t))
	require.NoError(t, sel.SetTable("foo"))
	require.NoError(t, sel.AddWhere([]any{"bar", "=", 1}))
	require.NoError(t, sel.AddWhere([]any{"name", "=", "x"}))
	assert.Equal(t, `SELECT * FROM "foo" WHERE ("foo"."bar" = '1' AND "foo"."name" = 'x')`, mustSQL(t, sel))

	assert.Equal(t,
		[]any{[]any{[]string{"foo", "bar"}, "=", "1"}, "AND", []any{[]string{"foo", "name"}, "=", "x"}},
		sel.Where().Tree())
}

func TestSubQueries(t *testing.T) {
	conn := newConn(t)

	sub := query.NewSelect(conn)
	require.NoError(t, sub.SetTable("foo"))
	require.NoError(t, sub.SetColumn("fk"))
	require.NoError(t, sub.SetWhere([]any{"bar", ">", 1}))

	sel := query.NewSelect(conn)
	require.NoError(t, sel.SetTable("tgt"))
	require.NoError(t, sel.SetWhere([]any{"id", "in", sub}))
	assert.True(t, sub.IsSubQuery())
	assert.Equal(t,
		`SELECT * FROM "tgt" WHERE "tgt"."id" IN (SELECT "foo"."fk" FROM "foo" WHERE "foo"."bar" > '1')`,
		mustSQL(t, sel), "sub-selects drop the implicit key column")

	exists := query.NewSelectExist(conn)
	require.NoError(t, exists.SetTable("foo"))
	require.NoError(t, exists.SetWhere([]any{[]any{"foo", "fk"}, "=", []any{"tgt", "id"}}))

	outer := query.NewSelect(conn)
	require.NoError(t, outer.SetTable("tgt"))
	require.NoError(t, outer.SetWhere([]any{nil, "not exists", exists}))
	assert.Equal(t,
		`SELECT * FROM "tgt" WHERE NOT EXISTS (SELECT 1 FROM "foo" WHERE "foo"."fk" = "tgt"."id" LIMIT 1)`,
		mustSQL(t, outer))

	err := outer.SetWhere([]any{"name", "=", sub})
	assert.True(t, query.IsInvalidArgumentErr(err), "sub-queries only with IN and EXISTS")
}

func TestSubQueryChangesID(t *testing.T) {
	conn := newConn(t)

	sub := query.NewSelect(conn)
	require.NoError(t, sub.SetTable("tgt"))
	require.NoError(t, sub.SetColumn("col"))
	before := sub.ID()
	assert.Equal(t, `SELECT "tgt"."col", "tgt"."id" FROM "tgt"`, mustSQL(t, sub))

	sel := query.NewSelect(conn)
	require.NoError(t, sel.SetTable("foo"))
	require.NoError(t, sel.SetWhere([]any{"name", "in", sub}))

	assert.NotEqual(t, before, sub.ID())
	assert.Equal(t, `SELECT "tgt"."col" FROM "tgt"`, mustSQL(t, sub))
}

func TestBindModeCollectsArgsInOrder(t *testing.T) {
	conn := newConn(t)
	sub := query.NewSelect(conn)
	require.NoError(t, sub.SetTable("foo"))
	require.NoError(t, sub.SetColumn("fk"))
	require.NoError(t, sub.SetWhere([]any{"name", "=", "inner"}))

	sel := query.NewSelect(conn)
	require.NoError(t, sel.SetTable("tgt"))
	require.NoError(t, sel.SetWhere([]any{
		[]any{"col", "=", "first"}, "and", []any{"id", "in", sub},
	}))
	require.NoError(t, sel.AddWhere([]any{"name", "in", []string{"x", "y"}}))

	sql, args, err := sel.ToSQL(true)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM "tgt" WHERE (("tgt"."col" = ? AND "tgt"."id" IN (SELECT "foo"."fk" FROM "foo" WHERE "foo"."name" = ?)) AND "tgt"."name" IN (?, ?))`,
		sql)
	assert.Equal(t, []any{"first", "inner", "x", "y"}, args)
}
