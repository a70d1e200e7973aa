package sqldsl

import "testing"

func TestSelectStmt_SQL(t *testing.T) {
	id := Col{Table: "t", Column: "id"}
	tests := []struct {
		name    string
		stmt    SelectStmt
		dialect Dialect
		want    string
	}{
		{
			name:    "bare",
			stmt:    SelectStmt{From: TableRef{Name: "t"}},
			dialect: DialectGeneric,
			want:    `SELECT * FROM "t"`,
		},
		{
			name: "full",
			stmt: SelectStmt{
				Distinct: true,
				Columns:  []Expr{Col{Table: "t", Column: "a"}, SelectAs(Col{Table: "u", Column: "b"}, "bee")},
				From:     TableRef{Name: "t"},
				Joins: []JoinClause{
					{Type: "INNER", Table: TableRef{Name: "u"}, On: Eq{Col{Table: "u", Column: "id"}, id}},
					{Type: "LEFT", Table: TableRef{Name: "v"}},
				},
				Where:   Eq{id, Value{V: "5"}},
				Having:  Gt{Count(Star{}), Int(1)},
				OrderBy: []OrderTerm{{Expr: Col{Table: "t", Column: "a"}, Desc: true}, {Expr: id}},
				Limit:   10,
				Offset:  20,
			},
			dialect: DialectGeneric,
			want: `SELECT DISTINCT "t"."a", "u"."b" AS "bee" FROM "t" ` +
				`INNER JOIN "u" ON "u"."id" = "t"."id" LEFT JOIN "v" ` +
				`WHERE "t"."id" = '5' HAVING count(*) > 1 ` +
				`ORDER BY "t"."a" DESC, "t"."id" LIMIT 10 OFFSET 20`,
		},
		{
			name:    "empty and is dropped",
			stmt:    SelectStmt{From: TableRef{Name: "t"}, Where: And()},
			dialect: DialectGeneric,
			want:    `SELECT * FROM "t"`,
		},
		{
			name:    "alias",
			stmt:    SelectStmt{From: TableRef{Name: "t", Alias: "x"}},
			dialect: DialectGeneric,
			want:    `SELECT * FROM "t" AS "x"`,
		},
		{
			name:    "offset only postgres",
			stmt:    SelectStmt{From: TableRef{Name: "t"}, Offset: 5},
			dialect: DialectPostgres,
			want:    `SELECT * FROM "t" OFFSET 5`,
		},
		{
			name:    "offset only sqlite",
			stmt:    SelectStmt{From: TableRef{Name: "t"}, Offset: 5},
			dialect: DialectSQLite,
			want:    `SELECT * FROM "t" LIMIT -1 OFFSET 5`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Build(tt.stmt, ANSIQuoter{}, tt.dialect, false)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got != tt.want {
				t.Errorf("SQL() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestInsertStmt_SQL(t *testing.T) {
	stmt := InsertStmt{
		Table:   TableRef{Name: "t"},
		Columns: []string{"a", "b"},
		Values:  Values("1", 2),
	}
	got, _, err := Build(stmt, ANSIQuoter{}, DialectGeneric, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if want := `INSERT INTO "t" ("a", "b") VALUES ('1', 2)`; got != want {
		t.Errorf("SQL() = %q, want %q", got, want)
	}
}

func TestUpdateStmt_SQL(t *testing.T) {
	stmt := UpdateStmt{
		Table: TableRef{Name: "t"},
		Set:   []Assignment{{Column: "a", Value: Value{V: "x"}}, {Column: "b", Value: Null{}}},
		Where: Eq{Col{Table: "t", Column: "id"}, Value{V: "5"}},
	}
	got, args, err := Build(stmt, ANSIQuoter{}, DialectPostgres, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if want := `UPDATE "t" SET "a" = $1, "b" = NULL WHERE "t"."id" = $2`; got != want {
		t.Errorf("SQL() = %q, want %q", got, want)
	}
	if len(args) != 2 || args[0] != "x" || args[1] != "5" {
		t.Errorf("args = %v", args)
	}
}

var (
	parentWhere = Eq{Col{Table: "p", Column: "a"}, Value{V: "1"}}
	parentJoin  = []JoinClause{{Type: "INNER", Table: TableRef{Name: "p"}, On: Eq{Col{Table: "p", Column: "id"}, Col{Table: "t", Column: "id"}}}}
)

func TestUpdateStmt_SQLWithJoins(t *testing.T) {
	stmt := UpdateStmt{
		Table:     TableRef{Name: "t"},
		Set:       []Assignment{{Column: "a", Value: Value{V: "x"}}},
		Where:     parentWhere,
		Joins:     parentJoin,
		KeyColumn: "id",
	}
	got, _, err := Build(stmt, ANSIQuoter{}, DialectSQLite, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := `UPDATE "t" SET "a" = 'x' WHERE "t"."id" IN (SELECT "t"."id" FROM "t" INNER JOIN "p" ON "p"."id" = "t"."id" WHERE "p"."a" = '1')`
	if got != want {
		t.Errorf("SQL() = %q, want %q", got, want)
	}
}

func TestDeleteStmt_SQL(t *testing.T) {
	where := Eq{Col{Table: "t", Column: "a"}, Value{V: "1"}}
	tests := []struct {
		name    string
		stmt    DeleteStmt
		dialect Dialect
		want    string
	}{
		{
			name:    "no limit",
			stmt:    DeleteStmt{Table: TableRef{Name: "t"}, Where: where},
			dialect: DialectPostgres,
			want:    `DELETE FROM "t" WHERE "t"."a" = '1'`,
		},
		{
			name:    "native limit",
			stmt:    DeleteStmt{Table: TableRef{Name: "t"}, Where: where, Limit: 1, KeyColumn: "id"},
			dialect: DialectMySQL,
			want:    `DELETE FROM "t" WHERE "t"."a" = '1' LIMIT 1`,
		},
		{
			name:    "key sub-select",
			stmt:    DeleteStmt{Table: TableRef{Name: "t"}, Where: where, Limit: 1, KeyColumn: "id"},
			dialect: DialectPostgres,
			want:    `DELETE FROM "t" WHERE "t"."id" IN (SELECT "t"."id" FROM "t" WHERE "t"."a" = '1' LIMIT 1)`,
		},
		{
			name:    "key sub-select without where",
			stmt:    DeleteStmt{Table: TableRef{Name: "t"}, Limit: 1, KeyColumn: "id"},
			dialect: DialectSQLite,
			want:    `DELETE FROM "t" WHERE "t"."id" IN (SELECT "t"."id" FROM "t" LIMIT 1)`,
		},
		{
			name:    "joined key sub-select",
			stmt:    DeleteStmt{Table: TableRef{Name: "t"}, Where: parentWhere, Joins: parentJoin, KeyColumn: "id"},
			dialect: DialectPostgres,
			want:    `DELETE FROM "t" WHERE "t"."id" IN (SELECT "t"."id" FROM "t" INNER JOIN "p" ON "p"."id" = "t"."id" WHERE "p"."a" = '1')`,
		},
		{
			name:    "joined keys through a derived table",
			stmt:    DeleteStmt{Table: TableRef{Name: "t"}, Where: parentWhere, Joins: parentJoin, Limit: 1, KeyColumn: "id"},
			dialect: DialectMySQL,
			want:    `DELETE FROM "t" WHERE "t"."id" IN (SELECT "id" FROM (SELECT "t"."id" FROM "t" INNER JOIN "p" ON "p"."id" = "t"."id" WHERE "p"."a" = '1' LIMIT 1) AS "keys")`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := Build(tt.stmt, ANSIQuoter{}, tt.dialect, false)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got != tt.want {
				t.Errorf("SQL() = %q, want %q", got, tt.want)
			}
		})
	}
}
