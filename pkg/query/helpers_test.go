package query_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanadb/yanaq/internal/sqldsl"
	"github.com/yanadb/yanaq/pkg/ddl"
	"github.com/yanadb/yanaq/pkg/query"
)

// testSchema covers plain tables, a foreign key, a three level inheritance
// chain (puppy -> dog -> animal), a profile table and an auto-filled key.
const testSchema = `
name: test
tables:
  foo:
    primary_key: id
    columns:
      id: {type: integer}
      bar: {type: integer, nullable: true}
      name: {type: string, nullable: true}
      tags: {type: array, nullable: true}
      fk: {type: reference, nullable: true}
    foreign_keys:
      - {target: tgt, columns: {fk: id}}
  tgt:
    primary_key: id
    columns:
      id: {type: integer}
      col: {type: string, nullable: true}
      name: {type: string, nullable: true}
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
  puppy:
    primary_key: puppy_id
    columns:
      puppy_id: {type: integer}
      toy: {type: string, nullable: true}
    foreign_keys:
      - {target: dog, columns: {puppy_id: dog_id}}
  note:
    primary_key: note_id
    profile: true
    columns:
      note_id: {type: uuid}
      body: {type: text, nullable: true}
      attachment: {type: file, nullable: true}
  lone:
    primary_key: lone_id
    columns:
      lone_id: {type: integer, autofill: true}
      x: {type: string, nullable: true}
`

const noteID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

var errBoom = errors.New("boom")

type fakeResult struct {
	rows []map[string]any
}

func rows(r ...map[string]any) *fakeResult { return &fakeResult{rows: r} }

func (r *fakeResult) CountRows() int { return len(r.rows) }

func (r *fakeResult) FetchRow(i int) map[string]any {
	if i < 0 || i >= len(r.rows) {
		return nil
	}
	return r.rows[i]
}

func (r *fakeResult) FetchOne() any {
	if len(r.rows) == 0 {
		return nil
	}
	for _, v := range r.rows[0] {
		return v
	}
	return nil
}

// fakeConn renders every statement inline for its dialect, records the SQL
// and answers through handler.
type fakeConn struct {
	schema     *ddl.Database
	dialect    sqldsl.Dialect
	handler    func(sql string) (*fakeResult, error)
	statements []string
}

func newConn(t *testing.T) *fakeConn {
	t.Helper()
	db, err := ddl.Parse([]byte(testSchema))
	require.NoError(t, err)
	return &fakeConn{schema: db, dialect: sqldsl.DialectSQLite}
}

func (c *fakeConn) Schema() query.Schema { return c.schema }
func (c *fakeConn) Dialect() sqldsl.Dialect { return c.dialect }
func (c *fakeConn) Quoter() sqldsl.Quoter { return sqldsl.ANSIQuoter{} }

func (c *fakeConn) SendQuery(_ context.Context, stmt query.Statement) (query.Result, error) {
	sql, _, err := stmt.Render(c.dialect, false)
	if err != nil {
		return nil, err
	}
	return c.exec(sql)
}

func (c *fakeConn) SendQueryString(_ context.Context, sql string, _ ...any) (query.Result, error) {
	return c.exec(sql)
}

func (c *fakeConn) exec(sql string) (query.Result, error) {
	c.statements = append(c.statements, sql)
	if c.handler == nil {
		return rows(), nil
	}
	res, err := c.handler(sql)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return rows(), nil
	}
	return res, nil
}

// onSelect answers SELECT statements with res and everything else with an
// empty result.
func onSelect(res *fakeResult) func(string) (*fakeResult, error) {
	return func(sql string) (*fakeResult, error) {
		if strings.HasPrefix(sql, "SELECT") {
			return res, nil
		}
		return rows(), nil
	}
}

type fakeSecurity struct {
	current string
	allow   map[string]bool
	err     error
	checked []string
}

func (s *fakeSecurity) CurrentProfile() string { return s.current }

func (s *fakeSecurity) CheckRules(_ context.Context, profile string) (bool, error) {
	s.checked = append(s.checked, profile)
	if s.err != nil {
		return false, s.err
	}
	return s.allow[profile], nil
}

type removedFile struct {
	table, column, value string
}

type fakeFiles struct {
	removed []removedFile
	err     error
}

func (f *fakeFiles) Remove(_ context.Context, table, column, value string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, removedFile{table, column, value})
	return nil
}

func mustSQL(t *testing.T, stmt interface {
	ToSQL(bool) (string, []any, error)
}) string {
	t.Helper()
	sql, _, err := stmt.ToSQL(false)
	require.NoError(t, err)
	return sql
}
