package security_test

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
	"github.com/yanadb/yanaq/pkg/security"
)

const notesSchema = `
name: notes
tables:
  grant:
    primary_key: grant_id
    columns:
      grant_id: {type: integer}
      owner: {type: string}
      grantee: {type: string}
  note:
    primary_key: note_id
    profile: true
    columns:
      note_id: {type: integer}
      body: {type: text, nullable: true}
`

func newNotes(t *testing.T) *conn.Conn {
	t.Helper()
	schema, err := ddl.Parse([]byte(notesSchema))
	require.NoError(t, err)
	db := testutil.SQLite(t,
		`CREATE TABLE "grant" (grant_id INTEGER PRIMARY KEY, owner TEXT, grantee TEXT)`,
		`CREATE TABLE note (note_id INTEGER PRIMARY KEY, profile_id TEXT, body TEXT)`,
		`INSERT INTO "grant" VALUES (1, 'bob', 'alice'), (2, 'carol', '*')`,
		`INSERT INTO note VALUES (1, 'bob', 'hi'), (2, 'dave', 'yo')`,
	)
	return conn.New(db, schema, sqldsl.DialectSQLite)
}

func TestGrantTable(t *testing.T) {
	ctx := context.Background()
	rule := security.GrantTable(newNotes(t), "grant", "owner", "grantee")

	tests := []struct {
		current, target string
		want            bool
	}{
		{"alice", "bob", true},
		{"alice", "carol", true},
		{"eve", "carol", true},
		{"eve", "bob", false},
		{"alice", "dave", false},
	}
	for _, tt := range tests {
		got, err := rule(ctx, tt.current, tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s -> %s", tt.current, tt.target)
	}

	_, err := security.GrantTable(newNotes(t), "missing", "owner", "grantee")(ctx, "alice", "bob")
	assert.ErrorIs(t, err, query.ErrTableNotFound)
}

func TestUpdateHonoursGrants(t *testing.T) {
	ctx := context.Background()
	c := newNotes(t)
	checker := security.NewChecker("alice", security.WithRule(security.GrantTable(c, "grant", "owner", "grantee")))

	update := func(owner, row string) error {
		upd := query.NewUpdate(c, query.WithSecurity(checker))
		require.NoError(t, upd.SetTable("note"))
		require.NoError(t, upd.SetRow(row))
		// Statements act on rows of the profile they are built for.
		require.NoError(t, upd.SetProfile(owner))
		require.NoError(t, upd.SetValues(map[string]any{"body": "edited"}))
		_, err := upd.SendQuery(ctx)
		return err
	}

	require.NoError(t, update("bob", "1"))
	assert.ErrorIs(t, update("dave", "2"), query.ErrInsufficientRights)
}
