// Package yanaq builds SQL statements that are checked against a YAML
// schema before they run.
//
// # Core Concepts
//
// A schema lists tables, their columns, primary keys and foreign keys. A
// table whose primary key is also a foreign key to another table's primary
// key inherits that table: selects join the parent and writes are split
// between both rows. Tables marked as profile tables carry a hidden
// profile_id column, and every statement on them is confined to one
// profile.
//
// Statements are addressed with dotted keys:
//
//	article               every row
//	article.12            one row
//	article.*.title       one column of every row
//	article.12.title      one cell
//	article.12.tags.0     one element of an array cell
//	article.?             the latest row
//
// # Basic Usage
//
//	db, err := yanaq.Open(ctx, "pgx", dsn, "schema.yaml")
//	sel := db.Select()
//	err = sel.SetKey(ctx, "article.12.title")
//	res, err := sel.GetResults(ctx)
//
// # Transaction Support
//
// New wraps *sql.DB, *sql.Tx, or *sql.Conn, so statements can see
// uncommitted changes within a transaction:
//
//	tx, _ := sqlDB.BeginTx(ctx, nil)
//	db := yanaq.New(tx, schema, yanaq.DialectPostgres)
//
// # Profiles and Rules
//
// WithSecurity decides which profile statements run as and whether it may
// write rows of other profiles:
//
//	checker := security.NewChecker("alice", security.WithRule(rule))
//	db, err := yanaq.Open(ctx, "pgx", dsn, "schema.yaml", yanaq.WithSecurity(checker))
//
// # Files
//
// Columns of type file and image hold names of files kept in a blob.Store.
// Files of deleted rows and replaced values are removed:
//
//	db, err := yanaq.Open(ctx, "pgx", dsn, "schema.yaml", yanaq.WithFiles(blob.New("/var/lib/files")))
package yanaq

import (
	"context"
	"fmt"

	"github.com/yanadb/yanaq/internal/sqldsl"
	"github.com/yanadb/yanaq/pkg/conn"
	"github.com/yanadb/yanaq/pkg/ddl"
	"github.com/yanadb/yanaq/pkg/query"
)

// Dialect identifies the SQL flavour statements render for.
type Dialect = sqldsl.Dialect

// Supported dialects.
const (
	DialectPostgres = sqldsl.DialectPostgres
	DialectSQLite   = sqldsl.DialectSQLite
	DialectMySQL    = sqldsl.DialectMySQL
)

// DB creates statements bound to one connection and shared options.
type DB struct {
	conn     *conn.Conn
	queries  []query.Option
	connOpts []conn.Option
}

// Option configures a DB.
type Option func(*DB)

// WithQueryOptions applies opts to every statement the DB creates.
func WithQueryOptions(opts ...query.Option) Option {
	return func(db *DB) {
		db.queries = append(db.queries, opts...)
	}
}

// WithConnOptions configures the underlying connection.
func WithConnOptions(opts ...conn.Option) Option {
	return func(db *DB) {
		db.connOpts = append(db.connOpts, opts...)
	}
}

// WithSecurity sets the profile rules of every statement.
func WithSecurity(s query.Security) Option {
	return WithQueryOptions(query.WithSecurity(s))
}

// WithFiles sets the store of file and image column values.
func WithFiles(f query.FileStore) Option {
	return WithQueryOptions(query.WithFiles(f))
}

// Open loads the schema file and connects with a registered driver:
// "pgx", "postgres" or "sqlite3".
func Open(ctx context.Context, driver, dsn, schemaPath string, opts ...Option) (*DB, error) {
	schema, err := ddl.Load(schemaPath)
	if err != nil {
		return nil, err
	}
	db := apply(opts)
	c, err := conn.Open(ctx, driver, dsn, schema, db.connOpts...)
	if err != nil {
		return nil, fmt.Errorf("yanaq: %w", err)
	}
	db.conn = c
	return db, nil
}

// New wraps an open handle. A nil handle gives a DB that only renders
// statements.
func New(handle conn.Execer, schema query.Schema, dialect Dialect, opts ...Option) *DB {
	db := apply(opts)
	db.conn = conn.New(handle, schema, dialect, db.connOpts...)
	return db
}

func apply(opts []Option) *DB {
	db := &DB{}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Close releases the database handle if Open created it.
func (db *DB) Close() error { return db.conn.Close() }

// Conn returns the underlying connection.
func (db *DB) Conn() *conn.Conn { return db.conn }

// Select creates a select statement.
func (db *DB) Select(opts ...query.Option) *query.Select {
	return query.NewSelect(db.conn, db.options(opts)...)
}

// Exists creates an existence check.
func (db *DB) Exists(opts ...query.Option) *query.SelectExist {
	return query.NewSelectExist(db.conn, db.options(opts)...)
}

// Count creates a count statement.
func (db *DB) Count(opts ...query.Option) *query.SelectCount {
	return query.NewSelectCount(db.conn, db.options(opts)...)
}

// Insert creates an insert statement.
func (db *DB) Insert(opts ...query.Option) *query.Insert {
	return query.NewInsert(db.conn, db.options(opts)...)
}

// Update creates an update statement.
func (db *DB) Update(opts ...query.Option) *query.Update {
	return query.NewUpdate(db.conn, db.options(opts)...)
}

// Delete creates a delete statement.
func (db *DB) Delete(opts ...query.Option) *query.Delete {
	return query.NewDelete(db.conn, db.options(opts)...)
}

func (db *DB) options(extra []query.Option) []query.Option {
	if len(extra) == 0 {
		return db.queries
	}
	out := make([]query.Option, 0, len(db.queries)+len(extra))
	return append(append(out, db.queries...), extra...)
}
