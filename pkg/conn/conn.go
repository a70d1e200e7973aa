// Package conn executes yanaq statements over database/sql.
//
// A Conn couples a database handle with the schema statements are validated
// against and the dialect they render for:
//
//	db, _ := sql.Open("pgx", dsn)
//	c := conn.New(db, schema, sqldsl.DialectPostgres)
//	sel := query.NewSelect(c)
//
// The handle can be *sql.DB, *sql.Tx or *sql.Conn, so statements can run
// inside a caller's transaction. Results are read into memory completely
// before SendQuery returns.
package conn

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Registered drivers: postgres, pgx and sqlite3.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/yanadb/yanaq/internal/sqldsl"
	"github.com/yanadb/yanaq/pkg/query"
)

// Execer runs queries and commands.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Execer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Conn implements query.Connection.
// It is safe for concurrent use when the underlying handle is.
type Conn struct {
	db      Execer
	owned   *sql.DB
	schema  query.Schema
	dialect sqldsl.Dialect
	quoter  sqldsl.Quoter
	logger  *zap.Logger
	cache   *StatementCache
	inline  bool
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger logs every statement at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Conn) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStatementCache reuses rendered SQL for statements with equal IDs.
func WithStatementCache(sc *StatementCache) Option {
	return func(c *Conn) {
		c.cache = sc
	}
}

// WithQuoter replaces the dialect's default quoter.
func WithQuoter(q sqldsl.Quoter) Option {
	return func(c *Conn) {
		if q != nil {
			c.quoter = q
		}
	}
}

// WithInlineValues sends statements with literal values instead of bound
// parameters.
func WithInlineValues() Option {
	return func(c *Conn) {
		c.inline = true
	}
}

// New wraps an open database handle. A nil handle gives a Conn that only
// renders; sending a statement fails with ErrNoDatabase.
func New(db Execer, schema query.Schema, dialect sqldsl.Dialect, opts ...Option) *Conn {
	c := &Conn{
		db:      db,
		schema:  schema,
		dialect: dialect,
		quoter:  QuoterFor(dialect),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open opens a database with one of the registered drivers and pings it.
// The returned Conn owns the handle; Close releases it.
func Open(ctx context.Context, driver, dsn string, schema query.Schema, opts ...Option) (*Conn, error) {
	dialect, err := DialectForDriver(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if dialect == sqldsl.DialectSQLite {
		// An in-memory database exists once per connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s database: %w", driver, err)
	}
	c := New(db, schema, dialect, opts...)
	c.owned = db
	return c, nil
}

// DialectForDriver maps a database/sql driver name onto its dialect.
func DialectForDriver(driver string) (sqldsl.Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "pgx", "postgresql":
		return sqldsl.DialectPostgres, nil
	case "sqlite3", "sqlite":
		return sqldsl.DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// Close closes the database handle if Open created it.
func (c *Conn) Close() error {
	if c.owned == nil {
		return nil
	}
	return c.owned.Close()
}

// DB returns the handle statements run on.
func (c *Conn) DB() Execer { return c.db }

// Schema implements query.Connection.
func (c *Conn) Schema() query.Schema { return c.schema }

// Dialect implements query.Connection.
func (c *Conn) Dialect() sqldsl.Dialect { return c.dialect }

// Quoter implements query.Connection.
func (c *Conn) Quoter() sqldsl.Quoter { return c.quoter }

// SendQuery renders stmt and executes it. Reading statements return their
// rows; writing statements return an empty result carrying the number of
// affected rows.
func (c *Conn) SendQuery(ctx context.Context, stmt query.Statement) (query.Result, error) {
	if c.db == nil {
		return nil, ErrNoDatabase
	}
	sqlText, args, err := c.render(stmt)
	if err != nil {
		return nil, err
	}
	var res *Result
	switch stmt.Type() {
	case query.TypeSelect, query.TypeExists, query.TypeCount:
		res, err = c.queryRows(ctx, sqlText, args)
	default:
		res, err = c.exec(ctx, sqlText, args)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SendQueryString executes raw SQL and returns its rows.
func (c *Conn) SendQueryString(ctx context.Context, sqlText string, args ...any) (query.Result, error) {
	if c.db == nil {
		return nil, ErrNoDatabase
	}
	res, err := c.queryRows(ctx, sqlText, args)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Conn) render(stmt query.Statement) (string, []any, error) {
	if c.cache != nil {
		if sqlText, args, ok := c.cache.Get(stmt.ID()); ok {
			return sqlText, args, nil
		}
	}
	sqlText, args, err := stmt.Render(c.dialect, !c.inline)
	if err != nil {
		return "", nil, err
	}
	if c.cache != nil {
		c.cache.Set(stmt.ID(), sqlText, args)
	}
	return sqlText, args, nil
}

func (c *Conn) queryRows(ctx context.Context, sqlText string, args []any) (*Result, error) {
	start := time.Now()
	rows, err := c.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		c.logFailure(sqlText, err)
		return nil, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	res, err := readRows(rows)
	if err != nil {
		c.logFailure(sqlText, err)
		return nil, mapError(err)
	}
	c.logger.Debug("query",
		zap.String("sql", sqlText),
		zap.Int("args", len(args)),
		zap.Int("rows", res.CountRows()),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func (c *Conn) exec(ctx context.Context, sqlText string, args []any) (*Result, error) {
	start := time.Now()
	out, err := c.db.ExecContext(ctx, sqlText, args...)
	if err != nil {
		c.logFailure(sqlText, err)
		return nil, mapError(err)
	}
	res := &Result{}
	if n, err := out.RowsAffected(); err == nil {
		res.affected = n
	}
	c.logger.Debug("exec",
		zap.String("sql", sqlText),
		zap.Int("args", len(args)),
		zap.Int64("affected", res.affected),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func (c *Conn) logFailure(sqlText string, err error) {
	c.logger.Debug("statement failed", zap.String("sql", sqlText), zap.Error(err))
}

// Ensure Conn implements query.Connection.
var _ query.Connection = (*Conn)(nil)
