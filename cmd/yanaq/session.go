package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yanadb/yanaq/internal/cli"
	"github.com/yanadb/yanaq/internal/sqldsl"
	"github.com/yanadb/yanaq/pkg/blob"
	"github.com/yanadb/yanaq/pkg/conn"
	"github.com/yanadb/yanaq/pkg/ddl"
	"github.com/yanadb/yanaq/pkg/query"
	"github.com/yanadb/yanaq/pkg/security"
)

// schemaPath resolves the schema file: flag > config. A relative path from
// the config file is taken relative to that file.
func schemaPath() string {
	if schemaFlag != "" {
		return schemaFlag
	}
	if configPath != "" && !filepath.IsAbs(cfg.Schema) {
		return filepath.Join(filepath.Dir(configPath), cfg.Schema)
	}
	return cfg.Schema
}

func loadSchema() (*ddl.Database, error) {
	path := schemaPath()
	if _, err := os.Stat(path); err != nil {
		return nil, cli.SchemaParseError(fmt.Sprintf("schema not found: %s", path), nil)
	}
	db, err := ddl.Load(path)
	if err != nil {
		return nil, cli.SchemaParseError("parsing schema", err)
	}
	return db, nil
}

// openConn loads the schema and connects to the configured database.
func openConn(ctx context.Context) (*conn.Conn, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}
	return connect(ctx, schema)
}

// connect opens the configured database for schema.
func connect(ctx context.Context, schema query.Schema) (*conn.Conn, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, cli.ConfigError("database", err)
	}
	driver := cfg.Database.Driver
	if cfg.IsSQLite() {
		driver = "sqlite3"
	}
	c, err := conn.Open(ctx, driver, dsn, schema, conn.WithLogger(logger))
	if err != nil {
		return nil, cli.DBConnectError("connecting to database", err)
	}
	return c, nil
}

// renderConn loads the schema for a connection that renders statements
// for dialect without a database behind it.
func renderConn(dialect string) (*conn.Conn, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}
	var d sqldsl.Dialect
	if dialect != "" {
		d = sqldsl.ParseDialect(dialect)
	} else if d, err = conn.DialectForDriver(cfg.Database.Driver); err != nil {
		return nil, cli.ConfigError("database.driver", err)
	}
	return conn.New(nil, schema, d, conn.WithLogger(logger)), nil
}

// queryOptions applies the configured statement defaults.
func queryOptions() []query.Option {
	opts := []query.Option{
		query.WithStrict(cfg.Query.Strict),
		query.WithTablePrefix(cfg.Query.TablePrefix),
		query.WithInheritance(cfg.Query.Inheritance),
		query.WithLogger(logger),
		query.WithSecurity(security.NewChecker(cfg.Query.Profile, security.WithLogger(logger))),
	}
	if cfg.Files.Dir != "" {
		opts = append(opts, query.WithFiles(blob.New(cfg.Files.Dir, blob.WithLogger(logger))))
	}
	return opts
}
