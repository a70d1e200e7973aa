// Package testutil provides shared database fixtures for yanaq tests.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Singleton container state
var (
	singletonOnce sync.Once
	singletonDSN  string
	singletonErr  error
)

// ensureSingleton lazily starts one PostgreSQL container per test binary.
// Safe for concurrent access via sync.Once.
func ensureSingleton() (string, error) {
	singletonOnce.Do(func() {
		if cfg := GetDatabaseConfig(); cfg.URL != "" {
			singletonDSN = cfg.URL
			return
		}

		ctx := context.Background()
		container, err := postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_INITDB_ARGS": "--auth-host=trust",
			}),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			singletonErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}
		// Container is not stored - ryuk will handle cleanup automatically
		singletonDSN = dsn
	})

	return singletonDSN, singletonErr
}

// PostgresDSN returns the DSN of a fresh, empty PostgreSQL database.
// The database is dropped when the test completes. The test is skipped
// in -short mode.
func PostgresDSN(tb testing.TB) string {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping PostgreSQL test in short mode")
	}

	adminDSN, err := ensureSingleton()
	require.NoError(tb, err, "failed to start PostgreSQL container")

	dbName := uniqueDBName("yanaq")
	require.NoError(tb, execAdmin(context.Background(), adminDSN, "CREATE DATABASE "+dbName),
		"failed to create test database")

	tb.Cleanup(func() {
		// Drop database in background
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = execAdmin(ctx, adminDSN, "DROP DATABASE IF EXISTS "+dbName+" WITH (FORCE)")
		}()
	})

	dsn, err := replaceDBName(adminDSN, dbName)
	require.NoError(tb, err)
	return dsn
}

// SQLite returns an open in-memory SQLite database that lives until the
// test completes. Statements run in order on a single connection.
func SQLite(tb testing.TB, ddl ...string) *sql.DB {
	tb.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(tb, err, "failed to open sqlite database")
	db.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = db.Close() })

	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(tb, err, "failed to run %q", stmt)
	}
	return db
}

func execAdmin(ctx context.Context, adminDSN, stmt string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, stmt)
	return err
}

// uniqueDBName generates a unique database name with the given prefix.
func uniqueDBName(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

// replaceDBName swaps the database of a postgres:// URL.
func replaceDBName(dsn, name string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	if !strings.HasPrefix(u.Scheme, "postgres") {
		return "", fmt.Errorf("dsn %q is not a postgres URL", dsn)
	}
	u.Path = "/" + name
	return u.String(), nil
}
