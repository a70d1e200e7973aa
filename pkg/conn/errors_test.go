package conn

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/yanadb/yanaq/pkg/query"
)

func TestSQLState(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"pgx", &pgconn.PgError{Code: "42P01"}, "42P01"},
		{"pq", &pq.Error{Code: "23505"}, "23505"},
		{"wrapped", fmt.Errorf("select: %w", &pgconn.PgError{Code: "42703"}), "42703"},
		{"message", errors.New(`column "x" does not exist (SQLSTATE 42703)`), "42703"},
		{"none", errors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqlState(tt.err))
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{pgUndefinedTable, query.ErrTableNotFound},
		{pgUndefinedColumn, query.ErrColumnNotFound},
		{pgUniqueViolation, query.ErrDuplicateValue},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			src := &pgconn.PgError{Code: tt.code}
			err := mapError(src)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, src, "driver error stays in the chain")
		})
	}

	plain := errors.New("boom")
	assert.Same(t, plain, mapError(plain))
}
