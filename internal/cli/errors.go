// Package cli provides shared configuration and utilities for the yanaq CLI.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/yanadb/yanaq/pkg/ddl"
	"github.com/yanadb/yanaq/pkg/query"
)

// Exit codes.
const (
	ExitSuccess     = 0
	ExitGeneral     = 1
	ExitConfig      = 2
	ExitSchemaParse = 3
	ExitDBConnect   = 4
	ExitStatement   = 5
	ExitDenied      = 6
)

// ExitError carries the exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Code returns the exit code for err: the code of the first ExitError in
// the chain, or ExitGeneral.
func Code(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitGeneral
}

// ExitWithError prints err to stderr and exits with its code.
func ExitWithError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(Code(err))
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// SchemaParseError creates an ExitError with ExitSchemaParse code.
func SchemaParseError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitSchemaParse, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// GeneralError creates an ExitError with ExitGeneral code.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}

// StatementError classifies a failure of building or running a statement.
// Rejected profile rights exit with ExitDenied, invalid schemas with
// ExitSchemaParse and statements the schema rejects with ExitStatement.
func StatementError(msg string, err error) *ExitError {
	code := ExitGeneral
	switch {
	case query.IsInsufficientRightsErr(err):
		code = ExitDenied
	case ddl.IsInvalidSchemaErr(err):
		code = ExitSchemaParse
	case query.IsTableNotFoundErr(err),
		query.IsColumnNotFoundErr(err),
		query.IsTableNotSetErr(err),
		query.IsInvalidArgumentErr(err),
		query.IsInvalidPrimaryKeyErr(err),
		query.IsTargetNotFoundErr(err),
		ddl.IsInvalidValueErr(err):
		code = ExitStatement
	}
	return &ExitError{Code: code, Message: msg, Err: err}
}
