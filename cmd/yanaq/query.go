package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/yanadb/yanaq/internal/cli"
	"github.com/yanadb/yanaq/pkg/query"
)

// keyedStatement is the part of a statement the query commands drive.
type keyedStatement interface {
	query.Statement
	SetKey(ctx context.Context, key string) error
	SetWhere(tree []any) error
	AddOrderBy(column string, desc bool) error
	SetLimit(limit int) error
	SetOffset(offset int) error
	ToSQL(bind bool) (string, []any, error)
	SendQuery(ctx context.Context) (query.Result, error)
}

// statementFlags are shared by every query command.
type statementFlags struct {
	where  string
	order  []string
	limit  int
	offset int
}

func (f *statementFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.where, "where", "", `where clause as a JSON or YAML list, e.g. '["title", "=", "foo"]'`)
	cmd.Flags().StringSliceVar(&f.order, "order", nil, "order by column; prefix with - for descending (repeatable)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of rows")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "number of rows to skip")
}

// parseWhere decodes a clause tree. YAML is a superset of JSON, so both
// notations are accepted.
func parseWhere(s string) ([]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var tree []any
	if err := yaml.Unmarshal([]byte(s), &tree); err != nil {
		return nil, fmt.Errorf("--where: %w", err)
	}
	return tree, nil
}

// newStatement creates the statement for a command name.
func newStatement(c query.Connection, kind string, opts []query.Option) (keyedStatement, error) {
	switch kind {
	case "select", "get":
		return query.NewSelect(c, opts...), nil
	case "count":
		return query.NewSelectCount(c, opts...), nil
	case "exists":
		return query.NewSelectExist(c, opts...), nil
	case "delete":
		return query.NewDelete(c, opts...), nil
	default:
		return nil, fmt.Errorf("unknown statement type %q", kind)
	}
}

// prepare addresses stmt with key and applies the flags.
func prepare(ctx context.Context, stmt keyedStatement, key string, f statementFlags) error {
	if err := stmt.SetKey(ctx, key); err != nil {
		return err
	}
	tree, err := parseWhere(f.where)
	if err != nil {
		return err
	}
	if tree != nil {
		if err := stmt.SetWhere(tree); err != nil {
			return err
		}
	}
	for _, o := range f.order {
		column, desc := strings.CutPrefix(strings.TrimSpace(o), "-")
		if err := stmt.AddOrderBy(column, desc); err != nil {
			return err
		}
	}
	if f.limit > 0 {
		if err := stmt.SetLimit(f.limit); err != nil {
			return err
		}
	}
	if f.offset > 0 {
		if err := stmt.SetOffset(f.offset); err != nil {
			return err
		}
	}
	return nil
}

// runKeyed opens the database and prepares a statement of kind for key.
// The returned cleanup closes the connection.
func runKeyed(ctx context.Context, kind, key string, f statementFlags) (keyedStatement, func(), error) {
	c, err := openConn(ctx)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = c.Close() }
	stmt, err := newStatement(c, kind, queryOptions())
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := prepare(ctx, stmt, key, f); err != nil {
		cleanup()
		return nil, nil, cli.StatementError("preparing "+kind, err)
	}
	return stmt, cleanup, nil
}

var (
	renderFlags   statementFlags
	renderType    string
	renderBind    bool
	renderDialect string
)

var renderCmd = &cobra.Command{
	Use:   "render KEY",
	Short: "Print the SQL of a statement",
	Long: `Print the SQL of a statement without connecting to a database.

Keys that follow a foreign key need the database and cannot be rendered.`,
	Example: `  # Render a select of one cell
  yanaq render article.12.title

  # Render a count with bound parameters for PostgreSQL
  yanaq render article --type count --where '["title", "like", "a%"]' --bind --dialect postgres`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := renderConn(renderDialect)
		if err != nil {
			return err
		}
		stmt, err := newStatement(c, renderType, queryOptions())
		if err != nil {
			return cli.GeneralError("render", err)
		}
		if err := prepare(cmd.Context(), stmt, args[0], renderFlags); err != nil {
			return cli.StatementError("preparing "+renderType, err)
		}
		sqlText, params, err := stmt.ToSQL(renderBind)
		if err != nil {
			return cli.StatementError("rendering "+renderType, err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sqlText)
		if renderBind && len(params) > 0 {
			return writeYAML(out, map[string]any{"args": params})
		}
		return nil
	},
}

var (
	getFlags     statementFlags
	getCSV       bool
	getSeparator string
	getHeader    bool
)

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Select rows, a row, a column or a cell",
	Long: `Select what KEY addresses and print it as YAML.

A table key prints every row keyed by primary key, a row key prints one
row, a column key prints one value per row and a cell key prints a single
value. With --csv the rows are written as CSV instead.`,
	Example: `  # Print one row
  yanaq get article.12

  # Export a table as CSV
  yanaq get article --csv --header`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stmt, cleanup, err := runKeyed(ctx, "get", args[0], getFlags)
		if err != nil {
			return err
		}
		defer cleanup()
		sel := stmt.(*query.Select)

		if getCSV {
			sep, err := separator(getSeparator)
			if err != nil {
				return cli.GeneralError("get", err)
			}
			if err := sel.ToCSV(ctx, cmd.OutOrStdout(), query.CSVOptions{Separator: sep, Header: getHeader}); err != nil {
				return cli.StatementError("exporting "+args[0], err)
			}
			return nil
		}

		res, err := sel.GetResults(ctx)
		if err != nil {
			return cli.StatementError("selecting "+args[0], err)
		}
		return writeYAML(cmd.OutOrStdout(), resultValue(res))
	},
}

var countFlags statementFlags

var countCmd = &cobra.Command{
	Use:   "count KEY",
	Short: "Count the rows KEY addresses",
	Example: `  # Count the rows of a table
  yanaq count article

  # Count the non-null values of a column
  yanaq count article.*.title`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stmt, cleanup, err := runKeyed(ctx, "count", args[0], countFlags)
		if err != nil {
			return err
		}
		defer cleanup()
		res, err := stmt.SendQuery(ctx)
		if err != nil {
			return cli.StatementError("counting "+args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.FetchOne())
		return nil
	},
}

var existsFlags statementFlags

var existsCmd = &cobra.Command{
	Use:   "exists KEY",
	Short: "Report whether KEY addresses a row",
	Long:  `Print true or false. A column or cell key checks that the value is not null.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stmt, cleanup, err := runKeyed(ctx, "exists", args[0], existsFlags)
		if err != nil {
			return err
		}
		defer cleanup()
		res, err := stmt.SendQuery(ctx)
		if err != nil {
			return cli.StatementError("probing "+args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.CountRows() > 0)
		return nil
	},
}

var deleteFlags statementFlags

var deleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Delete the rows KEY addresses",
	Long: `Delete the rows KEY addresses. Files referenced by file and image
columns of the deleted rows are removed from files.dir.`,
	Example: `  # Delete one row
  yanaq delete article.12`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		stmt, cleanup, err := runKeyed(ctx, "delete", args[0], deleteFlags)
		if err != nil {
			return err
		}
		defer cleanup()
		res, err := stmt.SendQuery(ctx)
		if err != nil {
			return cli.StatementError("deleting "+args[0], err)
		}
		if quiet {
			return nil
		}
		if ra, ok := res.(interface{ RowsAffected() int64 }); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d row(s).\n", ra.RowsAffected())
		}
		return nil
	},
}

func init() {
	renderFlags.register(renderCmd)
	renderCmd.Flags().StringVar(&renderType, "type", "select", "statement type: select, count, exists or delete")
	renderCmd.Flags().BoolVar(&renderBind, "bind", false, "render placeholders and print the bound values")
	renderCmd.Flags().StringVar(&renderDialect, "dialect", "", "SQL dialect (default: from database.driver)")

	getFlags.register(getCmd)
	getCmd.Flags().BoolVar(&getCSV, "csv", false, "write CSV instead of YAML")
	getCmd.Flags().StringVar(&getSeparator, "separator", ",", "CSV field separator")
	getCmd.Flags().BoolVar(&getHeader, "header", false, "write a CSV header record")

	countFlags.register(countCmd)
	existsFlags.register(existsCmd)
	deleteFlags.register(deleteCmd)
}

// resultValue picks the part of res its shape fills.
func resultValue(res *query.Results) any {
	switch res.Kind {
	case query.ResultTable:
		return res.Rows
	case query.ResultRow:
		return res.Row
	case query.ResultColumn:
		return res.Values
	default:
		return res.Cell
	}
}

func separator(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, fmt.Errorf("separator must be a single character, got %q", s)
	}
	return r, nil
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
