// Package doctor provides health checks for a yanaq schema and the database
// it describes.
//
// The doctor command validates that the schema file parses and that every
// table and column it declares exists in the database. With a file store
// attached it also checks that file columns name stored files.
//
// Example usage:
//
//	d := doctor.New("schema.yaml", connect)
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/yanadb/yanaq/pkg/conn"
	"github.com/yanadb/yanaq/pkg/ddl"
	"github.com/yanadb/yanaq/pkg/query"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Schema File", "Tables").
	Category string

	// Name is a short identifier for the check.
	Name string

	Status  Status
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report grouped by category, in the order categories
// first appeared.
func (r *Report) Print(w io.Writer, verbose bool) {
	var order []string
	byCategory := make(map[string][]CheckResult)
	for _, check := range r.Checks {
		if _, seen := byCategory[check.Category]; !seen {
			order = append(order, check.Category)
		}
		byCategory[check.Category] = append(byCategory[check.Category], check)
	}

	for _, cat := range order {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range byCategory[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Connector opens a connection for a parsed schema.
type Connector func(ctx context.Context, schema query.Schema) (*conn.Conn, error)

// Doctor checks a schema file against a database.
type Doctor struct {
	schemaPath string
	connect    Connector
	opts       []query.Option
	files      FileChecker

	// Populated during Run.
	schema *ddl.Database
}

// FileChecker reports whether the file a column value names is stored.
type FileChecker interface {
	Exists(table, column, value string) (bool, error)
}

// New creates a Doctor. Statements it reads the database with use opts,
// so a configured table prefix applies.
func New(schemaPath string, connect Connector, opts ...query.Option) *Doctor {
	return &Doctor{schemaPath: schemaPath, connect: connect, opts: opts}
}

// SetFiles attaches the store file columns are checked against.
func (d *Doctor) SetFiles(files FileChecker) {
	d.files = files
}

// Run executes all health checks and returns a report. Database checks are
// skipped when the schema cannot be loaded.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if !d.checkSchemaFile(report) {
		return report, nil
	}
	c := d.checkConnection(ctx, report)
	if c == nil {
		return report, nil
	}
	defer func() { _ = c.Close() }()

	if err := d.checkTables(ctx, c, report); err != nil {
		return nil, fmt.Errorf("checking tables: %w", err)
	}
	if d.files != nil {
		if err := d.checkFiles(ctx, c, report); err != nil {
			return nil, fmt.Errorf("checking files: %w", err)
		}
	}
	return report, nil
}

// checkSchemaFile validates the schema file exists and is valid.
func (d *Doctor) checkSchemaFile(report *Report) bool {
	const category = "Schema File"

	if _, err := os.Stat(d.schemaPath); err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "exists",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Schema file not found at %s", d.schemaPath),
			FixHint:  "Set schema in yanaq.yaml or pass --schema",
		})
		return false
	}
	report.AddCheck(CheckResult{
		Category: category,
		Name:     "exists",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Schema file exists at %s", d.schemaPath),
	})

	schema, err := ddl.Load(d.schemaPath)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "valid",
			Status:   StatusFail,
			Message:  "Schema is invalid",
			Details:  err.Error(),
			FixHint:  "Run 'yanaq validate' to see the error",
		})
		return false
	}
	d.schema = schema

	var profiles, children int
	for _, name := range schema.TableNames() {
		t := schema.Table(name)
		if t.HasProfile() {
			profiles++
		}
		if schema.Parent(name) != "" {
			children++
		}
	}
	report.AddCheck(CheckResult{
		Category: category,
		Name:     "valid",
		Status:   StatusPass,
		Message: fmt.Sprintf("Schema is valid (%d tables, %d profile tables, %d inheriting)",
			len(schema.TableNames()), profiles, children),
	})
	return true
}

func (d *Doctor) checkConnection(ctx context.Context, report *Report) *conn.Conn {
	const category = "Database"

	c, err := d.connect(ctx, d.schema)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: category,
			Name:     "connect",
			Status:   StatusFail,
			Message:  "Cannot connect to the database",
			Details:  err.Error(),
			FixHint:  "Check database.* in yanaq.yaml or YANAQ_DATABASE_URL",
		})
		return nil
	}
	report.AddCheck(CheckResult{
		Category: category,
		Name:     "connect",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Connected (%s)", c.Dialect()),
	})
	return c
}

// checkTables reads one row of every table and compares the returned
// columns with the schema.
func (d *Doctor) checkTables(ctx context.Context, c *conn.Conn, report *Report) error {
	const category = "Tables"

	for _, name := range d.schema.TableNames() {
		t := d.schema.Table(name)

		sel := query.NewSelect(c, append(slices.Clone(d.opts), query.WithInheritance(false))...)
		if err := sel.SetTable(name); err != nil {
			return err
		}
		if err := sel.SetLimit(1); err != nil {
			return err
		}
		res, err := c.SendQuery(ctx, sel)
		switch {
		case query.IsTableNotFoundErr(err):
			report.AddCheck(CheckResult{
				Category: category,
				Name:     name,
				Status:   StatusFail,
				Message:  fmt.Sprintf("Table %s does not exist", name),
				Details:  err.Error(),
				FixHint:  "Create the table or remove it from the schema",
			})
			continue
		case query.IsColumnNotFoundErr(err):
			report.AddCheck(CheckResult{
				Category: category,
				Name:     name,
				Status:   StatusFail,
				Message:  fmt.Sprintf("Table %s has no profile_id column", name),
				Details:  err.Error(),
				FixHint:  "Add a profile_id column to profile tables",
			})
			continue
		case err != nil:
			return fmt.Errorf("%s: %w", name, err)
		}

		have := res.(*conn.Result).Columns()
		want := t.ColumnNames()
		if t.HasProfile() {
			want = append(want, "profile_id")
		}
		missing := difference(want, have)
		extra := difference(have, want)

		switch {
		case len(missing) > 0:
			report.AddCheck(CheckResult{
				Category: category,
				Name:     name,
				Status:   StatusFail,
				Message:  fmt.Sprintf("Table %s is missing %d column(s)", name, len(missing)),
				Details:  "missing: " + strings.Join(missing, ", "),
				FixHint:  "Add the columns or remove them from the schema",
			})
		case len(extra) > 0:
			report.AddCheck(CheckResult{
				Category: category,
				Name:     name,
				Status:   StatusWarn,
				Message:  fmt.Sprintf("Table %s has %d column(s) the schema does not declare", name, len(extra)),
				Details:  "undeclared: " + strings.Join(extra, ", "),
				FixHint:  "Declare the columns; results skip undeclared columns",
			})
		default:
			report.AddCheck(CheckResult{
				Category: category,
				Name:     name,
				Status:   StatusPass,
				Message:  fmt.Sprintf("Table %s matches the schema (%d columns)", name, len(want)),
			})
		}
	}
	return nil
}

// checkFiles reads every file column and looks each value up in the store.
// Tables the database lacks were reported by checkTables and are skipped.
func (d *Doctor) checkFiles(ctx context.Context, c *conn.Conn, report *Report) error {
	const category = "Files"

	for _, name := range d.schema.TableNames() {
		for _, col := range d.schema.Table(name).FileColumns() {
			sel := query.NewSelect(c, append(slices.Clone(d.opts), query.WithInheritance(false))...)
			if err := sel.SetTable(name); err != nil {
				return err
			}
			if err := sel.SetColumns(col.Name()); err != nil {
				return err
			}
			res, err := c.SendQuery(ctx, sel)
			switch {
			case query.IsTableNotFoundErr(err), query.IsColumnNotFoundErr(err):
				continue
			case err != nil:
				return fmt.Errorf("%s.%s: %w", name, col.Name(), err)
			}

			var stored int
			var missing []string
			for i := 0; i < res.CountRows(); i++ {
				value, ok := res.FetchRow(i)[col.Name()].(string)
				if !ok || value == "" {
					continue
				}
				found, err := d.files.Exists(name, col.Name(), value)
				if err != nil || !found {
					missing = append(missing, value)
					continue
				}
				stored++
			}

			check := CheckResult{
				Category: category,
				Name:     name + "." + col.Name(),
				Status:   StatusPass,
				Message:  fmt.Sprintf("Column %s.%s names %d stored file(s)", name, col.Name(), stored),
			}
			if len(missing) > 0 {
				check.Status = StatusWarn
				check.Message = fmt.Sprintf("Column %s.%s names %d missing file(s)", name, col.Name(), len(missing))
				check.Details = "missing: " + strings.Join(missing, ", ")
				check.FixHint = "Restore the files under files.dir or clear the column"
			}
			report.AddCheck(check)
		}
	}
	return nil
}

// difference returns the names of a not in b, in the order of a.
func difference(a, b []string) []string {
	var out []string
	for _, name := range a {
		if !slices.Contains(b, name) {
			out = append(out, name)
		}
	}
	return out
}
