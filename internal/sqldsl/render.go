package sqldsl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

// Dialect identifies the SQL flavour a statement is rendered for.
type Dialect string

// Supported dialects.
const (
	DialectGeneric  Dialect = "generic"
	DialectPostgres Dialect = "postgresql"
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
)

// ParseDialect maps a driver or dialect name onto a Dialect.
// Unknown names map to DialectGeneric.
func ParseDialect(name string) Dialect {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx", "pq":
		return DialectPostgres
	case "sqlite", "sqlite3":
		return DialectSQLite
	case "mysql", "mariadb":
		return DialectMySQL
	default:
		return DialectGeneric
	}
}

// String returns the dialect name.
func (d Dialect) String() string {
	return string(d)
}

// Placeholder returns the bound-parameter format used by the dialect.
func (d Dialect) Placeholder() squirrel.PlaceholderFormat {
	if d == DialectPostgres {
		return squirrel.Dollar
	}
	return squirrel.Question
}

// SupportsDeleteLimit reports whether DELETE ... LIMIT n is valid syntax.
// Dialects without it get a primary-key sub-select instead.
func (d Dialect) SupportsDeleteLimit() bool {
	return d == DialectMySQL || d == DialectGeneric
}

// Quoter quotes identifiers and literal values for one connection.
type Quoter interface {
	QuoteID(identifier string) string
	Quote(value any) string
}

// ANSIQuoter quotes identifiers with double quotes and strings with single
// quotes, doubling embedded quote characters.
type ANSIQuoter struct{}

// QuoteID implements Quoter.
func (ANSIQuoter) QuoteID(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// Quote implements Quoter.
func (ANSIQuoter) Quote(value any) string {
	return FormatValue(value, func(s string) string {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	})
}

var _ Quoter = ANSIQuoter{}

// FormatValue renders a Go value as a SQL literal. Strings (and anything
// rendered as a string) are passed through quoteString.
func FormatValue(value any, quoteString func(string) string) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return quoteString(v.Format("2006-01-02 15:04:05"))
	case []byte:
		return quoteString(string(v))
	case string:
		return quoteString(v)
	case fmt.Stringer:
		return quoteString(v.String())
	default:
		return quoteString(fmt.Sprint(v))
	}
}

// Renderer carries the state of a single rendering pass: the quoter, whether
// literals become placeholders, and the arguments collected so far.
// A Renderer must not be reused across statements.
type Renderer struct {
	Quoter  Quoter
	Dialect Dialect
	Bind    bool
	Prefix  string

	args []any
}

// NewRenderer creates a renderer. A nil quoter falls back to ANSIQuoter.
func NewRenderer(q Quoter, bind bool) *Renderer {
	if q == nil {
		q = ANSIQuoter{}
	}
	return &Renderer{Quoter: q, Dialect: DialectGeneric, Bind: bind}
}

// Args returns the bound arguments in emission order.
func (r *Renderer) Args() []any {
	return r.args
}

// Value renders a literal, either quoted inline or as a ? placeholder.
func (r *Renderer) Value(v any) string {
	if v == nil {
		return "NULL"
	}
	if r.Bind {
		r.args = append(r.args, v)
		return "?"
	}
	return r.Quoter.Quote(v)
}

// ID renders a (possibly qualified) identifier, quoting every part.
func (r *Renderer) ID(parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		quoted = append(quoted, r.Quoter.QuoteID(p))
	}
	return strings.Join(quoted, ".")
}

// Table renders a table identifier with the configured table prefix.
func (r *Renderer) Table(name string) string {
	return r.Quoter.QuoteID(r.Prefix + name)
}

// Build renders a statement and rewrites placeholders for the dialect.
// In non-bind mode the returned args are always empty.
func Build(stmt SQLer, q Quoter, d Dialect, bind bool) (string, []any, error) {
	return BuildWithPrefix(stmt, q, d, bind, "")
}

// BuildWithPrefix is Build with a table name prefix applied to every table
// identifier.
func BuildWithPrefix(stmt SQLer, q Quoter, d Dialect, bind bool, prefix string) (string, []any, error) {
	r := NewRenderer(q, bind)
	r.Dialect = d
	r.Prefix = prefix
	sql := stmt.SQL(r)
	if !bind {
		return sql, nil, nil
	}
	out, err := d.Placeholder().ReplacePlaceholders(sql)
	if err != nil {
		return "", nil, fmt.Errorf("replacing placeholders: %w", err)
	}
	return out, r.Args(), nil
}
