package conn

import (
	"strings"

	"github.com/lib/pq"

	"github.com/yanadb/yanaq/internal/sqldsl"
)

// QuoterFor returns the default quoter of a dialect.
func QuoterFor(d sqldsl.Dialect) sqldsl.Quoter {
	switch d {
	case sqldsl.DialectPostgres:
		return PQQuoter{}
	case sqldsl.DialectMySQL:
		return BacktickQuoter{}
	default:
		return sqldsl.ANSIQuoter{}
	}
}

// PQQuoter quotes with lib/pq's PostgreSQL rules. Strings containing
// backslashes become E'' literals.
type PQQuoter struct{}

// QuoteID implements sqldsl.Quoter.
func (PQQuoter) QuoteID(identifier string) string {
	return pq.QuoteIdentifier(identifier)
}

// Quote implements sqldsl.Quoter.
func (PQQuoter) Quote(value any) string {
	return sqldsl.FormatValue(value, pq.QuoteLiteral)
}

var mysqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// BacktickQuoter quotes identifiers the MySQL way.
type BacktickQuoter struct{}

// QuoteID implements sqldsl.Quoter.
func (BacktickQuoter) QuoteID(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

// Quote implements sqldsl.Quoter.
func (BacktickQuoter) Quote(value any) string {
	return sqldsl.FormatValue(value, func(s string) string {
		return "'" + mysqlEscaper.Replace(s) + "'"
	})
}
