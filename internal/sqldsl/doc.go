// Package sqldsl provides a typed DSL for rendering the SQL emitted by the
// yanaq query builder.
//
// # Overview
//
// Rather than concatenating SQL strings, the serializer in pkg/query converts
// accumulated query state into DSL values which then render themselves. Every
// identifier goes through a Quoter supplied by the connection and every literal
// either goes through the same Quoter or, in bind mode, becomes a placeholder
// whose value is collected in emission order.
//
// # Core Interfaces
//
//   - Expr: SQL expressions (columns, values, operators, function calls)
//   - SQLer: complete statements (SELECT, INSERT, UPDATE, DELETE)
//
// Both define SQL(*Renderer) string.
//
// # Expression Types
//
//	Col{Table: "t", Column: "id"}     // "t"."id"
//	Value{V: "document"}              // 'document' or ? with bound arg
//	Int(42)                           // 42
//	Null{}                            // NULL
//	Raw("count(*)")                   // raw SQL (escape hatch)
//
// Operators:
//
//	Eq{Left: col, Right: val}         // col = val
//	In{Expr: col, Values: exprs}      // col IN (...)
//	InQuery{Expr: col, Query: stmt}   // col IN (SELECT ...)
//	And(e1, e2), Or(e1, e2), Not(e)   // (e1 AND e2) ...
//	Exists{Query: stmt}               // EXISTS (SELECT ...)
//	IsNull{Expr: col}                 // col IS NULL
//
// # Rendering
//
//	sql, args, err := Build(stmt, quoter, DialectPostgres, true)
//
// Build renders with ? placeholders and rewrites them into the dialect's
// placeholder format ($1, $2, ... for PostgreSQL).
package sqldsl
