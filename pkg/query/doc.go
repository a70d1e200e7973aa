// Package query builds and executes SQL statements over a declarative schema.
//
// Statements are mutable builders bound to one Connection. Every mutator
// validates its input against the connection's Schema and fails fast with
// one of the package's sentinel errors.
//
// # Statement Types
//
// Select, SelectExist, SelectCount, Insert, Update and Delete embed a shared
// State. The state derives the expected result shape from the selected row
// and columns:
//
//	row "*", all columns      TABLE
//	row set, all columns      ROW
//	row "*", one column       COLUMN
//	row set, one column       CELL
//
// Inserts always produce a ROW. Deletes start with a limit of one.
//
// # Key Addresses
//
// SetKey selects table, row, column and array element from a dotted
// address. Foreign key columns in the middle of an address are followed by
// reading the referenced key from the database:
//
//	sel := query.NewSelect(conn)
//	err := sel.SetKey(ctx, "order.42.customer_id.name")
//	res, err := sel.GetResults(ctx)
//
// # Inheritance
//
// A table whose primary key is a foreign key onto another table's primary
// key inherits that table's columns. Parents are inner-joined automatically
// and their columns can be selected, filtered and written as if they were
// columns of the child. Disable this with WithInheritance(false) or
// SetInheritance before SetTable.
//
// # Where Clauses
//
// Where and having clauses are nested [left, operator, right] lists:
//
//	sel.SetWhere([]any{
//		[]any{"price", ">", 10}, "and", []any{"title", "like", "%tea%"},
//	})
//
// Comparing the primary key with = during a table scan selects the row
// instead of adding a predicate. Any other use of the primary key outside a
// table scan is rejected.
//
// # Rendering
//
// Statements render through internal/sqldsl for the connection's dialect.
// ID returns a stable identity of the statement suitable as a cache key.
package query
