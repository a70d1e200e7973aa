// Package main provides a CLI for querying databases described by a yanaq
// schema.
//
// The CLI supports:
//   - render: Print the SQL of a statement without touching the database
//   - get, count, exists, delete: Run a statement addressed by a key
//   - validate, doctor: Check a schema file and the database it describes
//   - config show, version: Utilities
//
// Keys address a table, a row, a column and an array element, for example
// "article.12.title" or "article.*.title". The schema comes from the
// "schema" setting of yanaq.yaml or the --schema flag.
//
// Usage:
//
//	yanaq [flags] <command>
//
// Commands that execute statements need a database; render and validate do
// not.
package main

func main() {
	Execute()
}
