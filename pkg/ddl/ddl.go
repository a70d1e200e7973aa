// Package ddl loads declarative database schemas from YAML.
//
// A schema file names its tables with their primary key, columns and
// foreign keys:
//
//	name: shop
//	tables:
//	  product:
//	    primary_key: product_id
//	    columns:
//	      product_id: {type: integer, autofill: true}
//	      title:      {type: string, length: 64}
//	      vendor_id:  {type: reference}
//	    foreign_keys:
//	      - {target: vendor, columns: {vendor_id: vendor_id}}
//
// Loaded schemas implement the lookup interfaces of pkg/query. Columns
// convert values between their Go and stored representations.
//
// # Basic Usage
//
//	db, err := ddl.Load("schema.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sel := query.NewSelect(conn.New(sqlDB, db, sqldsl.DialectPostgres))
package ddl

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/yanadb/yanaq/pkg/query"
)

// Sentinel errors.
var (
	// ErrInvalidSchema is returned when a schema file is malformed or
	// references tables or columns it does not define.
	ErrInvalidSchema = errors.New("ddl: invalid schema")

	// ErrInvalidValue is returned when a value does not fit its column.
	ErrInvalidValue = errors.New("ddl: invalid value")
)

// IsInvalidSchemaErr returns true if err is or wraps ErrInvalidSchema.
func IsInvalidSchemaErr(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}

// IsInvalidValueErr returns true if err is or wraps ErrInvalidValue.
func IsInvalidValueErr(err error) bool {
	return errors.Is(err, ErrInvalidValue)
}

// ProfileColumn is added to every table marked with profile: true.
const ProfileColumn = "profile_id"

// Database is a loaded schema.
type Database struct {
	SchemaName string               `json:"name"`
	Tables     map[string]*TableDef `json:"tables"`
}

// TableDef is a table definition.
type TableDef struct {
	PrimaryKeyName string                `json:"primary_key"`
	Profile        bool                  `json:"profile,omitempty"`
	Columns        map[string]*ColumnDef `json:"columns"`
	ForeignKeyDefs []ForeignKeyDef       `json:"foreign_keys,omitempty"`

	name string
	fks  []query.ForeignKey
}

// ForeignKeyDef maps source columns onto columns of the target table.
type ForeignKeyDef struct {
	Target  string            `json:"target"`
	Columns map[string]string `json:"columns"`
}

// Load reads and validates a schema file.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted source
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	db, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// Parse decodes and validates a YAML schema. Unknown keys are rejected.
func Parse(data []byte) (*Database, error) {
	var db Database
	if err := yaml.UnmarshalStrict(data, &db); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	db.normalize()
	if err := db.Validate(); err != nil {
		return nil, err
	}
	return &db, nil
}

// normalize lower-cases names, links columns to their tables and flattens
// foreign keys into one entry per column.
func (d *Database) normalize() {
	d.SchemaName = strings.TrimSpace(d.SchemaName)
	tables := make(map[string]*TableDef, len(d.Tables))
	for name, t := range d.Tables {
		if t == nil {
			t = &TableDef{}
		}
		t.name = strings.ToLower(strings.TrimSpace(name))
		t.PrimaryKeyName = strings.ToLower(strings.TrimSpace(t.PrimaryKeyName))

		cols := make(map[string]*ColumnDef, len(t.Columns)+1)
		for cname, c := range t.Columns {
			if c == nil {
				c = &ColumnDef{}
			}
			c.name = strings.ToLower(strings.TrimSpace(cname))
			c.TypeName = strings.ToLower(strings.TrimSpace(c.TypeName))
			cols[c.name] = c
		}
		if t.Profile && cols[ProfileColumn] == nil {
			cols[ProfileColumn] = &ColumnDef{name: ProfileColumn, TypeName: TypeString}
		}
		t.Columns = cols

		t.fks = nil
		for _, fk := range t.ForeignKeyDefs {
			target := strings.ToLower(strings.TrimSpace(fk.Target))
			for src, dst := range fk.Columns {
				t.fks = append(t.fks, query.ForeignKey{
					Column:       strings.ToLower(strings.TrimSpace(src)),
					TargetTable:  target,
					TargetColumn: strings.ToLower(strings.TrimSpace(dst)),
				})
			}
		}
		slices.SortFunc(t.fks, func(a, b query.ForeignKey) int {
			if c := strings.Compare(a.Column, b.Column); c != 0 {
				return c
			}
			return strings.Compare(a.TargetTable, b.TargetTable)
		})

		for _, c := range t.Columns {
			c.table = t.name
			c.primary = c.name == t.PrimaryKeyName
			c.foreign = false
			for _, fk := range t.fks {
				if fk.Column == c.name {
					c.foreign = true
				}
			}
		}
		tables[t.name] = t
	}
	d.Tables = tables
}

// Name returns the schema name.
func (d *Database) Name() string { return d.SchemaName }

// Table returns the named table, or nil.
func (d *Database) Table(name string) query.Table {
	if t := d.table(name); t != nil {
		return t
	}
	return nil
}

func (d *Database) table(name string) *TableDef {
	if d == nil {
		return nil
	}
	return d.Tables[strings.ToLower(strings.TrimSpace(name))]
}

// TableNames returns all table names in sorted order.
func (d *Database) TableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for name := range d.Tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Name returns the lower-cased table name.
func (t *TableDef) Name() string { return t.name }

// PrimaryKey returns the primary key column name.
func (t *TableDef) PrimaryKey() string { return t.PrimaryKeyName }

// IsColumn reports whether the table defines the column.
func (t *TableDef) IsColumn(name string) bool {
	_, ok := t.Columns[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Column returns the named column, or nil.
func (t *TableDef) Column(name string) query.Column {
	if c, ok := t.Columns[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return nil
}

// ColumnNames returns the primary key followed by the other columns in
// sorted order.
func (t *TableDef) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		if name != t.PrimaryKeyName {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	if _, ok := t.Columns[t.PrimaryKeyName]; ok {
		names = append([]string{t.PrimaryKeyName}, names...)
	}
	return names
}

// ForeignKeys returns one entry per foreign key column.
func (t *TableDef) ForeignKeys() []query.ForeignKey {
	return slices.Clone(t.fks)
}

// TableByForeignKey returns the table referenced by column, or "".
func (t *TableDef) TableByForeignKey(column string) string {
	column = strings.ToLower(strings.TrimSpace(column))
	for _, fk := range t.fks {
		if fk.Column == column {
			return fk.TargetTable
		}
	}
	return ""
}

// HasProfile reports whether rows are owned by a profile.
func (t *TableDef) HasProfile() bool { return t.Profile }

// FileColumns returns the file and image columns in sorted order.
func (t *TableDef) FileColumns() []query.Column {
	var out []query.Column
	for _, name := range t.ColumnNames() {
		if c := t.Columns[name]; c.isFile() {
			out = append(out, c)
		}
	}
	return out
}
