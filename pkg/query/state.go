package query

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/yanadb/yanaq/internal/sqldsl"
)

// State is the builder state shared by every statement type. Concrete
// statements embed it by value and add type-specific operations; rendering
// dispatches on the type tag.
//
// A State is not safe for concurrent use. It is bound to one Connection for
// its whole lifetime.
type State struct {
	conn Connection
	cfg  Config

	typ      Type
	expected ExpectedResult

	table    string
	row      string
	rowValue string
	columns  []SelectedColumn
	where    Clause
	having   Clause
	orderBy  []ColumnRef
	desc     []bool
	limit    int
	offset   int

	joins   []JoinCondition
	natural map[string][]Clause

	arrayAddress   string
	useInheritance bool
	parentTables   map[string]Table
	parentChain    []string
	tableByColumn  map[string]string
	isSubQuery     bool
	profile        string

	values       map[string]any
	parentValues map[string]map[string]any

	id string
}

func newState(conn Connection, typ Type, opts []Option) State {
	cfg := newConfig(opts)
	s := State{
		conn:           conn,
		cfg:            cfg,
		typ:            typ,
		useInheritance: cfg.Inheritance,
	}
	s.clear()
	return s
}

// clear resets everything except connection, configuration, type and the
// inheritance flag.
func (s *State) clear() {
	s.expected = ResultUnknown
	s.table = ""
	s.row = "*"
	s.rowValue = ""
	s.columns = nil
	s.where = Clause{}
	s.having = Clause{}
	s.orderBy = nil
	s.desc = nil
	s.limit = 0
	s.offset = 0
	s.joins = nil
	s.natural = map[string][]Clause{}
	s.arrayAddress = ""
	s.parentTables = map[string]Table{}
	s.parentChain = nil
	s.tableByColumn = map[string]string{}
	s.isSubQuery = false
	s.profile = ""
	s.values = nil
	s.parentValues = nil
	s.id = ""
	if s.typ == TypeDelete {
		s.limit = 1
	}
}

func (s *State) resetID() {
	s.id = ""
}

func (s *State) log() *zap.Logger {
	return s.cfg.Logger
}

func (s *State) dialect() string {
	return s.conn.Dialect().String()
}

// fixShape applies the type-specific result shape. Inserts always produce a row.
func (s *State) fixShape() {
	if s.typ == TypeInsert && s.expected != ResultUnknown {
		s.expected = ResultRow
	}
}

func (s *State) lookupTable(name string) (Table, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("%w: empty table name", ErrTableNotFound)
	}
	t := s.conn.Schema().Table(name)
	if t == nil {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	return t, nil
}

func (s *State) baseTable() (Table, error) {
	if s.table == "" {
		return nil, ErrTableNotSet
	}
	return s.lookupTable(s.table)
}

// SetTable selects the base table. Switching to another table drops joins
// and inheritance information gathered for the previous one.
func (s *State) SetTable(name string) error {
	t, err := s.lookupTable(name)
	if err != nil {
		return err
	}
	s.resetID()
	if s.table != t.Name() {
		s.joins = nil
		s.natural = map[string][]Clause{}
		s.parentTables = map[string]Table{}
		s.parentChain = nil
		s.tableByColumn = map[string]string{}
	}
	s.table = t.Name()
	s.profile = ""
	if t.HasProfile() {
		s.profile = s.cfg.currentProfile()
	}
	if s.expected == ResultUnknown {
		s.expected = ResultTable
	}
	if s.useInheritance {
		s.detectInheritance(t)
	}
	s.fixShape()
	return nil
}

// SetRow selects a row by primary key. "*" selects all rows and "?" the most
// recent one; callers pair "?" with a descending order on the primary key
// and a limit of one.
func (s *State) SetRow(row string) error {
	if s.table == "" {
		return fmt.Errorf("%w: set a table before selecting a row", ErrTableNotSet)
	}
	row = strings.TrimSpace(row)
	s.resetID()
	if row == "" || row == "*" {
		s.row = "*"
		s.rowValue = ""
		switch s.expected {
		case ResultRow:
			s.expected = ResultTable
		case ResultCell:
			s.expected = ResultColumn
		}
		s.fixShape()
		return nil
	}

	s.row = strings.ToUpper(row)
	s.rowValue = ""
	if row != "?" {
		s.rowValue = row
	}
	switch s.expected {
	case ResultUnknown, ResultTable:
		s.expected = ResultRow
	case ResultColumn:
		s.expected = ResultCell
	}
	s.fixShape()
	return nil
}

// SetColumn selects a single column, or all columns with "*".
func (s *State) SetColumn(column string) error {
	return s.SetColumnWithAlias(column, "")
}

// SetColumnWithAlias selects a single column under an alias. Dotted names
// select a column of another table; if that table is not part of the
// statement yet it becomes the base table.
func (s *State) SetColumnWithAlias(column, alias string) error {
	if s.table == "" {
		return fmt.Errorf("%w: set a table before selecting a column", ErrTableNotSet)
	}
	column = strings.ToLower(strings.TrimSpace(column))
	if column == "" || column == "*" {
		s.resetID()
		s.columns = nil
		s.arrayAddress = ""
		switch s.expected {
		case ResultColumn:
			s.expected = ResultTable
		case ResultCell:
			s.expected = ResultRow
		}
		s.fixShape()
		return nil
	}

	ref, err := s.selectableColumn(column)
	if err != nil {
		return err
	}
	s.resetID()
	s.columns = []SelectedColumn{{Alias: strings.ToLower(alias), Table: ref.Table, Column: ref.Column}}
	s.arrayAddress = ""
	switch s.expected {
	case ResultUnknown, ResultTable:
		s.expected = ResultColumn
	case ResultRow:
		s.expected = ResultCell
	}
	s.fixShape()
	return nil
}

// addColumn appends a column to the selection. With more than one column the
// statement yields rows.
func (s *State) addColumn(column, alias string) error {
	if len(s.columns) == 0 {
		return s.SetColumnWithAlias(column, alias)
	}
	column = strings.ToLower(strings.TrimSpace(column))
	if column == "" || column == "*" {
		return fmt.Errorf("%w: \"*\" cannot be combined with other columns", ErrInvalidArgument)
	}
	ref, err := s.selectableColumn(column)
	if err != nil {
		return err
	}
	sc := SelectedColumn{Alias: strings.ToLower(alias), Table: ref.Table, Column: ref.Column}
	for _, existing := range s.columns {
		if existing.Key() == sc.Key() {
			return fmt.Errorf("%w: column %q selected twice", ErrDuplicateValue, sc.Key())
		}
	}
	s.resetID()
	s.columns = append(s.columns, sc)
	s.arrayAddress = ""
	if s.row == "*" {
		s.expected = ResultTable
	} else {
		s.expected = ResultRow
	}
	s.fixShape()
	return nil
}

func (s *State) selectableColumn(column string) (ColumnRef, error) {
	ref, err := s.resolveColumn(column)
	if err != nil {
		return ColumnRef{}, err
	}
	if err := s.checkColumn(ref); err != nil {
		return ColumnRef{}, err
	}
	if !s.involves(ref.Table) {
		if err := s.SetTable(ref.Table); err != nil {
			return ColumnRef{}, err
		}
	}
	s.rememberColumn(ref)
	return ref, nil
}

// rememberColumn records the owner of a column addressed through a parent
// table so later undotted lookups resolve to the same table.
func (s *State) rememberColumn(ref ColumnRef) {
	if ref.Table == s.table {
		return
	}
	if _, isParent := s.parentByName(ref.Table); !isParent {
		return
	}
	key := strings.ToUpper(ref.Column)
	if _, ok := s.tableByColumn[key]; ok {
		return
	}
	if base, err := s.baseTable(); err == nil && base.IsColumn(ref.Column) {
		return
	}
	s.tableByColumn[key] = ref.Table
}

// resolveColumn turns "column" or "table.column" into a reference. Undotted
// names resolve through the inheritance chain.
func (s *State) resolveColumn(name string) (ColumnRef, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.LastIndex(name, "."); i >= 0 {
		table, column := name[:i], name[i+1:]
		t, err := s.lookupTable(table)
		if err != nil {
			return ColumnRef{}, err
		}
		return ColumnRef{Table: t.Name(), Column: column}, nil
	}
	if s.table == "" {
		return ColumnRef{}, ErrTableNotSet
	}
	return ColumnRef{Table: s.ParentByColumn(name), Column: name}, nil
}

// checkColumn validates a column reference in strict mode.
func (s *State) checkColumn(ref ColumnRef) error {
	t, err := s.lookupTable(ref.Table)
	if err != nil {
		return err
	}
	if s.cfg.Strict && !t.IsColumn(ref.Column) {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, ref)
	}
	return nil
}

// involves reports whether table is the base table, a joined table or a parent.
func (s *State) involves(table string) bool {
	if table == s.table || s.IsJoined(table) {
		return true
	}
	_, ok := s.parentByName(table)
	return ok
}

// SetOrderBy replaces the ordering. Missing descending flags default to
// ascending.
func (s *State) SetOrderBy(columns []string, desc []bool) error {
	refs := make([]ColumnRef, 0, len(columns))
	flags := make([]bool, 0, len(columns))
	for i, column := range columns {
		ref, err := s.resolveColumn(column)
		if err != nil {
			return err
		}
		if err := s.checkColumn(ref); err != nil {
			return err
		}
		refs = append(refs, ref)
		flags = append(flags, i < len(desc) && desc[i])
	}
	s.resetID()
	if len(refs) == 0 {
		s.orderBy, s.desc = nil, nil
		return nil
	}
	s.orderBy, s.desc = refs, flags
	return nil
}

// AddOrderBy appends a single ordering term.
func (s *State) AddOrderBy(column string, desc bool) error {
	ref, err := s.resolveColumn(column)
	if err != nil {
		return err
	}
	if err := s.checkColumn(ref); err != nil {
		return err
	}
	s.resetID()
	s.orderBy = append(s.orderBy, ref)
	s.desc = append(s.desc, desc)
	return nil
}

// SetLimit sets the maximum number of rows; 0 means unbounded.
func (s *State) SetLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidArgument, limit)
	}
	s.resetID()
	s.limit = limit
	return nil
}

// SetOffset sets the number of rows to skip.
func (s *State) SetOffset(offset int) error {
	if offset < 0 {
		return fmt.Errorf("%w: negative offset %d", ErrInvalidArgument, offset)
	}
	s.resetID()
	s.offset = offset
	return nil
}

// SetArrayAddress selects a nested element of the selected array column.
// It requires a single selected column of array type.
func (s *State) SetArrayAddress(address string) error {
	address = strings.Trim(strings.TrimSpace(address), ".")
	if address == "" {
		s.resetID()
		s.arrayAddress = ""
		return nil
	}
	if (s.expected != ResultCell && s.expected != ResultColumn) || len(s.columns) != 1 {
		return fmt.Errorf("%w: array address needs a single column, have %s", ErrInvalidArgument, s.expected)
	}
	col, ok := s.SchemaColumn(s.columns[0].Ref().String())
	if !ok || !col.IsArray() {
		return fmt.Errorf("%w: column %s is not an array", ErrInvalidArgument, s.columns[0].Ref())
	}
	s.resetID()
	s.arrayAddress = address
	return nil
}

// SetProfile makes the statement act on rows owned by profile instead of
// the current profile. Writes to such rows are checked against the Security
// rules when sent. An empty profile restores the current one.
func (s *State) SetProfile(profile string) error {
	t, err := s.baseTable()
	if err != nil {
		return err
	}
	if !t.HasProfile() {
		return fmt.Errorf("%w: table %s is not owned by profiles", ErrInvalidArgument, s.table)
	}
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = s.cfg.currentProfile()
	}
	s.resetID()
	s.profile = profile
	return nil
}

// SetInheritance toggles automatic parent-table joins. It takes effect on
// the next SetTable.
func (s *State) SetInheritance(enabled bool) {
	s.resetID()
	s.useInheritance = enabled
}

// SetType changes the statement type. Deletes get a limit of one.
func (s *State) SetType(t Type) {
	s.resetID()
	s.typ = t
	if t == TypeDelete {
		s.limit = 1
	}
	s.fixShape()
}

// ResetQuery clears the statement but keeps its connection, table, type and
// inheritance flag. Hidden filters and parent joins of the table are
// installed again.
func (s *State) ResetQuery() {
	table := s.table
	s.clear()
	if table != "" {
		if err := s.SetTable(table); err != nil {
			s.log().Warn("table vanished from schema during reset", zap.String("table", table), zap.Error(err))
		}
	}
}

// SendQuery executes the statement on its connection.
func (s *State) SendQuery(ctx context.Context) (Result, error) {
	return s.conn.SendQuery(ctx, s)
}

// ToSQL renders the statement for the connection's dialect.
func (s *State) ToSQL(bind bool) (string, []any, error) {
	return s.Render(s.conn.Dialect(), bind)
}

// Render renders the statement for dialect d. In bind mode literal values
// are returned as arguments in placeholder order.
func (s *State) Render(d sqldsl.Dialect, bind bool) (string, []any, error) {
	stmt, err := s.statement()
	if err != nil {
		return "", nil, err
	}
	return sqldsl.BuildWithPrefix(stmt, s.conn.Quoter(), d, bind, s.cfg.TablePrefix)
}

// SchemaTable returns the schema definition of a table.
func (s *State) SchemaTable(name string) (Table, bool) {
	t, err := s.lookupTable(name)
	if err != nil {
		return nil, false
	}
	return t, true
}

// SchemaColumn returns the schema definition of "column" or "table.column".
// Undotted names resolve through the inheritance chain.
func (s *State) SchemaColumn(name string) (Column, bool) {
	ref, err := s.resolveColumn(name)
	if err != nil {
		return nil, false
	}
	t, err := s.lookupTable(ref.Table)
	if err != nil || !t.IsColumn(ref.Column) {
		return nil, false
	}
	c := t.Column(ref.Column)
	return c, c != nil
}

// Connection returns the connection the statement is bound to.
func (s *State) Connection() Connection { return s.conn }

// Config returns the statement configuration.
func (s *State) Config() Config { return s.cfg }

// Type returns the statement type.
func (s *State) Type() Type { return s.typ }

// ExpectedResult returns the derived result shape.
func (s *State) ExpectedResult() ExpectedResult { return s.expected }

// Table returns the base table name.
func (s *State) Table() string { return s.table }

// Row returns "*", "?" or the upper-cased primary key value.
func (s *State) Row() string { return s.row }

// Columns returns the selected columns; nil means all.
func (s *State) Columns() []SelectedColumn { return slices.Clone(s.columns) }

// OrderBy returns the ordering columns.
func (s *State) OrderBy() []ColumnRef { return slices.Clone(s.orderBy) }

// Descending returns the descending flags parallel to OrderBy.
func (s *State) Descending() []bool { return slices.Clone(s.desc) }

// Limit returns the row limit; 0 means unbounded.
func (s *State) Limit() int { return s.limit }

// Offset returns the number of skipped rows.
func (s *State) Offset() int { return s.offset }

// ArrayAddress returns the selected nested element path.
func (s *State) ArrayAddress() string { return s.arrayAddress }

// UsesInheritance reports whether parent tables are joined automatically.
func (s *State) UsesInheritance() bool { return s.useInheritance }

// Profile returns the owner profile the statement is filtered by, or "" for
// tables without profiles.
func (s *State) Profile() string { return s.profile }

// IsSubQuery reports whether the statement is embedded in another one.
func (s *State) IsSubQuery() bool { return s.isSubQuery }

// Values returns a copy of the values assigned to the base table.
func (s *State) Values() map[string]any { return maps.Clone(s.values) }

// clone returns a deep copy. Assigned values are not carried over.
func (s *State) clone() State {
	c := *s
	c.columns = slices.Clone(s.columns)
	c.orderBy = slices.Clone(s.orderBy)
	c.desc = slices.Clone(s.desc)
	c.joins = slices.Clone(s.joins)
	c.natural = make(map[string][]Clause, len(s.natural))
	for k, v := range s.natural {
		c.natural[k] = slices.Clone(v)
	}
	c.parentTables = maps.Clone(s.parentTables)
	c.parentChain = slices.Clone(s.parentChain)
	c.tableByColumn = maps.Clone(s.tableByColumn)
	c.values = nil
	c.parentValues = nil
	c.id = ""
	return c
}
