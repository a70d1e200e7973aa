package ddl

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yanadb/yanaq/internal/sqldsl"
)

// Column types.
const (
	TypeInteger   = "integer"
	TypeFloat     = "float"
	TypeDecimal   = "decimal"
	TypeString    = "string"
	TypeText      = "text"
	TypeBool      = "bool"
	TypeDate      = "date"
	TypeTime      = "time"
	TypeTimestamp = "timestamp"
	TypeArray     = "array"
	TypeSet       = "set"
	TypeList      = "list"
	TypeJSON      = "json"
	TypeFile      = "file"
	TypeImage     = "image"
	TypeUUID      = "uuid"
	TypeEnum      = "enum"
	TypeReference = "reference"
	TypeRange     = "range"
)

var types = []string{
	TypeInteger, TypeFloat, TypeDecimal, TypeString, TypeText, TypeBool,
	TypeDate, TypeTime, TypeTimestamp, TypeArray, TypeSet, TypeList, TypeJSON,
	TypeFile, TypeImage, TypeUUID, TypeEnum, TypeReference, TypeRange,
}

func knownType(t string) bool {
	return slices.Contains(types, t)
}

// Stored layouts of temporal columns.
const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
	TimestampLayout = "2006-01-02 15:04:05"
)

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	TimestampLayout,
	DateLayout,
	TimeLayout,
}

// ColumnDef is a column definition.
type ColumnDef struct {
	TypeName string   `json:"type"`
	Length   int      `json:"length,omitempty"`
	Nullable bool     `json:"nullable,omitempty"`
	AutoFill bool     `json:"autofill,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`

	name    string
	table   string
	primary bool
	foreign bool
}

// Name returns the lower-cased column name.
func (c *ColumnDef) Name() string { return c.name }

// Table returns the name of the owning table.
func (c *ColumnDef) Table() string { return c.table }

// Type returns the column type.
func (c *ColumnDef) Type() string { return c.TypeName }

// IsForeignKey reports whether the column references another table.
func (c *ColumnDef) IsForeignKey() bool { return c.foreign }

// IsPrimaryKey reports whether the column is its table's primary key.
func (c *ColumnDef) IsPrimaryKey() bool { return c.primary }

// IsAutoFill reports whether the database fills the column on insert.
func (c *ColumnDef) IsAutoFill() bool { return c.AutoFill }

// IsArray reports whether the column stores a JSON document whose elements
// can be addressed.
func (c *ColumnDef) IsArray() bool {
	return c.TypeName == TypeArray || c.TypeName == TypeJSON
}

func (c *ColumnDef) isFile() bool {
	return c.TypeName == TypeFile || c.TypeName == TypeImage
}

func (c *ColumnDef) invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s.%s: %s", ErrInvalidValue, c.table, c.name, fmt.Sprintf(format, args...))
}

// SanitizeValue validates v and converts it into its stored form. Applying
// it to its own output returns the same value.
func (c *ColumnDef) SanitizeValue(v any, dialect string) (any, error) {
	if b, ok := v.([]byte); ok && c.TypeName != TypeArray && c.TypeName != TypeJSON {
		v = string(b)
	}
	if v == nil {
		if c.Nullable || c.AutoFill {
			return nil, nil
		}
		return nil, c.invalid("value required")
	}

	switch c.TypeName {
	case TypeInteger:
		n, err := toInt64(v)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		return n, nil
	case TypeFloat:
		f, err := toFloat64(v)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		return f, nil
	case TypeDecimal, TypeRange:
		d, err := toDecimal(v)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		if c.Min != nil && d.LessThan(decimal.NewFromFloat(*c.Min)) {
			return nil, c.invalid("%s is below %v", d, *c.Min)
		}
		if c.Max != nil && d.GreaterThan(decimal.NewFromFloat(*c.Max)) {
			return nil, c.invalid("%s is above %v", d, *c.Max)
		}
		return d.String(), nil
	case TypeBool:
		b, err := toBool(v)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		if dialect == sqldsl.DialectPostgres.String() {
			return b, nil
		}
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case TypeDate, TypeTime, TypeTimestamp:
		t, err := toTime(v)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		switch c.TypeName {
		case TypeDate:
			return t.Format(DateLayout), nil
		case TypeTime:
			return t.Format(TimeLayout), nil
		default:
			return t.UTC().Format(TimestampLayout), nil
		}
	case TypeArray, TypeJSON:
		doc, err := toJSON(v)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		return doc, nil
	case TypeSet, TypeList:
		items, err := toStrings(v)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		if c.TypeName == TypeSet {
			slices.Sort(items)
			items = slices.Compact(items)
		}
		return strings.Join(items, ","), nil
	case TypeUUID:
		id, err := toUUID(v)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		return id.String(), nil
	case TypeEnum:
		s, ok := toString(v)
		if !ok || !slices.Contains(c.Enum, s) {
			return nil, c.invalid("%v is not one of %s", v, strings.Join(c.Enum, ", "))
		}
		return s, nil
	default:
		s, ok := toString(v)
		if !ok {
			return nil, c.invalid("cannot store %T as %s", v, c.TypeName)
		}
		if c.Length > 0 && utf8.RuneCountInString(s) > c.Length {
			return nil, c.invalid("longer than %d characters", c.Length)
		}
		return s, nil
	}
}

// InterpretValue converts a stored value into its Go form:
//
//	integer                int64
//	float                  float64
//	decimal, range         decimal.Decimal
//	bool                   bool
//	date, timestamp        time.Time
//	array, json            any decoded from JSON
//	set, list              []string
//	everything else        string
//
// A non-empty arrayAddress selects an element of an array or json column.
// Missing elements yield nil.
func (c *ColumnDef) InterpretValue(raw any, arrayAddress string, dialect string) (any, error) {
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	if arrayAddress != "" && !c.IsArray() {
		return nil, c.invalid("%s is not an array", c.TypeName)
	}
	if raw == nil {
		return nil, nil
	}

	switch c.TypeName {
	case TypeInteger:
		n, err := toInt64(raw)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		return n, nil
	case TypeFloat:
		f, err := toFloat64(raw)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		return f, nil
	case TypeDecimal, TypeRange:
		d, err := toDecimal(raw)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		return d, nil
	case TypeBool:
		b, err := toBool(raw)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		return b, nil
	case TypeDate, TypeTimestamp:
		t, err := toTime(raw)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		return t, nil
	case TypeTime:
		t, err := toTime(raw)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		return t.Format(TimeLayout), nil
	case TypeArray, TypeJSON:
		var doc any
		switch x := raw.(type) {
		case string:
			if strings.TrimSpace(x) == "" {
				return nil, nil
			}
			if err := json.Unmarshal([]byte(x), &doc); err != nil {
				return nil, c.invalid("stored value is not JSON: %v", err)
			}
		default:
			doc = x
		}
		if arrayAddress == "" {
			return doc, nil
		}
		return element(doc, strings.Split(arrayAddress, ".")), nil
	case TypeSet, TypeList:
		items, err := toStrings(raw)
		if err != nil {
			return nil, c.invalid("%v", err)
		}
		return items, nil
	default:
		s, ok := toString(raw)
		if !ok {
			return nil, c.invalid("cannot read %T as %s", raw, c.TypeName)
		}
		return s, nil
	}
}

// element walks path through nested objects and lists.
func element(doc any, path []string) any {
	for _, key := range path {
		switch x := doc.(type) {
		case map[string]any:
			doc = x[key]
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(x) {
				return nil
			}
			doc = x[i]
		default:
			return nil
		}
	}
	return doc
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows", x)
		}
		return int64(x), nil
	case float32:
		return toInt64(float64(x))
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case decimal.Decimal:
		if !x.IsInteger() {
			return 0, fmt.Errorf("%s is not an integer", x)
		}
		return x.IntPart(), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot use %T as integer", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case decimal.Decimal:
		f, _ := x.Float64()
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		return f, nil
	default:
		n, err := toInt64(v)
		if err != nil {
			return 0, fmt.Errorf("cannot use %T as float", v)
		}
		return float64(n), nil
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%q is not a number", x)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	default:
		n, err := toInt64(v)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("cannot use %T as decimal", v)
		}
		return decimal.NewFromInt(n), nil
	}
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "t", "true", "y", "yes", "on":
			return true, nil
		case "", "0", "f", "false", "n", "no", "off":
			return false, nil
		}
		return false, fmt.Errorf("%q is not a boolean", x)
	default:
		n, err := toInt64(v)
		if err != nil {
			return false, fmt.Errorf("cannot use %T as bool", v)
		}
		return n != 0, nil
	}
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range parseLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%q is not a date or time", x)
	default:
		n, err := toInt64(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot use %T as time", v)
		}
		return time.Unix(n, 0).UTC(), nil
	}
}

// toJSON returns the compact JSON encoding of v. Strings must hold JSON
// already and are re-encoded.
func toJSON(v any) (string, error) {
	var doc any
	switch x := v.(type) {
	case string:
		if err := json.Unmarshal([]byte(x), &doc); err != nil {
			return "", fmt.Errorf("not a JSON document: %w", err)
		}
	case []byte:
		if err := json.Unmarshal(x, &doc); err != nil {
			return "", fmt.Errorf("not a JSON document: %w", err)
		}
	default:
		doc = x
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func toStrings(v any) ([]string, error) {
	var items []string
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return []string{}, nil
		}
		items = strings.Split(x, ",")
	case []string:
		items = slices.Clone(x)
	case []any:
		for _, item := range x {
			s, ok := toString(item)
			if !ok {
				return nil, fmt.Errorf("cannot use %T as list item", item)
			}
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("cannot use %T as list", v)
	}
	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

func toUUID(v any) (uuid.UUID, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, nil
	case [16]byte:
		return uuid.UUID(x), nil
	case string:
		return uuid.Parse(strings.TrimSpace(x))
	default:
		return uuid.UUID{}, fmt.Errorf("cannot use %T as uuid", v)
	}
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case fmt.Stringer:
		return x.String(), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}
