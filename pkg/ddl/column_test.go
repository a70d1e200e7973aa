package ddl

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func col(typ string) *ColumnDef {
	return &ColumnDef{TypeName: typ, name: "c", table: "t"}
}

func floatPtr(f float64) *float64 { return &f }

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		name    string
		column  *ColumnDef
		dialect string
		in      any
		want    any
	}{
		{"integer from string", col(TypeInteger), "sqlite", "42", int64(42)},
		{"integer from whole float", col(TypeInteger), "sqlite", 3.0, int64(3)},
		{"float from string", col(TypeFloat), "sqlite", "1.5", 1.5},
		{"decimal keeps precision", col(TypeDecimal), "sqlite", "10.10", "10.1"},
		{"decimal from int", col(TypeDecimal), "sqlite", 7, "7"},
		{"bool on postgres", col(TypeBool), "postgresql", "yes", true},
		{"bool elsewhere", col(TypeBool), "sqlite", true, int64(1)},
		{"date", col(TypeDate), "sqlite", "2024-03-01T10:00:00Z", "2024-03-01"},
		{"time", col(TypeTime), "sqlite", "2024-03-01 10:11:12", "10:11:12"},
		{"timestamp from time", col(TypeTimestamp), "sqlite", time.Date(2024, 3, 1, 10, 11, 12, 0, time.UTC), "2024-03-01 10:11:12"},
		{"array from slice", col(TypeArray), "sqlite", []any{"a", 1}, `["a",1]`},
		{"json string is compacted", col(TypeJSON), "sqlite", `{ "a" : [1, 2] }`, `{"a":[1,2]}`},
		{"set is sorted and unique", col(TypeSet), "sqlite", []string{"b", "a", "b"}, "a,b"},
		{"list keeps order", col(TypeList), "sqlite", "b, a", "b,a"},
		{"uuid is canonical", col(TypeUUID), "sqlite", "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"string from number", col(TypeString), "sqlite", 12, "12"},
		{"enum member", &ColumnDef{TypeName: TypeEnum, Enum: []string{"red", "blue"}}, "sqlite", "blue", "blue"},
		{"nullable nil", &ColumnDef{TypeName: TypeString, Nullable: true}, "sqlite", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.column.SanitizeValue(tt.in, tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := tt.column.SanitizeValue(got, tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, got, again, "sanitizing twice changes nothing")
		})
	}
}

func TestSanitizeValueRejects(t *testing.T) {
	tests := []struct {
		name   string
		column *ColumnDef
		in     any
	}{
		{"required", col(TypeString), nil},
		{"fractional integer", col(TypeInteger), 1.5},
		{"not a number", col(TypeFloat), "abc"},
		{"too long", &ColumnDef{TypeName: TypeString, Length: 3}, "abcd"},
		{"not in enum", &ColumnDef{TypeName: TypeEnum, Enum: []string{"red"}}, "green"},
		{"below range", &ColumnDef{TypeName: TypeRange, Min: floatPtr(1), Max: floatPtr(5)}, 0},
		{"above range", &ColumnDef{TypeName: TypeRange, Min: floatPtr(1), Max: floatPtr(5)}, "5.5"},
		{"bad json", col(TypeArray), "[1,"},
		{"bad uuid", col(TypeUUID), "nope"},
		{"bad date", col(TypeDate), "yesterday"},
		{"bad bool", col(TypeBool), "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.column.SanitizeValue(tt.in, "sqlite")
			require.Error(t, err)
			assert.True(t, IsInvalidValueErr(err))
		})
	}
}

func TestInterpretValue(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name    string
		column  *ColumnDef
		raw     any
		address string
		want    any
	}{
		{"integer from bytes", col(TypeInteger), []byte("12"), "", int64(12)},
		{"float", col(TypeFloat), int64(2), "", 2.0},
		{"decimal", col(TypeDecimal), "1.25", "", decimal.RequireFromString("1.25")},
		{"bool from int", col(TypeBool), int64(1), "", true},
		{"bool from text", col(TypeBool), "f", "", false},
		{"date", col(TypeDate), "2024-03-01", "", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"time", col(TypeTime), "08:30:00", "", "08:30:00"},
		{"array", col(TypeArray), `["a",{"b":1}]`, "", []any{"a", map[string]any{"b": float64(1)}}},
		{"array element", col(TypeArray), `["a",{"b":1}]`, "1.b", float64(1)},
		{"missing element", col(TypeArray), `["a"]`, "3", nil},
		{"set", col(TypeSet), "a,b", "", []string{"a", "b"}},
		{"empty set", col(TypeSet), "", "", []string{}},
		{"uuid", col(TypeUUID), id.String(), "", id.String()},
		{"null", col(TypeInteger), nil, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.column.InterpretValue(tt.raw, tt.address, "sqlite")
			require.NoError(t, err)
			if d, ok := tt.want.(decimal.Decimal); ok {
				require.IsType(t, decimal.Decimal{}, got)
				assert.True(t, d.Equal(got.(decimal.Decimal)))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpretValueAddressOnScalar(t *testing.T) {
	_, err := col(TypeString).InterpretValue("x", "0", "sqlite")
	require.Error(t, err)
	assert.True(t, IsInvalidValueErr(err))
}
