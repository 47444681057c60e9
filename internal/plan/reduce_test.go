package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aggc/internal/ir"
)

func TestSum(t *testing.T) {
	tests := []struct {
		name   string
		values []ir.Value
		result ir.Type
		want   string
	}{
		{"ints", []ir.Value{ir.Int(1), ir.Null{}, ir.Int(2)}, ir.TypeInt64, "3"},
		{"empty ints", nil, ir.TypeInt64, "0"},
		{"floats", []ir.Value{ir.Float(0.5), ir.Float(0.25)}, ir.TypeFloat64, "0.75"},
		{"decimals", []ir.Value{ir.MustDecimal("0.1"), ir.MustDecimal("0.2")}, ir.TypeDecimal, "0.3"},
		{"empty decimals", []ir.Value{ir.Null{}}, ir.TypeDecimal, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sum(tt.values, tt.result)
			require.NoError(t, err)
			b, err := ir.MarshalValue(got)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))
		})
	}
}

func TestSum_Overflow(t *testing.T) {
	_, err := sum([]ir.Value{ir.Int(1 << 62), ir.Int(1 << 62)}, ir.TypeInt64)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflow")
}

func TestAverage(t *testing.T) {
	got, err := average([]ir.Value{ir.Int(1), ir.Int(2)}, ir.TypeFloat64)
	require.NoError(t, err)
	assert.Equal(t, ir.Float(1.5), got)

	got, err = average([]ir.Value{ir.MustDecimal("1"), ir.MustDecimal("2"), ir.Null{}}, ir.TypeDecimal)
	require.NoError(t, err)
	assert.True(t, ir.Equal(ir.MustDecimal("1.5"), got))

	got, err = average([]ir.Value{ir.Null{}}, ir.TypeFloat64)
	require.NoError(t, err)
	assert.Equal(t, ir.Null{}, got)
}

func TestExtreme(t *testing.T) {
	values := []ir.Value{ir.String("b"), ir.Null{}, ir.String("a"), ir.String("c")}
	lo, err := extreme(values, -1)
	require.NoError(t, err)
	assert.Equal(t, ir.String("a"), lo)
	hi, err := extreme(values, 1)
	require.NoError(t, err)
	assert.Equal(t, ir.String("c"), hi)

	none, err := extreme([]ir.Value{ir.Null{}}, 1)
	require.NoError(t, err)
	assert.Equal(t, ir.Null{}, none)

	_, err = extreme([]ir.Value{ir.Bool(true), ir.Bool(false)}, 1)
	assert.Error(t, err)
}

func TestCountDistinct_MatchesGroupingEquality(t *testing.T) {
	values := []ir.Value{
		ir.Int(1), ir.Int(1), ir.Float(1),
		ir.MustDecimal("1.0"), ir.MustDecimal("1.00"),
		ir.Float(0), ir.Float(-0.0),
		ir.Null{}, ir.Null{},
		ir.String("x"),
	}
	// Int 1, Float 1, Decimal 1, Float 0, Null, "x"
	assert.Equal(t, 6, countDistinct(values))

	for i, a := range values {
		for j, b := range values {
			if ir.Equal(a, b) {
				assert.Equal(t, ir.HashValue(a), ir.HashValue(b), "values %d and %d", i, j)
			}
		}
	}
}

func TestConvertValue(t *testing.T) {
	tests := []struct {
		in   ir.Value
		to   ir.Type
		want ir.Value
	}{
		{ir.Int(3), ir.TypeFloat64, ir.Float(3)},
		{ir.Float(2.9), ir.TypeInt64, ir.Int(2)},
		{ir.Float(-2.9), ir.TypeInt32, ir.Int(-2)},
		{ir.MustDecimal("7.9"), ir.TypeInt64, ir.Int(7)},
		{ir.Int(5), ir.TypeString, ir.String("5")},
		{ir.String("12"), ir.TypeInt32, ir.Int(12)},
		{ir.String("true"), ir.TypeBool, ir.Bool(true)},
		{ir.Null{}, ir.TypeInt32, ir.Null{}},
	}
	for _, tt := range tests {
		got, err := ConvertValue(tt.in, tt.to)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	dec, err := ConvertValue(ir.Float(0.5), ir.TypeDecimal)
	require.NoError(t, err)
	assert.True(t, ir.Equal(ir.MustDecimal("0.5"), dec))

	_, err = ConvertValue(ir.Int(1<<40), ir.TypeInt32)
	assert.Error(t, err)
	_, err = ConvertValue(ir.Bool(true), ir.TypeInt32)
	assert.Error(t, err)
}

func TestCanConvert(t *testing.T) {
	assert.True(t, CanConvert(ir.TypeInt32, ir.TypeDecimal))
	assert.True(t, CanConvert(ir.TypeDynamic, ir.TypeFloat64))
	assert.True(t, CanConvert(ir.TypeBool, ir.TypeString))
	assert.False(t, CanConvert(ir.TypeBool, ir.TypeInt32))
	assert.False(t, CanConvert(ir.EntityType("Category"), ir.TypeString))
	assert.False(t, CanConvert(ir.TypeString, ir.EntityType("Category")))
}
