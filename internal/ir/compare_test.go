package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null equals null", Null{}, Null{}, true},
		{"nil is null", nil, Null{}, true},
		{"null vs value", Null{}, Int(0), false},
		{"ints", Int(4), Int(4), true},
		{"int vs float", Int(1), Float(1), false},
		{"negative zero", Float(math.Copysign(0, -1)), Float(0), true},
		{"nan", Float(math.NaN()), Float(math.NaN()), true},
		{"decimal scale", MustDecimal("1.50"), MustDecimal("1.5"), true},
		{"decimal differs", MustDecimal("1.51"), MustDecimal("1.5"), false},
		{"strings", String("a"), String("a"), true},
		{"record missing is null", Record{"a": Int(1), "b": Null{}}, Record{"a": Int(1)}, true},
		{"record differs", Record{"a": Int(1)}, Record{"a": Int(2)}, false},
		{
			"containers",
			NewContainer(P("a", Int(1)), P("b", String("x"))),
			NewContainer(P("a", Int(1)), P("b", String("x"))),
			true,
		},
		{
			"container names matter",
			NewContainer(P("a", Int(1))),
			NewContainer(P("b", Int(1))),
			false,
		},
		{
			"container length matters",
			NewContainer(P("a", Int(1))),
			NewContainer(P("a", Int(1)), P("b", Int(2))),
			false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Equal(tc.a, tc.b))
			assert.Equal(t, tc.want, Equal(tc.b, tc.a), "Equal must be symmetric")
			if tc.want {
				assert.Equal(t, HashValue(tc.a), HashValue(tc.b), "equal values must hash equally")
			}
		})
	}
}

func TestHash_DistinguishesTypes(t *testing.T) {
	assert.NotEqual(t, HashValue(Int(1)), HashValue(Float(1)))
	assert.NotEqual(t, HashValue(String("1")), HashValue(Int(1)))
	assert.NotEqual(t, HashValue(Null{}), HashValue(String("")))
}

func TestCompare(t *testing.T) {
	c, err := Compare(String("a"), String("b"))
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = Compare(Int(5), Int(2))
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = Compare(MustDecimal("2.0"), MustDecimal("2"))
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	_, err = Compare(Int(1), Float(1))
	assert.Error(t, err)

	_, err = Compare(Bool(true), Bool(false))
	assert.Error(t, err)
}
