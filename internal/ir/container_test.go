package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainer_PreservesOrder(t *testing.T) {
	c := NewContainer(
		P("ProductName", String("Chai")),
		P("Total", Int(3)),
		P("Category", NewContainer(P("CategoryName", String("Beverages")))),
	)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"ProductName", "Total", "Category"}, c.Names())

	cell, ok := c.At(1)
	require.True(t, ok)
	assert.Equal(t, "Total", cell.Name)
	assert.Equal(t, Int(3), cell.Value)

	_, ok = c.At(3)
	assert.False(t, ok, "index past the last named cell hits the sentinel")
}

func TestContainer_Sentinel(t *testing.T) {
	empty := NewContainer()
	assert.True(t, empty.IsLast())
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Fields())

	c := NewContainer(P("a", Int(1)))
	assert.False(t, c.IsLast())
	assert.True(t, c.Next.IsLast())
}

func TestContainer_Get(t *testing.T) {
	c := NewContainer(P("a", Int(1)), P("b", nil))

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)

	v, ok = c.Get("b")
	require.True(t, ok)
	assert.Equal(t, Null{}, v, "nil values are stored as Null")

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestContainer_MarshalJSONKeepsChainOrder(t *testing.T) {
	c := NewContainer(
		P("z", Int(1)),
		P("a", NewContainer(P("m", String("x")))),
		P("n", Null{}),
	)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":{"m":"x"},"n":null}`, string(data))
}
