package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aggc/internal/ir"
)

func TestNorthwind(t *testing.T) {
	m := Northwind()
	assert.Equal(t, []string{"Product", "Category", "Supplier", "Address"}, m.TypeNames())
	assert.True(t, m.IsOpen("Product"))

	p, ok := m.PropertyType("Product", "Category")
	require.True(t, ok)
	assert.Equal(t, ir.EntityType("Category").AsNullable(), p.Type)
}

func TestProducts(t *testing.T) {
	products := Products()
	require.Len(t, products, 5)

	last := products[4].(ir.Record)
	assert.Equal(t, ir.Null{}, last.Get("Category"))
	assert.Equal(t, ir.Null{}, last.Get("Color"))
	assert.Equal(t, ir.String("red"), products[0].(ir.Record).Get("Color"))
}
