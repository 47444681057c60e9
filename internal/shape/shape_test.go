package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aggc/internal/ir"
)

func categoryKey() *Shape {
	return New(
		Leaf("ProductName", ir.TypeString.AsNullable()),
		Sub("Category", New(Leaf("CategoryName", ir.TypeString))),
	)
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "{ProductName: string?, Category: {CategoryName: string}}", categoryKey().String())
	var nilShape *Shape
	assert.Equal(t, "{}", nilShape.String())
}

func TestShape_Lookup(t *testing.T) {
	s := categoryKey()
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.Index("Category"))
	assert.Equal(t, -1, s.Index("Missing"))
	f, ok := s.Field("Category")
	require.True(t, ok)
	assert.NotNil(t, f.Nested)
	assert.Equal(t, []string{"ProductName", "Category"}, s.Names())
	assert.Equal(t, []string{"ProductName", "Category/CategoryName"}, s.Leaves())
}

func TestShape_Conforms(t *testing.T) {
	s := categoryKey()

	ok := ir.NewContainer(
		ir.P("ProductName", ir.String("Chai")),
		ir.P("Category", ir.NewContainer(ir.P("CategoryName", ir.String("Beverages")))),
	)
	assert.NoError(t, s.Conforms(ok))

	tests := []struct {
		name string
		c    *ir.Container
		want string
	}{
		{"missing", ir.NewContainer(ir.P("ProductName", ir.Null{})), `missing field "Category"`},
		{"order", ir.NewContainer(ir.P("Category", ir.Null{}), ir.P("ProductName", ir.Null{})), `field "ProductName": found "Category"`},
		{"not nested", ir.NewContainer(ir.P("ProductName", ir.Null{}), ir.P("Category", ir.String("x"))), "expected container"},
		{"extra", ir.NewContainer(
			ir.P("ProductName", ir.Null{}),
			ir.P("Category", ir.NewContainer(ir.P("CategoryName", ir.String("a")))),
			ir.P("Extra", ir.Int(1)),
		), `unexpected field "Extra"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Conforms(tt.c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
