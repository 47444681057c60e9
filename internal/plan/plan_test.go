package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aggc/internal/config"
	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/shape"
	"github.com/roach88/aggc/internal/transform"
)

func product(name string, supplier int64, category ir.Value) ir.Value {
	return ir.Record{
		"ProductName": ir.String(name),
		"SupplierID":  ir.Int(supplier),
		"Category":    category,
	}
}

func category(name string) ir.Value {
	return ir.Record{"CategoryName": ir.String(name)}
}

var productType = ir.EntityType("Product")

func it() *Param { return &Param{Of: productType} }

// groupedSum builds: group by ProductName, sum SupplierID as Total.
func groupedSum() *Plan {
	keyShape := shape.New(shape.Leaf("ProductName", ir.TypeString))
	key := &Construct{Shape: keyShape, Values: []Expr{&Member{Source: it(), Name: "ProductName", Of: ir.TypeString}}}
	total := &Reduce{Method: transform.Sum, Input: &Member{Source: it(), Name: "SupplierID", Of: ir.TypeInt32}, Of: ir.TypeInt64}
	out := shape.New(shape.Leaf("Total", ir.TypeInt64), shape.Sub(GroupByField, keyShape))
	return New("Product", config.ModeInMemory, true, out,
		&Group{Key: key},
		&Project{Output: &Construct{Shape: out, Values: []Expr{total, &GroupKey{Shape: keyShape}}}},
	)
}

func TestExecute_GroupedSum(t *testing.T) {
	p := groupedSum()
	rows, err := p.Execute(context.Background(), []ir.Value{
		product("Chai", 1, ir.Null{}),
		product("Chang", 2, ir.Null{}),
		product("Chai", 3, ir.Null{}),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, `{"Total":4,"$groupby":{"ProductName":"Chai"}}`, rows[0].String())
	assert.Equal(t, `{"ProductName":"Chai","Total":4}`, View(rows[0]).String())
	assert.Equal(t, `{"ProductName":"Chang","Total":2}`, View(rows[1]).String())
	assert.NoError(t, p.Output.Conforms(rows[1]))
}

func TestExecute_GroupedEmptyInput(t *testing.T) {
	rows, err := groupedSum().Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestExecute_EmptyKeySinglePartition(t *testing.T) {
	out := shape.New(
		shape.Leaf("Count", ir.TypeInt64),
		shape.Leaf("Sum", ir.TypeInt64),
		shape.Leaf("Min", ir.TypeInt32.AsNullable()),
		shape.Leaf("Avg", ir.TypeFloat64.AsNullable()),
		shape.Leaf("Distinct", ir.TypeInt64),
	)
	supplier := &Member{Source: it(), Name: "SupplierID", Of: ir.TypeInt32}
	p := New("Product", config.ModeInMemory, true, out,
		&Group{},
		&Project{Output: &Construct{Shape: out, Values: []Expr{
			&Reduce{Method: transform.Count, Of: ir.TypeInt64},
			&Reduce{Method: transform.Sum, Input: supplier, Of: ir.TypeInt64},
			&Reduce{Method: transform.Min, Input: supplier, Of: ir.TypeInt32.AsNullable()},
			&Reduce{Method: transform.Average, Input: supplier, Of: ir.TypeFloat64.AsNullable()},
			&Reduce{Method: transform.CountDistinct, Input: supplier, Of: ir.TypeInt64},
		}}},
	)

	rows, err := p.Execute(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1, "aggregation without grouping yields one record even for empty input")
	assert.Equal(t, `{"Count":0,"Sum":0,"Min":null,"Avg":null,"Distinct":0}`, rows[0].String())

	rows, err = p.Execute(context.Background(), []ir.Value{
		product("Chai", 4, ir.Null{}),
		product("Chang", 2, ir.Null{}),
		product("Aniseed", 4, ir.Null{}),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `{"Count":3,"Sum":10,"Min":2,"Avg":3.3333333333333335,"Distinct":2}`, rows[0].String())
}

func TestExecute_NullGuard(t *testing.T) {
	nav := &Member{Source: it(), Name: "Category", Of: ir.EntityType("Category").AsNullable()}
	guarded := &NullGuard{
		Source: nav,
		Body:   &Member{Source: &Guarded{Of: ir.EntityType("Category")}, Name: "CategoryName", Of: ir.TypeString},
	}
	unguarded := &Member{Source: nav, Name: "CategoryName", Of: ir.TypeString}

	build := func(e Expr) *Plan {
		keyShape := shape.New(shape.Sub("Category", shape.New(shape.Leaf("CategoryName", e.Type()))))
		key := &Construct{Shape: keyShape, Values: []Expr{
			&Construct{Shape: keyShape.Fields[0].Nested, Values: []Expr{e}},
		}}
		return New("Product", config.ModeInMemory, true, keyShape,
			&Group{Key: key},
			&Project{Output: &GroupKey{Shape: keyShape}},
		)
	}
	records := []ir.Value{
		product("Chai", 1, category("Beverages")),
		product("Orphan", 2, ir.Null{}),
	}

	rows, err := build(guarded).Execute(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `{"Category":{"CategoryName":"Beverages"}}`, rows[0].String())
	assert.Equal(t, `{"Category":{"CategoryName":null}}`, rows[1].String())

	_, err = build(unguarded).Execute(context.Background(), records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNullReference))
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := groupedSum().Execute(ctx, []ir.Value{product("Chai", 1, ir.Null{})})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_Binary(t *testing.T) {
	price := &Member{Source: it(), Name: "Price", Of: ir.TypeFloat64.AsNullable()}
	limit := &Member{Source: it(), Name: "Limit", Of: ir.TypeFloat64}
	cheap := &Binary{Op: transform.OpLt, Left: price, Right: limit}
	assert.True(t, cheap.Type().Nullable)

	tests := []struct {
		rec  ir.Record
		want ir.Value
	}{
		{ir.Record{"Price": ir.Float(1), "Limit": ir.Float(2)}, ir.Bool(true)},
		{ir.Record{"Price": ir.Float(3), "Limit": ir.Float(2)}, ir.Bool(false)},
		{ir.Record{"Limit": ir.Float(2)}, ir.Null{}},
	}
	for _, tt := range tests {
		got, err := eval(cheap, &env{elem: tt.rec})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestRender(t *testing.T) {
	p := groupedSum()
	want := "entity: Product\n" +
		"mode: in-memory\n" +
		"null-guards: true\n" +
		"group: {ProductName: $it.ProductName}\n" +
		"project: {Total: sum($it.SupplierID), $groupby: $key}\n" +
		"output: {Total: int64, $groupby: {ProductName: string}}\n"
	assert.Equal(t, want, Render(p))
	assert.Equal(t, p.ID, groupedSum().ID, "plan IDs are deterministic")
	assert.Contains(t, Explain(p), "plan "+p.ID.String())
}

func TestFormatExpr_Guard(t *testing.T) {
	e := &Convert{
		Source: &NullGuard{
			Source: &Member{Source: it(), Name: "Category", Of: ir.EntityType("Category").AsNullable()},
			Body:   &Member{Source: &Guarded{Of: ir.EntityType("Category")}, Name: "CategoryID", Of: ir.TypeInt32},
		},
		Target: ir.TypeDecimal,
	}
	assert.Equal(t, "cast($it.Category?.CategoryID, decimal)", FormatExpr(e))
	assert.Equal(t, ir.TypeDecimal.AsNullable(), e.Type())
}
