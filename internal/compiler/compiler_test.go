package compiler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aggc/internal/config"
	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/shape"
	"github.com/roach88/aggc/internal/testutil"
	"github.com/roach88/aggc/internal/transform"
)

func TestCompile_GroupByProductName(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.GroupBy{
		Properties: []transform.GroupingProperty{leaf("ProductName", prop("ProductName"))},
	}, inMemory)

	assert.False(t, p.Flattened())
	assert.Equal(t, "{ProductName: string}", p.Output.String())
	assert.Equal(t, []string{
		`{"ProductName":"Chai"}`,
		`{"ProductName":"Chang"}`,
		`{"ProductName":"Aniseed Syrup"}`,
		`{"ProductName":"Chef Anton's Cajun Seasoning"}`,
	}, rows(t, p))
}

func TestCompile_GroupByNavigatedProperty(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.GroupBy{
		Properties: []transform.GroupingProperty{
			nested("Category", leaf("CategoryName", navProp("Category", "CategoryName"))),
		},
	}, inMemory)

	assert.Equal(t, "entity: Product\n"+
		"mode: in-memory\n"+
		"null-guards: true\n"+
		"group: {Category: {CategoryName: $it.Category?.CategoryName}}\n"+
		"project: $key\n"+
		"output: {Category: {CategoryName: string?}}\n", plan.Render(p))

	assert.Equal(t, []string{
		`{"Category":{"CategoryName":"Beverages"}}`,
		`{"Category":{"CategoryName":"Condiments"}}`,
		`{"Category":{"CategoryName":null}}`,
	}, rows(t, p))
}

func TestCompile_AggregateSumWithoutGrouping(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.Aggregate{
		Expressions: []transform.AggregateExpression{agg(prop("SupplierID"), transform.Sum, "SupplierID")},
	}, inMemory)

	assert.False(t, p.Flattened(), "no grouping, no flattening")
	assert.Equal(t, "entity: Product\n"+
		"mode: in-memory\n"+
		"null-guards: true\n"+
		"group: {}\n"+
		"project: {SupplierID: sum($it.SupplierID)}\n"+
		"output: {SupplierID: int64}\n", plan.Render(p))
	assert.Equal(t, []string{`{"SupplierID":8}`}, rows(t, p))
}

func TestCompile_CountDistinct(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.Aggregate{
		Expressions: []transform.AggregateExpression{agg(prop("SupplierID"), transform.CountDistinct, "Count")},
	}, inMemory)
	assert.Equal(t, []string{`{"Count":3}`}, rows(t, p))
}

func TestCompile_GroupByWithSum(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.GroupBy{
		Properties: []transform.GroupingProperty{leaf("ProductName", prop("ProductName"))},
		Aggregate: &transform.Aggregate{
			Expressions: []transform.AggregateExpression{agg(prop("SupplierID"), transform.Sum, "SupplierID")},
		},
	}, inMemory)

	assert.True(t, p.Flattened())
	assert.Equal(t, "entity: Product\n"+
		"mode: in-memory\n"+
		"null-guards: true\n"+
		"flatten: {Source: $it, Flattened: {Property0: $it.SupplierID}}\n"+
		"group: {ProductName: $it[0:Source].ProductName}\n"+
		"project: {SupplierID: sum($it[1:Flattened][0:Property0]), $groupby: $key}\n"+
		"output: {SupplierID: int64, $groupby: {ProductName: string}}\n", plan.Render(p))
	assert.Equal(t, []string{
		`{"ProductName":"Chai","SupplierID":4}`,
		`{"ProductName":"Chang","SupplierID":1}`,
		`{"ProductName":"Aniseed Syrup","SupplierID":1}`,
		`{"ProductName":"Chef Anton's Cajun Seasoning","SupplierID":2}`,
	}, rows(t, p))
}

func TestCompile_FlattenTwoNavigatedPaths(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.GroupBy{
		Properties: []transform.GroupingProperty{leaf("ProductName", prop("ProductName"))},
		Aggregate: &transform.Aggregate{
			Expressions: []transform.AggregateExpression{
				agg(navProp("Category", "CategoryName"), transform.Max, "MaxCategory"),
				agg(navProp("Supplier", "CompanyName"), transform.CountDistinct, "Suppliers"),
			},
		},
	}, inMemory)

	assert.Equal(t, "entity: Product\n"+
		"mode: in-memory\n"+
		"null-guards: true\n"+
		"flatten: {Source: $it, Flattened: {Property0: $it.Supplier?.CompanyName, Property1: $it.Category?.CategoryName}}\n"+
		"group: {ProductName: $it[0:Source].ProductName}\n"+
		"project: {MaxCategory: max($it[1:Flattened][1:Property1]), Suppliers: countdistinct($it[1:Flattened][0:Property0]), $groupby: $key}\n"+
		"output: {MaxCategory: string?, Suppliers: int64, $groupby: {ProductName: string}}\n", plan.Render(p))

	// Second-declared path at depth 1, first-declared at depth 2.
	flat := p.Stages[0].(*plan.Flatten).Wrapper.Values[1].(*plan.Construct)
	assert.Equal(t, "$it.Supplier?.CompanyName", plan.FormatExpr(flat.Values[0]))
	assert.Equal(t, "$it.Category?.CategoryName", plan.FormatExpr(flat.Values[1]))

	assert.Equal(t, []string{
		`{"ProductName":"Chai","MaxCategory":"Beverages","Suppliers":2}`,
		`{"ProductName":"Chang","MaxCategory":"Beverages","Suppliers":1}`,
		`{"ProductName":"Aniseed Syrup","MaxCategory":"Condiments","Suppliers":1}`,
		`{"ProductName":"Chef Anton's Cajun Seasoning","MaxCategory":"Condiments","Suppliers":1}`,
	}, rows(t, p))
}

func TestCompile_FlattenReverseOrder(t *testing.T) {
	names := []string{"ProductID", "SupplierID", "UnitsInStock", "UnitPrice", "Weight"}
	for n := 2; n <= len(names); n++ {
		t.Run(fmt.Sprintf("%d paths", n), func(t *testing.T) {
			var exprs []transform.AggregateExpression
			for i := 0; i < n; i++ {
				exprs = append(exprs, agg(prop(names[i]), transform.Max, "Max"+names[i]))
			}
			c := newCompiler(t)
			p := mustCompile(t, c, &transform.GroupBy{
				Properties: []transform.GroupingProperty{leaf("Discontinued", prop("Discontinued"))},
				Aggregate:  &transform.Aggregate{Expressions: exprs},
			}, inMemory)

			flat := p.Stages[0].(*plan.Flatten).Wrapper.Values[1].(*plan.Construct)
			require.Len(t, flat.Values, n)
			for i := 0; i < n; i++ {
				cell := n - 1 - i
				assert.Equal(t, fmt.Sprintf("Property%d", cell), flat.Shape.Fields[cell].Name)
				assert.Equal(t, "$it."+names[i], plan.FormatExpr(flat.Values[cell]))
			}
		})
	}
}

func TestCompile_FlattenDeduplicatesPaths(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.GroupBy{
		Properties: []transform.GroupingProperty{leaf("ProductName", prop("ProductName"))},
		Aggregate: &transform.Aggregate{
			Expressions: []transform.AggregateExpression{
				agg(prop("UnitsInStock"), transform.Min, "Lo"),
				agg(prop("UnitsInStock"), transform.Max, "Hi"),
				{Method: transform.Count, Alias: "N"},
			},
		},
	}, inMemory)

	flat := p.Stages[0].(*plan.Flatten).Wrapper.Values[1].(*plan.Construct)
	assert.Equal(t, "{Property0: int32?}", flat.Shape.String())
	assert.Equal(t, []string{
		`{"ProductName":"Chai","Lo":0,"Hi":39,"N":2}`,
		`{"ProductName":"Chang","Lo":17,"Hi":17,"N":1}`,
		`{"ProductName":"Aniseed Syrup","Lo":13,"Hi":13,"N":1}`,
		`{"ProductName":"Chef Anton's Cajun Seasoning","Lo":53,"Hi":53,"N":1}`,
	}, rows(t, p))
}

func TestCompile_CountOnlyDoesNotFlatten(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.GroupBy{
		Properties: []transform.GroupingProperty{leaf("Discontinued", prop("Discontinued"))},
		Aggregate: &transform.Aggregate{
			Expressions: []transform.AggregateExpression{{Method: transform.Count, Alias: "N"}},
		},
	}, inMemory)
	assert.False(t, p.Flattened())
	assert.Equal(t, []string{`{"Discontinued":false,"N":4}`, `{"Discontinued":true,"N":1}`}, rows(t, p))
}

func TestCompile_Idempotent(t *testing.T) {
	req := &transform.GroupBy{
		Properties: []transform.GroupingProperty{
			leaf("ProductName", prop("ProductName")),
			nested("Category", leaf("CategoryName", navProp("Category", "CategoryName"))),
		},
		Aggregate: &transform.Aggregate{
			Expressions: []transform.AggregateExpression{
				agg(prop("UnitPrice"), transform.Sum, "Total"),
				agg(navProp("Supplier", "CompanyName"), transform.Min, "FirstSupplier"),
			},
		},
	}
	c := newCompiler(t)
	first := mustCompile(t, c, req, inMemory)
	second := mustCompile(t, c, req, inMemory)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("recompiling changed the plan (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.ID, second.ID)

	other := mustCompile(t, c, req, translate)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCompile_EmptyInput(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.Aggregate{
		Expressions: []transform.AggregateExpression{
			{Method: transform.Count, Alias: "Count"},
			agg(prop("SupplierID"), transform.Sum, "Sum"),
			agg(prop("UnitPrice"), transform.Sum, "Price"),
			agg(prop("Weight"), transform.Sum, "Weight"),
			agg(prop("SupplierID"), transform.Min, "Min"),
			agg(prop("SupplierID"), transform.Max, "Max"),
			agg(prop("SupplierID"), transform.Average, "Avg"),
			agg(prop("SupplierID"), transform.CountDistinct, "Distinct"),
		},
	}, inMemory)

	out := single(t, p, nil)
	assert.Equal(t, `{"Count":0,"Sum":0,"Price":0,"Weight":0,"Min":null,"Max":null,"Avg":null,"Distinct":0}`, out.String())
	assert.Equal(t, "{Count: int64, Sum: int64, Price: decimal, Weight: float64, Min: int32?, Max: int32?, Avg: float64?, Distinct: int64}", p.Output.String())
}

func TestCompile_DecimalAggregates(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.Aggregate{
		Expressions: []transform.AggregateExpression{
			agg(prop("UnitPrice"), transform.Sum, "Total"),
			agg(prop("UnitPrice"), transform.Average, "Mean"),
			agg(transform.Cast(prop("UnitsInStock"), ir.TypeDecimal), transform.Sum, "Stock"),
		},
	}, inMemory)

	out := single(t, p, testutil.Products())
	total, _ := out.Get("Total")
	assert.Equal(t, "69.00", total.(ir.Decimal).String())
	mean, _ := out.Get("Mean")
	assert.True(t, ir.Equal(ir.MustDecimal("17.25"), mean), "got %v", mean)
	stock, _ := out.Get("Stock")
	assert.True(t, ir.Equal(ir.MustDecimal("122"), stock), "got %v", stock)
}

func TestCompile_DeclaredResultType(t *testing.T) {
	c := newCompiler(t)
	float := ir.TypeFloat64
	p := mustCompile(t, c, &transform.Aggregate{
		Expressions: []transform.AggregateExpression{
			{Path: prop("SupplierID"), Method: transform.Sum, Alias: "Total", ResultType: &float},
		},
	}, inMemory)
	assert.Equal(t, "{Total: float64}", p.Output.String())
	out := single(t, p, testutil.Products())
	v, _ := out.Get("Total")
	assert.Equal(t, ir.Float(8), v)
}

func TestCompile_CustomAggregate(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.Aggregate{
		Expressions: []transform.AggregateExpression{
			agg(prop("Weight"), transform.Custom("stddev"), "Spread"),
			agg(prop("ProductName"), transform.Custom("concat"), "Names"),
		},
	}, inMemory)
	assert.Equal(t, "{Spread: float64?, Names: string}", p.Output.String())

	out := single(t, p, testutil.Products())
	spread, _ := out.Get("Spread")
	assert.InDelta(t, 0.2041241452, float64(spread.(ir.Float)), 1e-9)
	names, _ := out.Get("Names")
	assert.Equal(t, ir.String("Chai,Chang,Aniseed Syrup,Chef Anton's Cajun Seasoning,Chai"), names)
}

func TestCompile_OpenProperty(t *testing.T) {
	c := newCompiler(t)
	p := mustCompile(t, c, &transform.Aggregate{
		Expressions: []transform.AggregateExpression{
			agg(transform.Open(it, "Color"), transform.CountDistinct, "Colors"),
		},
	}, inMemory)
	assert.Equal(t, []string{`{"Colors":3}`}, rows(t, p), "red, blue and null")

	_, err := c.Compile(&transform.Aggregate{
		Expressions: []transform.AggregateExpression{agg(transform.Open(it, "Color"), transform.Min, "Lo")},
	}, inMemory)
	assert.True(t, IsCode(err, ErrCodeUnsupportedAggregationType), "dynamic values have no static ordering: %v", err)

	_, err = c.Compile(&transform.Aggregate{
		Expressions: []transform.AggregateExpression{
			agg(transform.Open(transform.Navigate(it, "Category"), "Color"), transform.CountDistinct, "N"),
		},
	}, inMemory)
	assert.True(t, IsCode(err, ErrCodeUnknownProperty), "Category is closed: %v", err)
}

func TestCompile_ComplexPath(t *testing.T) {
	c := newCompiler(t)
	country := transform.Property(transform.Complex(transform.Navigate(it, "Supplier"), "Address"), "Country")
	p := mustCompile(t, c, &transform.GroupBy{
		Properties: []transform.GroupingProperty{
			nested("Supplier", nested("Address", leaf("Country", country))),
		},
	}, inMemory)

	key := p.Stages[0].(*plan.Group).Key
	inner := key.Values[0].(*plan.Construct).Values[0].(*plan.Construct)
	assert.Equal(t, "$it.Supplier?.Address?.Country", plan.FormatExpr(inner.Values[0]))
	assert.Equal(t, []string{
		`{"Supplier":{"Address":{"Country":"UK"}}}`,
		`{"Supplier":{"Address":{"Country":null}}}`,
		`{"Supplier":{"Address":{"Country":"USA"}}}`,
	}, rows(t, p))
}

func TestCompile_BinaryGroupingKey(t *testing.T) {
	c := newCompiler(t)
	pricier := transform.Binary(transform.OpGt, prop("UnitPrice"), prop("UnitsInStock"))
	p := mustCompile(t, c, &transform.GroupBy{
		Properties: []transform.GroupingProperty{leaf("Pricier", pricier)},
		Aggregate: &transform.Aggregate{
			Expressions: []transform.AggregateExpression{{Method: transform.Count, Alias: "N"}},
		},
	}, inMemory)

	key := p.Stages[0].(*plan.Group).Key
	assert.Equal(t, "($it.UnitPrice gt cast($it.UnitsInStock, decimal))", plan.FormatExpr(key.Values[0]))
	assert.Equal(t, []string{
		`{"Pricier":false,"N":3}`,
		`{"Pricier":true,"N":1}`,
		`{"Pricier":null,"N":1}`,
	}, rows(t, p))
}

func TestCompile_NullPropagation(t *testing.T) {
	req := &transform.GroupBy{
		Properties: []transform.GroupingProperty{
			nested("Category", leaf("CategoryName", navProp("Category", "CategoryName"))),
		},
	}

	tests := []struct {
		name   string
		option config.NullPropagation
		src    Source
		guards bool
	}{
		{"default in-memory", config.NullPropagationDefault, inMemory, true},
		{"default translated", config.NullPropagationDefault, translate, false},
		{"true translated", config.NullPropagationTrue, translate, true},
		{"false in-memory", config.NullPropagationFalse, inMemory, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompiler(t, WithOptions(config.Options{NullPropagation: tt.option}))
			p := mustCompile(t, c, req, tt.src)
			assert.Equal(t, tt.guards, p.NullGuards)

			key := p.Stages[0].(*plan.Group).Key
			leafExpr := key.Values[0].(*plan.Construct).Values[0]
			_, guarded := leafExpr.(*plan.NullGuard)
			assert.Equal(t, tt.guards, guarded)
			assert.True(t, leafExpr.Type().Nullable, "a read through a nullable navigation is nullable either way")

			_, err := p.Execute(context.Background(), testutil.Products())
			if tt.guards {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, plan.ErrNullReference)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  transform.Request
		code ErrorCode
	}{
		{
			name: "nil request",
			req:  nil,
			code: ErrCodeUnsupportedTransformationKind,
		},
		{
			name: "grouping property with path and children",
			req: &transform.GroupBy{Properties: []transform.GroupingProperty{{
				Name:     "Category",
				Path:     transform.Navigate(it, "Category"),
				Children: []transform.GroupingProperty{leaf("CategoryName", navProp("Category", "CategoryName"))},
			}}},
			code: ErrCodeInvalidGroupingPropertyShape,
		},
		{
			name: "grouping property with neither",
			req:  &transform.GroupBy{Properties: []transform.GroupingProperty{{Name: "Empty"}}},
			code: ErrCodeInvalidGroupingPropertyShape,
		},
		{
			name: "aggregate without path",
			req:  &transform.Aggregate{Expressions: []transform.AggregateExpression{{Method: transform.Sum, Alias: "S"}}},
			code: ErrCodeUnsupportedPathKind,
		},
		{
			name: "navigation over a primitive",
			req: &transform.Aggregate{Expressions: []transform.AggregateExpression{
				agg(transform.Property(transform.Navigate(it, "ProductName"), "X"), transform.Max, "M"),
			}},
			code: ErrCodeUnsupportedPathKind,
		},
		{
			name: "sum of strings",
			req:  &transform.Aggregate{Expressions: []transform.AggregateExpression{agg(prop("ProductName"), transform.Sum, "S")}},
			code: ErrCodeUnsupportedAggregationType,
		},
		{
			name: "average of bools",
			req:  &transform.Aggregate{Expressions: []transform.AggregateExpression{agg(prop("Discontinued"), transform.Average, "A")}},
			code: ErrCodeUnsupportedAggregationType,
		},
		{
			name: "min of bools",
			req:  &transform.Aggregate{Expressions: []transform.AggregateExpression{agg(prop("Discontinued"), transform.Min, "M")}},
			code: ErrCodeUnsupportedAggregationType,
		},
		{
			name: "countdistinct of an entity",
			req: &transform.Aggregate{Expressions: []transform.AggregateExpression{
				agg(transform.Navigate(it, "Category"), transform.CountDistinct, "C"),
			}},
			code: ErrCodeUnsupportedAggregationType,
		},
		{
			name: "custom aggregate for an unregistered type",
			req: &transform.Aggregate{Expressions: []transform.AggregateExpression{
				agg(prop("ProductName"), transform.Custom("stddev"), "S"),
			}},
			code: ErrCodeAggregationNotSupportedForType,
		},
		{
			name: "unknown custom label",
			req: &transform.Aggregate{Expressions: []transform.AggregateExpression{
				agg(prop("Weight"), transform.Custom("median"), "M"),
			}},
			code: ErrCodeAggregationNotSupportedForType,
		},
		{
			name: "unknown property",
			req:  &transform.GroupBy{Properties: []transform.GroupingProperty{leaf("Nope", prop("Nope"))}},
			code: ErrCodeUnknownProperty,
		},
		{
			name: "cast bool to int",
			req: &transform.GroupBy{Properties: []transform.GroupingProperty{
				leaf("D", transform.Cast(prop("Discontinued"), ir.TypeInt32)),
			}},
			code: ErrCodeUnsupportedConversion,
		},
		{
			name: "compare string with number",
			req: &transform.GroupBy{Properties: []transform.GroupingProperty{
				leaf("B", transform.Binary(transform.OpEq, prop("ProductName"), prop("SupplierID"))),
			}},
			code: ErrCodeUnsupportedConversion,
		},
		{
			name: "duplicate alias",
			req: &transform.Aggregate{Expressions: []transform.AggregateExpression{
				{Method: transform.Count, Alias: "N"},
				{Method: transform.Count, Alias: "N"},
			}},
			code: ErrCodeDuplicateAlias,
		},
		{
			name: "reserved alias",
			req: &transform.GroupBy{
				Properties: []transform.GroupingProperty{leaf("ProductName", prop("ProductName"))},
				Aggregate: &transform.Aggregate{Expressions: []transform.AggregateExpression{
					{Method: transform.Count, Alias: plan.GroupByField},
				}},
			},
			code: ErrCodeDuplicateAlias,
		},
	}

	c := newCompiler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.Compile(tt.req, inMemory)
			require.Error(t, err)
			assert.Nil(t, p, "compilation is all-or-nothing")
			assert.Equal(t, tt.code, CodeOf(err), "error: %v", err)
		})
	}
}

func TestCompile_ErrorDetails(t *testing.T) {
	c := newCompiler(t)
	_, err := c.Compile(&transform.Aggregate{Expressions: []transform.AggregateExpression{
		agg(navProp("Category", "CategoryName"), transform.Sum, "S"),
	}}, inMemory)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "sum", ce.Method)
	assert.Equal(t, "Category/CategoryName", ce.Path)
	assert.Equal(t, "string?", ce.Type)
	assert.Equal(t, "UNSUPPORTED_AGGREGATION_TYPE: sum is not defined for string (method=sum, path=Category/CategoryName, type=string?)", err.Error())
}

func TestCompile_CustomLookupListsRegistrations(t *testing.T) {
	c := newCompiler(t)
	_, err := c.Compile(&transform.Aggregate{Expressions: []transform.AggregateExpression{
		agg(prop("ProductName"), transform.Custom("stddev"), "S"),
	}}, inMemory)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, `no custom aggregate "stddev" registered for string; registered: stddev(decimal), stddev(float64), stddev(int32), stddev(int64)`, ce.Message)

	_, err = c.Compile(&transform.Aggregate{Expressions: []transform.AggregateExpression{
		agg(prop("Weight"), transform.Custom("median"), "M"),
	}}, inMemory)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, `no custom aggregate "median" registered for float64`, ce.Message)
}

func TestCompile_WithoutRegistry(t *testing.T) {
	c := New(testutil.Northwind())
	_, err := c.Compile(&transform.Aggregate{Expressions: []transform.AggregateExpression{
		agg(prop("Weight"), transform.Custom("stddev"), "S"),
	}}, inMemory)
	assert.True(t, IsCode(err, ErrCodeAggregationNotSupportedForType))
}

func TestCompile_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := newCompiler(t, WithLogger(logger))
	mustCompile(t, c, &transform.GroupBy{
		Properties: []transform.GroupingProperty{leaf("ProductName", prop("ProductName"))},
		Aggregate: &transform.Aggregate{
			Expressions: []transform.AggregateExpression{agg(prop("SupplierID"), transform.Sum, "Total")},
		},
	}, inMemory)

	assert.Contains(t, buf.String(), "flattening aggregate paths")
	assert.Contains(t, buf.String(), "plan assembled")
	assert.Contains(t, buf.String(), "flattened=true")
}

func TestSynthesize_SharedShapeKind(t *testing.T) {
	c := synthesize([]binding{
		{name: "A", expr: &plan.Param{Of: ir.TypeInt32}},
		{name: "B", expr: &plan.Construct{Shape: shape.New()}, shape: shape.New()},
	})
	want := shape.New(shape.Leaf("A", ir.TypeInt32), shape.Sub("B", shape.New()))
	if diff := cmp.Diff(want, c.Shape); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}
