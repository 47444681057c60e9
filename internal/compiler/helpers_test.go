package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/aggc/internal/config"
	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/registry"
	"github.com/roach88/aggc/internal/testutil"
	"github.com/roach88/aggc/internal/transform"
)

var (
	it        = transform.It
	inMemory  = Source{Entity: "Product", Mode: config.ModeInMemory}
	translate = Source{Entity: "Product", Mode: config.ModeTranslated}
)

func prop(name string) transform.Path { return transform.Property(it, name) }

// navProp is Nav/Prop, e.g. Category/CategoryName.
func navProp(nav, name string) transform.Path {
	return transform.Property(transform.Navigate(it, nav), name)
}

func agg(path transform.Path, m transform.Method, alias string) transform.AggregateExpression {
	return transform.AggregateExpression{Path: path, Method: m, Alias: alias}
}

func leaf(name string, path transform.Path) transform.GroupingProperty {
	return transform.GroupingProperty{Name: name, Path: path}
}

func nested(name string, children ...transform.GroupingProperty) transform.GroupingProperty {
	return transform.GroupingProperty{Name: name, Children: children}
}

func newCompiler(t *testing.T, opts ...Option) *Compiler {
	t.Helper()
	reg := registry.New()
	require.NoError(t, registry.RegisterStandard(reg))
	return New(testutil.Northwind(), append([]Option{WithRegistry(reg)}, opts...)...)
}

func mustCompile(t *testing.T, c *Compiler, req transform.Request, src Source) *plan.Plan {
	t.Helper()
	p, err := c.Compile(req, src)
	require.NoError(t, err)
	return p
}

// rows executes p over the fixture products and renders each viewed row.
func rows(t *testing.T, p *plan.Plan) []string {
	t.Helper()
	out, err := p.Execute(context.Background(), testutil.Products())
	require.NoError(t, err)
	got := make([]string, len(out))
	for i, c := range out {
		require.NoError(t, p.Output.Conforms(c))
		got[i] = plan.View(c).String()
	}
	return got
}

func single(t *testing.T, p *plan.Plan, records []ir.Value) *ir.Container {
	t.Helper()
	out, err := p.Execute(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}
