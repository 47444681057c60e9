package compiler

import (
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/shape"
)

// binding is one named cell of a synthesized container.
type binding struct {
	name  string
	expr  plan.Expr
	shape *shape.Shape // set when expr builds a nested container
}

// synthesize builds the shape descriptor and the construct expression for
// an ordered list of bindings. Flatten wrappers, grouping keys, nested
// sub-keys and aggregate results all go through here.
func synthesize(bindings []binding) *plan.Construct {
	fields := make([]shape.Field, len(bindings))
	values := make([]plan.Expr, len(bindings))
	for i, b := range bindings {
		if b.shape != nil {
			fields[i] = shape.Sub(b.name, b.shape)
		} else {
			fields[i] = shape.Leaf(b.name, b.expr.Type())
		}
		values[i] = b.expr
	}
	return &plan.Construct{Shape: shape.New(fields...), Values: values}
}

// synthesizeOutput is the result shape synthesizer: grouping-only requests
// project the key itself; otherwise aliases in declaration order, followed
// by the key under plan.GroupByField when grouping is present.
func synthesizeOutput(reds []reduction, keyShape *shape.Shape, grouped, aggregated bool) (plan.Expr, *shape.Shape) {
	if grouped && !aggregated {
		return &plan.GroupKey{Shape: keyShape}, keyShape
	}

	bindings := make([]binding, 0, len(reds)+1)
	for _, r := range reds {
		bindings = append(bindings, binding{name: r.alias, expr: r.expr})
	}
	if grouped {
		bindings = append(bindings, binding{
			name:  plan.GroupByField,
			expr:  &plan.GroupKey{Shape: keyShape},
			shape: keyShape,
		})
	}
	out := synthesize(bindings)
	return out, out.Shape
}
