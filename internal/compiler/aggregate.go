package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/transform"
)

// reduction is one built aggregate bound to its alias.
type reduction struct {
	alias string
	expr  plan.Expr
}

// aggregates is the aggregate plan builder. Reductions keep declaration
// order.
func (cc *compilation) aggregates(exprs []transform.AggregateExpression) ([]reduction, error) {
	out := make([]reduction, 0, len(exprs))
	for _, a := range exprs {
		e, err := cc.aggregate(a)
		if err != nil {
			return nil, err
		}
		out = append(out, reduction{alias: a.Alias, expr: e})
	}
	return out, nil
}

func (cc *compilation) aggregate(a transform.AggregateExpression) (plan.Expr, error) {
	var red *plan.Reduce
	if a.Method.Kind == transform.MethodCount {
		red = &plan.Reduce{Method: a.Method, Of: ir.TypeInt64}
	} else {
		input, err := cc.resolve(a.Path)
		if err != nil {
			return nil, err
		}
		red, err = cc.reduction(a, input)
		if err != nil {
			return nil, err
		}
	}

	if a.ResultType == nil {
		return red, nil
	}
	target := a.ResultType.AsNonNullable()
	if !plan.CanConvert(red.Of, target) {
		return nil, &CompileError{
			Code:    ErrCodeUnsupportedConversion,
			Message: fmt.Sprintf("cannot convert %s result %s to %s", a.Method, red.Of, target),
			Method:  a.Method.String(),
			Path:    transform.Format(a.Path),
			Type:    red.Of.String(),
		}
	}
	return &plan.Convert{Source: red, Target: target}, nil
}

// reduction checks the method against the resolved input type and picks
// the result type.
//
//	min, max       String, numerics      input type, nullable
//	sum            Int32, Int64          Int64
//	               Float64, Decimal      same
//	average        Int32, Int64, Float64 Float64, nullable
//	               Decimal               Decimal, nullable
//	countdistinct  primitives, Dynamic   Int64
//	custom         registered types      registered result type
func (cc *compilation) reduction(a transform.AggregateExpression, input plan.Expr) (*plan.Reduce, error) {
	t := input.Type()
	unsupported := func() error {
		return &CompileError{
			Code:    ErrCodeUnsupportedAggregationType,
			Message: fmt.Sprintf("%s is not defined for %s", a.Method, t.AsNonNullable()),
			Method:  a.Method.String(),
			Path:    transform.Format(a.Path),
			Type:    t.String(),
		}
	}

	red := &plan.Reduce{Method: a.Method, Input: input}
	switch a.Method.Kind {
	case transform.MethodMin, transform.MethodMax:
		if !t.Kind.IsOrdered() {
			return nil, unsupported()
		}
		red.Of = t.AsNullable()

	case transform.MethodSum:
		switch t.Kind {
		case ir.KindInt32, ir.KindInt64:
			red.Of = ir.TypeInt64
		case ir.KindFloat64, ir.KindDecimal:
			red.Of = t.AsNonNullable()
		default:
			return nil, unsupported()
		}

	case transform.MethodAverage:
		switch t.Kind {
		case ir.KindInt32, ir.KindInt64, ir.KindFloat64:
			red.Of = ir.TypeFloat64.AsNullable()
		case ir.KindDecimal:
			red.Of = ir.TypeDecimal.AsNullable()
		default:
			return nil, unsupported()
		}

	case transform.MethodCountDistinct:
		if !t.Kind.IsPrimitive() && t.Kind != ir.KindDynamic {
			return nil, unsupported()
		}
		red.Of = ir.TypeInt64

	case transform.MethodCustom:
		h, ok := cc.lookup(a.Method.Label, t)
		if !ok {
			return nil, &CompileError{
				Code:    ErrCodeAggregationNotSupportedForType,
				Message: cc.missingCustom(a.Method.Label, t),
				Method:  a.Method.String(),
				Path:    transform.Format(a.Path),
				Type:    t.String(),
			}
		}
		red.Of = h.Result
		red.Fn = h.Fn

	default:
		return nil, &CompileError{
			Code:    ErrCodeUnsupportedAggregationType,
			Message: fmt.Sprintf("unknown aggregate method %s", a.Method),
			Method:  a.Method.String(),
			Path:    transform.Format(a.Path),
			Type:    t.String(),
		}
	}
	return red, nil
}

// missingCustom describes a failed custom lookup and lists the input types
// the registry does hold for the label.
func (cc *compilation) missingCustom(label string, t ir.Type) string {
	msg := fmt.Sprintf("no custom aggregate %q registered for %s", label, t.AsNonNullable())
	l, ok := cc.reg.(labeler)
	if !ok {
		return msg
	}
	var have []string
	for _, s := range l.Labels() {
		if strings.HasPrefix(s, label+"(") {
			have = append(have, s)
		}
	}
	if len(have) == 0 {
		return msg
	}
	return msg + "; registered: " + strings.Join(have, ", ")
}
