package plan

import (
	"fmt"
	"strings"
)

// Explain renders the plan with its ID.
func Explain(p *Plan) string {
	return fmt.Sprintf("plan %s\n%s", p.ID, Render(p))
}

// Render renders the plan body: header, one line per stage and the output
// shape. The text is deterministic and is what the plan ID hashes.
//
//	entity: Product
//	mode: in-memory
//	null-guards: true
//	group: {ProductName: $it.ProductName}
//	project: {Total: sum($it.SupplierID), $groupby: $key}
//	output: {Total: int64, $groupby: {ProductName: string?}}
//
// Inside a null guard the guarded source renders with a "?" suffix, so a
// guarded navigation read shows as "$it.Category?.CategoryName".
func Render(p *Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "entity: %s\n", p.Entity)
	fmt.Fprintf(&b, "mode: %s\n", p.Mode)
	fmt.Fprintf(&b, "null-guards: %t\n", p.NullGuards)
	for _, s := range p.Stages {
		b.WriteString(s.Name())
		b.WriteString(": ")
		switch st := s.(type) {
		case *Flatten:
			writeExpr(&b, st.Wrapper, "")
		case *Group:
			if st.Key == nil {
				b.WriteString("{}")
			} else {
				writeExpr(&b, st.Key, "")
			}
		case *Project:
			writeExpr(&b, st.Output, "")
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "output: %s\n", p.Output)
	return b.String()
}

// FormatExpr renders a single expression.
func FormatExpr(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e, "")
	return b.String()
}

// writeExpr renders e; guarded is the rendering of the enclosing null
// guard's source.
func writeExpr(b *strings.Builder, e Expr, guarded string) {
	switch x := e.(type) {
	case *Param:
		b.WriteString("$it")
	case *Guarded:
		b.WriteString(guarded)
		b.WriteByte('?')
	case *Member:
		writeExpr(b, x.Source, guarded)
		b.WriteByte('.')
		b.WriteString(x.Name)
	case *DynamicMember:
		writeExpr(b, x.Source, guarded)
		fmt.Fprintf(b, "[%q]", x.Name)
	case *Field:
		writeExpr(b, x.Source, guarded)
		fmt.Fprintf(b, "[%d:%s]", x.Index, x.Name)
	case *NullGuard:
		var src strings.Builder
		writeExpr(&src, x.Source, guarded)
		writeExpr(b, x.Body, src.String())
	case *Binary:
		b.WriteByte('(')
		writeExpr(b, x.Left, guarded)
		fmt.Fprintf(b, " %s ", x.Op)
		writeExpr(b, x.Right, guarded)
		b.WriteByte(')')
	case *Convert:
		b.WriteString("cast(")
		writeExpr(b, x.Source, guarded)
		fmt.Fprintf(b, ", %s)", x.Target.AsNonNullable())
	case *Construct:
		b.WriteByte('{')
		for i, v := range x.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(x.Shape.Fields[i].Name)
			b.WriteString(": ")
			writeExpr(b, v, guarded)
		}
		b.WriteByte('}')
	case *GroupKey:
		b.WriteString("$key")
	case *Reduce:
		b.WriteString(x.Method.String())
		b.WriteByte('(')
		if x.Input != nil {
			writeExpr(b, x.Input, guarded)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}
