package compiler

import (
	"fmt"

	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/model"
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/transform"
)

// resolve is the path accessor resolver. It returns an expression reading
// p from the current stage element.
//
// Precedence:
//  1. a hit in the flattened property map
//  2. the range variable: the record, or the Source cell after flattening
//  3. property, complex and navigation reads on the resolved source,
//     null-guarded when guards are on and the source is nullable
//  4. open property reads as dynamic member reads
//  5. operators and conversions over their resolved operands
func (cc *compilation) resolve(p transform.Path) (plan.Expr, error) {
	if e, ok := cc.flattened[transform.Key(p)]; ok {
		return e, nil
	}

	switch n := p.(type) {
	case *transform.RangeVariable:
		return cc.rangeVar, nil

	case *transform.PropertyAccess:
		return cc.declared(n, n.Source, n.Property)

	case *transform.ComplexAccess:
		return cc.declared(n, n.Source, n.Property)

	case *transform.NavigationAccess:
		return cc.declared(n, n.Source, n.Navigation)

	case *transform.OpenPropertyAccess:
		src, err := cc.resolve(n.Source)
		if err != nil {
			return nil, err
		}
		owner := src.Type()
		if !owner.Kind.IsStructured() || !cc.md.IsOpen(owner.Name) {
			return nil, &CompileError{
				Code:    ErrCodeUnknownProperty,
				Message: fmt.Sprintf("%s is not an open type", owner),
				Path:    transform.Format(n),
				Type:    owner.String(),
			}
		}
		return cc.guard(src, func(from plan.Expr) plan.Expr {
			return &plan.DynamicMember{Source: from, Name: n.Name}
		}), nil

	case *transform.BinaryOp:
		return cc.binary(n)

	case *transform.Convert:
		src, err := cc.resolve(n.Source)
		if err != nil {
			return nil, err
		}
		if !plan.CanConvert(src.Type(), n.Target) {
			return nil, &CompileError{
				Code:    ErrCodeUnsupportedConversion,
				Message: fmt.Sprintf("cannot convert %s to %s", src.Type(), n.Target),
				Path:    transform.Format(n),
				Type:    src.Type().String(),
			}
		}
		return &plan.Convert{Source: src, Target: n.Target.AsNonNullable()}, nil

	default:
		return nil, &CompileError{
			Code:    ErrCodeUnsupportedPathKind,
			Message: fmt.Sprintf("unsupported path node %T", p),
			Path:    transform.Format(p),
		}
	}
}

// declared resolves a read of a property declared on the source's type.
func (cc *compilation) declared(p, source transform.Path, name string) (plan.Expr, error) {
	src, err := cc.resolve(source)
	if err != nil {
		return nil, err
	}
	owner := src.Type()
	if !owner.Kind.IsStructured() {
		return nil, &CompileError{
			Code:    ErrCodeUnknownProperty,
			Message: fmt.Sprintf("cannot read %q from %s", name, owner),
			Path:    transform.Format(p),
			Type:    owner.String(),
		}
	}

	prop, ok := cc.md.PropertyType(owner.Name, name)
	if !ok {
		msg := fmt.Sprintf("%s has no property %q", owner.Name, name)
		if cc.md.IsOpen(owner.Name) {
			msg += "; use an open property read for dynamic properties"
		}
		return nil, &CompileError{
			Code:    ErrCodeUnknownProperty,
			Message: msg,
			Path:    transform.Format(p),
			Type:    owner.String(),
		}
	}
	if err := checkPropertyKind(p, prop); err != nil {
		return nil, err
	}

	return cc.guard(src, func(from plan.Expr) plan.Expr {
		return &plan.Member{Source: from, Name: name, Of: prop.Type}
	}), nil
}

// checkPropertyKind rejects a node that does not match the declared kind,
// e.g. a navigation step over a primitive property.
func checkPropertyKind(p transform.Path, prop model.Property) error {
	var want model.PropertyKind
	switch p.(type) {
	case *transform.NavigationAccess:
		want = model.PropertyNavigation
	case *transform.ComplexAccess:
		want = model.PropertyComplex
	default:
		// Plain property access reads primitives and, for the last segment
		// of a grouping path, whole complex values.
		return nil
	}
	if prop.Kind != want {
		return &CompileError{
			Code:    ErrCodeUnsupportedPathKind,
			Message: fmt.Sprintf("%q is a %s property, not %s", prop.Name, prop.Kind, want),
			Path:    transform.Format(p),
			Type:    prop.Type.String(),
		}
	}
	return nil
}

// guard applies read to src. When guards are on and src is nullable the
// read is wrapped in a null guard so a null source yields null instead of
// failing. Without guards a nullable source still makes the read nullable.
func (cc *compilation) guard(src plan.Expr, read func(plan.Expr) plan.Expr) plan.Expr {
	t := src.Type()
	if !t.Nullable {
		return read(src)
	}
	if cc.guards {
		return &plan.NullGuard{
			Source: src,
			Body:   read(&plan.Guarded{Of: t.AsNonNullable()}),
		}
	}
	e := read(src)
	if m, ok := e.(*plan.Member); ok {
		m.Of = m.Of.AsNullable()
	}
	return e
}

// binary resolves comparison and logical operators. Numeric operands of
// different kinds are widened to the wider kind; a null operand yields
// null at run time.
func (cc *compilation) binary(n *transform.BinaryOp) (plan.Expr, error) {
	left, err := cc.resolve(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := cc.resolve(n.Right)
	if err != nil {
		return nil, err
	}
	lt, rt := left.Type(), right.Type()

	fail := func(msg string) error {
		return &CompileError{
			Code:    ErrCodeUnsupportedConversion,
			Message: msg,
			Path:    transform.Format(n),
			Type:    fmt.Sprintf("%s, %s", lt, rt),
		}
	}

	if n.Op.IsLogical() {
		for _, t := range []ir.Type{lt, rt} {
			if t.Kind != ir.KindBool && t.Kind != ir.KindDynamic {
				return nil, fail(fmt.Sprintf("%s needs bool operands", n.Op))
			}
		}
		return &plan.Binary{Op: n.Op, Left: left, Right: right}, nil
	}

	if lt.Kind == ir.KindDynamic || rt.Kind == ir.KindDynamic {
		return &plan.Binary{Op: n.Op, Left: left, Right: right}, nil
	}
	if !lt.Kind.IsPrimitive() || !rt.Kind.IsPrimitive() {
		return nil, fail(fmt.Sprintf("cannot compare %s with %s", lt, rt))
	}
	if !lt.SameKind(rt) {
		if !lt.Kind.IsNumeric() || !rt.Kind.IsNumeric() {
			return nil, fail(fmt.Sprintf("cannot compare %s with %s", lt, rt))
		}
		wide := wider(lt, rt)
		if !lt.SameKind(wide) {
			left = &plan.Convert{Source: left, Target: wide}
		}
		if !rt.SameKind(wide) {
			right = &plan.Convert{Source: right, Target: wide}
		}
	}
	if n.Op != transform.OpEq && n.Op != transform.OpNe && !lt.Kind.IsOrdered() {
		return nil, fail(fmt.Sprintf("%s has no ordering", lt))
	}
	return &plan.Binary{Op: n.Op, Left: left, Right: right}, nil
}

// numericRank orders numeric kinds by width.
var numericRank = map[ir.Kind]int{
	ir.KindInt32:   0,
	ir.KindInt64:   1,
	ir.KindFloat64: 2,
	ir.KindDecimal: 3,
}

func wider(a, b ir.Type) ir.Type {
	if numericRank[a.Kind] >= numericRank[b.Kind] {
		return a.AsNonNullable()
	}
	return b.AsNonNullable()
}
