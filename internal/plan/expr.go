package plan

import (
	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/registry"
	"github.com/roach88/aggc/internal/shape"
	"github.com/roach88/aggc/internal/transform"
)

// Expr is a sealed interface for plan expressions.
// Only the node types in this file implement it.
type Expr interface {
	planExpr() // Sealed - only these types implement it

	// Type is the static type of the expression's value.
	Type() ir.Type
}

// Param is the element flowing through the current stage.
type Param struct {
	Of ir.Type
}

func (*Param) planExpr()       {}
func (e *Param) Type() ir.Type { return e.Of }

// Member reads a modeled property or navigation of a record, or a named
// cell of a container. Reading from null fails with ErrNullReference.
type Member struct {
	Source Expr
	Name   string
	Of     ir.Type
}

func (*Member) planExpr()       {}
func (e *Member) Type() ir.Type { return e.Of }

// DynamicMember reads an open property. Absent properties read as null.
type DynamicMember struct {
	Source Expr
	Name   string
}

func (*DynamicMember) planExpr()     {}
func (*DynamicMember) Type() ir.Type { return ir.TypeDynamic }

// Field reads a container cell by chain index. Name is informational and
// checked at run time.
type Field struct {
	Source Expr
	Index  int
	Name   string
	Of     ir.Type
}

func (*Field) planExpr()       {}
func (e *Field) Type() ir.Type { return e.Of }

// NullGuard evaluates Source once. A null source yields null; otherwise
// Body is evaluated with Guarded bound to the source value.
type NullGuard struct {
	Source Expr
	Body   Expr
}

func (*NullGuard) planExpr()       {}
func (e *NullGuard) Type() ir.Type { return e.Body.Type().AsNullable() }

// Guarded is the non-null source value inside a NullGuard body.
type Guarded struct {
	Of ir.Type
}

func (*Guarded) planExpr()       {}
func (e *Guarded) Type() ir.Type { return e.Of }

// Binary applies a comparison or logical operator. A null operand yields
// null.
type Binary struct {
	Op    transform.BinaryKind
	Left  Expr
	Right Expr
}

func (*Binary) planExpr() {}
func (e *Binary) Type() ir.Type {
	t := ir.TypeBool
	if e.Left.Type().Nullable || e.Right.Type().Nullable {
		t.Nullable = true
	}
	return t
}

// Convert casts Source to Target. Null converts to null.
type Convert struct {
	Source Expr
	Target ir.Type
}

func (*Convert) planExpr() {}
func (e *Convert) Type() ir.Type {
	t := e.Target
	if e.Source.Type().Nullable {
		t.Nullable = true
	}
	return t
}

// Construct builds a container with one cell per shape field. Values are
// parallel to Shape.Fields.
type Construct struct {
	Shape  *shape.Shape
	Values []Expr
}

func (*Construct) planExpr()     {}
func (*Construct) Type() ir.Type { return ir.TypeContainer }

// GroupKey is the grouping key of the current partition.
type GroupKey struct {
	Shape *shape.Shape
}

func (*GroupKey) planExpr()     {}
func (*GroupKey) Type() ir.Type { return ir.TypeContainer }

// Reduce folds Input over the elements of the current partition.
// Input is nil for Count. Fn is set for custom reductions only.
type Reduce struct {
	Method transform.Method
	Input  Expr
	Of     ir.Type
	Fn     registry.Func
}

func (*Reduce) planExpr()       {}
func (e *Reduce) Type() ir.Type { return e.Of }
