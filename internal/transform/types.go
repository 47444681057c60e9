package transform

import (
	"fmt"
	"strings"

	"github.com/roach88/aggc/internal/ir"
)

// Request is a parsed transformation request.
//
// This is a sealed interface - only *Aggregate and *GroupBy implement it.
// Exactly one request is compiled per compile call.
type Request interface {
	requestNode() // Marker method - seals interface to this package
}

// Aggregate computes aggregate expressions over the whole input.
//
// Semantics:
//
//	aggregate(SupplierID with sum as Total, $count as Count)
type Aggregate struct {
	Expressions []AggregateExpression
}

func (*Aggregate) requestNode() {}

// GroupBy partitions the input by grouping properties and optionally
// aggregates each partition.
//
// Semantics:
//
//	groupby((ProductName, Category/CategoryName), aggregate(...))
type GroupBy struct {
	Properties []GroupingProperty
	Aggregate  *Aggregate // nil = grouping only
}

func (*GroupBy) requestNode() {}

// Path is a property-path AST node.
//
// This is a sealed interface - only the node types below implement it.
// Every non-root node's Source is itself a Path; paths are trees, never
// cyclic.
type Path interface {
	pathNode() // Marker method - seals interface to this package
}

// RangeVariable is the implicit reference to the current record.
type RangeVariable struct{}

func (*RangeVariable) pathNode() {}

// It is the shared range variable. RangeVariable carries no state, so one
// instance serves every path.
var It = &RangeVariable{}

// PropertyAccess reads a declared primitive property.
type PropertyAccess struct {
	Source   Path
	Property string
}

func (*PropertyAccess) pathNode() {}

// ComplexAccess reads a declared complex-typed property.
type ComplexAccess struct {
	Source   Path
	Property string
}

func (*ComplexAccess) pathNode() {}

// OpenPropertyAccess reads a dynamic property of an open type.
type OpenPropertyAccess struct {
	Source Path
	Name   string
}

func (*OpenPropertyAccess) pathNode() {}

// NavigationAccess follows a single-valued navigation property.
type NavigationAccess struct {
	Source     Path
	Navigation string
}

func (*NavigationAccess) pathNode() {}

// BinaryKind identifies a binary operator.
type BinaryKind int

const (
	OpEq BinaryKind = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var binaryNames = map[BinaryKind]string{
	OpEq:  "eq",
	OpNe:  "ne",
	OpLt:  "lt",
	OpLe:  "le",
	OpGt:  "gt",
	OpGe:  "ge",
	OpAnd: "and",
	OpOr:  "or",
}

func (k BinaryKind) String() string {
	if s, ok := binaryNames[k]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// IsLogical reports whether the operator combines boolean operands.
func (k BinaryKind) IsLogical() bool {
	return k == OpAnd || k == OpOr
}

// ParseBinaryKind parses an operator name such as "eq" or "and".
func ParseBinaryKind(s string) (BinaryKind, error) {
	for k, name := range binaryNames {
		if name == strings.ToLower(s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown binary operator %q", s)
}

// BinaryOp compares or combines two paths.
type BinaryOp struct {
	Op    BinaryKind
	Left  Path
	Right Path
}

func (*BinaryOp) pathNode() {}

// Convert converts the value of Source to Target.
type Convert struct {
	Source Path
	Target ir.Type
}

func (*Convert) pathNode() {}

// MethodKind identifies an aggregate method.
type MethodKind int

const (
	MethodMin MethodKind = iota
	MethodMax
	MethodSum
	MethodAverage
	MethodCountDistinct
	MethodCount
	MethodCustom
)

var methodNames = map[MethodKind]string{
	MethodMin:           "min",
	MethodMax:           "max",
	MethodSum:           "sum",
	MethodAverage:       "average",
	MethodCountDistinct: "countdistinct",
	MethodCount:         "count",
	MethodCustom:        "custom",
}

func (k MethodKind) String() string {
	if s, ok := methodNames[k]; ok {
		return s
	}
	return fmt.Sprintf("method(%d)", int(k))
}

// Method is an aggregate method. Label names the registered function for
// MethodCustom and is empty otherwise.
type Method struct {
	Kind  MethodKind
	Label string
}

// Built-in methods.
var (
	Min           = Method{Kind: MethodMin}
	Max           = Method{Kind: MethodMax}
	Sum           = Method{Kind: MethodSum}
	Average       = Method{Kind: MethodAverage}
	CountDistinct = Method{Kind: MethodCountDistinct}
	Count         = Method{Kind: MethodCount}
)

// Custom returns the method for a registered custom aggregate.
func Custom(label string) Method {
	return Method{Kind: MethodCustom, Label: label}
}

func (m Method) String() string {
	if m.Kind == MethodCustom {
		return "custom." + m.Label
	}
	return m.Kind.String()
}

// ParseMethod parses "sum", "countdistinct", "custom.stddev" and friends.
func ParseMethod(s string) (Method, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	if label, ok := strings.CutPrefix(lower, "custom."); ok {
		if label == "" {
			return Method{}, fmt.Errorf("custom method %q has no label", s)
		}
		// Labels keep their original case.
		return Custom(strings.TrimSpace(s)[len("custom."):]), nil
	}
	switch lower {
	case "avg":
		return Average, nil
	case "$count":
		return Count, nil
	}
	for k, name := range methodNames {
		if k != MethodCustom && name == lower {
			return Method{Kind: k}, nil
		}
	}
	return Method{}, fmt.Errorf("unknown aggregate method %q", s)
}

// AggregateExpression binds one reduction to an alias.
// Path is nil for Count. ResultType, when set, is the declared output type.
type AggregateExpression struct {
	Path       Path
	Method     Method
	Alias      string
	ResultType *ir.Type
}

// GroupingProperty is one grouping key. A leaf has a Path; a nested node
// has Children and no Path.
type GroupingProperty struct {
	Name     string
	Path     Path
	Children []GroupingProperty
}

// IsLeaf reports whether the property binds a path directly.
func (g GroupingProperty) IsLeaf() bool {
	return g.Path != nil
}
