package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/aggc/internal/ir"
)

// Property returns a primitive property read on source.
func Property(source Path, name string) *PropertyAccess {
	return &PropertyAccess{Source: source, Property: name}
}

// Complex returns a complex property read on source.
func Complex(source Path, name string) *ComplexAccess {
	return &ComplexAccess{Source: source, Property: name}
}

// Open returns a dynamic property read on source.
func Open(source Path, name string) *OpenPropertyAccess {
	return &OpenPropertyAccess{Source: source, Name: name}
}

// Navigate returns a navigation read on source.
func Navigate(source Path, name string) *NavigationAccess {
	return &NavigationAccess{Source: source, Navigation: name}
}

// Cast returns a conversion of source to target.
func Cast(source Path, target ir.Type) *Convert {
	return &Convert{Source: source, Target: target}
}

// Binary returns a binary operation.
func Binary(op BinaryKind, left, right Path) *BinaryOp {
	return &BinaryOp{Op: op, Left: left, Right: right}
}

// Key returns the structural identity of a path as an S-expression.
// Paths with equal keys read the same value from the same record.
func Key(p Path) string {
	var b strings.Builder
	writeKey(&b, p)
	return b.String()
}

func writeKey(b *strings.Builder, p Path) {
	switch n := p.(type) {
	case nil:
		b.WriteString("(nil)")
	case *RangeVariable:
		b.WriteString("(it)")
	case *PropertyAccess:
		b.WriteString("(prop ")
		writeKey(b, n.Source)
		b.WriteString(" " + strconv.Quote(n.Property) + ")")
	case *ComplexAccess:
		b.WriteString("(complex ")
		writeKey(b, n.Source)
		b.WriteString(" " + strconv.Quote(n.Property) + ")")
	case *OpenPropertyAccess:
		b.WriteString("(open ")
		writeKey(b, n.Source)
		b.WriteString(" " + strconv.Quote(n.Name) + ")")
	case *NavigationAccess:
		b.WriteString("(nav ")
		writeKey(b, n.Source)
		b.WriteString(" " + strconv.Quote(n.Navigation) + ")")
	case *BinaryOp:
		b.WriteString("(" + n.Op.String() + " ")
		writeKey(b, n.Left)
		b.WriteByte(' ')
		writeKey(b, n.Right)
		b.WriteByte(')')
	case *Convert:
		b.WriteString("(cast ")
		writeKey(b, n.Source)
		b.WriteString(" " + n.Target.String() + ")")
	default:
		fmt.Fprintf(b, "(%T)", p)
	}
}

// Format renders a path in slash notation for diagnostics,
// e.g. "Category/CategoryName" or "cast(UnitPrice, float64)".
func Format(p Path) string {
	switch n := p.(type) {
	case nil:
		return "<nil>"
	case *RangeVariable:
		return "$it"
	case *PropertyAccess:
		return joinSegment(n.Source, n.Property)
	case *ComplexAccess:
		return joinSegment(n.Source, n.Property)
	case *OpenPropertyAccess:
		return joinSegment(n.Source, n.Name)
	case *NavigationAccess:
		return joinSegment(n.Source, n.Navigation)
	case *BinaryOp:
		return fmt.Sprintf("(%s %s %s)", Format(n.Left), n.Op, Format(n.Right))
	case *Convert:
		return fmt.Sprintf("cast(%s, %s)", Format(n.Source), n.Target)
	default:
		return fmt.Sprintf("<%T>", p)
	}
}

func joinSegment(source Path, name string) string {
	if _, ok := source.(*RangeVariable); ok {
		return name
	}
	return Format(source) + "/" + name
}
