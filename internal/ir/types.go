package ir

import (
	"fmt"
	"strings"
)

// Kind classifies a Type.
type Kind int

const (
	KindUnknown Kind = iota
	KindBool
	KindString
	KindInt32
	KindInt64
	KindFloat64
	KindDecimal
	KindEntity    // structured type reached by navigation or the range variable
	KindComplex   // structured type embedded in its owner
	KindContainer // synthesized NamedPropertyContainer
	KindDynamic   // open property, type known only at run time
)

var kindNames = map[Kind]string{
	KindUnknown:   "unknown",
	KindBool:      "bool",
	KindString:    "string",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindFloat64:   "float64",
	KindDecimal:   "decimal",
	KindEntity:    "entity",
	KindComplex:   "complex",
	KindContainer: "container",
	KindDynamic:   "dynamic",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsNumeric reports whether values of this kind take part in Sum and Average.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt32, KindInt64, KindFloat64, KindDecimal:
		return true
	}
	return false
}

// IsOrdered reports whether values of this kind have a natural ordering.
func (k Kind) IsOrdered() bool {
	return k == KindString || k.IsNumeric()
}

// IsPrimitive reports whether the kind is a scalar value kind.
func (k Kind) IsPrimitive() bool {
	return k == KindBool || k.IsOrdered()
}

// IsStructured reports whether the kind names a modeled structured type.
func (k Kind) IsStructured() bool {
	return k == KindEntity || k == KindComplex
}

// Type is the static type of a path, an expression or a container field.
// Name is set for structured kinds only.
type Type struct {
	Kind     Kind   `json:"kind"`
	Nullable bool   `json:"nullable,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Common types.
var (
	TypeBool      = Type{Kind: KindBool}
	TypeString    = Type{Kind: KindString}
	TypeInt32     = Type{Kind: KindInt32}
	TypeInt64     = Type{Kind: KindInt64}
	TypeFloat64   = Type{Kind: KindFloat64}
	TypeDecimal   = Type{Kind: KindDecimal}
	TypeContainer = Type{Kind: KindContainer}
	TypeDynamic   = Type{Kind: KindDynamic, Nullable: true}
)

// EntityType returns the type of a modeled entity.
func EntityType(name string) Type {
	return Type{Kind: KindEntity, Name: name}
}

// ComplexType returns the type of a modeled complex type.
func ComplexType(name string) Type {
	return Type{Kind: KindComplex, Name: name}
}

// AsNullable returns t with Nullable set.
func (t Type) AsNullable() Type {
	t.Nullable = true
	return t
}

// AsNonNullable returns t with Nullable cleared.
func (t Type) AsNonNullable() Type {
	t.Nullable = false
	return t
}

// SameKind reports whether t and o denote the same type ignoring nullability.
func (t Type) SameKind(o Type) bool {
	return t.Kind == o.Kind && t.Name == o.Name
}

// String renders the type the way the model file spells it, e.g. "int32?".
func (t Type) String() string {
	var b strings.Builder
	if t.Kind.IsStructured() && t.Name != "" {
		b.WriteString(t.Name)
	} else {
		b.WriteString(t.Kind.String())
	}
	if t.Nullable && t.Kind != KindDynamic {
		b.WriteByte('?')
	}
	return b.String()
}

// ParseType parses a primitive type name with an optional "?" suffix.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	nullable := strings.HasSuffix(s, "?")
	s = strings.TrimSuffix(s, "?")

	var t Type
	switch strings.ToLower(s) {
	case "bool", "boolean":
		t = TypeBool
	case "string":
		t = TypeString
	case "int32", "int":
		t = TypeInt32
	case "int64", "long":
		t = TypeInt64
	case "float64", "double":
		t = TypeFloat64
	case "decimal":
		t = TypeDecimal
	case "dynamic":
		return TypeDynamic, nil
	default:
		return Type{}, fmt.Errorf("unknown primitive type %q", s)
	}
	t.Nullable = nullable
	return t, nil
}
