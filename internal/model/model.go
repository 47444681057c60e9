// Package model provides the entity/property metadata model consulted by
// the aggregation compiler: property-name resolution, navigation-target
// resolution and primitive-type mapping.
//
// A Model is immutable once built and safe for concurrent use. Models are
// built programmatically (Entity, Prim, Nav, ...) or loaded from CUE
// (LoadFile, ParseString).
package model

import (
	"fmt"
	"slices"

	"github.com/roach88/aggc/internal/ir"
)

// PropertyKind classifies a declared property.
type PropertyKind int

const (
	PropertyPrimitive PropertyKind = iota
	PropertyComplex
	PropertyNavigation
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyPrimitive:
		return "primitive"
	case PropertyComplex:
		return "complex"
	case PropertyNavigation:
		return "navigation"
	default:
		return fmt.Sprintf("property(%d)", int(k))
	}
}

// Property is a declared property. For navigation and complex properties
// Type carries the target type name.
type Property struct {
	Name string
	Kind PropertyKind
	Type ir.Type
}

// StructuredType is an entity or complex type.
type StructuredType struct {
	Name       string
	Kind       ir.Kind // ir.KindEntity or ir.KindComplex
	Open       bool
	Properties []Property // declaration order

	index map[string]int
}

// Property returns the declared property with the given name.
func (t *StructuredType) Property(name string) (Property, bool) {
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[name]
	if !ok {
		return Property{}, false
	}
	return t.Properties[i], true
}

// Type returns the ir type of a value of this structured type.
func (t *StructuredType) Type() ir.Type {
	return ir.Type{Kind: t.Kind, Name: t.Name}
}

func (t *StructuredType) reindex() {
	t.index = make(map[string]int, len(t.Properties))
	for i, p := range t.Properties {
		t.index[p.Name] = i
	}
}

// Model is a set of structured types.
type Model struct {
	types map[string]*StructuredType
	order []string
}

// New builds a model and checks that every navigation and complex property
// names a declared type of the right kind.
func New(types ...*StructuredType) (*Model, error) {
	m := &Model{types: make(map[string]*StructuredType, len(types))}
	for _, t := range types {
		if t.Name == "" {
			return nil, fmt.Errorf("structured type has no name")
		}
		if _, dup := m.types[t.Name]; dup {
			return nil, fmt.Errorf("type %q declared twice", t.Name)
		}
		if t.Kind == ir.KindUnknown {
			t.Kind = ir.KindEntity
		}
		t.reindex()
		if len(t.index) != len(t.Properties) {
			return nil, fmt.Errorf("type %q declares a property twice", t.Name)
		}
		m.types[t.Name] = t
		m.order = append(m.order, t.Name)
	}

	for _, name := range m.order {
		for _, p := range m.types[name].Properties {
			if err := m.checkTarget(name, p); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNew(types ...*StructuredType) *Model {
	m, err := New(types...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Model) checkTarget(owner string, p Property) error {
	want := ir.KindEntity
	switch p.Kind {
	case PropertyPrimitive:
		if !p.Type.Kind.IsPrimitive() {
			return fmt.Errorf("%s.%s: %s is not a primitive type", owner, p.Name, p.Type)
		}
		return nil
	case PropertyComplex:
		want = ir.KindComplex
	}
	target, ok := m.types[p.Type.Name]
	if !ok {
		return fmt.Errorf("%s.%s: unknown target type %q", owner, p.Name, p.Type.Name)
	}
	if target.Kind != want {
		return fmt.Errorf("%s.%s: target %q is %s, want %s", owner, p.Name, p.Type.Name, target.Kind, want)
	}
	return nil
}

// StructuredType returns the structured type with the given name.
func (m *Model) StructuredType(name string) (*StructuredType, bool) {
	t, ok := m.types[name]
	return t, ok
}

// TypeNames returns the declared type names in declaration order.
func (m *Model) TypeNames() []string {
	return slices.Clone(m.order)
}

// PropertyType resolves a declared property on a structured owner type.
// Undeclared names on open types are the caller's concern (see IsOpen).
func (m *Model) PropertyType(owner, name string) (Property, bool) {
	t, ok := m.types[owner]
	if !ok {
		return Property{}, false
	}
	if p, ok := t.Property(name); ok {
		return p, true
	}
	return Property{}, false
}

// IsOpen reports whether the named type accepts dynamic properties.
func (m *Model) IsOpen(owner string) bool {
	t, ok := m.types[owner]
	return ok && t.Open
}

// Entity declares an entity type.
func Entity(name string, props ...Property) *StructuredType {
	return &StructuredType{Name: name, Kind: ir.KindEntity, Properties: props}
}

// ComplexType declares a complex type.
func ComplexType(name string, props ...Property) *StructuredType {
	return &StructuredType{Name: name, Kind: ir.KindComplex, Properties: props}
}

// AsOpen marks the type open and returns it.
func (t *StructuredType) AsOpen() *StructuredType {
	t.Open = true
	return t
}

// Prim declares a primitive property.
func Prim(name string, typ ir.Type) Property {
	return Property{Name: name, Kind: PropertyPrimitive, Type: typ}
}

// Nav declares a single-valued navigation property.
func Nav(name, target string, nullable bool) Property {
	return Property{Name: name, Kind: PropertyNavigation, Type: ir.Type{Kind: ir.KindEntity, Name: target, Nullable: nullable}}
}

// ComplexProp declares a complex-typed property.
func ComplexProp(name, target string, nullable bool) Property {
	return Property{Name: name, Kind: PropertyComplex, Type: ir.Type{Kind: ir.KindComplex, Name: target, Nullable: nullable}}
}
