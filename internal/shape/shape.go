// Package shape describes the schema of synthesized containers.
//
// A Shape is the compile-time counterpart of an *ir.Container: an ordered
// list of named fields, each with a static type and, for nested containers,
// a child Shape. The same descriptor covers flattening wrappers, grouping
// keys, nested grouping sub-keys and aggregate results.
package shape

import (
	"fmt"
	"strings"

	"github.com/roach88/aggc/internal/ir"
)

// Field is one named cell of a Shape.
type Field struct {
	Name   string  `json:"name"`
	Type   ir.Type `json:"type"`
	Nested *Shape  `json:"nested,omitempty"`
}

// Shape is an ordered container schema. Shapes are immutable once built.
type Shape struct {
	Fields []Field `json:"fields"`
}

// New creates a shape from fields in order.
func New(fields ...Field) *Shape {
	return &Shape{Fields: fields}
}

// Leaf returns a primitive-valued field.
func Leaf(name string, t ir.Type) Field {
	return Field{Name: name, Type: t}
}

// Sub returns a field holding a nested container.
func Sub(name string, nested *Shape) Field {
	return Field{Name: name, Type: ir.TypeContainer, Nested: nested}
}

// Len returns the number of fields.
func (s *Shape) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Fields)
}

// Index returns the chain index of the named field, or -1.
func (s *Shape) Index(name string) int {
	if s == nil {
		return -1
	}
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Field returns the named field.
func (s *Shape) Field(name string) (Field, bool) {
	i := s.Index(name)
	if i < 0 {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Names returns field names in order.
func (s *Shape) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Leaves returns the slash-joined paths of all primitive fields, depth
// first in declaration order, e.g. "Category/CategoryName".
func (s *Shape) Leaves() []string {
	var out []string
	s.walk("", func(path string, _ Field) {
		out = append(out, path)
	})
	return out
}

func (s *Shape) walk(prefix string, fn func(string, Field)) {
	if s == nil {
		return
	}
	for _, f := range s.Fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "/" + f.Name
		}
		if f.Nested != nil {
			f.Nested.walk(path, fn)
			continue
		}
		fn(path, f)
	}
}

// Conforms reports whether c has exactly the cells of s, in order, with
// nested containers where s has nested shapes.
func (s *Shape) Conforms(c *ir.Container) error {
	cur := c
	for _, f := range s.Fields {
		if cur.IsLast() {
			return fmt.Errorf("missing field %q", f.Name)
		}
		if cur.Name != f.Name {
			return fmt.Errorf("field %q: found %q", f.Name, cur.Name)
		}
		if f.Nested != nil {
			sub, ok := cur.Value.(*ir.Container)
			if !ok {
				return fmt.Errorf("field %q: expected container, got %T", f.Name, cur.Value)
			}
			if err := f.Nested.Conforms(sub); err != nil {
				return fmt.Errorf("%s/%w", f.Name, err)
			}
		}
		cur = cur.Next
	}
	if !cur.IsLast() {
		return fmt.Errorf("unexpected field %q", cur.Name)
	}
	return nil
}

// String renders the shape as "{A: int32, B: {C: string?}}".
func (s *Shape) String() string {
	if s == nil {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		if f.Nested != nil {
			b.WriteString(f.Nested.String())
		} else {
			b.WriteString(f.Type.String())
		}
	}
	b.WriteByte('}')
	return b.String()
}
