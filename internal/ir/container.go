package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Container is a NamedPropertyContainer: an ordered singly-linked chain of
// (Name, Value, Next) cells terminated by an empty sentinel cell.
//
// One Container kind represents every synthesized record shape: flattening
// wrappers, grouping keys, nested grouping sub-keys and aggregate results.
// Containers are immutable once built.
type Container struct {
	Name  string
	Value Value
	Next  *Container
}

func (*Container) irValue() {}

// Pair is a (name, value) cell used to build a Container.
type Pair struct {
	Name  string
	Value Value
}

// P is a shorthand for Pair.
// Example: NewContainer(P("ProductName", String("Chai")), P("Total", Int(3)))
func P(name string, value Value) Pair {
	return Pair{Name: name, Value: value}
}

// NewContainer builds a chain holding pairs in order, followed by the
// sentinel last cell.
func NewContainer(pairs ...Pair) *Container {
	c := &Container{}
	for i := len(pairs) - 1; i >= 0; i-- {
		v := pairs[i].Value
		if v == nil {
			v = Null{}
		}
		c = &Container{Name: pairs[i].Name, Value: v, Next: c}
	}
	return c
}

// IsLast reports whether c is the sentinel terminating a chain.
func (c *Container) IsLast() bool {
	return c == nil || c.Next == nil
}

// Len returns the number of named cells in the chain.
func (c *Container) Len() int {
	n := 0
	for cur := c; !cur.IsLast(); cur = cur.Next {
		n++
	}
	return n
}

// At returns the cell at the given 0-based chain index.
func (c *Container) At(index int) (*Container, bool) {
	cur := c
	for i := 0; i < index; i++ {
		if cur.IsLast() {
			return nil, false
		}
		cur = cur.Next
	}
	if cur.IsLast() {
		return nil, false
	}
	return cur, true
}

// Get returns the value of the first cell with the given name.
func (c *Container) Get(name string) (Value, bool) {
	for cur := c; !cur.IsLast(); cur = cur.Next {
		if cur.Name == name {
			return cur.Value, true
		}
	}
	return nil, false
}

// Fields returns the named cells in chain order.
func (c *Container) Fields() []Pair {
	var out []Pair
	for cur := c; !cur.IsLast(); cur = cur.Next {
		out = append(out, Pair{Name: cur.Name, Value: cur.Value})
	}
	return out
}

// Names returns the cell names in chain order.
func (c *Container) Names() []string {
	var out []string
	for cur := c; !cur.IsLast(); cur = cur.Next {
		out = append(out, cur.Name)
	}
	return out
}

// MarshalJSON renders the container as a JSON object in chain order.
func (c *Container) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for cur := c; !cur.IsLast(); cur = cur.Next {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(cur.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", cur.Name, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := MarshalValue(cur.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", cur.Name, err)
		}
		buf.Write(valBytes)
		i++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the container for diagnostics.
func (c *Container) String() string {
	b, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<container: %v>", err)
	}
	return string(b)
}
