// Package request loads transformation requests from YAML.
//
// A request file names the source entity and either a top-level aggregate
// list or a groupby block:
//
//	entity: Product
//	mode: in-memory            # or translated
//	options:
//	  null_propagation: default
//	groupby:
//	  properties: [ProductName, Category/CategoryName]
//	  aggregate:
//	    - {path: SupplierID, with: sum, as: Total}
//	    - {with: count, as: Count}
//	    - {path: UnitPrice, with: custom.stddev, as: Spread, cast: float64}
//
// Paths use slash notation and are resolved against the metadata model:
// each segment becomes a navigation, complex or property access according
// to its declaration, and an undeclared segment on an open type becomes an
// open property read. Grouping paths sharing a prefix merge into nested
// grouping properties, so Category/CategoryName groups under Category.
//
// On an aggregate, cast converts the input path and type declares the
// result type.
package request

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/aggc/internal/config"
	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/model"
	"github.com/roach88/aggc/internal/transform"
)

// Metadata resolves path segments. *model.Model implements it.
type Metadata interface {
	PropertyType(owner, name string) (model.Property, bool)
	IsOpen(owner string) bool
}

// Document is the YAML form of a request.
type Document struct {
	Entity    string         `yaml:"entity"`
	Mode      config.Mode    `yaml:"mode,omitempty"`
	Options   config.Options `yaml:"options,omitempty"`
	GroupBy   *GroupBy       `yaml:"groupby,omitempty"`
	Aggregate []Aggregate    `yaml:"aggregate,omitempty"`
}

// GroupBy is the YAML form of a groupby block.
type GroupBy struct {
	Properties []string    `yaml:"properties"`
	Aggregate  []Aggregate `yaml:"aggregate,omitempty"`
}

// Aggregate is the YAML form of one aggregate expression.
type Aggregate struct {
	Path string `yaml:"path,omitempty"`
	With string `yaml:"with"`
	As   string `yaml:"as"`
	Cast string `yaml:"cast,omitempty"`
	Type string `yaml:"type,omitempty"`
}

// Request is a loaded request ready for compilation.
type Request struct {
	Entity    string
	Mode      config.Mode
	Options   config.Options
	Transform transform.Request
}

// Load reads and builds a request file.
func Load(path string, md Metadata) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	return Parse(data, md)
}

// Parse decodes and builds a request.
// Unknown fields are rejected so typos surface immediately.
func Parse(data []byte, md Metadata) (*Request, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc.Build(md)
}

// Build resolves the document against the model.
func (d *Document) Build(md Metadata) (*Request, error) {
	if d.Entity == "" {
		return nil, fmt.Errorf("entity is required")
	}
	if d.GroupBy != nil && len(d.Aggregate) > 0 {
		return nil, fmt.Errorf("use either groupby or a top-level aggregate, not both")
	}

	r := &resolver{md: md, entity: d.Entity}
	req := &Request{Entity: d.Entity, Mode: d.Mode, Options: d.Options}

	switch {
	case d.GroupBy != nil:
		props, err := r.grouping(d.GroupBy.Properties)
		if err != nil {
			return nil, err
		}
		gb := &transform.GroupBy{Properties: props}
		if len(d.GroupBy.Aggregate) > 0 {
			exprs, err := r.aggregates(d.GroupBy.Aggregate)
			if err != nil {
				return nil, err
			}
			gb.Aggregate = &transform.Aggregate{Expressions: exprs}
		}
		req.Transform = gb
	case len(d.Aggregate) > 0:
		exprs, err := r.aggregates(d.Aggregate)
		if err != nil {
			return nil, err
		}
		req.Transform = &transform.Aggregate{Expressions: exprs}
	default:
		return nil, fmt.Errorf("request needs a groupby block or an aggregate list")
	}
	return req, nil
}

type resolver struct {
	md     Metadata
	entity string
}

func (r *resolver) aggregates(in []Aggregate) ([]transform.AggregateExpression, error) {
	out := make([]transform.AggregateExpression, 0, len(in))
	for i, a := range in {
		method, err := transform.ParseMethod(a.With)
		if err != nil {
			return nil, fmt.Errorf("aggregate %d: %w", i, err)
		}
		expr := transform.AggregateExpression{Method: method, Alias: a.As}

		if a.Path != "" {
			expr.Path, err = r.path(a.Path)
			if err != nil {
				return nil, fmt.Errorf("aggregate %q: %w", a.As, err)
			}
		}
		if a.Cast != "" {
			if expr.Path == nil {
				return nil, fmt.Errorf("aggregate %q: cast needs a path", a.As)
			}
			target, err := ir.ParseType(a.Cast)
			if err != nil {
				return nil, fmt.Errorf("aggregate %q: %w", a.As, err)
			}
			expr.Path = transform.Cast(expr.Path, target)
		}
		if a.Type != "" {
			t, err := ir.ParseType(a.Type)
			if err != nil {
				return nil, fmt.Errorf("aggregate %q: %w", a.As, err)
			}
			expr.ResultType = &t
		}
		out = append(out, expr)
	}
	return out, nil
}

// path resolves a slash path such as "Supplier/Address/Country".
func (r *resolver) path(s string) (transform.Path, error) {
	s = strings.TrimSpace(s)
	if s == "$it" {
		return transform.It, nil
	}
	var (
		p     transform.Path = transform.It
		owner                = r.entity
	)
	segs := strings.Split(s, "/")
	for i, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("path %q: empty segment", s)
		}
		if owner == "" {
			return nil, fmt.Errorf("path %q: cannot read %q from a primitive or dynamic value", s, seg)
		}
		prop, ok := r.md.PropertyType(owner, seg)
		switch {
		case ok && prop.Kind == model.PropertyNavigation:
			p = transform.Navigate(p, seg)
			owner = prop.Type.Name
		case ok && prop.Kind == model.PropertyComplex:
			p = transform.Complex(p, seg)
			owner = prop.Type.Name
		case ok:
			p = transform.Property(p, seg)
			owner = ""
		case r.md.IsOpen(owner):
			p = transform.Open(p, seg)
			owner = ""
		default:
			// Leave the diagnosis to the compiler, which knows the
			// full resolution context.
			p = transform.Property(p, seg)
			owner = ""
			if i < len(segs)-1 {
				return nil, fmt.Errorf("path %q: %q is not declared", s, seg)
			}
		}
	}
	return p, nil
}

// grouping builds grouping properties from slash paths. Paths sharing a
// leading segment merge under one nested property, in first-seen order.
func (r *resolver) grouping(paths []string) ([]transform.GroupingProperty, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("groupby needs at least one property")
	}
	root := &node{}
	for _, s := range paths {
		p, err := r.path(s)
		if err != nil {
			return nil, err
		}
		segs := strings.Split(strings.TrimSpace(s), "/")
		root.insert(segs, p)
	}
	return root.build(), nil
}

// node is a grouping trie node.
type node struct {
	name     string
	path     transform.Path
	children []*node
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	c := &node{name: name}
	n.children = append(n.children, c)
	return c
}

func (n *node) insert(segs []string, p transform.Path) {
	cur := n
	for _, seg := range segs {
		cur = cur.child(seg)
	}
	// A path that is also a prefix of another keeps both; the compiler
	// rejects the resulting shape.
	cur.path = p
}

func (n *node) build() []transform.GroupingProperty {
	out := make([]transform.GroupingProperty, 0, len(n.children))
	for _, c := range n.children {
		gp := transform.GroupingProperty{Name: c.name, Path: c.path}
		if len(c.children) > 0 {
			gp.Children = c.build()
		}
		out = append(out, gp)
	}
	return out
}
