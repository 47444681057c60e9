package compiler

import (
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/shape"
	"github.com/roach88/aggc/internal/transform"
)

// groupKey is the grouping plan builder. Leaves resolve their path; nested
// properties become nested containers under their name. Declaration order
// is kept at every level. An empty list yields a nil key, which groups
// everything into one partition.
func (cc *compilation) groupKey(props []transform.GroupingProperty) (*plan.Construct, *shape.Shape, error) {
	if len(props) == 0 {
		return nil, shape.New(), nil
	}
	key, err := cc.keyContainer(props)
	if err != nil {
		return nil, nil, err
	}
	return key, key.Shape, nil
}

func (cc *compilation) keyContainer(props []transform.GroupingProperty) (*plan.Construct, error) {
	bindings := make([]binding, 0, len(props))
	for _, p := range props {
		if p.IsLeaf() {
			e, err := cc.resolve(p.Path)
			if err != nil {
				return nil, err
			}
			bindings = append(bindings, binding{name: p.Name, expr: e})
			continue
		}
		sub, err := cc.keyContainer(p.Children)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding{name: p.Name, expr: sub, shape: sub.Shape})
	}
	return synthesize(bindings), nil
}
