package plan

import (
	"github.com/roach88/aggc/internal/ir"
)

// View flattens an output container for consumers: the cells of the
// grouping key under GroupByField come first, followed by the remaining
// aggregate cells. Containers without a grouping key are returned as is.
func View(c *ir.Container) *ir.Container {
	key, ok := c.Get(GroupByField)
	if !ok {
		return c
	}
	keyC, ok := key.(*ir.Container)
	if !ok {
		return c
	}
	pairs := keyC.Fields()
	for _, f := range c.Fields() {
		if f.Name != GroupByField {
			pairs = append(pairs, f)
		}
	}
	return ir.NewContainer(pairs...)
}
