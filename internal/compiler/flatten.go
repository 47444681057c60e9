package compiler

import (
	"fmt"

	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/transform"
)

// needsFlattening reports whether the flattening planner runs: a grouping
// list, at least one non-count aggregate, and no flattening yet.
func needsFlattening(grouping []transform.GroupingProperty, aggs []transform.AggregateExpression, flattened map[string]plan.Expr) bool {
	if len(grouping) == 0 || len(flattened) > 0 {
		return false
	}
	for _, a := range aggs {
		if a.Method.Kind != transform.MethodCount {
			return true
		}
	}
	return false
}

// flattenCell names the cell at a chain index of the flattened container.
func flattenCell(index int) string {
	return fmt.Sprintf("Property%d", index)
}

// flatten is the flattening planner. It hoists every distinct aggregate
// path into one container evaluated once per record, ahead of grouping:
//
//	{Source: <record>, Flattened: {Property0: <last path>, ..., PropertyN-1: <first path>}}
//
// The last-declared path sits first in the chain. Afterwards the map
// points each hoisted path at its cell and the range variable at Source.
func (cc *compilation) flatten(aggs []transform.AggregateExpression) (*plan.Flatten, error) {
	var (
		paths []transform.Path
		keys  []string
		seen  = make(map[string]bool)
	)
	for _, a := range aggs {
		if a.Method.Kind == transform.MethodCount || a.Path == nil {
			continue
		}
		k := transform.Key(a.Path)
		if seen[k] {
			continue
		}
		seen[k] = true
		paths = append(paths, a.Path)
		keys = append(keys, k)
	}

	// Resolve against the raw record, before the map and range variable
	// switch to the wrapper.
	n := len(paths)
	cells := make([]binding, n)
	for i, p := range paths {
		e, err := cc.resolve(p)
		if err != nil {
			return nil, err
		}
		index := n - 1 - i
		cells[index] = binding{name: flattenCell(index), expr: e}
	}
	flat := synthesize(cells)

	record := cc.rangeVar
	wrapper := synthesize([]binding{
		{name: plan.SourceField, expr: record},
		{name: plan.FlattenedField, expr: flat, shape: flat.Shape},
	})

	param := &plan.Param{Of: ir.TypeContainer}
	flattenedCell := &plan.Field{Source: param, Index: 1, Name: plan.FlattenedField, Of: ir.TypeContainer}
	for i, k := range keys {
		index := n - 1 - i
		cc.flattened[k] = &plan.Field{
			Source: flattenedCell,
			Index:  index,
			Name:   flattenCell(index),
			Of:     flat.Shape.Fields[index].Type,
		}
	}
	cc.rangeVar = &plan.Field{Source: param, Index: 0, Name: plan.SourceField, Of: record.Type()}

	cc.logger.Debug("flattening aggregate paths",
		"entity", cc.src.Entity,
		"paths", n,
		"shape", wrapper.Shape.String())
	return &plan.Flatten{Wrapper: wrapper}, nil
}
