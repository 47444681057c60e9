package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/aggc/internal/ir"
)

// Coercer turns raw rows into typed records. *model.Model implements it.
type Coercer interface {
	Coerce(typeName string, raw map[string]any) (ir.Record, error)
}

// LoadRecords runs query and coerces every row into a record of entity.
// Dotted column names nest: "Supplier.Address.City" fills
// raw["Supplier"]["Address"]["City"]. A nested object whose leaves are all
// NULL becomes nil.
func (s *Store) LoadRecords(ctx context.Context, md Coercer, entity, query string, args ...any) ([]ir.Value, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", entity, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", entity, err)
	}
	paths := make([][]string, len(cols))
	for i, c := range cols {
		paths[i] = strings.Split(c, ".")
	}

	var out []ir.Value
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("load %s: scan row %d: %w", entity, len(out), err)
		}

		raw := make(map[string]any)
		for i, path := range paths {
			nest(raw, path, vals[i])
		}
		prune(raw)

		rec, err := md.Coerce(entity, raw)
		if err != nil {
			return nil, fmt.Errorf("load %s: row %d: %w", entity, len(out), err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", entity, err)
	}
	return out, nil
}

func nest(obj map[string]any, path []string, v any) {
	for _, seg := range path[:len(path)-1] {
		child, ok := obj[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			obj[seg] = child
		}
		obj = child
	}
	obj[path[len(path)-1]] = v
}

// prune replaces nested objects holding only nulls with nil and reports
// whether obj itself holds only nulls.
func prune(obj map[string]any) bool {
	empty := true
	for k, v := range obj {
		if child, ok := v.(map[string]any); ok {
			if prune(child) {
				obj[k] = nil
				continue
			}
			empty = false
			continue
		}
		if v != nil {
			empty = false
		}
	}
	return empty
}
