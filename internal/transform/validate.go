package transform

import (
	"fmt"
	"strings"
)

// ShapeError reports a structurally invalid request.
type ShapeError struct {
	// Kind is "grouping" for a GroupingProperty with both or neither of
	// Path and Children, "alias" for a duplicate, empty or reserved alias, and
	// "request" for a nil request or an aggregate with no path.
	Kind    string
	Name    string // offending property name or alias
	Message string
}

func (e *ShapeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q: %s", e.Kind, e.Name, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Validate checks the request shape invariants:
//  1. A GroupingProperty has exactly one of Path and non-empty Children
//  2. Aliases are non-empty, unique within one aggregate list and do not
//     start with $
//  3. Every non-Count aggregate has a Path
//
// Validate returns the first violation found. It does not resolve paths.
func Validate(req Request) error {
	switch r := req.(type) {
	case *Aggregate:
		if r == nil {
			return &ShapeError{Kind: "request", Message: "nil aggregate"}
		}
		return validateAggregates(r.Expressions)
	case *GroupBy:
		if r == nil {
			return &ShapeError{Kind: "request", Message: "nil groupby"}
		}
		if err := validateGrouping(r.Properties, ""); err != nil {
			return err
		}
		if r.Aggregate != nil {
			return validateAggregates(r.Aggregate.Expressions)
		}
		return nil
	case nil:
		return &ShapeError{Kind: "request", Message: "nil request"}
	default:
		// Unknown kinds are reported by the compiler with a dedicated code.
		return nil
	}
}

func validateGrouping(props []GroupingProperty, parent string) error {
	seen := make(map[string]bool, len(props))
	for _, p := range props {
		name := p.Name
		if parent != "" {
			name = parent + "/" + p.Name
		}
		hasPath := p.Path != nil
		hasChildren := len(p.Children) > 0
		switch {
		case hasPath && hasChildren:
			return &ShapeError{Kind: "grouping", Name: name, Message: "has both a path and nested properties"}
		case !hasPath && !hasChildren:
			return &ShapeError{Kind: "grouping", Name: name, Message: "has neither a path nor nested properties"}
		}
		if strings.TrimSpace(p.Name) == "" {
			return &ShapeError{Kind: "grouping", Name: name, Message: "name is required"}
		}
		if seen[p.Name] {
			return &ShapeError{Kind: "grouping", Name: name, Message: "declared twice"}
		}
		seen[p.Name] = true
		if hasChildren {
			if err := validateGrouping(p.Children, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateAggregates(exprs []AggregateExpression) error {
	seen := make(map[string]bool, len(exprs))
	for _, e := range exprs {
		if strings.TrimSpace(e.Alias) == "" {
			return &ShapeError{Kind: "alias", Message: fmt.Sprintf("%s aggregate has no alias", e.Method)}
		}
		if strings.HasPrefix(e.Alias, "$") {
			return &ShapeError{Kind: "alias", Name: e.Alias, Message: "names starting with $ are reserved"}
		}
		if seen[e.Alias] {
			return &ShapeError{Kind: "alias", Name: e.Alias, Message: "declared twice"}
		}
		seen[e.Alias] = true
		if e.Method.Kind != MethodCount && e.Path == nil {
			return &ShapeError{Kind: "request", Name: e.Alias, Message: fmt.Sprintf("%s aggregate has no path", e.Method)}
		}
	}
	return nil
}
