// Package transform defines the parsed group-by / aggregate request that
// drives one compile call.
//
// ARCHITECTURE:
//
// The transformation AST sits between the request parser and the
// aggregation compiler:
//
//	[request text] → [transform AST] → [compiler] → [plan]
//
// SEALED INTERFACES:
//
// Request and Path are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, so the compiler resolves
// paths with an exhaustive type switch:
//
//	switch p := path.(type) {
//	case *RangeVariable:
//	    // the current record
//	case *PropertyAccess:
//	    // resolve p.Source, then read p.Property
//	...
//	default:
//	    // unsupported path kind
//	}
//
// Adding a Path kind is a compile-checked change: every switch that must
// handle it is in the compiler package.
//
// PATH IDENTITY:
//
// Key returns a structural key for a path. Two paths built independently
// from the same request text have the same key, which is what the
// compiler's flattened-property map is indexed by.
package transform
