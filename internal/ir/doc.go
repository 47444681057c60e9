// Package ir provides the value and type model shared by every stage of the
// aggregation compiler.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal. This keeps IR the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Value is a sealed interface; every stage switches over the same closed set
//   - NamedPropertyContainer (Container) is the single synthesized record shape
//   - Equal and Hash agree, so grouping and distinct counting share one notion of identity
//   - Null equals Null and nothing else
package ir
