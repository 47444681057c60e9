// Package plan defines compiled aggregation plans and a reference
// in-memory executor for them.
//
// A Plan is an ordered list of stages (an optional Flatten, a Group and a
// Project) over a closed expression tree. Plans hold no references to
// input records and are immutable once built; the same Plan can be
// executed many times and from several goroutines.
//
// Expression nodes:
//   - Param: the current stage element (a record or a flatten wrapper)
//   - Member / DynamicMember: named field read, modeled or open
//   - Field: container cell read by chain index
//   - NullGuard / Guarded: evaluate a source once, yield null when it is null
//   - Binary / Convert: comparison, logical operators and casts
//   - Construct: build a container of a known shape
//   - GroupKey / Reduce: partition key and per-partition reductions
//
// Explain renders a plan as deterministic text; the plan ID is a name-based
// UUID over that text, so identical compilations yield identical IDs.
package plan
