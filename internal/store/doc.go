// Package store provides the SQLite side of aggc: a queryable record source
// and a log of compiled plans and their runs.
//
// # Record source
//
// LoadRecords runs a query and turns each row into a typed record of a
// modeled entity. Column names use dots for nesting, so a column named
// Category.CategoryName lands in the Category navigation record. When every
// column of a nested group is NULL the navigation itself is null, which is
// how a LEFT JOIN without a match reads.
//
// # Plan log
//
//   - plans: one row per distinct plan ID with its rendered text
//   - runs: one row per execution, with canonical rows and a result hash
//
// All run queries order by seq so repeated reads return identical lists.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s for locks
//   - foreign_keys=ON: Enforce referential integrity
package store
