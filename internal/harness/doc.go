// Package harness runs aggregation scenarios end to end.
//
// A scenario names a CUE model, a JSON record file and a request, and
// states what compiling and executing the request must produce.
//
// # Scenario Format
//
//	name: groupby_category
//	description: "What this scenario validates"
//	model: ../northwind/model.cue
//	records: ../northwind/products.json
//	request:
//	  entity: Product
//	  groupby:
//	    properties: [Category/CategoryName]
//	expect:
//	  rows:
//	    - '{"Category":{"CategoryName":"Beverages"}}'
//
// expect holds exactly one of rows (the viewed output rows, in order),
// error (a compile error code) or execution_error (a substring of the
// execution error).
//
// # Checks
//
// Besides the expect clause every compiled scenario is checked for:
//
//   - plan_id: recompiling yields the same plan ID
//   - conforms: every output row conforms to the plan's output shape
//   - unique_keys: no two output rows share a grouping key
//
// # Golden Files
//
// RunWithGolden compares the rendered plan against
// testdata/golden/{scenario.Name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
