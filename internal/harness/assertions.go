package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/aggc/internal/compiler"
	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/request"
)

// Check names.
const (
	CheckPlanID     = "plan_id"
	CheckConforms   = "conforms"
	CheckUniqueKeys = "unique_keys"
)

// AssertionError is returned when an expectation or check fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Check or expectation name
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Rows     []string // Actual rows for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Rows) > 0 {
		fmt.Fprintf(&buf, "\nRows:\n")
		for i, row := range e.Rows {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, row)
		}
	}

	return buf.String()
}

// assertRows compares the viewed rows against the expectation, in order.
func assertRows(want, got []string) error {
	if len(want) != len(got) {
		return &AssertionError{
			Type:     "rows",
			Expected: fmt.Sprintf("%d rows", len(want)),
			Actual:   fmt.Sprintf("%d rows", len(got)),
			Rows:     got,
		}
	}
	for i := range want {
		if want[i] != got[i] {
			return &AssertionError{
				Type:     "rows",
				Expected: fmt.Sprintf("row %d = %s", i+1, want[i]),
				Actual:   got[i],
				Rows:     got,
			}
		}
	}
	return nil
}

// CheckContext is what the plan checks inspect.
type CheckContext struct {
	Compiler *compiler.Compiler
	Request  *request.Request
	Source   compiler.Source
	Plan     *plan.Plan
	Output   []*ir.Container
}

// EvaluateChecks runs every plan check and returns the failure messages.
func EvaluateChecks(cc *CheckContext) []string {
	checks := []func(*CheckContext) error{
		checkPlanID,
		checkConforms,
		checkUniqueKeys,
	}
	var errs []string
	for _, check := range checks {
		if err := check(cc); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// checkPlanID recompiles the request and compares plan IDs.
func checkPlanID(cc *CheckContext) error {
	again, err := cc.Compiler.Compile(cc.Request.Transform, cc.Source)
	if err != nil {
		return &AssertionError{
			Type:     CheckPlanID,
			Expected: "recompilation succeeds",
			Actual:   err.Error(),
		}
	}
	if again.ID != cc.Plan.ID {
		return &AssertionError{
			Type:     CheckPlanID,
			Expected: cc.Plan.ID.String(),
			Actual:   again.ID.String(),
		}
	}
	return nil
}

// checkConforms verifies every row against the plan's output shape.
func checkConforms(cc *CheckContext) error {
	for i, row := range cc.Output {
		if err := cc.Plan.Output.Conforms(row); err != nil {
			return &AssertionError{
				Type:     CheckConforms,
				Expected: fmt.Sprintf("row %d conforms to %s", i+1, cc.Plan.Output),
				Actual:   err.Error(),
			}
		}
	}
	return nil
}

// checkUniqueKeys verifies that grouped output has one row per key.
func checkUniqueKeys(cc *CheckContext) error {
	st, ok := cc.Plan.Stage("group")
	if !ok {
		return nil
	}
	if g := st.(*plan.Group); g.Key == nil || g.Key.Shape.Len() == 0 {
		return nil
	}
	seen := make([]ir.Value, 0, len(cc.Output))
	for i, row := range cc.Output {
		key := groupingKey(row)
		if key == nil {
			continue
		}
		for _, prev := range seen {
			if ir.Equal(prev, key) {
				return &AssertionError{
					Type:     CheckUniqueKeys,
					Expected: "distinct grouping keys",
					Actual:   fmt.Sprintf("row %d repeats key %s", i+1, key),
				}
			}
		}
		seen = append(seen, key)
	}
	return nil
}

// groupingKey returns the grouping key of an output row: the $groupby cell
// when present, otherwise the whole row for grouping-only plans.
func groupingKey(row *ir.Container) *ir.Container {
	if v, ok := row.Get(plan.GroupByField); ok {
		if c, ok := v.(*ir.Container); ok {
			return c
		}
		return nil
	}
	return row
}
