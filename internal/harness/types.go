package harness

import (
	"github.com/roach88/aggc/internal/plan"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: the expect clause and every check
	// matched.
	Pass bool `json:"pass"`

	// Plan is the compiled plan, nil when compilation failed.
	Plan *plan.Plan `json:"-"`

	// PlanID is the plan ID, empty when compilation failed.
	PlanID string `json:"plan_id,omitempty"`

	// Rows are the viewed output rows as JSON.
	Rows []string `json:"rows"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Rows:   []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
