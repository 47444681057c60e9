package harness

import (
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/aggc/internal/plan"
)

// RunWithGolden executes a scenario and compares the rendered plan against
// a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// The rendered plan excludes the plan ID, so golden files read as the plan
// itself. Returns an error if the scenario could not run or compiled no
// plan; a mismatch fails the test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result's plan against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	if result.Plan == nil {
		return fmt.Errorf("scenario %s compiled no plan", name)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(plan.Render(result.Plan)))

	return nil
}
