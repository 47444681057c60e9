package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure is one failed scenario.
type ScenarioFailure struct {
	Scenario string `json:"scenario"`
	Path     string `json:"path"`
	Error    string `json:"error"`
}

// FindScenarios lists the *.yaml files of dir in name order.
func FindScenarios(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scenario directory: %w", err)
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// RunSuite loads and runs every scenario found by FindScenarios.
// A scenario that fails to load or run counts as a failure; RunSuite
// itself errors only when the directory cannot be listed.
func RunSuite(ctx context.Context, dir string) (*SuiteResult, error) {
	paths, err := FindScenarios(dir)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{}
	for _, path := range paths {
		result.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.fail("", path, fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}

		run, err := Run(ctx, scenario)
		if err != nil {
			result.fail(scenario.Name, path, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}

		if !run.Pass {
			result.fail(scenario.Name, path, fmt.Sprintf("scenario assertions failed: %v", run.Errors))
			continue
		}

		result.Passed++
	}

	return result, nil
}

func (r *SuiteResult) fail(name, path, msg string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{
		Scenario: name,
		Path:     path,
		Error:    msg,
	})
}
