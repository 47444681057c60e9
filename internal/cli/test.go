package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/aggc/internal/harness"
	"github.com/roach88/aggc/internal/plan"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Golden string // directory of {name}.golden plan files
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	PlanID string   `json:"plan_id,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run aggregation scenarios",
		Long: `Run scenario files: compile each request, execute it over the
scenario's records and compare rows or the expected error.

With --golden the rendered plan of every compiled scenario is compared
against <golden-dir>/<name>.golden; --update rewrites those files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  aggc test ./testdata/scenarios
  aggc test ./testdata/scenarios --filter "groupby_*"
  aggc test ./testdata/scenarios --golden ./testdata/golden --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Golden, "golden", "", "directory of golden plan files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files (requires --golden)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}
	if opts.Update && opts.Golden == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	f.VerboseLog("found %d scenario(s) in %s", len(scenarioFiles), scenariosDir)

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}
	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	for _, scenarioFile := range scenarioFiles {
		f.VerboseLog("running %s", scenarioFile)
		scenResult := runScenario(scenarioFile, opts, cmd)
		result.Scenarios = append(result.Scenarios, scenResult)

		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		if err := outputTestJSON(cmd, result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles lists scenario files, optionally filtered by a glob
// over the file name without extension.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	paths, err := harness.FindScenarios(dir)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return paths, nil
	}

	var files []string
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		matched, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			files = append(files, path)
		}
	}
	return files, nil
}

// runScenario executes a single scenario and returns the result.
func runScenario(scenarioFile string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()
	fail := func(name string, errs ...string) ScenarioResult {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return ScenarioResult{Name: name, Pass: false, Errors: errs}
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return fail(filepath.Base(scenarioFile), fmt.Sprintf("failed to load scenario: %v", err))
	}

	result, err := harness.Run(cmd.Context(), scenario)
	if err != nil {
		return fail(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}
	if !result.Pass {
		return fail(scenario.Name, result.Errors...)
	}

	note := ""
	if opts.Golden != "" && result.Plan != nil {
		goldenPath := filepath.Join(opts.Golden, scenario.Name+".golden")
		rendered := []byte(plan.Render(result.Plan))
		if opts.Update {
			if err := os.MkdirAll(opts.Golden, 0o755); err != nil {
				return fail(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
			}
			if err := os.WriteFile(goldenPath, rendered, 0o644); err != nil {
				return fail(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
			}
			note = " (golden updated)"
		} else {
			want, err := os.ReadFile(goldenPath)
			if err != nil {
				return fail(scenario.Name, fmt.Sprintf("failed to read golden file: %v", err))
			}
			if !bytes.Equal(want, rendered) {
				return fail(scenario.Name, fmt.Sprintf("plan differs from %s:\n%s", goldenPath, rendered))
			}
		}
	}

	if opts.Format != "json" {
		fmt.Fprintf(w, "✓ %s%s\n", scenario.Name, note)
	}
	return ScenarioResult{Name: scenario.Name, Pass: true, PlanID: result.PlanID}
}

func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}
	return json.NewEncoder(cmd.OutOrStdout()).Encode(CLIResponse{
		Status: status,
		Data:   result,
	})
}
