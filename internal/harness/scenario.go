package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/aggc/internal/compiler"
	"github.com/roach88/aggc/internal/request"
)

// Scenario defines one end-to-end aggregation case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the path to the CUE model file.
	// Relative paths resolve against the scenario file's directory.
	Model string `yaml:"model"`

	// Records is the path to a JSON array of source records.
	Records string `yaml:"records"`

	// Request is the request document, in the request file format.
	Request request.Document `yaml:"request"`

	// Expect is the expected outcome.
	Expect Expect `yaml:"expect"`
}

// Expect is the expected outcome of a scenario. Exactly one field is set.
type Expect struct {
	// Rows are the viewed output rows as JSON, in output order.
	Rows []string `yaml:"rows,omitempty"`

	// Error is the expected compile error code.
	Error compiler.ErrorCode `yaml:"error,omitempty"`

	// ExecutionError is a substring of the expected execution error.
	ExecutionError string `yaml:"execution_error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Model and record paths resolve relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Model = resolvePath(base, scenario.Model)
	scenario.Records = resolvePath(base, scenario.Records)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, err := os.Stat(s.Model); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.Model)
	}

	if s.Records == "" {
		return fmt.Errorf("records is required")
	}
	if _, err := os.Stat(s.Records); os.IsNotExist(err) {
		return fmt.Errorf("records file not found: %s", s.Records)
	}

	if s.Request.Entity == "" {
		return fmt.Errorf("request.entity is required")
	}

	set := 0
	if s.Expect.Rows != nil {
		set++
	}
	if s.Expect.Error != "" {
		set++
	}
	if s.Expect.ExecutionError != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("expect needs exactly one of rows, error or execution_error")
	}

	return nil
}
