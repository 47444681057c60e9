package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/aggc/internal/compiler"
	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/model"
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/registry"
)

// Harness holds what one scenario run needs.
type Harness struct {
	model    *model.Model
	records  []ir.Value
	compiler *compiler.Compiler
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Load the CUE model and the JSON records
// 2. Build the request against the model
// 3. Compile with the standard custom aggregates registered
// 4. Execute the plan over the records
// 5. Compare against the expect clause and run the plan checks
//
// A returned error means the scenario could not be set up; expectation
// mismatches are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()

	req, err := scenario.Request.Build(h.model)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	reg, err := standardRegistry()
	if err != nil {
		return nil, err
	}
	h.compiler = compiler.New(h.model,
		compiler.WithRegistry(reg),
		compiler.WithOptions(req.Options),
		compiler.WithLogger(h.logger),
	)
	src := compiler.Source{Entity: req.Entity, Mode: req.Mode}

	p, err := h.compiler.Compile(req.Transform, src)
	if err != nil {
		h.checkCompileError(err, scenario.Expect, result)
		return result, nil
	}
	result.Plan = p
	result.PlanID = p.ID.String()
	if scenario.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected compile error %s, compiled plan %s", scenario.Expect.Error, p.ID))
		return result, nil
	}

	out, err := p.Execute(ctx, h.records)
	if err != nil {
		if scenario.Expect.ExecutionError == "" {
			result.AddError(fmt.Sprintf("execution failed: %v", err))
		} else if !strings.Contains(err.Error(), scenario.Expect.ExecutionError) {
			result.AddError(fmt.Sprintf("expected execution error containing %q, got %q", scenario.Expect.ExecutionError, err))
		}
		return result, nil
	}
	if scenario.Expect.ExecutionError != "" {
		result.AddError(fmt.Sprintf("expected execution error containing %q, execution succeeded", scenario.Expect.ExecutionError))
	}

	for _, row := range out {
		result.Rows = append(result.Rows, plan.View(row).String())
	}

	for _, msg := range EvaluateChecks(&CheckContext{
		Compiler: h.compiler,
		Request:  req,
		Source:   src,
		Plan:     p,
		Output:   out,
	}) {
		result.AddError(msg)
	}
	if scenario.Expect.Rows != nil {
		if err := assertRows(scenario.Expect.Rows, result.Rows); err != nil {
			result.AddError(err.Error())
		}
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"plan_id", result.PlanID,
		"rows", len(result.Rows),
		"pass", result.Pass,
	)
	return result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	md, err := model.LoadFile(scenario.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	f, err := os.Open(scenario.Records)
	if err != nil {
		return nil, fmt.Errorf("failed to open records: %w", err)
	}
	defer f.Close()
	records, err := md.DecodeRecords(f, scenario.Request.Entity)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	return &Harness{
		model:   md,
		records: records,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}, nil
}

func standardRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := registry.RegisterStandard(reg); err != nil {
		return nil, fmt.Errorf("failed to register standard aggregates: %w", err)
	}
	return reg, nil
}

func (h *Harness) checkCompileError(err error, expect Expect, result *Result) {
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		result.AddError(fmt.Sprintf("compile failed: %v", err))
		return
	}
	if expect.Error == "" {
		result.AddError(fmt.Sprintf("unexpected compile error: %v", err))
		return
	}
	if ce.Code != expect.Error {
		result.AddError(fmt.Sprintf("expected compile error %s, got %s", expect.Error, ce.Code))
	}
}
