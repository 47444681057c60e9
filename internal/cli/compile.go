package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/aggc/internal/plan"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	CompileFlags
}

// PlanSummary is the compile command's payload.
type PlanSummary struct {
	PlanID     string   `json:"plan_id"`
	Entity     string   `json:"entity"`
	Mode       string   `json:"mode"`
	NullGuards bool     `json:"null_guards"`
	Flattened  bool     `json:"flattened"`
	Stages     []string `json:"stages"`
	Output     string   `json:"output"`
}

func (s PlanSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Compiled plan %s\n", s.PlanID)
	fmt.Fprintf(&b, "  stages: %s\n", strings.Join(s.Stages, " -> "))
	fmt.Fprintf(&b, "  output: %s", s.Output)
	return b.String()
}

func summarize(p *plan.Plan) PlanSummary {
	stages := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		stages[i] = s.Name()
	}
	return PlanSummary{
		PlanID:     p.ID.String(),
		Entity:     p.Entity,
		Mode:       p.Mode.String(),
		NullGuards: p.NullGuards,
		Flattened:  p.Flattened(),
		Stages:     stages,
		Output:     p.Output.String(),
	}
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <request.yaml>",
		Short: "Compile a request into a plan",
		Long: `Compile a group-by or aggregate request against a CUE model.

Prints the plan ID, its stages and the output shape. Compilation is
all-or-nothing: on failure the compile error code is reported and no
plan is produced.

Exit codes:
  0 - Compiled
  1 - Compile error
  2 - Command error (invalid paths, malformed files)

Examples:
  aggc compile --model model.cue request.yaml
  aggc compile --model model.cue request.yaml --mode translated
  aggc compile --model model.cue request.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	opts.register(cmd)

	return cmd
}

func runCompile(opts *CompileOptions, requestPath string, cmd *cobra.Command) error {
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	c, err := compileRequest(&opts.CompileFlags, requestPath, newLogger(f.GetErrWriter(), opts.Verbose))
	if err != nil {
		return f.Fail(err)
	}
	f.VerboseLog("compiled %s against %s (%d types)", requestPath, opts.Model, len(c.model.TypeNames()))

	return f.Success(summarize(c.plan))
}
