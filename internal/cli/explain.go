package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/aggc/internal/plan"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	CompileFlags
}

// Explanation is the explain command's payload.
type Explanation struct {
	PlanID string `json:"plan_id"`
	Plan   string `json:"plan"`
}

func (e Explanation) String() string {
	return "plan " + e.PlanID + "\n" + e.Plan
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <request.yaml>",
		Short: "Print the full plan of a request",
		Long: `Compile a request and print every stage of the plan.

A guarded navigation read renders as $it.Category?.CategoryName and a
flattened cell read as $it[1:Flattened][0:Property0].

Examples:
  aggc explain --model model.cue request.yaml
  aggc explain --model model.cue request.yaml --null-propagation false`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	opts.register(cmd)

	return cmd
}

func runExplain(opts *ExplainOptions, requestPath string, cmd *cobra.Command) error {
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

	if opts.Format != "json" {
		// Explain already ends in a newline.
		_, err := f.Writer.Write([]byte(plan.Explain(c.plan)))
		return err
	}
	return f.Success(Explanation{PlanID: c.plan.ID.String(), Plan: plan.Render(c.plan)})
}
