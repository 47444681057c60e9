package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/aggc/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// RunHistory is the runs command's payload.
type RunHistory struct {
	PlanID string      `json:"plan_id"`
	Plan   string      `json:"plan"`
	Runs   []store.Run `json:"runs"`
	Stable bool        `json:"stable"` // every run produced the same result hash
}

func (h RunHistory) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "plan %s\n%s", h.PlanID, h.Plan)
	for _, r := range h.Runs {
		fmt.Fprintf(&b, "run %d: %d row(s), result %s\n", r.Seq, r.RowCount, r.ResultHash)
	}
	if h.Stable {
		fmt.Fprintf(&b, "✓ %d run(s), stable result", len(h.Runs))
	} else {
		fmt.Fprintf(&b, "✗ %d run(s), results differ", len(h.Runs))
	}
	return b.String()
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs <plan-id>",
		Short: "Show the logged runs of a plan",
		Long: `Show a logged plan and its runs in the order they were recorded.

Runs of the same plan over the same records must produce the same result
hash; the command fails when they differ.

Exit codes:
  0 - All runs agree
  1 - Runs disagree
  2 - Command error (database or plan not found)

Example:
  aggc runs --db shop.db 4b0c2a9e-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRuns(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func showRuns(opts *RunsOptions, planID string, cmd *cobra.Command) error {
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	ctx := cmd.Context()
	rec, err := st.ReadPlan(ctx, planID)
	if errors.Is(err, store.ErrNotFound) {
		return f.Fail(WrapExitError(ExitCommandError, "plan not found", err))
	}
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to read plan", err))
	}

	runs, err := st.ReadRuns(ctx, planID)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to read runs", err))
	}

	history := RunHistory{PlanID: rec.ID, Plan: rec.Explain, Runs: runs, Stable: true}
	for _, r := range runs[min(1, len(runs)):] {
		if r.ResultHash != runs[0].ResultHash {
			history.Stable = false
		}
	}

	if err := f.Success(history); err != nil {
		return err
	}
	if !history.Stable {
		return NewExitError(ExitFailure, "runs disagree")
	}
	return nil
}
