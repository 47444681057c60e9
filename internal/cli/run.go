package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	CompileFlags
	Records  string // JSON records file
	Database string // SQLite database for --query and --log
	Query    string // SQL producing the source records
	Log      bool   // record the plan and run in the database
}

// RunOutput is the run command's payload.
type RunOutput struct {
	PlanID     string            `json:"plan_id"`
	ResultHash string            `json:"result_hash"`
	Rows       []json.RawMessage `json:"rows"`
	Seq        int64             `json:"seq,omitempty"`
}

func (r RunOutput) String() string {
	var b strings.Builder
	for _, row := range r.Rows {
		b.Write(row)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d row(s), result %s", len(r.Rows), r.ResultHash)
	if r.Seq != 0 {
		fmt.Fprintf(&b, ", logged as run %d", r.Seq)
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <request.yaml>",
		Short: "Compile a request and execute it over records",
		Long: `Compile a request and execute the plan in process.

Records come from a JSON array (--records) or from a SQL query against a
SQLite database (--db with --query). Query columns name properties;
dotted names such as "Category.CategoryName" fill navigation records.

With --log the plan and the run are recorded in the database.

Examples:
  aggc run --model model.cue --records products.json request.yaml
  aggc run --model model.cue --db shop.db --query "SELECT ..." request.yaml --log`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(opts, args[0], cmd)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.Records, "records", "", "path to a JSON array of records")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Query, "query", "", "SQL query producing the records (requires --db)")
	cmd.Flags().BoolVar(&opts.Log, "log", false, "record the plan and run in the database (requires --db)")

	return cmd
}

func runRequest(opts *RunOptions, requestPath string, cmd *cobra.Command) error {
	f := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(f.GetErrWriter(), opts.Verbose)

	if err := opts.validate(); err != nil {
		return f.Fail(err)
	}

	c, err := compileRequest(&opts.CompileFlags, requestPath, logger)
	if err != nil {
		return f.Fail(err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "failed to open database", err))
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	records, err := opts.loadRecords(ctx, st, c)
	if err != nil {
		return f.Fail(err)
	}
	f.VerboseLog("loaded %d %s record(s)", len(records), c.request.Entity)

	out, err := c.plan.Execute(ctx, records)
	if err != nil {
		return f.Fail(WrapExitError(ExitFailure, "execution failed", err))
	}

	result, err := buildRunOutput(c.plan, out)
	if err != nil {
		return f.Fail(WrapExitError(ExitFailure, "failed to render rows", err))
	}

	if opts.Log {
		seq, err := logRun(ctx, st, c.plan, out, logger)
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "failed to log run", err))
		}
		result.Seq = seq
	}

	return f.Success(result)
}

func (o *RunOptions) validate() error {
	switch {
	case o.Records != "" && o.Query != "":
		return NewExitError(ExitCommandError, "use either --records or --query, not both")
	case o.Records == "" && o.Query == "":
		return NewExitError(ExitCommandError, "one of --records or --query is required")
	case o.Query != "" && o.Database == "":
		return NewExitError(ExitCommandError, "--query requires --db")
	case o.Log && o.Database == "":
		return NewExitError(ExitCommandError, "--log requires --db")
	}
	return nil
}

func (o *RunOptions) loadRecords(ctx context.Context, st *store.Store, c *compiled) ([]ir.Value, error) {
	if o.Query != "" {
		records, err := st.LoadRecords(ctx, c.model, c.request.Entity, o.Query)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to query records", err)
		}
		return records, nil
	}

	file, err := os.Open(o.Records)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open records", err)
	}
	defer file.Close()
	records, err := c.model.DecodeRecords(file, c.request.Entity)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load records", err)
	}
	return records, nil
}

func buildRunOutput(p *plan.Plan, out []*ir.Container) (RunOutput, error) {
	hash, err := ir.ResultHash(out)
	if err != nil {
		return RunOutput{}, err
	}
	rows := make([]json.RawMessage, len(out))
	for i, row := range out {
		b, err := plan.View(row).MarshalJSON()
		if err != nil {
			return RunOutput{}, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = b
	}
	return RunOutput{PlanID: p.ID.String(), ResultHash: hash, Rows: rows}, nil
}

func logRun(ctx context.Context, st *store.Store, p *plan.Plan, out []*ir.Container, logger *slog.Logger) (int64, error) {
	if err := st.WritePlan(ctx, p); err != nil {
		return 0, err
	}
	seq, err := st.WriteRun(ctx, p, out)
	if err != nil {
		return 0, err
	}
	logger.Info("run logged", "plan_id", p.ID, "seq", seq)
	return seq, nil
}
