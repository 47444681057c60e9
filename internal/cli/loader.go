package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/aggc/internal/compiler"
	"github.com/roach88/aggc/internal/config"
	"github.com/roach88/aggc/internal/model"
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/registry"
	"github.com/roach88/aggc/internal/request"
)

// CompileFlags are the flags shared by every command that compiles a
// request.
type CompileFlags struct {
	Model           string
	Mode            string // overrides the request's mode when set
	NullPropagation string // overrides the request's null_propagation when set
	Options         string // options YAML file, applied before NullPropagation
}

func (f *CompileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Model, "model", "m", "", "path to the CUE model (required)")
	cmd.Flags().StringVar(&f.Mode, "mode", "", "execution mode (in-memory|translated)")
	cmd.Flags().StringVar(&f.NullPropagation, "null-propagation", "", "null guards (true|false|default)")
	cmd.Flags().StringVar(&f.Options, "options", "", "path to an options YAML file")
	_ = cmd.MarkFlagRequired("model")
}

// compiled is a request compiled against its model.
type compiled struct {
	model   *model.Model
	request *request.Request
	plan    *plan.Plan
}

// compileRequest loads the model and request, applies flag overrides and
// compiles. Load failures are command errors; compile failures are
// returned as *compiler.CompileError wrapped in an ExitFailure.
func compileRequest(flags *CompileFlags, requestPath string, logger *slog.Logger) (*compiled, error) {
	md, err := model.LoadFile(flags.Model)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load model", err)
	}

	req, err := request.Load(requestPath, md)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load request", err)
	}

	if flags.Options != "" {
		opts, err := config.Load(flags.Options)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load options", err)
		}
		req.Options = opts
	}
	if flags.NullPropagation != "" {
		np, err := config.ParseNullPropagation(flags.NullPropagation)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --null-propagation", err)
		}
		req.Options.NullPropagation = np
	}
	if flags.Mode != "" {
		mode, err := config.ParseMode(flags.Mode)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --mode", err)
		}
		req.Mode = mode
	}

	reg := registry.New()
	if err := registry.RegisterStandard(reg); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to register aggregates", err)
	}

	c := compiler.New(md,
		compiler.WithRegistry(reg),
		compiler.WithOptions(req.Options),
		compiler.WithLogger(logger),
	)
	p, err := c.Compile(req.Transform, compiler.Source{Entity: req.Entity, Mode: req.Mode})
	if err != nil {
		return nil, WrapExitError(ExitFailure, "compile failed", err)
	}
	logger.Info("request compiled", "request", requestPath, "plan_id", p.ID)

	return &compiled{model: md, request: req, plan: p}, nil
}

// newLogger returns a text logger on w: Debug when verbose, otherwise
// Warn so normal runs stay quiet.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
