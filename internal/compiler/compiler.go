// Package compiler turns group-by / aggregate transformation requests into
// executable plans.
//
// Compile runs, in order: shape validation, the flattening planner (when a
// grouping list and a non-count aggregate are both present), the grouping
// plan builder, the aggregate plan builder and the result shape
// synthesizer. Every path read goes through the path accessor resolver,
// which consults the per-compile flattened property map first.
//
// A Compiler holds only injected, read-only collaborators (metadata model,
// custom aggregate registry, options, logger). Each Compile call owns its
// intermediate state, so one Compiler serves concurrent calls.
package compiler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/aggc/internal/config"
	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/model"
	"github.com/roach88/aggc/internal/plan"
	"github.com/roach88/aggc/internal/registry"
	"github.com/roach88/aggc/internal/transform"
)

// Metadata resolves property names against the entity model.
// *model.Model implements it.
type Metadata interface {
	PropertyType(owner, name string) (model.Property, bool)
	IsOpen(owner string) bool
}

// Registry resolves custom aggregates. *registry.Registry implements it.
type Registry interface {
	Lookup(label string, input ir.Type) (*registry.Handle, bool)
}

// labeler is implemented by registries that can list their registrations
// for diagnostics.
type labeler interface {
	Labels() []string
}

// Source describes the queryable source a plan is compiled for.
type Source struct {
	// Entity is the modeled type of the source records.
	Entity string
	// Mode picks the null-propagation default.
	Mode config.Mode
}

// Compiler compiles transformation requests.
type Compiler struct {
	md      Metadata
	reg     Registry
	options config.Options
	logger  *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithRegistry sets the custom aggregate registry.
func WithRegistry(r Registry) Option {
	return func(c *Compiler) {
		c.reg = r
	}
}

// WithOptions sets the compiler options.
func WithOptions(o config.Options) Option {
	return func(c *Compiler) {
		c.options = o
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// New creates a compiler over a metadata model.
func New(md Metadata, opts ...Option) *Compiler {
	c := &Compiler{
		md:     md,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// compilation is the state of one Compile call.
type compilation struct {
	*Compiler
	src    Source
	guards bool

	// rangeVar resolves the range variable: the record itself, or the
	// Source cell of the flatten wrapper.
	rangeVar plan.Expr

	// flattened maps transform.Key of a hoisted path to its cell read.
	flattened map[string]plan.Expr
}

// Compile compiles req for src. On failure it returns a *CompileError and
// no plan.
func (c *Compiler) Compile(req transform.Request, src Source) (*plan.Plan, error) {
	if err := checkShape(req); err != nil {
		return nil, err
	}

	var (
		grouping []transform.GroupingProperty
		aggs     []transform.AggregateExpression
	)
	switch r := req.(type) {
	case *transform.Aggregate:
		aggs = r.Expressions
	case *transform.GroupBy:
		grouping = r.Properties
		if r.Aggregate != nil {
			aggs = r.Aggregate.Expressions
		}
	default:
		return nil, &CompileError{
			Code:    ErrCodeUnsupportedTransformationKind,
			Message: "transformation must be aggregate or groupby",
			Type:    typeName(req),
		}
	}
	if len(grouping) > 0 {
		for _, a := range aggs {
			if a.Alias == plan.GroupByField {
				return nil, &CompileError{
					Code:    ErrCodeDuplicateAlias,
					Message: "alias collides with the reserved grouping key field",
					Method:  a.Method.String(),
				}
			}
		}
	}

	cc := &compilation{
		Compiler:  c,
		src:       src,
		guards:    c.options.Guards(src.Mode),
		rangeVar:  &plan.Param{Of: ir.EntityType(src.Entity)},
		flattened: make(map[string]plan.Expr),
	}

	var stages []plan.Stage

	if needsFlattening(grouping, aggs, cc.flattened) {
		flatten, err := cc.flatten(aggs)
		if err != nil {
			return nil, err
		}
		stages = append(stages, flatten)
	}

	key, keyShape, err := cc.groupKey(grouping)
	if err != nil {
		return nil, err
	}
	stages = append(stages, &plan.Group{Key: key})

	reductions, err := cc.aggregates(aggs)
	if err != nil {
		return nil, err
	}

	output, outShape := synthesizeOutput(reductions, keyShape, len(grouping) > 0, len(aggs) > 0)
	stages = append(stages, &plan.Project{Output: output})

	p := plan.New(src.Entity, src.Mode, cc.guards, outShape, stages...)
	c.logger.Debug("plan assembled",
		"plan", p.ID,
		"entity", src.Entity,
		"mode", src.Mode,
		"null_guards", cc.guards,
		"flattened", p.Flattened(),
		"stages", len(p.Stages))
	return p, nil
}

// checkShape maps request shape violations onto compile error codes.
func checkShape(req transform.Request) error {
	err := transform.Validate(req)
	if err == nil {
		return nil
	}
	var se *transform.ShapeError
	if !errors.As(err, &se) {
		return err
	}
	code := ErrCodeUnsupportedTransformationKind
	switch se.Kind {
	case "grouping":
		code = ErrCodeInvalidGroupingPropertyShape
	case "alias":
		code = ErrCodeDuplicateAlias
	case "request":
		if se.Name != "" {
			// An aggregate without a path.
			code = ErrCodeUnsupportedPathKind
		}
	}
	return &CompileError{Code: code, Message: se.Error()}
}

func typeName(req transform.Request) string {
	return fmt.Sprintf("%T", req)
}

func (cc *compilation) lookup(label string, input ir.Type) (*registry.Handle, bool) {
	if cc.reg == nil {
		return nil, false
	}
	return cc.reg.Lookup(label, input)
}
