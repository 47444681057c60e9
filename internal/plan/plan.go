package plan

import (
	"errors"

	"github.com/google/uuid"

	"github.com/roach88/aggc/internal/config"
	"github.com/roach88/aggc/internal/shape"
)

// GroupByField is the reserved output cell holding the grouping key when a
// request both groups and aggregates.
const GroupByField = "$groupby"

// Flatten wrapper cell names.
const (
	SourceField    = "Source"
	FlattenedField = "Flattened"
)

// ErrNullReference is returned by Execute when a member is read from a
// null value that no null guard protects.
var ErrNullReference = errors.New("member access on null value")

// Stage is a sealed interface for plan stages.
type Stage interface {
	planStage() // Sealed - only these types implement it

	// Name identifies the stage kind in explain output.
	Name() string
}

// Flatten maps each input record to a wrapper container.
type Flatten struct {
	Wrapper *Construct
}

func (*Flatten) planStage()   {}
func (*Flatten) Name() string { return "flatten" }

// Group partitions elements by the value of Key. A key with no fields puts
// every element, and an empty input, into one partition.
type Group struct {
	Key *Construct
}

func (*Group) planStage()   {}
func (*Group) Name() string { return "group" }

// Project builds one output container per partition.
type Project struct {
	Output Expr
}

func (*Project) planStage()   {}
func (*Project) Name() string { return "project" }

// Plan is a compiled aggregation pipeline.
type Plan struct {
	ID         uuid.UUID
	Entity     string
	Mode       config.Mode
	NullGuards bool
	Stages     []Stage
	Output     *shape.Shape
}

// planNamespace seeds plan IDs.
var planNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/aggc/plan"))

// New assembles a plan and derives its ID from the rendered plan.
func New(entity string, mode config.Mode, guards bool, output *shape.Shape, stages ...Stage) *Plan {
	p := &Plan{
		Entity:     entity,
		Mode:       mode,
		NullGuards: guards,
		Stages:     stages,
		Output:     output,
	}
	p.ID = uuid.NewSHA1(planNamespace, []byte(Render(p)))
	return p
}

// Flattened reports whether the plan starts with a Flatten stage.
func (p *Plan) Flattened() bool {
	if len(p.Stages) == 0 {
		return false
	}
	_, ok := p.Stages[0].(*Flatten)
	return ok
}

// Stage returns the first stage with the given name.
func (p *Plan) Stage(name string) (Stage, bool) {
	for _, s := range p.Stages {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}
