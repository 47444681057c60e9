package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/transform"
)

// partition is one group of elements sharing a key.
type partition struct {
	key   *ir.Container
	elems []ir.Value
}

// env is the evaluation environment of one expression.
type env struct {
	elem    ir.Value
	guarded ir.Value
	part    *partition
}

// Execute runs the plan over records and returns one output container per
// partition, in order of first occurrence.
//
// Records are typically ir.Record values of the plan's entity. Execute
// checks ctx between records.
func (p *Plan) Execute(ctx context.Context, records []ir.Value) ([]*ir.Container, error) {
	elems := records
	var parts []*partition
	grouped := false

	for _, stage := range p.Stages {
		switch s := stage.(type) {
		case *Flatten:
			wrapped := make([]ir.Value, 0, len(elems))
			for i, rec := range elems {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				v, err := eval(s.Wrapper, &env{elem: rec})
				if err != nil {
					return nil, fmt.Errorf("flatten record %d: %w", i, err)
				}
				wrapped = append(wrapped, v)
			}
			elems = wrapped

		case *Group:
			var err error
			parts, err = group(ctx, s, elems)
			if err != nil {
				return nil, err
			}
			grouped = true

		case *Project:
			if !grouped {
				return nil, errors.New("project stage before group stage")
			}
			out := make([]*ir.Container, 0, len(parts))
			for _, part := range parts {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				v, err := eval(s.Output, &env{part: part})
				if err != nil {
					return nil, fmt.Errorf("project: %w", err)
				}
				c, ok := v.(*ir.Container)
				if !ok {
					return nil, fmt.Errorf("project: output is %T, not a container", v)
				}
				out = append(out, c)
			}
			return out, nil

		default:
			return nil, fmt.Errorf("unknown stage type: %T", stage)
		}
	}
	return nil, errors.New("plan has no project stage")
}

// group partitions elems by key. Keys are bucketed by xxhash and compared
// with ir.Equal, the same equality CountDistinct uses.
func group(ctx context.Context, g *Group, elems []ir.Value) ([]*partition, error) {
	if g.Key == nil || g.Key.Shape.Len() == 0 {
		return []*partition{{key: ir.NewContainer(), elems: elems}}, nil
	}

	var parts []*partition
	buckets := make(map[uint64][]*partition)
	digest := xxhash.New()

	for i, elem := range elems {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := eval(g.Key, &env{elem: elem})
		if err != nil {
			return nil, fmt.Errorf("group key of element %d: %w", i, err)
		}
		key := v.(*ir.Container)

		digest.Reset()
		ir.Hash(digest, key)
		h := digest.Sum64()

		var found *partition
		for _, candidate := range buckets[h] {
			if ir.Equal(candidate.key, key) {
				found = candidate
				break
			}
		}
		if found == nil {
			found = &partition{key: key}
			buckets[h] = append(buckets[h], found)
			parts = append(parts, found)
		}
		found.elems = append(found.elems, elem)
	}
	return parts, nil
}

func eval(e Expr, en *env) (ir.Value, error) {
	switch x := e.(type) {
	case *Param:
		if en.elem == nil {
			return nil, errors.New("no current element")
		}
		return en.elem, nil

	case *Guarded:
		if en.guarded == nil {
			return nil, errors.New("guarded value outside null guard")
		}
		return en.guarded, nil

	case *Member:
		src, err := eval(x.Source, en)
		if err != nil {
			return nil, err
		}
		return readMember(src, x.Name)

	case *DynamicMember:
		src, err := eval(x.Source, en)
		if err != nil {
			return nil, err
		}
		rec, ok := src.(ir.Record)
		if !ok {
			if ir.IsNull(src) {
				return nil, fmt.Errorf("read %q: %w", x.Name, ErrNullReference)
			}
			return nil, fmt.Errorf("read %q: open property on %T", x.Name, src)
		}
		return rec.Get(x.Name), nil

	case *Field:
		src, err := eval(x.Source, en)
		if err != nil {
			return nil, err
		}
		c, ok := src.(*ir.Container)
		if !ok {
			if ir.IsNull(src) {
				return nil, fmt.Errorf("read cell %d: %w", x.Index, ErrNullReference)
			}
			return nil, fmt.Errorf("read cell %d: not a container: %T", x.Index, src)
		}
		cell, ok := c.At(x.Index)
		if !ok || cell.Name != x.Name {
			return nil, fmt.Errorf("container has no cell %d named %q", x.Index, x.Name)
		}
		return cell.Value, nil

	case *NullGuard:
		src, err := eval(x.Source, en)
		if err != nil {
			return nil, err
		}
		if ir.IsNull(src) {
			return ir.Null{}, nil
		}
		saved := en.guarded
		en.guarded = src
		v, err := eval(x.Body, en)
		en.guarded = saved
		return v, err

	case *Binary:
		return evalBinary(x, en)

	case *Convert:
		src, err := eval(x.Source, en)
		if err != nil {
			return nil, err
		}
		return ConvertValue(src, x.Target)

	case *Construct:
		pairs := make([]ir.Pair, len(x.Values))
		for i, ve := range x.Values {
			v, err := eval(ve, en)
			if err != nil {
				return nil, err
			}
			pairs[i] = ir.P(x.Shape.Fields[i].Name, v)
		}
		return ir.NewContainer(pairs...), nil

	case *GroupKey:
		if en.part == nil {
			return nil, errors.New("group key outside a partition")
		}
		return en.part.key, nil

	case *Reduce:
		if en.part == nil {
			return nil, errors.New("reduction outside a partition")
		}
		return reduce(x, en.part)

	default:
		return nil, fmt.Errorf("unknown expression type: %T", e)
	}
}

func readMember(src ir.Value, name string) (ir.Value, error) {
	switch s := src.(type) {
	case nil, ir.Null:
		return nil, fmt.Errorf("read %q: %w", name, ErrNullReference)
	case ir.Record:
		return s.Get(name), nil
	case *ir.Container:
		v, ok := s.Get(name)
		if !ok {
			return nil, fmt.Errorf("container has no cell %q", name)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("read %q: %T has no members", name, src)
	}
}

func evalBinary(x *Binary, en *env) (ir.Value, error) {
	left, err := eval(x.Left, en)
	if err != nil {
		return nil, err
	}
	right, err := eval(x.Right, en)
	if err != nil {
		return nil, err
	}
	if ir.IsNull(left) || ir.IsNull(right) {
		return ir.Null{}, nil
	}

	switch x.Op {
	case transform.OpAnd, transform.OpOr:
		l, lok := left.(ir.Bool)
		r, rok := right.(ir.Bool)
		if !lok || !rok {
			return nil, fmt.Errorf("%s: operands must be bool, got %T and %T", x.Op, left, right)
		}
		if x.Op == transform.OpAnd {
			return l && r, nil
		}
		return l || r, nil
	case transform.OpEq:
		return ir.Bool(ir.Equal(left, right)), nil
	case transform.OpNe:
		return ir.Bool(!ir.Equal(left, right)), nil
	}

	c, err := ir.Compare(left, right)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", x.Op, err)
	}
	switch x.Op {
	case transform.OpLt:
		return ir.Bool(c < 0), nil
	case transform.OpLe:
		return ir.Bool(c <= 0), nil
	case transform.OpGt:
		return ir.Bool(c > 0), nil
	case transform.OpGe:
		return ir.Bool(c >= 0), nil
	}
	return nil, fmt.Errorf("unknown binary operator %s", x.Op)
}
