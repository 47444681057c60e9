package plan

import (
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/transform"
)

// reduce folds one reduction over a partition.
//
// Empty-input policy: Count and CountDistinct yield 0, Sum yields the zero
// of its result type, Min, Max and Average yield null. Sum, Min, Max and
// Average skip nulls; CountDistinct counts null as one distinct value.
func reduce(r *Reduce, part *partition) (ir.Value, error) {
	if r.Method.Kind == transform.MethodCount {
		return ir.Int(len(part.elems)), nil
	}

	values := make([]ir.Value, len(part.elems))
	for i, elem := range part.elems {
		v, err := eval(r.Input, &env{elem: elem, part: part})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Method, err)
		}
		values[i] = v
	}

	switch r.Method.Kind {
	case transform.MethodMin:
		return extreme(values, -1)
	case transform.MethodMax:
		return extreme(values, 1)
	case transform.MethodSum:
		return sum(values, r.Of)
	case transform.MethodAverage:
		return average(values, r.Of)
	case transform.MethodCountDistinct:
		return ir.Int(countDistinct(values)), nil
	case transform.MethodCustom:
		if r.Fn == nil {
			return nil, fmt.Errorf("%s: no function bound", r.Method)
		}
		v, err := r.Fn(values)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Method, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown aggregate method %s", r.Method)
	}
}

// extreme returns the minimum (sign -1) or maximum (sign 1) non-null value.
func extreme(values []ir.Value, sign int) (ir.Value, error) {
	var best ir.Value = ir.Null{}
	for _, v := range values {
		if ir.IsNull(v) {
			continue
		}
		if ir.IsNull(best) {
			best = v
			continue
		}
		c, err := ir.Compare(v, best)
		if err != nil {
			return nil, err
		}
		if c*sign > 0 {
			best = v
		}
	}
	return best, nil
}

func countDistinct(values []ir.Value) int {
	seen := make(map[uint64][]ir.Value)
	n := 0
	for _, v := range values {
		h := ir.HashValue(v)
		dup := false
		for _, prior := range seen[h] {
			if ir.Equal(prior, v) {
				dup = true
				break
			}
		}
		if !dup {
			seen[h] = append(seen[h], v)
			n++
		}
	}
	return n
}

// numericAcc sums values of one numeric kind.
type numericAcc struct {
	kind ir.Kind
	n    int
	i    int64
	f    float64
	d    apd.Decimal
}

func (a *numericAcc) add(v ir.Value) error {
	if ir.IsNull(v) {
		return nil
	}
	a.n++
	switch a.kind {
	case ir.KindInt64:
		x, ok := v.(ir.Int)
		if !ok {
			return fmt.Errorf("expected integer, got %T", v)
		}
		s := a.i + int64(x)
		if (s > a.i) != (x > 0) {
			return fmt.Errorf("integer overflow")
		}
		a.i = s
	case ir.KindFloat64:
		switch x := v.(type) {
		case ir.Float:
			a.f += float64(x)
		case ir.Int:
			a.f += float64(x)
		default:
			return fmt.Errorf("expected number, got %T", v)
		}
	case ir.KindDecimal:
		x, ok := v.(ir.Decimal)
		if !ok {
			return fmt.Errorf("expected decimal, got %T", v)
		}
		if _, err := ir.DecimalContext.Add(&a.d, &a.d, x.Apd()); err != nil {
			return fmt.Errorf("decimal sum: %w", err)
		}
	default:
		return fmt.Errorf("cannot accumulate %s", a.kind)
	}
	return nil
}

func sum(values []ir.Value, result ir.Type) (ir.Value, error) {
	acc := &numericAcc{kind: result.Kind}
	for _, v := range values {
		if err := acc.add(v); err != nil {
			return nil, fmt.Errorf("sum: %w", err)
		}
	}
	switch result.Kind {
	case ir.KindInt64:
		return ir.Int(acc.i), nil
	case ir.KindFloat64:
		return ir.Float(acc.f), nil
	default:
		return ir.WrapDecimal(new(apd.Decimal).Set(&acc.d)), nil
	}
}

func average(values []ir.Value, result ir.Type) (ir.Value, error) {
	// Integer averages accumulate in float64 so large sums do not overflow.
	acc := &numericAcc{kind: result.Kind}
	for _, v := range values {
		if err := acc.add(v); err != nil {
			return nil, fmt.Errorf("average: %w", err)
		}
	}
	if acc.n == 0 {
		return ir.Null{}, nil
	}
	if result.Kind == ir.KindDecimal {
		q := new(apd.Decimal)
		if _, err := ir.DecimalContext.Quo(q, &acc.d, apd.New(int64(acc.n), 0)); err != nil {
			return nil, fmt.Errorf("average: %w", err)
		}
		return ir.WrapDecimal(q), nil
	}
	avg := acc.f / float64(acc.n)
	if math.IsInf(avg, 0) {
		return nil, fmt.Errorf("average: float overflow")
	}
	return ir.Float(avg), nil
}
