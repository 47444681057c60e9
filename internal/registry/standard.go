package registry

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/aggc/internal/ir"
)

// RegisterStandard installs the stock custom aggregates:
//   - stddev: population standard deviation of int32, int64, float64 and
//     decimal inputs, as float64?; null when no non-null input
//   - concat: comma-joined non-null strings, as string
func RegisterStandard(r *Registry) error {
	for _, in := range []ir.Type{ir.TypeInt32, ir.TypeInt64, ir.TypeFloat64, ir.TypeDecimal} {
		if err := r.Register("stddev", in, ir.TypeFloat64.AsNullable(), stddev); err != nil {
			return err
		}
	}
	return r.Register("concat", ir.TypeString, ir.TypeString, concat)
}

func stddev(values []ir.Value) (ir.Value, error) {
	var sum, sumSq float64
	n := 0
	for _, v := range values {
		var f float64
		switch x := v.(type) {
		case ir.Null:
			continue
		case ir.Int:
			f = float64(x)
		case ir.Float:
			f = float64(x)
		case ir.Decimal:
			var err error
			if f, err = x.Float64(); err != nil {
				return nil, fmt.Errorf("stddev: %w", err)
			}
		default:
			return nil, fmt.Errorf("stddev: unsupported value %T", v)
		}
		sum += f
		sumSq += f * f
		n++
	}
	if n == 0 {
		return ir.Null{}, nil
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0 // rounding
	}
	return ir.Float(math.Sqrt(variance)), nil
}

func concat(values []ir.Value) (ir.Value, error) {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		switch s := v.(type) {
		case ir.Null:
		case ir.String:
			parts = append(parts, string(s))
		default:
			return nil, fmt.Errorf("concat: unsupported value %T", v)
		}
	}
	return ir.String(strings.Join(parts, ",")), nil
}
