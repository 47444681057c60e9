package plan

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/aggc/internal/ir"
)

// CanConvert reports whether Convert accepts from -> to.
//
// Supported: identity, numeric to numeric, any primitive to string, string
// to any primitive, and dynamic to any primitive (checked at run time).
func CanConvert(from, to ir.Type) bool {
	if !to.Kind.IsPrimitive() {
		return false
	}
	switch {
	case from.SameKind(to):
		return true
	case from.Kind == ir.KindDynamic:
		return true
	case from.Kind.IsNumeric() && to.Kind.IsNumeric():
		return true
	case from.Kind.IsPrimitive() && to.Kind == ir.KindString:
		return true
	case from.Kind == ir.KindString:
		return true
	}
	return false
}

// ConvertValue converts v to the target primitive type. Null stays null.
func ConvertValue(v ir.Value, to ir.Type) (ir.Value, error) {
	if ir.IsNull(v) {
		return ir.Null{}, nil
	}
	switch to.Kind {
	case ir.KindString:
		return toString(v)
	case ir.KindBool:
		switch x := v.(type) {
		case ir.Bool:
			return x, nil
		case ir.String:
			b, err := strconv.ParseBool(string(x))
			if err != nil {
				return nil, fmt.Errorf("convert %q to bool: %w", string(x), err)
			}
			return ir.Bool(b), nil
		}
	case ir.KindInt32, ir.KindInt64:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if to.Kind == ir.KindInt32 && (n < math.MinInt32 || n > math.MaxInt32) {
			return nil, fmt.Errorf("convert %d to int32: out of range", n)
		}
		return ir.Int(n), nil
	case ir.KindFloat64:
		switch x := v.(type) {
		case ir.Int:
			return ir.Float(float64(x)), nil
		case ir.Float:
			return x, nil
		case ir.Decimal:
			f, err := x.Float64()
			if err != nil {
				return nil, fmt.Errorf("convert %s to float64: %w", x, err)
			}
			return ir.Float(f), nil
		case ir.String:
			f, err := strconv.ParseFloat(string(x), 64)
			if err != nil {
				return nil, fmt.Errorf("convert %q to float64: %w", string(x), err)
			}
			return ir.Float(f), nil
		}
	case ir.KindDecimal:
		switch x := v.(type) {
		case ir.Int:
			return ir.DecimalFromInt(int64(x)), nil
		case ir.Float:
			return ir.DecimalFromFloat(float64(x))
		case ir.Decimal:
			return x, nil
		case ir.String:
			return ir.NewDecimal(string(x))
		}
	}
	return nil, fmt.Errorf("cannot convert %T to %s", v, to)
}

func toString(v ir.Value) (ir.Value, error) {
	switch x := v.(type) {
	case ir.String:
		return x, nil
	case ir.Bool:
		return ir.String(strconv.FormatBool(bool(x))), nil
	case ir.Int:
		return ir.String(strconv.FormatInt(int64(x), 10)), nil
	case ir.Float:
		return ir.String(strconv.FormatFloat(float64(x), 'g', -1, 64)), nil
	case ir.Decimal:
		return ir.String(x.String()), nil
	}
	return nil, fmt.Errorf("cannot convert %T to string", v)
}

var truncContext = func() *apd.Context {
	c := ir.DecimalContext.WithPrecision(ir.DecimalContext.Precision)
	c.Rounding = apd.RoundDown
	return c
}()

// toInt64 truncates toward zero.
func toInt64(v ir.Value) (int64, error) {
	switch x := v.(type) {
	case ir.Int:
		return int64(x), nil
	case ir.Float:
		f := math.Trunc(float64(x))
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("convert %v to integer: out of range", float64(x))
		}
		return int64(f), nil
	case ir.Decimal:
		var truncated apd.Decimal
		if _, err := truncContext.RoundToIntegralValue(&truncated, x.Apd()); err != nil {
			return 0, fmt.Errorf("convert %s to integer: %w", x, err)
		}
		n, err := truncated.Int64()
		if err != nil {
			return 0, fmt.Errorf("convert %s to integer: %w", x, err)
		}
		return n, nil
	case ir.String:
		n, err := strconv.ParseInt(string(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("convert %q to integer: %w", string(x), err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("cannot convert %T to integer", v)
}
