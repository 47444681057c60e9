package model

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/roach88/aggc/internal/ir"
)

// Coerce converts a decoded raw object (JSON, YAML or SQL row) into a
// record of the named structured type. Declared primitive properties are
// converted to their declared kind; navigation and complex properties are
// coerced recursively; nil becomes Null. Undeclared fields are kept as
// dynamic values on open types and rejected on closed types.
func (m *Model) Coerce(typeName string, raw map[string]any) (ir.Record, error) {
	t, ok := m.types[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", typeName)
	}

	rec := make(ir.Record, len(raw))
	for name, v := range raw {
		p, declared := t.Property(name)
		if !declared {
			if !t.Open {
				return nil, fmt.Errorf("%s: undeclared property %q", typeName, name)
			}
			dv, err := ir.FromGo(v)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", typeName, name, err)
			}
			rec[name] = dv
			continue
		}

		val, err := m.coerceProperty(p, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", typeName, name, err)
		}
		rec[name] = val
	}
	return rec, nil
}

// DecodeRecords reads a JSON array of objects and coerces each one into a
// record of the named type. Numbers keep their literal text until coercion,
// so "18.10" and 18.10 both reach a decimal property exactly.
func (m *Model) DecodeRecords(r io.Reader, typeName string) ([]ir.Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	out := make([]ir.Value, len(raw))
	for i, obj := range raw {
		rec, err := m.Coerce(typeName, obj)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = rec
	}
	return out, nil
}

func (m *Model) coerceProperty(p Property, v any) (ir.Value, error) {
	if v == nil {
		if !p.Type.Nullable {
			return nil, fmt.Errorf("null for non-nullable %s", p.Type)
		}
		return ir.Null{}, nil
	}
	switch p.Kind {
	case PropertyNavigation, PropertyComplex:
		if rec, ok := v.(ir.Record); ok {
			return rec, nil
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object for %s, got %T", p.Type.Name, v)
		}
		return m.Coerce(p.Type.Name, obj)
	default:
		return CoercePrimitive(p.Type, v)
	}
}

// CoercePrimitive converts a raw scalar to a value of the given primitive type.
func CoercePrimitive(t ir.Type, v any) (ir.Value, error) {
	if v == nil {
		return ir.Null{}, nil
	}
	if iv, ok := v.(ir.Value); ok {
		if ir.IsNull(iv) {
			return ir.Null{}, nil
		}
		return iv, nil
	}

	switch t.Kind {
	case ir.KindBool:
		switch b := v.(type) {
		case bool:
			return ir.Bool(b), nil
		case int64:
			return ir.Bool(b != 0), nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, err
			}
			return ir.Bool(parsed), nil
		}
	case ir.KindString:
		switch s := v.(type) {
		case string:
			return ir.String(s), nil
		case []byte:
			return ir.String(string(s)), nil
		}
	case ir.KindInt32, ir.KindInt64:
		n, err := toInt(v)
		if err != nil {
			return nil, err
		}
		if t.Kind == ir.KindInt32 && (n < math.MinInt32 || n > math.MaxInt32) {
			return nil, fmt.Errorf("%d overflows int32", n)
		}
		return ir.Int(n), nil
	case ir.KindFloat64:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		return ir.Float(f), nil
	case ir.KindDecimal:
		return toDecimal(v)
	case ir.KindDynamic:
		return ir.FromGo(v)
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, t)
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not integral", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	}
	return 0, fmt.Errorf("cannot use %T as integer", v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	case []byte:
		return strconv.ParseFloat(string(n), 64)
	}
	return 0, fmt.Errorf("cannot use %T as float", v)
}

func toDecimal(v any) (ir.Value, error) {
	switch n := v.(type) {
	case int:
		return ir.DecimalFromInt(int64(n)), nil
	case int64:
		return ir.DecimalFromInt(n), nil
	case float64:
		// Go through the shortest decimal text so 18.1 stays 18.1.
		return ir.NewDecimal(strconv.FormatFloat(n, 'f', -1, 64))
	case json.Number:
		return ir.NewDecimal(n.String())
	case string:
		return ir.NewDecimal(n)
	case []byte:
		return ir.NewDecimal(string(n))
	}
	return nil, fmt.Errorf("cannot use %T as decimal", v)
}
