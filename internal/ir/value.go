package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// Value is a sealed interface representing run-time values.
// Only Null, Bool, String, Int, Float, Decimal, Record and *Container
// implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents an absent value.
type Null struct{}

func (Null) irValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Bool represents a boolean value.
type Bool bool

func (Bool) irValue() {}

// String represents a string value.
type String string

func (String) irValue() {}

// Int represents an integer value. Int32 and Int64 typed paths both carry Int.
type Int int64

func (Int) irValue() {}

// Float represents a float64 value.
type Float float64

func (Float) irValue() {}

// Decimal represents an arbitrary precision decimal value.
// The zero Decimal is 0.
type Decimal struct {
	d *apd.Decimal
}

func (Decimal) irValue() {}

// DecimalContext is the arithmetic context used for decimal reductions.
var DecimalContext = apd.BaseContext.WithPrecision(34)

// NewDecimal parses a decimal literal.
func NewDecimal(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Decimal{d: d}, nil
}

// MustDecimal is like NewDecimal but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDecimal(s string) Decimal {
	d, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DecimalFromInt converts an integer to a Decimal.
func DecimalFromInt(n int64) Decimal {
	return Decimal{d: apd.New(n, 0)}
}

// DecimalFromFloat converts a float to a Decimal.
func DecimalFromFloat(f float64) (Decimal, error) {
	d := new(apd.Decimal)
	if _, err := d.SetFloat64(f); err != nil {
		return Decimal{}, fmt.Errorf("convert %v to decimal: %w", f, err)
	}
	return Decimal{d: d}, nil
}

// WrapDecimal wraps an apd decimal. The caller must not mutate d afterwards.
func WrapDecimal(d *apd.Decimal) Decimal {
	return Decimal{d: d}
}

// Apd returns the underlying decimal. Callers must treat it as read-only.
func (d Decimal) Apd() *apd.Decimal {
	if d.d == nil {
		return apd.New(0, 0)
	}
	return d.d
}

// Float64 returns the closest float64.
func (d Decimal) Float64() (float64, error) {
	return d.Apd().Float64()
}

func (d Decimal) String() string {
	return d.Apd().Text('f')
}

// MarshalJSON renders the decimal as a JSON number.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// Record represents an instance of a modeled entity or complex type.
// Missing keys read as Null. Use SortedKeys() for deterministic iteration.
type Record map[string]Value

func (Record) irValue() {}

// SortedKeys returns the record's keys in ascending order.
func (r Record) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Get returns the field value, or Null when it is absent.
func (r Record) Get(name string) Value {
	if v, ok := r[name]; ok && v != nil {
		return v
	}
	return Null{}
}

// MarshalJSON implements json.Marshaler with sorted keys.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := MarshalValue(r[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// IsNull reports whether v is absent.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// MarshalValue marshals a Value to JSON bytes.
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for hashing.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(val))
	case String:
		return json.Marshal(string(val))
	case Int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("cannot marshal non-finite float %v", f)
		}
		return json.Marshal(f)
	case Decimal:
		return val.MarshalJSON()
	case Record:
		return val.MarshalJSON()
	case *Container:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// FromGo converts a decoded Go value (as produced by encoding/json with
// UseNumber, yaml.v3 or database/sql) into a Value. Integral numbers become
// Int, other numbers Float. Arrays are rejected: paths are single-valued.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case []byte:
		return String(string(val)), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val.String(), err)
		}
		return Float(f), nil
	case map[string]any:
		rec := make(Record, len(val))
		for k, elem := range val {
			ev, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			rec[k] = ev
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// TypeOf returns the dynamic type of a value. Records report KindEntity
// without a name; callers that need the modeled name track it statically.
func TypeOf(v Value) Type {
	switch v.(type) {
	case nil, Null:
		return Type{Kind: KindUnknown, Nullable: true}
	case Bool:
		return TypeBool
	case String:
		return TypeString
	case Int:
		return TypeInt64
	case Float:
		return TypeFloat64
	case Decimal:
		return TypeDecimal
	case Record:
		return Type{Kind: KindEntity}
	case *Container:
		return TypeContainer
	default:
		return Type{}
	}
}
