package ir

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/apd/v3"
)

// Equal reports whether a and b are structurally equal.
//
// Null equals Null and nothing else. Values of different concrete types are
// never equal (Int(1) != Float(1)). Decimals compare numerically, floats by
// bit pattern with -0 == +0. Records compare field by field, treating a
// missing field as Null. Containers compare cell by cell, names included.
//
// Equal is the single equality used by grouping and by CountDistinct.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}

	switch x := a.(type) {
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Float:
		y, ok := b.(Float)
		return ok && floatBits(float64(x)) == floatBits(float64(y))
	case Decimal:
		y, ok := b.(Decimal)
		return ok && x.Apd().Cmp(y.Apd()) == 0
	case Record:
		y, ok := b.(Record)
		if !ok {
			return false
		}
		for k, v := range x {
			if !Equal(v, y.Get(k)) {
				return false
			}
		}
		for k, v := range y {
			if _, seen := x[k]; !seen && !IsNull(v) {
				return false
			}
		}
		return true
	case *Container:
		y, ok := b.(*Container)
		if !ok {
			return false
		}
		cx, cy := x, y
		for !cx.IsLast() && !cy.IsLast() {
			if cx.Name != cy.Name || !Equal(cx.Value, cy.Value) {
				return false
			}
			cx, cy = cx.Next, cy.Next
		}
		return cx.IsLast() && cy.IsLast()
	default:
		return false
	}
}

// floatBits normalizes -0 to +0 and every NaN to one pattern.
func floatBits(f float64) uint64 {
	if f == 0 {
		return 0
	}
	if math.IsNaN(f) {
		return 0x7ff8000000000001
	}
	return math.Float64bits(f)
}

// Type tags written ahead of each hashed value.
const (
	tagNull byte = iota
	tagBool
	tagString
	tagInt
	tagFloat
	tagDecimal
	tagRecord
	tagContainer
)

// Hash writes v into d such that Equal(a, b) implies equal digests.
func Hash(d *xxhash.Digest, v Value) {
	var scratch [8]byte
	switch val := v.(type) {
	case nil, Null:
		_, _ = d.Write([]byte{tagNull})
	case Bool:
		b := byte(0)
		if val {
			b = 1
		}
		_, _ = d.Write([]byte{tagBool, b})
	case String:
		_, _ = d.Write([]byte{tagString})
		binary.LittleEndian.PutUint64(scratch[:], uint64(len(val)))
		_, _ = d.Write(scratch[:])
		_, _ = d.WriteString(string(val))
	case Int:
		_, _ = d.Write([]byte{tagInt})
		binary.LittleEndian.PutUint64(scratch[:], uint64(val))
		_, _ = d.Write(scratch[:])
	case Float:
		_, _ = d.Write([]byte{tagFloat})
		binary.LittleEndian.PutUint64(scratch[:], floatBits(float64(val)))
		_, _ = d.Write(scratch[:])
	case Decimal:
		_, _ = d.Write([]byte{tagDecimal})
		_, _ = d.WriteString(decimalKey(val))
		_, _ = d.Write([]byte{0})
	case Record:
		_, _ = d.Write([]byte{tagRecord})
		for _, k := range val.SortedKeys() {
			if IsNull(val[k]) {
				continue
			}
			_, _ = d.WriteString(k)
			_, _ = d.Write([]byte{0})
			Hash(d, val[k])
		}
		_, _ = d.Write([]byte{0xff})
	case *Container:
		_, _ = d.Write([]byte{tagContainer})
		for cur := val; !cur.IsLast(); cur = cur.Next {
			_, _ = d.WriteString(cur.Name)
			_, _ = d.Write([]byte{0})
			Hash(d, cur.Value)
		}
		_, _ = d.Write([]byte{0xff})
	}
}

// HashValue returns the 64-bit hash of a single value.
func HashValue(v Value) uint64 {
	d := xxhash.New()
	Hash(d, v)
	return d.Sum64()
}

// decimalKey returns a representation shared by all numerically equal decimals.
func decimalKey(v Decimal) string {
	d := v.Apd()
	if d.IsZero() {
		return "0"
	}
	reduced, _ := new(apd.Decimal).Reduce(d)
	return reduced.Text('E')
}

// Compare orders two non-null values of the same orderable kind.
// It returns an error for mismatched or unordered values.
func Compare(a, b Value) (int, error) {
	switch x := a.(type) {
	case String:
		if y, ok := b.(String); ok {
			return strings.Compare(string(x), string(y)), nil
		}
	case Int:
		if y, ok := b.(Int); ok {
			return cmp.Compare(x, y), nil
		}
	case Float:
		if y, ok := b.(Float); ok {
			return cmp.Compare(float64(x), float64(y)), nil
		}
	case Decimal:
		if y, ok := b.(Decimal); ok {
			return x.Apd().Cmp(y.Apd()), nil
		}
	default:
		return 0, fmt.Errorf("values of type %T have no ordering", a)
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}
