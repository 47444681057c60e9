package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON for snapshots and hashing.
//
// Differences from MarshalValue:
//  1. Strings are NFC normalized and not HTML escaped
//  2. Record keys are sorted; container cells keep chain order
//  3. Decimals are rendered in reduced form so 1.50 and 1.5 agree
//  4. Non-finite floats are rejected
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalCanonicalList renders a list of values as a canonical JSON array.
func MarshalCanonicalList[V Value](vals []V) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonical(&buf, v); err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case String:
		return writeCanonicalString(buf, string(val))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("non-finite float %v has no canonical form", f)
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	case Decimal:
		buf.WriteString(canonicalDecimal(val))
	case Record:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("record[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case *Container:
		buf.WriteByte('{')
		i := 0
		for cur := val; !cur.IsLast(); cur = cur.Next {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, cur.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, cur.Value); err != nil {
				return fmt.Errorf("container[%q]: %w", cur.Name, err)
			}
			i++
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString writes an NFC normalized JSON string without HTML escaping.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

// canonicalDecimal renders a decimal without trailing fractional zeros.
func canonicalDecimal(v Decimal) string {
	s := v.Apd().Text('f')
	if strings.Contains(s, ".") {
		s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
