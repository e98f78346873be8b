package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"
)

// Literal is a sealed interface representing a coerced command value.
// Only Null, Undefined, Bool, Number, Str, List and Map implement it.
//
// Consumers switch on the concrete type instead of probing shapes:
//
//	switch v := lit.(type) {
//	case ir.Map:
//	    // structured value
//	case ir.Str:
//	    // plain text (also the fallback for undecodable literals)
//	}
type Literal interface {
	literal() // Sealed - only these types implement it
}

// Null represents an explicit null ("" or "null" in command text).
type Null struct{}

func (Null) literal() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Undefined represents the "undefined" keyword.
// Map entries holding Undefined are omitted when marshaled; list elements become null.
type Undefined struct{}

func (Undefined) literal() {}

// MarshalJSON implements json.Marshaler for Undefined.
func (Undefined) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Bool represents a boolean value.
type Bool bool

func (Bool) literal() {}

// Number represents a numeric value. Integers and decimals share one type.
type Number float64

func (Number) literal() {}

// MarshalJSON renders integral values without a fractional part.
func (n Number) MarshalJSON() ([]byte, error) {
	return formatNumber(float64(n))
}

// Int returns the number truncated to int64.
func (n Number) Int() int64 {
	return int64(n)
}

// IsInt reports whether the number has no fractional part.
func (n Number) IsInt() bool {
	f := float64(n)
	return f == math.Trunc(f) && !math.IsInf(f, 0)
}

// Str represents a string value.
type Str string

func (Str) literal() {}

// List represents an ordered list of literals.
type List []Literal

func (List) literal() {}

// Map represents a string-keyed map of literals.
// Use SortedKeys() for deterministic iteration.
type Map map[string]Literal

func (Map) literal() {}

// Clone returns a deep copy of the map.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = CloneLiteral(v)
	}
	return out
}

// CloneLiteral returns a deep copy of v. Scalars are returned as-is.
func CloneLiteral(v Literal) Literal {
	switch val := v.(type) {
	case Map:
		return val.Clone()
	case List:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = CloneLiteral(elem)
		}
		return out
	default:
		return v
	}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings orders by UTF-8 bytes, which differs for some inputs.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// MarshalJSON implements json.Marshaler for Map with sorted keys.
// Undefined entries are skipped.
func (m Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	for _, k := range m.SortedKeys() {
		if _, ok := m[k].(Undefined); ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalLiteral(m[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler for List.
func (l List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalLiteral(elem)
		if err != nil {
			return nil, fmt.Errorf("list[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler for Map.
func (m *Map) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*m = nil
		return nil
	}
	lit, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	obj, ok := lit.(Map)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", lit)
	}
	*m = obj
	return nil
}

// MarshalLiteral marshals a Literal to JSON bytes.
// This is NOT canonical marshaling; use MarshalCanonical for hashing.
func MarshalLiteral(v Literal) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null, Undefined:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(val))
	case Number:
		return formatNumber(float64(val))
	case Str:
		return json.Marshal(string(val))
	case List:
		return val.MarshalJSON()
	case Map:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown Literal type: %T", v)
	}
}

// formatNumber renders a float in the shortest form that round-trips.
func formatNumber(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("number is not finite: %v", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// DecodeJSON strictly decodes exactly one JSON value into a Literal.
// Trailing data after the value is an error.
func DecodeJSON(data []byte) (Literal, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected trailing data after JSON value")
	}

	return FromGo(raw)
}

// FromGo converts a decoded Go value (as produced by encoding/json or yaml.v3)
// into a Literal.
func FromGo(v any) (Literal, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Literal:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return Str(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", val)
		}
		return Number(f), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case float64:
		return Number(val), nil
	case []any:
		out := make(List, len(val))
		for i, elem := range val {
			lit, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			out[i] = lit
		}
		return out, nil
	case map[string]any:
		out := make(Map, len(val))
		for k, elem := range val {
			lit, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			out[k] = lit
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Literal into plain Go values (nil, bool, float64, string,
// []any, map[string]any). Undefined map entries are dropped.
func ToGo(v Literal) any {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Number:
		return float64(val)
	case Str:
		return string(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Map:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			if _, ok := elem.(Undefined); ok {
				continue
			}
			out[k] = ToGo(elem)
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether two literals are structurally identical.
func Equal(a, b Literal) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case Undefined:
		_, ok := b.(Undefined)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
