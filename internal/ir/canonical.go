package ir

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for stored documents
// and fingerprints. Two equal literals always produce identical bytes.
//
// Differences from MarshalLiteral:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Undefined map entries are dropped, Undefined list elements become null
func MarshalCanonical(v Literal) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v Literal) error {
	switch val := v.(type) {
	case nil, Null, Undefined:
		buf.WriteString("null")
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		b, err := formatNumber(float64(val))
		if err != nil {
			return err
		}
		buf.Write(b)
	case Str:
		b, err := marshalCanonicalString(string(val))
		if err != nil {
			return err
		}
		buf.Write(b)
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("list[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Map:
		buf.WriteByte('{')
		first := true
		for _, k := range val.SortedKeys() {
			if _, ok := val[k].(Undefined); ok {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false

			kb, err := marshalCanonicalString(k)
			if err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// marshalCanonicalString produces a canonical JSON string with NFC normalization.
// Only control characters, backslash and quote are escaped; U+2028 and U+2029
// are emitted literally.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds trailing newline
	result := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators converts \u2028 and \u2029 escapes back to literal
// characters, leaving \\u2028 (escaped backslash followed by text) intact.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' {
			out = append(out, data[i])
			continue
		}
		if i+5 < len(data) && data[i+1] == 'u' && string(data[i+2:i+5]) == "202" &&
			(data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		// Any other escape: copy both bytes so the pair is never re-examined.
		out = append(out, data[i])
		if i+1 < len(data) {
			out = append(out, data[i+1])
			i++
		}
	}
	return out
}
