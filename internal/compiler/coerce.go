package compiler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/scan"
)

var (
	numberPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

	// bareKeyPattern finds identifier keys before a colon, e.g. {priority: 1}.
	bareKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][A-Za-z0-9_$]*)(\s*:)`)
)

// Coerce turns a raw text fragment into a Literal. It never fails: text
// that matches no literal form, including malformed maps, comes back as Str.
func Coerce(text string) ir.Literal {
	text = strings.TrimSpace(text)

	switch text {
	case "", "null":
		return ir.Null{}
	case "undefined":
		return ir.Undefined{}
	case "true":
		return ir.Bool(true)
	case "false":
		return ir.Bool(false)
	}

	if numberPattern.MatchString(text) {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return ir.Number(f)
		}
	}

	switch {
	case scan.Enclosed(text, '['):
		return coerceList(text[1 : len(text)-1])
	case scan.Enclosed(text, '{'):
		return coerceMap(text)
	case scan.Enclosed(text, '"'), scan.Enclosed(text, '\''):
		return ir.Str(unquote(text))
	}

	return ir.Str(text)
}

func coerceList(inner string) ir.List {
	parts := scan.SplitTopLevel(inner, ',')
	out := make(ir.List, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, Coerce(p))
	}
	return out
}

// coerceMap tries a strict decode, then a decode with bare keys quoted.
func coerceMap(text string) ir.Literal {
	if lit, err := ir.DecodeJSON([]byte(text)); err == nil {
		return lit
	}
	repaired := bareKeyPattern.ReplaceAllString(text, `$1"$2"$3`)
	if lit, err := ir.DecodeJSON([]byte(repaired)); err == nil {
		return lit
	}
	return ir.Str(text)
}

// unquote strips the outer quotes and unescapes \", \' and \\.
func unquote(text string) string {
	inner := text[1 : len(text)-1]
	if !strings.Contains(inner, `\`) {
		return inner
	}

	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			switch next := inner[i+1]; next {
			case '"', '\'', '\\':
				b.WriteByte(next)
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// numericRepeat turns a numeric-looking string into a Number.
func numericRepeat(v ir.Literal) ir.Literal {
	s, ok := v.(ir.Str)
	if !ok {
		return v
	}
	text := strings.TrimSpace(string(s))
	if !numberPattern.MatchString(text) {
		return v
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return v
	}
	return ir.Number(f)
}

// literalString renders a scalar literal as plain text.
func literalString(v ir.Literal) (string, bool) {
	switch val := v.(type) {
	case ir.Str:
		return string(val), true
	case ir.Number:
		return strconv.FormatFloat(float64(val), 'f', -1, 64), true
	case ir.Bool:
		return strconv.FormatBool(bool(val)), true
	default:
		return "", false
	}
}

// literalInt extracts an integer from a Number or a numeric Str.
func literalInt(v ir.Literal) (int64, bool) {
	switch val := v.(type) {
	case ir.Number:
		return val.Int(), true
	case ir.Str:
		if n, ok := numericRepeat(val).(ir.Number); ok {
			return n.Int(), true
		}
	}
	return 0, false
}
