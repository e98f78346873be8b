package scan

import "strings"

// Values splits text into whitespace-separated value tokens. Quote, brace,
// bracket and paren spans are atomic, so `"At Nepal Gym"` and
// `$in("a", "b")` are single tokens.
func Values(text string) []string {
	var out []string

	i := 0
	for i < len(text) {
		for i < len(text) && isSpace(text[i]) {
			i++
		}
		if i >= len(text) {
			break
		}

		start := i
		for i < len(text) && !isSpace(text[i]) {
			c := text[i]
			switch {
			case IsQuote(c) && i == start:
				i, _ = SpanEnd(text, i)
			case c == '{' || c == '(' || c == '[':
				i, _ = SpanEnd(text, i)
			default:
				i++
			}
		}
		out = append(out, text[start:i])
	}
	return out
}

// SplitTopLevel splits text on sep bytes that are not inside a quote,
// brace, bracket or paren span. Parts are trimmed. Empty text yields nil.
func SplitTopLevel(text string, sep byte) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var parts []string
	start := 0
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == sep:
			parts = append(parts, strings.TrimSpace(text[start:i]))
			i++
			start = i
		case IsQuote(c) && QuoteOpens(text, i), c == '{', c == '(', c == '[':
			i, _ = SpanEnd(text, i)
		default:
			i++
		}
	}
	return append(parts, strings.TrimSpace(text[start:]))
}

// Braces returns the top-level brace spans of text in order, e.g. the two
// literals of `{"a":1} {"limit":5}`. Unterminated spans are included and
// run to the end of text.
func Braces(text string) []string {
	var out []string

	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '{':
			end, _ := SpanEnd(text, i)
			out = append(out, text[i:end])
			i = end
		case IsQuote(c) && QuoteOpens(text, i):
			i, _ = SpanEnd(text, i)
		default:
			i++
		}
	}
	return out
}
