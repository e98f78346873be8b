package scan

// Scanner states for SpanEnd.
type state int

const (
	stateNesting state = iota // counting the opener's own kind
	stateQuote                // inside a quote nested in a brace/paren/bracket span
)

// IsOpener reports whether c can open a span.
func IsOpener(c byte) bool {
	switch c {
	case '"', '\'', '{', '(', '[':
		return true
	}
	return false
}

// IsQuote reports whether c is a quote character.
func IsQuote(c byte) bool {
	return c == '"' || c == '\''
}

func closerFor(c byte) byte {
	switch c {
	case '{':
		return '}'
	case '(':
		return ')'
	case '[':
		return ']'
	}
	return c
}

// QuoteOpens reports whether the quote at buf[i] starts a quoted span.
// A quote glued to a preceding word character is an apostrophe.
func QuoteOpens(buf string, i int) bool {
	return i == 0 || !IsWord(buf[i-1])
}

// SpanEnd returns the index just past the delimiter that closes the span
// opening at buf[start]. When the span is unterminated, end is len(buf)
// and ok is false.
//
// Brace, paren and bracket spans count nesting of their own kind only, and
// stop counting inside quotes. Inside a quote a backslash escapes the next
// byte.
func SpanEnd(buf string, start int) (end int, ok bool) {
	if start < 0 || start >= len(buf) || !IsOpener(buf[start]) {
		return start, false
	}

	open := buf[start]
	if IsQuote(open) {
		return quoteEnd(buf, start)
	}

	closer := closerFor(open)
	depth := 1
	st := stateNesting
	var quote byte

	for i := start + 1; i < len(buf); i++ {
		c := buf[i]
		switch st {
		case stateQuote:
			switch c {
			case '\\':
				i++
			case quote:
				st = stateNesting
			}
		case stateNesting:
			switch {
			case IsQuote(c) && QuoteOpens(buf, i):
				st = stateQuote
				quote = c
			case c == open:
				depth++
			case c == closer:
				depth--
				if depth == 0 {
					return i + 1, true
				}
			}
		}
	}
	return len(buf), false
}

func quoteEnd(buf string, start int) (int, bool) {
	quote := buf[start]
	for i := start + 1; i < len(buf); i++ {
		switch buf[i] {
		case '\\':
			i++
		case quote:
			return i + 1, true
		}
	}
	return len(buf), false
}

// Enclosed reports whether text is exactly one span opened by open, such as
// `{...}` or `"..."`.
func Enclosed(text string, open byte) bool {
	if len(text) < 2 || text[0] != open {
		return false
	}
	end, ok := SpanEnd(text, 0)
	return ok && end == len(text)
}
