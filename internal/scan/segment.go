package scan

import "strings"

// Kind distinguishes positional from flag segments.
type Kind int

const (
	Positional Kind = iota
	FlagSegment
)

func (k Kind) String() string {
	if k == FlagSegment {
		return "flag"
	}
	return "positional"
}

// Segment is one run of command text, in order of appearance.
//
// For flag segments Flag is the flag name without the dash and Sub is the
// captured sub-flag ("s" or "e") if any. Text is the trimmed content.
// Start and End are byte offsets into the scanned buffer: Start is the
// position of the flag token (or of the positional run), End is the end
// of the content.
type Segment struct {
	Kind  Kind
	Flag  string
	Sub   string
	Text  string
	Start int
	End   int
}

// composite flags accept -s/-e sub-flags.
var composite = map[string]bool{"rt": true, "at": true}

type flagToken struct {
	name  string
	sub   string
	start int
	end   int
}

// IsWord reports whether c is a flag or identifier character.
func IsWord(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// isDelimiter reports whether c may precede a flag or a negative number.
func isDelimiter(c byte) bool {
	switch c {
	case ':', '=', ',', '[':
		return true
	}
	return isSpace(c)
}

// Split walks buf once and returns its positional and flag segments.
//
// Quote and brace spans are skipped whole, as are the argument lists of
// $op(...) calls, so flag-looking text inside them is never a flag. A dash
// starts a flag only at the start of buf or after a delimiter; when the
// dash is followed by a digit it is a negative number instead.
func Split(buf string) []Segment {
	toks := flagTokens(buf)

	var segs []Segment
	firstFlag := len(buf)
	if len(toks) > 0 {
		firstFlag = toks[0].start
	}
	if text := strings.TrimSpace(buf[:firstFlag]); text != "" {
		segs = append(segs, Segment{
			Kind:  Positional,
			Text:  text,
			Start: 0,
			End:   firstFlag,
		})
	}

	for k, tok := range toks {
		end := len(buf)
		if k+1 < len(toks) {
			end = toks[k+1].start
		}
		seg := Segment{
			Kind:  FlagSegment,
			Flag:  tok.name,
			Sub:   tok.sub,
			Text:  strings.TrimSpace(buf[tok.end:end]),
			Start: tok.start,
			End:   end,
		}

		// -rt -s 10 -e 30: the bare -e continues the composite flag.
		if tok.sub == "" && (tok.name == "s" || tok.name == "e") && len(segs) > 0 {
			prev := segs[len(segs)-1]
			if prev.Kind == FlagSegment && composite[prev.Flag] && prev.Sub != "" {
				seg.Flag = prev.Flag
				seg.Sub = tok.name
			}
		}
		segs = append(segs, seg)
	}
	return segs
}

func flagTokens(buf string) []flagToken {
	var toks []flagToken

	i := 0
	for i < len(buf) {
		c := buf[i]
		switch {
		case IsQuote(c) && QuoteOpens(buf, i), c == '{':
			i, _ = SpanEnd(buf, i)
		case c == '$':
			i = skipOperator(buf, i)
		case c == '-' && flagStart(buf, i):
			j := i + 1
			for j < len(buf) && IsWord(buf[j]) {
				j++
			}
			if isDigit(buf[i+1]) {
				// negative number
				i = j
				continue
			}
			tok := flagToken{name: buf[i+1 : j], start: i, end: j}
			if composite[tok.name] {
				if sub, end, ok := subFlag(buf, j); ok {
					tok.sub = sub
					tok.end = end
				}
			}
			toks = append(toks, tok)
			i = tok.end
		default:
			i++
		}
	}
	return toks
}

func flagStart(buf string, i int) bool {
	if i+1 >= len(buf) || !IsWord(buf[i+1]) {
		return false
	}
	return i == 0 || isDelimiter(buf[i-1])
}

// subFlag matches whitespace followed by exactly -s or -e at buf[i:].
func subFlag(buf string, i int) (name string, end int, ok bool) {
	j := i
	for j < len(buf) && isSpace(buf[j]) {
		j++
	}
	if j == i || j+1 >= len(buf) || buf[j] != '-' {
		return "", 0, false
	}
	name = buf[j+1 : j+2]
	if name != "s" && name != "e" {
		return "", 0, false
	}
	if j+2 < len(buf) && IsWord(buf[j+2]) {
		return "", 0, false
	}
	return name, j + 2, true
}

// skipOperator returns the index past a $name(...) call starting at i, or
// i+1 when the text at i is not an operator call.
func skipOperator(buf string, i int) int {
	j := i + 1
	for j < len(buf) && IsWord(buf[j]) {
		j++
	}
	if j == i+1 || j >= len(buf) || buf[j] != '(' {
		return i + 1
	}
	end, _ := SpanEnd(buf, j)
	return end
}
