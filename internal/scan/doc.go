// Package scan finds the structure of command text without interpreting
// values: balanced quote, brace, paren and bracket spans (SpanEnd), the
// ordered positional and flag segments of a command body (Segment), and
// value tokens inside a segment (Values, SplitTopLevel, Braces).
//
// Nothing here allocates beyond the returned slices, and nothing fails:
// an unterminated span simply runs to the end of the buffer.
package scan
