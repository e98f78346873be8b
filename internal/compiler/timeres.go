package compiler

import (
	"time"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// TimeMode selects how the Time Resolver reads a value.
type TimeMode int

const (
	// NoTime leaves values untouched.
	NoTime TimeMode = iota

	// RelativeTime reads a Number as minutes from now.
	RelativeTime

	// AbsoluteTime reads an integral Number as epoch seconds.
	AbsoluteTime
)

// ISOLayout is the rendering of every resolved timestamp.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// FormatISO renders t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// ResolveTime converts v according to mode. ISO strings pass through in both
// modes; values that are neither numbers nor ISO strings are returned
// unchanged.
func ResolveTime(v ir.Literal, mode TimeMode, now time.Time) ir.Literal {
	switch val := v.(type) {
	case ir.Number:
		switch mode {
		case RelativeTime:
			offset := time.Duration(float64(val) * float64(time.Minute))
			return ir.Str(FormatISO(now.Add(offset)))
		case AbsoluteTime:
			if val.IsInt() {
				return ir.Str(FormatISO(time.Unix(val.Int(), 0)))
			}
		}
	case ir.List:
		out := make(ir.List, len(val))
		for i, elem := range val {
			out[i] = ResolveTime(elem, mode, now)
		}
		return out
	}
	return v
}
