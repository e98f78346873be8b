package compiler

import (
	"strings"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/scan"
	"github.com/Enfiniq/loomcal-sub000/internal/vocab"
)

// pipeline selects the positional field list and whether operator syntax
// is recognized. Create bodies never build conditions.
type pipeline struct {
	seq       ir.Command
	operators bool
}

var (
	createPipeline = pipeline{seq: ir.CmdCreate}
	getPipeline    = pipeline{seq: ir.CmdGet, operators: true}
	deletePipeline = pipeline{seq: ir.CmdDelete, operators: true}
)

// parse runs the Sequence and Flag Mappers over body, in text order.
func (c *Compiler) parse(body string, p pipeline) *assembly {
	a := &assembly{}
	for _, seg := range scan.Split(body) {
		switch seg.Kind {
		case scan.Positional:
			c.mapSequence(a, seg.Text, p)
		case scan.FlagSegment:
			c.mapFlag(a, seg, p)
		}
	}
	return a
}

// mapSequence assigns positional values to the command's field list.
// The cursor advances for every value, used or not. Bare operators take
// the next fallback field instead and leave the cursor alone.
func (c *Compiler) mapSequence(a *assembly, text string, p pipeline) {
	seq := c.tables.Sequence(p.seq)
	cursor := 0

	for _, tok := range scan.Values(text) {
		if p.operators {
			if call, ok := c.ParseOperator(tok); ok {
				c.bareOperator(a, call)
				continue
			}
		}

		if cursor >= len(seq) {
			continue
		}
		field := seq[cursor]
		cursor++
		c.assignSlot(a, field, tok)
	}
}

func (c *Compiler) assignSlot(a *assembly, field, tok string) {
	switch field {
	case "options":
		if !scan.Enclosed(tok, '{') {
			return
		}
		if m, ok := Coerce(tok).(ir.Map); ok && c.tables.HasOptionKey(m) {
			a.addOptions(m)
		}
	case "filter":
		if !scan.Enclosed(tok, '{') {
			return
		}
		if m, ok := Coerce(tok).(ir.Map); ok {
			a.setFilter(m)
		}
	case "target":
		if m, ok := Coerce(tok).(ir.Map); ok {
			a.merge(m)
		}
	default:
		a.set(field, c.fieldValue(field, Coerce(tok), RelativeTime))
	}
}

func (c *Compiler) fieldValue(field string, v ir.Literal, mode TimeMode) ir.Literal {
	switch {
	case c.tables.IsTimeField(field):
		return ResolveTime(v, mode, c.now())
	case field == "repeat":
		return numericRepeat(v)
	}
	return v
}

// mapFlag assigns one flag segment. Unknown flags are ignored; config and
// delimiter flags carry no event fields.
func (c *Compiler) mapFlag(a *assembly, seg scan.Segment, p pipeline) {
	flag, ok := c.tables.Flag(seg.Flag)
	if !ok {
		return
	}

	switch flag.Kind {
	case vocab.KindRelativeTime:
		c.mapTime(a, seg.Text, seg.Sub, RelativeTime, p)
	case vocab.KindAbsoluteTime:
		c.mapTime(a, seg.Text, seg.Sub, AbsoluteTime, p)
	case vocab.KindField:
		c.mapFieldFlag(a, flag.Field, seg.Text, p)
	}
}

// mapTime hands a time flag's values to startTime then endTime, or the
// other way round under the -e sub-flag.
func (c *Compiler) mapTime(a *assembly, text, sub string, mode TimeMode, p pipeline) {
	order := [2]string{"startTime", "endTime"}
	if sub == "e" {
		order = [2]string{"endTime", "startTime"}
	}

	for i, tok := range scan.Values(text) {
		if i >= len(order) {
			break
		}
		field := order[i]
		if p.operators {
			if call, ok := c.ParseOperator(tok); ok {
				a.condition(c.Condition(field, call, mode))
				continue
			}
		}
		a.set(field, c.fieldValue(field, Coerce(tok), mode))
	}
}

// mapFieldFlag assigns the whole content of a single-value flag.
func (c *Compiler) mapFieldFlag(a *assembly, field, text string, p pipeline) {
	if text == "" {
		return
	}

	switch field {
	case "options":
		if m, ok := Coerce(text).(ir.Map); ok {
			a.addOptions(m)
		}
		return
	case "filter":
		if p.operators {
			if call, ok := c.ParseOperator(text); ok && call.Class.Document && !call.Class.Single {
				a.setFilter(call.Literal())
				return
			}
		}
		if m, ok := Coerce(text).(ir.Map); ok {
			a.setFilter(m)
		}
		return
	case "startTime":
		c.mapTime(a, text, "s", AbsoluteTime, p)
		return
	case "endTime":
		c.mapTime(a, text, "e", AbsoluteTime, p)
		return
	}

	var trailing []OperatorCall
	if p.operators {
		if calls, ok := c.operatorTokens(text); ok {
			for _, call := range calls {
				a.condition(c.Condition(field, call, NoTime))
			}
			return
		}
		text, trailing = c.trailingOperators(text)
	}

	if field != "customData" || !c.splitCustomData(a, text) {
		a.set(field, c.fieldValue(field, Coerce(text), NoTime))
	}
	for _, call := range trailing {
		c.bareOperator(a, call)
	}
}

// operatorTokens parses text as one or more operator calls. Any token that
// is not an operator call makes the whole content a literal.
func (c *Compiler) operatorTokens(text string) ([]OperatorCall, bool) {
	toks := scan.Values(text)
	if len(toks) == 0 {
		return nil, false
	}
	calls := make([]OperatorCall, 0, len(toks))
	for _, tok := range toks {
		call, ok := c.ParseOperator(tok)
		if !ok {
			return nil, false
		}
		calls = append(calls, call)
	}
	return calls, true
}

// trailingOperators splits operator calls off the end of literal content,
// as in `-t "x" $gt(5)`. The calls are not attached to the flag.
func (c *Compiler) trailingOperators(text string) (string, []OperatorCall) {
	toks := scan.Values(text)
	i := len(toks)
	for i > 0 {
		if _, ok := c.ParseOperator(toks[i-1]); !ok {
			break
		}
		i--
	}
	if i == len(toks) || i == 0 {
		return text, nil
	}

	calls := make([]OperatorCall, 0, len(toks)-i)
	for _, tok := range toks[i:] {
		call, _ := c.ParseOperator(tok)
		calls = append(calls, call)
	}
	return strings.Join(toks[:i], " "), calls
}

// bareOperator assigns call to the next fallback field. Calls past the
// end of the fallback list are dropped.
func (c *Compiler) bareOperator(a *assembly, call OperatorCall) {
	if a.bare < len(c.tables.Fallback) {
		a.condition(c.Condition(c.tables.Fallback[a.bare], call, RelativeTime))
	}
	a.bare++
}

// splitCustomData handles `-c {...} {...}` where the second literal is
// options. It reports whether it made the assignments.
func (c *Compiler) splitCustomData(a *assembly, text string) bool {
	braces := scan.Braces(text)
	if len(braces) < 2 {
		return false
	}
	opts, ok := Coerce(braces[1]).(ir.Map)
	if !ok || !c.tables.HasOptionKey(opts) {
		return false
	}
	a.set("customData", Coerce(braces[0]))
	a.addOptions(opts)
	return true
}
