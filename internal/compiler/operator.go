package compiler

import (
	"strings"
	"time"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/queryir"
	"github.com/Enfiniq/loomcal-sub000/internal/scan"
	"github.com/Enfiniq/loomcal-sub000/internal/vocab"
)

// OperatorCall is a parsed $name(args) expression. Nested calls among the
// arguments are already turned into operator-shaped maps.
type OperatorCall struct {
	Name  string
	Args  []ir.Literal
	Class vocab.Operator
}

// ParseOperator parses the operator call that spans all of text.
// It returns false for unknown names, unterminated argument lists and
// trailing text, in which case the caller treats text as a literal.
func (c *Compiler) ParseOperator(text string) (OperatorCall, bool) {
	text = strings.TrimSpace(text)
	call, end, ok := c.parseOperatorAt(text)
	if !ok || end != len(text) {
		return OperatorCall{}, false
	}
	return call, true
}

func (c *Compiler) parseOperatorAt(text string) (OperatorCall, int, bool) {
	if len(text) < 2 || text[0] != '$' {
		return OperatorCall{}, 0, false
	}
	j := 1
	for j < len(text) && scan.IsWord(text[j]) {
		j++
	}
	if j == 1 || j >= len(text) || text[j] != '(' {
		return OperatorCall{}, 0, false
	}

	name := text[:j]
	class, known := c.tables.Operator(name)
	if !known {
		return OperatorCall{}, 0, false
	}

	end, ok := scan.SpanEnd(text, j)
	if !ok {
		return OperatorCall{}, 0, false
	}

	call := OperatorCall{Name: name, Class: class}
	for _, part := range scan.SplitTopLevel(text[j+1:end-1], ',') {
		if part == "" {
			continue
		}
		if nested, ok := c.ParseOperator(part); ok {
			call.Args = append(call.Args, nested.Literal())
			continue
		}
		call.Args = append(call.Args, Coerce(part))
	}
	return call, end, true
}

// Literal returns the operator-shaped map for a nested call, e.g.
// {"$gt": 5} or {"$in": [1, 2]}.
func (o OperatorCall) Literal() ir.Map {
	switch {
	case o.Class.Multi, o.Class.Document && !o.Class.Single:
		return ir.Map{o.Name: ir.List(o.Args)}
	case o.Class.Document && len(o.Args) > 1:
		return ir.Map{o.Name: ir.List(o.Args)}
	default:
		return ir.Map{o.Name: o.first()}
	}
}

func (o OperatorCall) first() ir.Literal {
	if len(o.Args) == 0 {
		return ir.Null{}
	}
	return o.Args[0]
}

// Condition builds the query fragment for the call applied to field.
//
// On startTime/endTime the call is evaluated in time context: its values go
// through the Time Resolver in mode, and document-level operators wrap each
// argument in a per-field condition. On other fields document-level
// operators use their arguments verbatim as the operand list.
func (c *Compiler) Condition(field string, call OperatorCall, mode TimeMode) ir.Map {
	timeField := c.tables.IsTimeField(field)
	now := c.now()

	documentLevel := call.Class.Document && (timeField || !call.Class.Single)
	if documentLevel {
		if !timeField {
			return ir.Map{call.Name: ir.List(call.Args)}
		}

		conds := make(ir.List, 0, len(call.Args))
		for _, arg := range call.Args {
			if m, ok := arg.(ir.Map); ok && queryir.IsOperatorMap(m) {
				conds = append(conds, ir.Map{field: resolveOperatorMap(m, mode, now)})
				continue
			}
			conds = append(conds, ir.Map{field: ir.Map{"$eq": ResolveTime(arg, mode, now)}})
		}
		if call.Name == "$not" && len(conds) == 1 {
			return ir.Map{call.Name: conds[0]}
		}
		return ir.Map{call.Name: conds}
	}

	var operand ir.Literal
	if call.Class.Multi {
		operand = ir.List(call.Args)
	} else {
		operand = call.first()
	}
	if timeField && !untimed[call.Name] {
		operand = resolveOperand(operand, mode, now)
	}
	return ir.Map{field: ir.Map{call.Name: operand}}
}

// untimed operators take operands that are never timestamps.
var untimed = map[string]bool{"$exists": true, "$regex": true}

func resolveOperand(v ir.Literal, mode TimeMode, now time.Time) ir.Literal {
	if m, ok := v.(ir.Map); ok && queryir.IsOperatorMap(m) {
		return resolveOperatorMap(m, mode, now)
	}
	return ResolveTime(v, mode, now)
}

// resolveOperatorMap applies the Time Resolver to the operands of an
// operator-shaped map such as {"$gt": 5, "$lt": 60}.
func resolveOperatorMap(m ir.Map, mode TimeMode, now time.Time) ir.Map {
	out := make(ir.Map, len(m))
	for k, v := range m {
		if untimed[k] {
			out[k] = v
			continue
		}
		out[k] = resolveOperand(v, mode, now)
	}
	return out
}
