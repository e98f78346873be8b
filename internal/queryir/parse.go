package queryir

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// fieldPattern restricts field names to dotted identifiers. Backends
// interpolate field paths, so nothing else may pass.
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidField reports whether name can be used as a field path.
func ValidField(name string) bool {
	return fieldPattern.MatchString(name)
}

// IsOperatorMap reports whether every key of m is an operator name,
// e.g. {"$gt": 5}.
func IsOperatorMap(m ir.Map) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

// ParseError reports a condition that has no predicate form.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Parse converts a query condition map into a Predicate tree.
//
// Keys are visited in sorted order so the result is deterministic. An
// empty map yields an empty And, which matches every event.
func Parse(cond ir.Map) (Predicate, error) {
	return parseDocument(cond, "")
}

func parseDocument(cond ir.Map, path string) (Predicate, error) {
	preds := make([]Predicate, 0, len(cond))

	for _, k := range cond.SortedKeys() {
		v := cond[k]
		p := join(path, k)

		var (
			pred Predicate
			err  error
		)
		switch k {
		case "$and":
			var list []Predicate
			list, err = parseDocumentList(v, p)
			pred = And{Predicates: list}
		case "$or":
			var list []Predicate
			list, err = parseDocumentList(v, p)
			pred = Or{Predicates: list}
		case "$not":
			var list []Predicate
			list, err = parseDocumentList(v, p)
			pred = Not{Inner: collapse(list)}
		default:
			if strings.HasPrefix(k, "$") {
				return nil, &ParseError{Path: p, Message: "unknown operator"}
			}
			pred, err = parseField(k, v, p)
		}
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}

	return collapse(preds), nil
}

// parseDocumentList accepts a list of condition maps or a single map.
func parseDocumentList(v ir.Literal, path string) ([]Predicate, error) {
	var items ir.List
	switch val := v.(type) {
	case ir.List:
		items = val
	case ir.Map:
		items = ir.List{val}
	default:
		return nil, &ParseError{Path: path, Message: "expects a list of conditions"}
	}

	out := make([]Predicate, 0, len(items))
	for i, item := range items {
		m, ok := item.(ir.Map)
		if !ok {
			return nil, &ParseError{Path: fmt.Sprintf("%s[%d]", path, i), Message: "expects a condition map"}
		}
		pred, err := parseDocument(m, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, pred)
	}
	return out, nil
}

func parseField(field string, v ir.Literal, path string) (Predicate, error) {
	if !ValidField(field) {
		return nil, &ParseError{Path: path, Message: "invalid field name"}
	}
	if m, ok := v.(ir.Map); ok && IsOperatorMap(m) {
		return parseFieldOps(field, m, path)
	}
	return Compare{Field: field, Op: OpEq, Value: v}, nil
}

func parseFieldOps(field string, ops ir.Map, path string) (Predicate, error) {
	preds := make([]Predicate, 0, len(ops))

	for _, op := range ops.SortedKeys() {
		v := ops[op]
		p := join(path, op)

		switch op {
		case "$eq", "$ne", "$gt", "$gte", "$lt", "$lte":
			preds = append(preds, Compare{Field: field, Op: CompareOp(op), Value: v})
		case "$in", "$nin":
			values, ok := v.(ir.List)
			if !ok {
				values = ir.List{v}
			}
			preds = append(preds, In{Field: field, Values: values, Negate: op == "$nin"})
		case "$regex":
			s, ok := v.(ir.Str)
			if !ok {
				return nil, &ParseError{Path: p, Message: "expects a pattern string"}
			}
			preds = append(preds, Regex{Field: field, Pattern: string(s)})
		case "$exists":
			preds = append(preds, Exists{Field: field, Exists: truthy(v)})
		case "$not":
			inner, err := parseNotOperand(field, v, p)
			if err != nil {
				return nil, err
			}
			preds = append(preds, Not{Inner: inner})
		default:
			return nil, &ParseError{Path: p, Message: "unknown operator"}
		}
	}

	return collapse(preds), nil
}

// parseNotOperand reads the operand of a field-level $not: an operator map,
// a pattern string, or a plain value compared for equality.
func parseNotOperand(field string, v ir.Literal, path string) (Predicate, error) {
	switch val := v.(type) {
	case ir.Map:
		if IsOperatorMap(val) {
			return parseFieldOps(field, val, path)
		}
	case ir.Str:
		return Regex{Field: field, Pattern: string(val)}, nil
	}
	return Compare{Field: field, Op: OpEq, Value: v}, nil
}

func truthy(v ir.Literal) bool {
	switch val := v.(type) {
	case ir.Bool:
		return bool(val)
	case ir.Number:
		return val != 0
	case ir.Str:
		return val != "" && val != "false" && val != "0"
	case ir.Null, ir.Undefined, nil:
		return false
	default:
		return true
	}
}

// collapse returns the only predicate, or an And of all of them.
func collapse(preds []Predicate) Predicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return And{Predicates: preds}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
