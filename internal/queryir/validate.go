package queryir

import (
	"fmt"
	"regexp"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// ValidationResult lists suspicious constructs found in a predicate tree.
//
// Warnings never block execution: a predicate that is always false is
// legal, just probably not what the user meant.
type ValidationResult struct {
	// OK is true when there are no warnings.
	OK bool

	// Warnings describes each suspicious construct.
	Warnings []string
}

// Validate walks a predicate tree and reports constructs that can never
// match, match everything, or cannot run.
//
// Validate is a pure function with no side effects.
func Validate(pred Predicate) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validatePredicate(pred)

	return ValidationResult{
		OK:       len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return
	}

	switch pred := p.(type) {
	case Compare:
		v.validateCompare(pred)
	case In:
		if len(pred.Values) == 0 && !pred.Negate {
			v.addWarning("field '%s': empty $in never matches", pred.Field)
		}
	case Regex:
		if _, err := regexp.Compile(pred.Pattern); err != nil {
			v.addWarning("field '%s': invalid $regex pattern: %v", pred.Field, err)
		}
	case Exists:
	case Not:
		v.validatePredicate(pred.Inner)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		if len(pred.Predicates) == 0 {
			v.addWarning("empty $or never matches")
		}
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addWarning("unknown predicate type: %T", p)
	}
}

func (v *validator) validateCompare(c Compare) {
	switch c.Op {
	case OpGt, OpGte, OpLt, OpLte:
		switch c.Value.(type) {
		case ir.Null, ir.Undefined, nil:
			v.addWarning("field '%s': %s null never matches", c.Field, c.Op)
		case ir.List, ir.Map:
			v.addWarning("field '%s': %s needs a number or string", c.Field, c.Op)
		}
	}
}
