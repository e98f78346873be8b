package queryir

import "github.com/Enfiniq/loomcal-sub000/internal/ir"

// Predicate represents a selection condition over event documents.
//
// This is a sealed interface - only types in this package implement it.
// Backends switch on the concrete type:
//
//	switch p := pred.(type) {
//	case Compare:
//	    // field <op> value
//	case And:
//	    // all of p.Predicates
//	}
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// CompareOp is a comparison operator name.
type CompareOp string

const (
	OpEq  CompareOp = "$eq"
	OpNe  CompareOp = "$ne"
	OpGt  CompareOp = "$gt"
	OpGte CompareOp = "$gte"
	OpLt  CompareOp = "$lt"
	OpLte CompareOp = "$lte"
)

// Compare represents a field-op-literal predicate.
//
// Semantics:
//
//	<field> <op> <value>
//
// A field holding a literal directly in a condition map is an implicit
// OpEq. Comparing with Null under OpEq matches missing or null fields.
type Compare struct {
	Field string
	Op    CompareOp
	Value ir.Literal
}

func (Compare) predicateNode() {}

// In represents set membership ($in) or its negation ($nin).
//
// An empty In matches nothing; an empty negated In matches everything.
type In struct {
	Field  string
	Values []ir.Literal
	Negate bool
}

func (In) predicateNode() {}

// Regex matches a string field against an RE2 pattern.
type Regex struct {
	Field   string
	Pattern string
}

func (Regex) predicateNode() {}

// Exists tests for presence (Exists true) or absence of a field.
type Exists struct {
	Field  string
	Exists bool
}

func (Exists) predicateNode() {}

// Not negates its inner predicate.
type Not struct {
	Inner Predicate
}

func (Not) predicateNode() {}

// And represents a conjunction (empty = always true).
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction (empty = always false).
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}
