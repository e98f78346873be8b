package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

func TestParseImplicitEquality(t *testing.T) {
	pred, err := Parse(ir.Map{"title": ir.Str("Meeting")})
	require.NoError(t, err)
	assert.Equal(t, Compare{Field: "title", Op: OpEq, Value: ir.Str("Meeting")}, pred)
}

func TestParseEmptyMatchesAll(t *testing.T) {
	pred, err := Parse(ir.Map{})
	require.NoError(t, err)
	assert.Equal(t, And{Predicates: []Predicate{}}, pred)
}

func TestParseFieldOperators(t *testing.T) {
	tests := []struct {
		name string
		cond ir.Map
		want Predicate
	}{
		{
			name: "nin",
			cond: ir.Map{"type": ir.Map{"$nin": ir.List{ir.Str("workout"), ir.Str("gym")}}},
			want: In{Field: "type", Values: []ir.Literal{ir.Str("workout"), ir.Str("gym")}, Negate: true},
		},
		{
			name: "in with scalar",
			cond: ir.Map{"type": ir.Map{"$in": ir.Str("gym")}},
			want: In{Field: "type", Values: []ir.Literal{ir.Str("gym")}},
		},
		{
			name: "range sorted by operator",
			cond: ir.Map{"startTime": ir.Map{"$lt": ir.Str("b"), "$gt": ir.Str("a")}},
			want: And{Predicates: []Predicate{
				Compare{Field: "startTime", Op: OpGt, Value: ir.Str("a")},
				Compare{Field: "startTime", Op: OpLt, Value: ir.Str("b")},
			}},
		},
		{
			name: "regex",
			cond: ir.Map{"title": ir.Map{"$regex": ir.Str("^Meet")}},
			want: Regex{Field: "title", Pattern: "^Meet"},
		},
		{
			name: "exists",
			cond: ir.Map{"color": ir.Map{"$exists": ir.Bool(false)}},
			want: Exists{Field: "color", Exists: false},
		},
		{
			name: "field-level not",
			cond: ir.Map{"title": ir.Map{"$not": ir.Map{"$regex": ir.Str("x")}}},
			want: Not{Inner: Regex{Field: "title", Pattern: "x"}},
		},
		{
			name: "not with plain value",
			cond: ir.Map{"repeat": ir.Map{"$not": ir.Number(3)}},
			want: Not{Inner: Compare{Field: "repeat", Op: OpEq, Value: ir.Number(3)}},
		},
		{
			name: "nested field path",
			cond: ir.Map{"customData.priority": ir.Str("high")},
			want: Compare{Field: "customData.priority", Op: OpEq, Value: ir.Str("high")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := Parse(tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pred)
		})
	}
}

func TestParseDocumentOperators(t *testing.T) {
	cond := ir.Map{
		"$and": ir.List{
			ir.Map{"title": ir.Str("a")},
			ir.Map{"$or": ir.List{
				ir.Map{"color": ir.Str("red")},
				ir.Map{"color": ir.Str("blue")},
			}},
		},
	}

	pred, err := Parse(cond)
	require.NoError(t, err)
	assert.Equal(t, And{Predicates: []Predicate{
		Compare{Field: "title", Op: OpEq, Value: ir.Str("a")},
		Or{Predicates: []Predicate{
			Compare{Field: "color", Op: OpEq, Value: ir.Str("red")},
			Compare{Field: "color", Op: OpEq, Value: ir.Str("blue")},
		}},
	}}, pred)
}

func TestParseDocumentNot(t *testing.T) {
	pred, err := Parse(ir.Map{"$not": ir.Map{"startTime": ir.Map{"$eq": ir.Str("t")}}})
	require.NoError(t, err)
	assert.Equal(t, Not{Inner: Compare{Field: "startTime", Op: OpEq, Value: ir.Str("t")}}, pred)
}

func TestParseFieldsAndOperatorsCombine(t *testing.T) {
	pred, err := Parse(ir.Map{
		"title": ir.Str("a"),
		"$or":   ir.List{ir.Map{"type": ir.Str("x")}},
	})
	require.NoError(t, err)

	and, ok := pred.(And)
	require.True(t, ok)
	require.Len(t, and.Predicates, 2)
	assert.IsType(t, Or{}, and.Predicates[0], "$or sorts before title")
	assert.IsType(t, Compare{}, and.Predicates[1])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		cond ir.Map
		path string
	}{
		{"unknown top-level operator", ir.Map{"$where": ir.Str("1")}, "$where"},
		{"unknown field operator", ir.Map{"title": ir.Map{"$like": ir.Str("a")}}, "title.$like"},
		{"bad field name", ir.Map{"a;drop": ir.Str("x")}, "a;drop"},
		{"regex needs string", ir.Map{"title": ir.Map{"$regex": ir.Number(1)}}, "title.$regex"},
		{"and needs maps", ir.Map{"$and": ir.List{ir.Str("x")}}, "$and[0]"},
		{"or needs list", ir.Map{"$or": ir.Str("x")}, "$or"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.cond)
			require.Error(t, err)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.path, pe.Path)
		})
	}
}

func TestIsOperatorMap(t *testing.T) {
	assert.True(t, IsOperatorMap(ir.Map{"$gt": ir.Number(1)}))
	assert.True(t, IsOperatorMap(ir.Map{"$gt": ir.Number(1), "$lt": ir.Number(5)}))
	assert.False(t, IsOperatorMap(ir.Map{"$gt": ir.Number(1), "a": ir.Number(5)}))
	assert.False(t, IsOperatorMap(ir.Map{}))
}

func TestValidField(t *testing.T) {
	assert.True(t, ValidField("title"))
	assert.True(t, ValidField("customData.priority"))
	assert.True(t, ValidField("_id"))
	assert.False(t, ValidField("a..b"))
	assert.False(t, ValidField("1a"))
	assert.False(t, ValidField("a'b"))
	assert.False(t, ValidField(""))
}
