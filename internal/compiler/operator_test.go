package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

func TestParseOperator(t *testing.T) {
	c := newTestCompiler()

	tests := []struct {
		name     string
		text     string
		wantName string
		wantArgs []ir.Literal
	}{
		{"single", `$gt(5)`, "$gt", []ir.Literal{ir.Number(5)}},
		{"multi", `$in(1, 2, 3)`, "$in", []ir.Literal{ir.Number(1), ir.Number(2), ir.Number(3)}},
		{"quoted commas", `$in("a,b", "c")`, "$in", []ir.Literal{ir.Str("a,b"), ir.Str("c")}},
		{"negative", `$gte(-15)`, "$gte", []ir.Literal{ir.Number(-15)}},
		{"nested", `$and($gt(1), $lt(5))`, "$and", []ir.Literal{
			ir.Map{"$gt": ir.Number(1)},
			ir.Map{"$lt": ir.Number(5)},
		}},
		{"nested multi", `$not($in("a", "b"))`, "$not", []ir.Literal{
			ir.Map{"$in": ir.List{ir.Str("a"), ir.Str("b")}},
		}},
		{"map argument", `$or({"type": "gym"}, {type: "yoga"})`, "$or", []ir.Literal{
			ir.Map{"type": ir.Str("gym")},
			ir.Map{"type": ir.Str("yoga")},
		}},
		{"no arguments", `$exists()`, "$exists", nil},
		{"surrounding space", `  $eq(x)  `, "$eq", []ir.Literal{ir.Str("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := c.ParseOperator(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.wantName, call.Name)
			assert.Equal(t, tt.wantArgs, call.Args)
		})
	}
}

func TestParseOperator_Rejects(t *testing.T) {
	c := newTestCompiler()

	for _, text := range []string{
		`$like("x")`,
		`$gt(5`,
		`$gt(5) extra`,
		`gt(5)`,
		`$gt`,
		`$(5)`,
		`$ gt(5)`,
		``,
	} {
		t.Run(text, func(t *testing.T) {
			_, ok := c.ParseOperator(text)
			assert.False(t, ok)
		})
	}
}

func TestOperatorCallLiteral(t *testing.T) {
	c := newTestCompiler()

	literal := func(text string) ir.Map {
		call, ok := c.ParseOperator(text)
		require.True(t, ok, text)
		return call.Literal()
	}

	assert.Equal(t, ir.Map{"$gt": ir.Number(5)}, literal(`$gt(5)`))
	assert.Equal(t, ir.Map{"$eq": ir.Null{}}, literal(`$eq()`))
	assert.Equal(t, ir.Map{"$in": ir.List{ir.Number(1)}}, literal(`$in(1)`))
	assert.Equal(t, ir.Map{"$or": ir.List{ir.Number(1)}}, literal(`$or(1)`))
	assert.Equal(t, ir.Map{"$not": ir.Number(1)}, literal(`$not(1)`))
	assert.Equal(t, ir.Map{"$not": ir.List{ir.Number(1), ir.Number(2)}}, literal(`$not(1, 2)`))
}

func TestCondition(t *testing.T) {
	c := newTestCompiler()

	cond := func(field, text string, mode TimeMode) ir.Map {
		call, ok := c.ParseOperator(text)
		require.True(t, ok, text)
		return c.Condition(field, call, mode)
	}

	tests := []struct {
		name  string
		field string
		text  string
		mode  TimeMode
		want  ir.Map
	}{
		{
			name:  "single on plain field",
			field: "title", text: `$eq("Yoga")`, mode: NoTime,
			want: ir.Map{"title": ir.Map{"$eq": ir.Str("Yoga")}},
		},
		{
			name:  "multi on plain field",
			field: "type", text: `$nin("workout", "gym")`, mode: NoTime,
			want: ir.Map{"type": ir.Map{"$nin": ir.List{ir.Str("workout"), ir.Str("gym")}}},
		},
		{
			name:  "relative time operand",
			field: "startTime", text: `$gt(30)`, mode: RelativeTime,
			want: ir.Map{"startTime": ir.Map{"$gt": iso(30)}},
		},
		{
			name:  "absolute time operand",
			field: "endTime", text: `$lte(1700000000)`, mode: AbsoluteTime,
			want: ir.Map{"endTime": ir.Map{"$lte": ir.Str("2023-11-14T22:13:20.000Z")}},
		},
		{
			name:  "time multi operand",
			field: "startTime", text: `$in(0, 60)`, mode: RelativeTime,
			want: ir.Map{"startTime": ir.Map{"$in": ir.List{iso(0), iso(60)}}},
		},
		{
			name:  "exists is never a time",
			field: "startTime", text: `$exists(true)`, mode: RelativeTime,
			want: ir.Map{"startTime": ir.Map{"$exists": ir.Bool(true)}},
		},
		{
			name:  "document operator on plain field",
			field: "color", text: `$or("red", "blue")`, mode: NoTime,
			want: ir.Map{"$or": ir.List{ir.Str("red"), ir.Str("blue")}},
		},
		{
			name:  "document operator on time field wraps values",
			field: "startTime", text: `$or(5, 10)`, mode: RelativeTime,
			want: ir.Map{"$or": ir.List{
				ir.Map{"startTime": ir.Map{"$eq": iso(5)}},
				ir.Map{"startTime": ir.Map{"$eq": iso(10)}},
			}},
		},
		{
			name:  "document operator on time field keeps operator maps",
			field: "startTime", text: `$and($gte(0), $lte(60))`, mode: RelativeTime,
			want: ir.Map{"$and": ir.List{
				ir.Map{"startTime": ir.Map{"$gte": iso(0)}},
				ir.Map{"startTime": ir.Map{"$lte": iso(60)}},
			}},
		},
		{
			name:  "not on time field",
			field: "startTime", text: `$not($gt(5))`, mode: RelativeTime,
			want: ir.Map{"$not": ir.Map{"startTime": ir.Map{"$gt": iso(5)}}},
		},
		{
			name:  "not on plain field",
			field: "repeat", text: `$not($gt(5))`, mode: NoTime,
			want: ir.Map{"repeat": ir.Map{"$not": ir.Map{"$gt": ir.Number(5)}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cond(tt.field, tt.text, tt.mode))
		})
	}
}
