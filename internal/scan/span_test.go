package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanEnd(t *testing.T) {
	tests := []struct {
		name   string
		buf    string
		start  int
		wantAt int
		wantOK bool
	}{
		{"double quote", `"abc" x`, 0, 5, true},
		{"single quote", `'abc' x`, 0, 5, true},
		{"escaped quote", `"a\"b" x`, 0, 6, true},
		{"escaped backslash", `"a\\" x`, 0, 5, true},
		{"other quote kind inside", `"it's" x`, 0, 6, true},
		{"brace", `{"a":1} x`, 0, 7, true},
		{"nested brace", `{"a":{"b":1}} x`, 0, 13, true},
		{"brace in quote ignored", `{"a":"}"} x`, 0, 9, true},
		{"paren", `(1, 2) x`, 0, 6, true},
		{"nested paren", `($in(1), 2) x`, 0, 11, true},
		{"paren in quote ignored", `(")") x`, 0, 5, true},
		{"bracket", `[1, [2]] x`, 0, 8, true},
		{"other kinds not counted", `{(} x`, 0, 3, true},
		{"offset start", `ab {c} d`, 3, 6, true},
		{"unterminated quote", `"abc`, 0, 4, false},
		{"unterminated brace", `{"a":1`, 0, 6, false},
		{"unterminated by quote", `{"a":"}`, 0, 7, false},
		{"apostrophe in brace", `{a: it's} x`, 0, 9, true},
		{"not an opener", `abc`, 0, 0, false},
		{"out of range", `abc`, 5, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, ok := SpanEnd(tt.buf, tt.start)
			assert.Equal(t, tt.wantAt, end)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestEnclosed(t *testing.T) {
	assert.True(t, Enclosed(`{"a":1}`, '{'))
	assert.True(t, Enclosed(`"x"`, '"'))
	assert.True(t, Enclosed(`[1,2]`, '['))
	assert.False(t, Enclosed(`{"a":1} {"b":2}`, '{'))
	assert.False(t, Enclosed(`{"a":1`, '{'))
	assert.False(t, Enclosed(`"x" y`, '"'))
	assert.False(t, Enclosed(`{`, '{'))
	assert.False(t, Enclosed(`x`, '{'))
}
