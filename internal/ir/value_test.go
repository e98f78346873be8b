package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteralSealed(t *testing.T) {
	// Compile-time check via assignment
	var _ Literal = Null{}
	var _ Literal = Undefined{}
	var _ Literal = Bool(true)
	var _ Literal = Number(1.5)
	var _ Literal = Str("test")
	var _ Literal = List{Str("a"), Number(1)}
	var _ Literal = Map{"key": Str("value")}
}

func TestMapSortedKeys(t *testing.T) {
	m := Map{
		"zebra":  Str("z"),
		"apple":  Str("a"),
		"banana": Str("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, m.SortedKeys())
}

func TestMapSortedKeysRFC8785Order(t *testing.T) {
	m := Map{
		"a":  Number(1),
		"A":  Number(2),
		"aa": Number(3),
		"aA": Number(4),
		"Aa": Number(5),
		"AA": Number(6),
	}

	// 'A' = 65, 'a' = 97
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, m.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "a", 0},
		{"aa", "a", 1},
		{"a", "aa", -1},
		{"", "", 0},
		{"", "a", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			result := compareKeysRFC8785(tt.a, tt.b)
			switch {
			case tt.expected < 0:
				assert.Less(t, result, 0)
			case tt.expected > 0:
				assert.Greater(t, result, 0)
			default:
				assert.Equal(t, 0, result)
			}
		})
	}
}

func TestMarshalLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    Literal
		expected string
	}{
		{"null", Null{}, "null"},
		{"undefined", Undefined{}, "null"},
		{"true", Bool(true), "true"},
		{"integer", Number(45), "45"},
		{"negative", Number(-5), "-5"},
		{"decimal", Number(1.25), "1.25"},
		{"string", Str("gym"), `"gym"`},
		{"empty list", List{}, "[]"},
		{"list", List{Str("a"), Number(2)}, `["a",2]`},
		{"map sorted", Map{"b": Number(1), "a": Number(2)}, `{"a":2,"b":1}`},
		{"undefined in map skipped", Map{"a": Undefined{}, "b": Bool(false)}, `{"b":false}`},
		{"undefined in list is null", List{Undefined{}}, "[null]"},
		{"nil map", Map(nil), "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalLiteral(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestMapMarshalViaEncodingJSON(t *testing.T) {
	type wrapper struct {
		Target Map `json:"target"`
	}

	data, err := json.Marshal(wrapper{Target: Map{
		"type": Map{"$in": List{Str("a"), Str("b")}},
	}})
	require.NoError(t, err)
	assert.Equal(t, `{"target":{"type":{"$in":["a","b"]}}}`, string(data))
}

func TestDecodeJSON(t *testing.T) {
	lit, err := DecodeJSON([]byte(`{"priority":"high","n":3,"tags":["x",null],"ok":true}`))
	require.NoError(t, err)

	expected := Map{
		"priority": Str("high"),
		"n":        Number(3),
		"tags":     List{Str("x"), Null{}},
		"ok":       Bool(true),
	}
	assert.True(t, Equal(expected, lit), "got %#v", lit)
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)
}

func TestDecodeJSONRejectsInvalid(t *testing.T) {
	_, err := DecodeJSON([]byte(`{priority: high}`))
	require.Error(t, err)
}

func TestMapUnmarshalJSON(t *testing.T) {
	var m Map
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Workout","n":1.5}`), &m))
	assert.Equal(t, Str("Workout"), m["title"])
	assert.Equal(t, Number(1.5), m["n"])

	var arr Map
	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &arr))
}

func TestNumberIsInt(t *testing.T) {
	assert.True(t, Number(3).IsInt())
	assert.True(t, Number(-45).IsInt())
	assert.False(t, Number(2.5).IsInt())
	assert.Equal(t, int64(2), Number(2.9).Int())
}

func TestCloneIsDeep(t *testing.T) {
	orig := Map{"nested": Map{"a": List{Number(1)}}}
	clone := orig.Clone()

	clone["nested"].(Map)["a"] = List{Number(2)}

	assert.True(t, Equal(List{Number(1)}, orig["nested"].(Map)["a"]))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Null{}, Null{}))
	assert.False(t, Equal(Null{}, Undefined{}))
	assert.True(t, Equal(Map{"a": List{Number(1)}}, Map{"a": List{Number(1)}}))
	assert.False(t, Equal(Map{"a": Number(1)}, Map{"a": Str("1")}))
	assert.False(t, Equal(List{Number(1)}, List{Number(1), Number(2)}))
}

func TestToGoRoundTrip(t *testing.T) {
	orig := Map{
		"s": Str("x"),
		"n": Number(2),
		"l": List{Bool(true), Null{}},
		"u": Undefined{},
	}

	goVal := ToGo(orig)
	back, err := FromGo(goVal)
	require.NoError(t, err)

	expected := Map{
		"s": Str("x"),
		"n": Number(2),
		"l": List{Bool(true), Null{}},
	}
	assert.True(t, Equal(expected, back), "got %#v", back)
}
