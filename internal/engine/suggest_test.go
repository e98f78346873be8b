package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var knownCommands = []string{"create", "get", "update", "delete", "config", "help", "start"}

func TestSuggestCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"missing letter", "crate", []string{"create"}},
		{"transposed", "gte", []string{"get"}},
		{"prefix", "del", []string{"delete"}},
		{"nothing close", "xyzzy", []string{}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggestCommands(tt.input, knownCommands)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestCommands_Limit(t *testing.T) {
	got := suggestCommands("e", knownCommands)
	assert.Len(t, got, maxSuggestions)
}
