package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Canonical(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceEvent{
		Step:  0,
		At:    "2025-01-15T10:00:00.000Z",
		Send:  "/help",
		Reply: "a\nb",
	})

	data, err := Snapshot("help", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"help","trace":[{"at":"2025-01-15T10:00:00.000Z","reply":"a\nb","send":"/help","step":0}]}`,
		string(data))
}

func TestSnapshot_EmptyTrace(t *testing.T) {
	data, err := Snapshot("empty", NewResult())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"empty"`)
}
