package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	var gen UUIDv7Generator

	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.LessOrEqual(t, a[:13], b[:13], "v7 ids sort by time")
}
