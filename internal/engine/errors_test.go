package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError_Error(t *testing.T) {
	err := newExecutionError("req-7", "get", errors.New("connection reset"))
	assert.Equal(t, "EXECUTION_FAILED: request failed (request=req-7): connection reset", err.Error())

	bare := &RuntimeError{Code: ErrCodeNoExecutor, Message: "no event store configured"}
	assert.Equal(t, "NO_EXECUTOR: no event store configured", bare.Error())
}

func TestRuntimeError_Unwrap(t *testing.T) {
	cause := errors.New("locked")
	err := fmt.Errorf("handle: %w", newConfigError("req-1", cause))

	assert.True(t, IsRuntimeError(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsRuntimeError(cause))
}
