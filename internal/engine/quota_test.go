package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIterationLimiter_WithinLimit tests normal operation within the cap.
func TestIterationLimiter_WithinLimit(t *testing.T) {
	l := NewIterationLimiter(3)

	for i := 0; i < 3; i++ {
		assert.NoError(t, l.Check("main"), "pass %d should be allowed", i+1)
	}
	assert.Equal(t, 3, l.Current())
	assert.Equal(t, 3, l.Max())
}

// TestIterationLimiter_ExceedsLimit tests the overrun error.
func TestIterationLimiter_ExceedsLimit(t *testing.T) {
	l := NewIterationLimiter(1)
	require.NoError(t, l.Check("main"))

	err := l.Check("main")
	require.Error(t, err)

	var fe *FixedPointError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 2, fe.Iterations)
	assert.Equal(t, 1, fe.Limit)
}

func TestFixedPointError_Error(t *testing.T) {
	err := &FixedPointError{Chunk: "vendor", Iterations: 33, Limit: 32}
	assert.Equal(t, "FIXED_POINT_OVERRUN: chunk vendor did not reach a fixed point: 33 passes > 32 limit", err.Error())
}

func TestIsFixedPointOverrun_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("resolve chunk main: %w", &FixedPointError{Chunk: "main"})
	assert.True(t, IsFixedPointOverrun(wrapped))
	assert.False(t, IsFixedPointOverrun(fmt.Errorf("other")))
}
