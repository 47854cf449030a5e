package engine

import (
	"errors"
	"fmt"

	"github.com/sladyn98/rspack/internal/graph"
)

// IterationLimiter counts fixed-point passes for one chunk and enforces the
// iteration cap.
//
// A rule set that keeps changing the accumulator never converges. The cap
// turns that design error into a deterministic failure instead of a hang.
type IterationLimiter struct {
	max     int
	current int
}

// NewIterationLimiter creates a limiter allowing max passes.
func NewIterationLimiter(max int) *IterationLimiter {
	return &IterationLimiter{max: max}
}

// Check increments the pass counter and validates it against the cap.
// Returns FixedPointError once the cap is exceeded.
func (l *IterationLimiter) Check(chunk graph.ChunkKey) error {
	l.current++
	if l.current > l.max {
		return &FixedPointError{
			Chunk:      chunk,
			Iterations: l.current,
			Limit:      l.max,
		}
	}
	return nil
}

// Current returns the number of passes counted so far.
func (l *IterationLimiter) Current() int {
	return l.current
}

// Max returns the cap.
func (l *IterationLimiter) Max() int {
	return l.max
}

// FixedPointError is returned when a chunk's rule set does not converge
// within the iteration cap. It is an internal invariant violation.
type FixedPointError struct {
	Chunk      graph.ChunkKey
	Iterations int
	Limit      int
}

// Error implements the error interface.
func (e *FixedPointError) Error() string {
	return fmt.Sprintf("FIXED_POINT_OVERRUN: chunk %s did not reach a fixed point: %d passes > %d limit",
		e.Chunk, e.Iterations, e.Limit)
}

// IsFixedPointOverrun returns true if err is, or wraps, a FixedPointError.
func IsFixedPointOverrun(err error) bool {
	var fe *FixedPointError
	return errors.As(err, &fe)
}
